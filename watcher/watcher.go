// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package watcher is the HTTP client for the external key-state watcher
// service: it resolves the key state of identifiers the mailbox doesn't
// have a local KEL for, and forwards OOBI records the mailbox resolves
// so the watcher can start tracking them too.
package watcher

import (
	"context"
	"errors"

	"github.com/sage-x-project/keri-mailbox/ident"
	"github.com/sage-x-project/keri-mailbox/kel"
	"github.com/sage-x-project/keri-mailbox/oobi"
)

// Signer signs outgoing key-state queries. mailbox.Signer satisfies this
// interface structurally; it's declared here rather than imported to
// keep watcher free of a dependency on the mailbox package.
type Signer interface {
	Sign(data []byte) ([]byte, error)
	PublicID() ident.ID
}

// ErrResponseNotReady is returned by QueryKeyState when the watcher has
// accepted the query but hasn't finished fetching the identifier's key
// state upstream yet. The verifier's Find task sleeps and retries on
// this error.
var ErrResponseNotReady = errors.New("watcher: key state not ready")

// Client queries and feeds the external watcher service.
type Client interface {
	// QueryKeyState asks the watcher for id's current key state, signing
	// the query with signer so the watcher can attribute the request to
	// this mailbox.
	QueryKeyState(ctx context.Context, signer Signer, id ident.ID) (*kel.KeyState, error)
	// ForwardOobi hands a resolved OOBI record to the watcher so it
	// starts tracking the endpoint/controller it names.
	ForwardOobi(ctx context.Context, mailboxID ident.ID, record oobi.Record) error
}
