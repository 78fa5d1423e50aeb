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

package mailbox

import (
	"errors"
	"fmt"

	"github.com/sage-x-project/keri-mailbox/ident"
)

// Sentinel errors surfaced across the facade. No third-party errors
// package is in the reachable dependency set for this taxonomy, so it's
// realized with stdlib errors.Is/errors.As-compatible wrapping.
var (
	// ErrUnparsable means the request body isn't valid CESR or JSON.
	ErrUnparsable = errors.New("mailbox: body is not valid CESR or JSON")
	// ErrUnknownMessage means the JSON shape matches none of the four
	// recognized requests.
	ErrUnknownMessage = errors.New("mailbox: message shape matches no known request")
	// ErrVerificationFailure means every signature was checkable but at
	// least one failed.
	ErrVerificationFailure = errors.New("mailbox: signature verification failed")
	// ErrMissingOobi means there's no recorded route to fetch the
	// sender's key state.
	ErrMissingOobi = errors.New("mailbox: no route to fetch sender key state")
	// ErrOobiParsingError means a submitted OOBI record was malformed.
	ErrOobiParsingError = errors.New("mailbox: malformed oobi record")
	// ErrOobiError means the OOBI store or watcher rejected a record.
	ErrOobiError = errors.New("mailbox: oobi record rejected")
	// ErrKilledSender means the component a request targeted is gone.
	ErrKilledSender = errors.New("mailbox: component task is gone")
	// ErrBackpressure means a component's bounded inbox is full; the
	// caller should retry rather than block indefinitely.
	ErrBackpressure = errors.New("mailbox: component inbox is full")
)

// ResponseNotReady means the sender's key state fetch is in progress;
// the caller should poll GetResponse(Digest) later.
type ResponseNotReady struct {
	Digest ident.Digest
}

func (e *ResponseNotReady) Error() string {
	return fmt.Sprintf("mailbox: response not ready, poll digest %s", e.Digest)
}

// missingEvent is Verifier-internal: verify() returns it when a local KEL
// lookup fails. handleVerify maps every occurrence to ErrMissingOobi or
// ResponseNotReady before it ever reaches a caller.
type missingEvent struct {
	prefix      ident.ID
	eventDigest ident.Digest
}

func (e *missingEvent) Error() string {
	return fmt.Sprintf("mailbox: missing key event for %s", e.prefix)
}
