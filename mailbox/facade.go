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

// Package mailbox is the core: the verification-and-dispatch pipeline
// wiring NotifyService, StorageService, OobiService, ResponseStore,
// Signer, ReverifyStore, Validator and Verifier behind a single Facade.
package mailbox

import (
	"context"

	"github.com/sage-x-project/keri-mailbox/config"
	"github.com/sage-x-project/keri-mailbox/crypto"
	"github.com/sage-x-project/keri-mailbox/ident"
	"github.com/sage-x-project/keri-mailbox/internal/logger"
	"github.com/sage-x-project/keri-mailbox/kel"
	"github.com/sage-x-project/keri-mailbox/oobi"
	"github.com/sage-x-project/keri-mailbox/push"
	"github.com/sage-x-project/keri-mailbox/watcher"
)

// Facade wires every component together at startup and is the only
// entry point httpapi needs. It also holds the Verifier-to-Validator
// back-edge: a plain struct field rather than an interface, since
// there's exactly one concrete Validator and mailbox is a single
// package, so no import cycle is possible.
type Facade struct {
	verifier  *Verifier
	validator *Validator
	responses *ResponseStore

	// OobiService is exported directly: /oobi/{id}, /oobi/{cid}/{role}/{eid}
	// and /register aren't among the facade's four listed operations, so
	// httpapi talks to the component handle for those routes.
	OobiService *OobiService

	selfID    ident.ID
	publicURL string
}

// NewFacade constructs every component in dependency order (leaves
// first) and returns the wired Facade.
func NewFacade(
	cfg *config.Config,
	log logger.Logger,
	keyPair crypto.KeyPair,
	kelStore kel.Store,
	oobiStore oobi.Store,
	watcherClient watcher.Client,
	sender push.Sender,
) (*Facade, error) {
	signer, err := NewSigner(keyPair)
	if err != nil {
		return nil, err
	}

	notify := NewNotifyService(sender, log)
	storage := NewStorageService(notify)
	responses := NewResponseStore()
	validator := NewValidator(storage, notify, responses)
	reverify := NewReverifyStore()
	oobiSvc := NewOobiService(oobiStore)
	verifier := NewVerifier(kelStore, signer, watcherClient, oobiStore, reverify, validator, log)

	return &Facade{
		verifier:    verifier,
		validator:   validator,
		responses:   responses,
		OobiService: oobiSvc,
		selfID:      signer.PublicID(),
		publicURL:   cfg.Mailbox.PublicURL,
	}, nil
}

// ProcessMessage verifies payload against signatures and, on success,
// executes it. The returned string is the immediate reply (a Query
// result), nil when the request has none (Forward, SetToken).
func (f *Facade) ProcessMessage(ctx context.Context, payload []byte, signatures []ident.Signature) (*string, error) {
	if err := f.verifier.Verify(ctx, payload, signatures); err != nil {
		return nil, err
	}
	return f.validator.Validate(payload)
}

// ResolveOobi submits a single OOBI record for resolution.
func (f *Facade) ResolveOobi(ctx context.Context, oobiJSON []byte) error {
	return f.verifier.Oobi(ctx, oobiJSON)
}

// GetResponse retrieves a previously deferred response by its request
// digest.
func (f *Facade) GetResponse(digest ident.Digest) (string, bool) {
	return f.responses.Get(digest)
}

// Oobi returns the mailbox's own self-introduction: a location-scheme
// record binding its identifier to its public URL. This realizes the
// ambiguous fourth facade operation the spec names only as "oobi",
// distinct from OobiService's per-endpoint lookups (see DESIGN.md).
func (f *Facade) Oobi() oobi.Reply {
	return oobi.Reply{
		Record: oobi.Record{
			Kind: oobi.LocationSchemeKind,
			Location: &oobi.LocationScheme{
				EndpointID: f.selfID,
				Transport:  "http",
				URL:        f.publicURL,
			},
		},
	}
}
