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
	"fmt"

	"github.com/sage-x-project/keri-mailbox/envelope"
	"github.com/sage-x-project/keri-mailbox/ident"
)

// Validator owns Storage/Notify handles and a ResponseStore handle. It
// interprets the four request shapes and drives them exactly as
// specified; it never touches signatures or key state (that's the
// Verifier's job upstream).
type Validator struct {
	storage   *StorageService
	notify    *NotifyService
	responses *ResponseStore
}

// NewValidator wires a Validator to its three dependencies.
func NewValidator(storage *StorageService, notify *NotifyService, responses *ResponseStore) *Validator {
	return &Validator{storage: storage, notify: notify, responses: responses}
}

// Validate parses messageJSON and dispatches it. The returned string is
// nil when the request has no reply (Forward, SetToken); it's non-nil
// for a Query whose receiver/range matched something.
func (v *Validator) Validate(messageJSON []byte) (*string, error) {
	req, err := envelope.Parse(messageJSON)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownMessage, err)
	}

	switch r := req.(type) {
	case envelope.ForwardRequest:
		digest := ident.DeriveSAID([]byte(r.Payload))
		if err := v.storage.Save(r.Receiver, r.Payload, digest); err != nil {
			return nil, err
		}
		return nil, nil

	case envelope.SetTokenRequest:
		if err := v.notify.SaveToken(r.ID, r.Token); err != nil {
			return nil, err
		}
		return nil, nil

	case envelope.QueryBySnRequest:
		result, ok, err := v.storage.GetByIndex(r.Receiver, r.Index)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		return &result, nil

	case envelope.QueryByDigestRequest:
		result, ok, err := v.storage.GetByDigest(r.Receiver, r.Digests)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		return &result, nil

	default:
		return nil, ErrUnknownMessage
	}
}

// ProcessAndSave runs Validate and, if it produced a reply, stores it
// under the SAID of the verified message bytes so a later GetResponse
// call by that digest can retrieve it.
func (v *Validator) ProcessAndSave(messageJSON []byte) {
	reply, err := v.Validate(messageJSON)
	if err != nil || reply == nil {
		return
	}
	digest := ident.DeriveSAID(messageJSON)
	v.responses.Save(digest, *reply)
}
