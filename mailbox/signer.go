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
	"crypto/ed25519"
	"errors"

	"github.com/sage-x-project/keri-mailbox/crypto"
	"github.com/sage-x-project/keri-mailbox/ident"
)

// ErrNotEd25519 is returned by NewSigner when given a key pair whose
// public key isn't an Ed25519 key; the mailbox's own identifier is
// always a basic (Ed25519) prefix.
var ErrNotEd25519 = errors.New("mailbox: signer requires an Ed25519 key pair")

// Signer owns the mailbox's own signing key. Signing doesn't mutate any
// shared state, so unlike the other components it's a plain wrapper, not
// an actor: concurrent Sign calls are already safe.
type Signer struct {
	keyPair crypto.KeyPair
	id      ident.ID
}

// NewSigner derives the mailbox's own basic identifier from keyPair's
// public key.
func NewSigner(keyPair crypto.KeyPair) (*Signer, error) {
	pub, ok := keyPair.PublicKey().(ed25519.PublicKey)
	if !ok {
		return nil, ErrNotEd25519
	}
	return &Signer{keyPair: keyPair, id: ident.BasicID(pub)}, nil
}

// Sign produces a detached signature over data. It also satisfies
// watcher.Signer structurally, so the Verifier can hand a *Signer
// straight to a watcher.Client without an adapter.
func (s *Signer) Sign(data []byte) ([]byte, error) {
	return s.keyPair.Sign(data)
}

// PublicID returns the mailbox's own basic identifier.
func (s *Signer) PublicID() ident.ID {
	return s.id
}
