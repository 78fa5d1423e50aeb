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

package ident

import (
	"crypto/ed25519"
	"errors"

	"github.com/sage-x-project/keri-mailbox/crypto"
	"github.com/sage-x-project/keri-mailbox/crypto/keys"
)

// SignatureKind tags the three signature shapes a request may carry.
type SignatureKind int

const (
	// Transferable signatures reference either a specific key event or
	// the signer's current (last-establishment) key state.
	Transferable SignatureKind = iota
	// NonTransferableCouplet carries one or more (public key, signature)
	// pairs; all must verify.
	NonTransferableCouplet
	// NonTransferableIndexed is recognized but unsupported by this core.
	NonTransferableIndexed
)

func (k SignatureKind) String() string {
	switch k {
	case Transferable:
		return "transferable"
	case NonTransferableCouplet:
		return "non_transferable_couplet"
	case NonTransferableIndexed:
		return "non_transferable_indexed"
	default:
		return "unknown"
	}
}

// ErrUnsupportedSignature is returned for a NonTransferableIndexed
// signature, which this core recognizes but never verifies.
var ErrUnsupportedSignature = errors.New("ident: non-transferable indexed signatures are unsupported")

// KeyEventSeal pins a transferable signature to the key configuration in
// force at a specific key event.
type KeyEventSeal struct {
	Prefix      ID     `json:"prefix"`
	Sn          uint64 `json:"sn"`
	EventDigest Digest `json:"event_digest"`
}

// LastEstablishment pins a transferable signature to the signer's
// current key state rather than a specific historical event.
type LastEstablishment struct {
	Prefix ID `json:"prefix"`
}

// Couplet is one (public key, signature) pair of a non-transferable
// couplet signature.
type Couplet struct {
	PublicKey ed25519.PublicKey `json:"public_key"`
	Sig       []byte            `json:"sig"`
}

// Signature is the tagged union the mailbox accepts on every request:
// a transferable signature referencing a key event or current state, a
// non-transferable couplet list, or an unsupported indexed signature.
type Signature struct {
	Kind SignatureKind `json:"kind"`

	// Populated when Kind == Transferable. Exactly one of Seal/Last is
	// set; Sig carries the raw signature bytes.
	Seal *KeyEventSeal      `json:"seal,omitempty"`
	Last *LastEstablishment `json:"last,omitempty"`
	Sig  []byte             `json:"sig,omitempty"`

	// Populated when Kind == NonTransferableCouplet.
	Couplets []Couplet `json:"couplets,omitempty"`
}

// VerifyCouplets checks every (public key, signature) pair in a
// non-transferable couplet signature against data. All pairs must
// verify; an empty couplet list fails closed.
func (s *Signature) VerifyCouplets(data []byte) error {
	if s.Kind != NonTransferableCouplet {
		return errors.New("ident: VerifyCouplets called on a non-couplet signature")
	}
	if len(s.Couplets) == 0 {
		return crypto.ErrInvalidSignature
	}
	for _, c := range s.Couplets {
		if err := keys.VerifyEd25519(c.PublicKey, data, c.Sig); err != nil {
			return err
		}
	}
	return nil
}

// VerifyAgainstKeys checks a transferable signature's raw bytes against
// data using any one of the candidate current/event-scoped public keys.
// KERI establishment events may carry more than one signing key even
// for a transferable identifier the core treats as single-signature;
// the first candidate that verifies wins.
func (s *Signature) VerifyAgainstKeys(data []byte, candidates []ed25519.PublicKey) error {
	if s.Kind != Transferable {
		return errors.New("ident: VerifyAgainstKeys called on a non-transferable signature")
	}
	for _, pk := range candidates {
		if keys.VerifyEd25519(pk, data, s.Sig) == nil {
			return nil
		}
	}
	return crypto.ErrInvalidSignature
}
