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

// Package ident holds the self-certifying identifier, digest, and
// signature types shared by every other package in the mailbox: the
// KEL/OOBI stores key state by ident.ID, the watcher client queries and
// forwards by ident.ID, and the verifier checks ident.Signature values
// against a local ident.Digest.
package ident

import (
	"crypto/ed25519"
	"crypto/sha256"
	"strings"

	"github.com/mr-tron/base58"
)

// ID is an opaque self-certifying identifier. Equality is byte equality
// on the underlying string.
type ID string

// Prefix characters identifying the two identifier shapes this mailbox
// recognizes. They mirror the BasicPrefix/SelfAddressing prefix letters
// used by the KERI prefix derivation table, recreated here without a
// CESR library.
const (
	PrefixBasic        = "B"
	PrefixTransferable = "E"
)

// BasicID derives a basic (one-key, non-transferable) prefix from an
// Ed25519 public key: "B" followed by the base58 encoding of the raw
// key bytes.
func BasicID(publicKey ed25519.PublicKey) ID {
	return ID(PrefixBasic + base58.Encode(publicKey))
}

// TransferableID derives an evolvable prefix from the bytes of a
// controller's founding (inception) event: "E" followed by the base58
// encoding of the SHA-256 digest of those bytes.
func TransferableID(foundingEventBytes []byte) ID {
	sum := sha256.Sum256(foundingEventBytes)
	return ID(PrefixTransferable + base58.Encode(sum[:]))
}

// String returns the identifier's wire form.
func (id ID) String() string { return string(id) }

// Empty reports whether id carries no value.
func (id ID) Empty() bool { return id == "" }

// IsBasic reports whether id uses the basic (one-key) prefix.
func (id ID) IsBasic() bool { return strings.HasPrefix(string(id), PrefixBasic) }

// IsTransferable reports whether id uses the transferable (KEL-evolvable) prefix.
func (id ID) IsTransferable() bool { return strings.HasPrefix(string(id), PrefixTransferable) }
