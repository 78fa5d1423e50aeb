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

// Package crypto provides the key-pair abstraction the mailbox's Signer
// and the ident package's signature verification build on.
package crypto

import (
	"crypto"
	"errors"
)

// KeyType names a supported basic-prefix algorithm.
type KeyType string

const (
	KeyTypeEd25519   KeyType = "Ed25519"
	KeyTypeSecp256k1 KeyType = "Secp256k1"
)

// KeyPair is a cryptographic key pair capable of signing and verifying.
type KeyPair interface {
	PublicKey() crypto.PublicKey
	Type() KeyType
	Sign(message []byte) ([]byte, error)
	Verify(message, signature []byte) error
	// ID is a short fingerprint derived from the public key, stable across
	// process restarts for the same key material.
	ID() string
}

// KeyStorage stores key pairs under a caller-chosen ID. It exists so the
// mailbox's signer can be seeded from a sealed file without the rest of
// the core depending on a concrete storage backend.
type KeyStorage interface {
	Store(id string, keyPair KeyPair) error
	Load(id string) (KeyPair, error)
	Exists(id string) bool
}

var (
	ErrKeyNotFound      = errors.New("crypto: key not found")
	ErrInvalidSignature = errors.New("crypto: invalid signature")
	ErrInvalidKeyType   = errors.New("crypto: invalid key type")
)
