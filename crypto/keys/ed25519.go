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

package keys

import (
	"crypto"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	mailboxcrypto "github.com/sage-x-project/keri-mailbox/crypto"
)

// ed25519KeyPair implements KeyPair for Ed25519 keys.
type ed25519KeyPair struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
	id         string
}

// GenerateEd25519KeyPair generates a fresh Ed25519 key pair.
func GenerateEd25519KeyPair() (mailboxcrypto.KeyPair, error) {
	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return newEd25519KeyPair(publicKey, privateKey), nil
}

// NewEd25519KeyPairFromSeed derives a key pair from a 32-byte seed, so the
// mailbox's own identifier stays stable across restarts when configured
// with a `seed`.
func NewEd25519KeyPairFromSeed(seed []byte) (mailboxcrypto.KeyPair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, mailboxcrypto.ErrInvalidKeyType
	}
	privateKey := ed25519.NewKeyFromSeed(seed)
	publicKey := privateKey.Public().(ed25519.PublicKey)
	return newEd25519KeyPair(publicKey, privateKey), nil
}

func newEd25519KeyPair(publicKey ed25519.PublicKey, privateKey ed25519.PrivateKey) *ed25519KeyPair {
	hash := sha256.Sum256(publicKey)
	return &ed25519KeyPair{
		privateKey: privateKey,
		publicKey:  publicKey,
		id:         hex.EncodeToString(hash[:8]),
	}
}

func (kp *ed25519KeyPair) PublicKey() crypto.PublicKey { return kp.publicKey }

func (kp *ed25519KeyPair) Type() mailboxcrypto.KeyType { return mailboxcrypto.KeyTypeEd25519 }

func (kp *ed25519KeyPair) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(kp.privateKey, message), nil
}

func (kp *ed25519KeyPair) Verify(message, signature []byte) error {
	if !ed25519.Verify(kp.publicKey, message, signature) {
		return mailboxcrypto.ErrInvalidSignature
	}
	return nil
}

func (kp *ed25519KeyPair) ID() string { return kp.id }

// VerifyEd25519 checks a detached signature against a raw public key,
// without needing a KeyPair wrapper. Used by ident.Signature verification
// where only the public key bytes are known.
func VerifyEd25519(publicKey ed25519.PublicKey, message, signature []byte) error {
	if !ed25519.Verify(publicKey, message, signature) {
		return mailboxcrypto.ErrInvalidSignature
	}
	return nil
}
