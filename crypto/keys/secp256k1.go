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
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	mailboxcrypto "github.com/sage-x-project/keri-mailbox/crypto"
)

// secp256k1KeyPair implements KeyPair for Secp256k1 keys. A mailbox sender
// may use a secp256k1 basic prefix instead of Ed25519; the verifier must
// be able to check either.
type secp256k1KeyPair struct {
	privateKey *secp256k1.PrivateKey
	publicKey  *secp256k1.PublicKey
	id         string
}

// GenerateSecp256k1KeyPair generates a new Secp256k1 key pair.
func GenerateSecp256k1KeyPair() (mailboxcrypto.KeyPair, error) {
	privateKey, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	publicKey := privateKey.PubKey()
	hash := sha256.Sum256(publicKey.SerializeCompressed())
	return &secp256k1KeyPair{
		privateKey: privateKey,
		publicKey:  publicKey,
		id:         hex.EncodeToString(hash[:8]),
	}, nil
}

func (kp *secp256k1KeyPair) PublicKey() crypto.PublicKey { return kp.publicKey.ToECDSA() }

func (kp *secp256k1KeyPair) Type() mailboxcrypto.KeyType { return mailboxcrypto.KeyTypeSecp256k1 }

func (kp *secp256k1KeyPair) Sign(message []byte) ([]byte, error) {
	hash := sha256.Sum256(message)
	r, s, err := ecdsa.Sign(rand.Reader, kp.privateKey.ToECDSA(), hash[:])
	if err != nil {
		return nil, err
	}
	return serializeSignature(r, s), nil
}

func (kp *secp256k1KeyPair) Verify(message, signature []byte) error {
	hash := sha256.Sum256(message)
	r, s, err := deserializeSignature(signature)
	if err != nil {
		return mailboxcrypto.ErrInvalidSignature
	}
	if !ecdsa.Verify(kp.publicKey.ToECDSA(), hash[:], r, s) {
		return mailboxcrypto.ErrInvalidSignature
	}
	return nil
}

func (kp *secp256k1KeyPair) ID() string { return kp.id }

// VerifySecp256k1 checks a detached 64-byte (r||s) signature against a
// compressed or uncompressed secp256k1 public key.
func VerifySecp256k1(publicKey *secp256k1.PublicKey, message, signature []byte) error {
	hash := sha256.Sum256(message)
	r, s, err := deserializeSignature(signature)
	if err != nil {
		return mailboxcrypto.ErrInvalidSignature
	}
	if !ecdsa.Verify(publicKey.ToECDSA(), hash[:], r, s) {
		return mailboxcrypto.ErrInvalidSignature
	}
	return nil
}

func serializeSignature(r, s *big.Int) []byte {
	rBytes := r.Bytes()
	sBytes := s.Bytes()
	signature := make([]byte, 64)
	copy(signature[32-len(rBytes):32], rBytes)
	copy(signature[64-len(sBytes):64], sBytes)
	return signature
}

func deserializeSignature(data []byte) (*big.Int, *big.Int, error) {
	if len(data) != 64 {
		return nil, nil, mailboxcrypto.ErrInvalidSignature
	}
	r := new(big.Int).SetBytes(data[:32])
	s := new(big.Int).SetBytes(data[32:])
	return r, s, nil
}
