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

package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// ErrSealedSeedCorrupt is returned by OpenSeed when the sealed blob fails
// authentication, e.g. wrong passphrase or truncated file.
var ErrSealedSeedCorrupt = errors.New("crypto: sealed seed failed to authenticate")

// SealSeed encrypts a raw Ed25519 seed at rest under a passphrase, so the
// mailbox's own signing key never touches disk in the clear. The key is
// derived from the passphrase with HKDF-SHA256 and the seed is sealed with
// ChaCha20-Poly1305, mirroring the handshake session's AEAD key schedule.
// Output layout: salt(16) || nonce(12) || ciphertext.
func SealSeed(seed []byte, passphrase string) ([]byte, error) {
	salt := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("crypto: generate salt: %w", err)
	}

	aead, err := newSeedAEAD(passphrase, salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, chacha20poly1305.NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("crypto: generate nonce: %w", err)
	}

	ciphertext := aead.Seal(nil, nonce, seed, nil)

	out := make([]byte, 0, len(salt)+len(nonce)+len(ciphertext))
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, ciphertext...)
	return out, nil
}

// OpenSeed reverses SealSeed.
func OpenSeed(sealed []byte, passphrase string) ([]byte, error) {
	if len(sealed) < 16+chacha20poly1305.NonceSize {
		return nil, ErrSealedSeedCorrupt
	}
	salt := sealed[:16]
	nonce := sealed[16 : 16+chacha20poly1305.NonceSize]
	ciphertext := sealed[16+chacha20poly1305.NonceSize:]

	aead, err := newSeedAEAD(passphrase, salt)
	if err != nil {
		return nil, err
	}

	seed, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrSealedSeedCorrupt
	}
	return seed, nil
}

func newSeedAEAD(passphrase string, salt []byte) (interface {
	Seal(dst, nonce, plaintext, additionalData []byte) []byte
	Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
}, error) {
	hk := hkdf.New(sha256.New, []byte(passphrase), salt, []byte("keri-mailbox/seed"))
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hk, key); err != nil {
		return nil, fmt.Errorf("crypto: derive seal key: %w", err)
	}
	return chacha20poly1305.New(key)
}
