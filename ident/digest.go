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
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// Digest is a content-addressed self-addressing identifier (SAID):
// equality is byte equality on the underlying string.
type Digest string

// DigestPrefix marks a Digest as self-addressing, mirroring the "E"
// derivation code used for SHA-256 self-addressing digests.
const DigestPrefix = "E"

// SAIDLength is the fixed wire length of a Digest: the one-byte prefix
// plus the unpadded base64url encoding of a 32-byte SHA-256 sum.
const SAIDLength = len(DigestPrefix) + 43 // base64.RawURLEncoding.EncodedLen(sha256.Size)

// Placeholder is the fixed-width run of '#' bytes a caller substitutes
// for the "d" field of a structure before computing its SAID, so the
// digest is computed over bytes of the same length the final, filled-in
// encoding will have.
func Placeholder() string {
	return strings.Repeat("#", SAIDLength)
}

// DeriveSAID hashes canonical bytes with SHA-256 and returns the
// base64url digest prefixed with "E". No Blake3 implementation exists
// anywhere in the reachable dependency set, so this named hash function
// is realized with the standard library; see DESIGN.md.
//
// Callers computing the SAID of a self-referential structure (the
// envelope) must first marshal it with its "d" field set to
// Placeholder(), hash the result, then re-marshal with "d" set to the
// returned Digest. DeriveSAID itself only hashes; it has no notion of
// which field is self-referential.
func DeriveSAID(canonicalBytes []byte) Digest {
	sum := sha256.Sum256(canonicalBytes)
	return Digest(DigestPrefix + base64.RawURLEncoding.EncodeToString(sum[:]))
}

// String returns the digest's wire form.
func (d Digest) String() string { return string(d) }

// Empty reports whether d carries no value.
func (d Digest) Empty() bool { return d == "" }
