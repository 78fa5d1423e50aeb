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

// Package envelope implements the versioned request envelope: a small,
// self-addressing wire format wrapping the mailbox's four request
// shapes. The envelope's "v" field encodes protocol tag, version,
// format, and length; its "d" field is the SAID of the encoding with
// "d" itself blanked to a fixed-width placeholder during derivation.
package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sage-x-project/keri-mailbox/ident"
)

// Envelope type tags.
const (
	TypeExchange = "exn"
	TypeQuery    = "qry"
)

// Route tags for the two exchange request shapes. Query requests carry
// no route tag.
const (
	RouteForward  = "fwd"
	RouteSetToken = "/auth/f"
)

const (
	protocolTag     = "MSGB"
	protocolVersion = "00"
	formatJSON      = "JSON"
)

// vFieldWidth is the fixed byte width of the "v" field's value:
// 4 (tag) + 2 (version) + 4 (format) + 6 (hex length) + 1 (terminator).
const vFieldWidth = len(protocolTag) + len(protocolVersion) + len(formatJSON) + 6 + 1

func buildV(length int) string {
	return fmt.Sprintf("%s%s%s%06x_", protocolTag, protocolVersion, formatJSON, length)
}

// ErrUnknownMessage is returned by Parse when the envelope's JSON shape
// matches none of the four recognized requests, or isn't valid JSON.
var ErrUnknownMessage = errors.New("envelope: unknown message shape")

// wireEnvelope is the canonical field order the spec's example fixes:
// v, t, d, r, i, a, s, f. Go's encoding/json marshals struct fields in
// declaration order, so this order must not be reshuffled.
type wireEnvelope struct {
	V string          `json:"v"`
	T string          `json:"t"`
	D string          `json:"d"`
	R string          `json:"r,omitempty"`
	I string          `json:"i,omitempty"`
	A json.RawMessage `json:"a,omitempty"`
	S *uint64         `json:"s,omitempty"`
	F string          `json:"f,omitempty"`
}

// build marshals an envelope with the given route fields, computing its
// "v" length tag and self-addressing "d" digest. The three-pass
// construction mirrors the spec: the placeholder widths of both "v" and
// "d" are fixed, so filling them in never changes the encoded byte
// length computed on the first pass.
func build(t, r, i string, a json.RawMessage, s *uint64, f string) ([]byte, ident.Digest, error) {
	env := wireEnvelope{
		V: buildV(0),
		T: t,
		D: ident.Placeholder(),
		R: r,
		I: i,
		A: a,
		S: s,
		F: f,
	}

	raw, err := json.Marshal(env)
	if err != nil {
		return nil, "", fmt.Errorf("envelope: marshal for length: %w", err)
	}
	env.V = buildV(len(raw))

	raw, err = json.Marshal(env)
	if err != nil {
		return nil, "", fmt.Errorf("envelope: marshal for digest: %w", err)
	}
	digest := ident.DeriveSAID(raw)
	env.D = digest.String()

	final, err := json.Marshal(env)
	if err != nil {
		return nil, "", fmt.Errorf("envelope: marshal final: %w", err)
	}
	return final, digest, nil
}

func uintPtr(v uint64) *uint64 { return &v }

// ErrMalformedFrame means body's "v" field doesn't carry the expected
// protocol-tag/version/format/length prefix.
var ErrMalformedFrame = errors.New("envelope: malformed v field")

// PayloadLength reads the declared encoded length out of body's "v"
// field without fully unmarshaling body. A CESR framer uses this to
// find where the JSON payload ends and any attachment groups begin,
// since "v" is always the envelope's first field.
func PayloadLength(body []byte) (int, error) {
	const fieldPrefix = `{"v":"`
	if len(body) < len(fieldPrefix)+vFieldWidth {
		return 0, ErrMalformedFrame
	}
	v := string(body[len(fieldPrefix) : len(fieldPrefix)+vFieldWidth])

	wantPrefix := protocolTag + protocolVersion + formatJSON
	if !strings.HasPrefix(v, wantPrefix) || v[len(v)-1] != '_' {
		return 0, ErrMalformedFrame
	}

	hexLen := v[len(wantPrefix) : len(v)-1]
	length, err := strconv.ParseInt(hexLen, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	return int(length), nil
}
