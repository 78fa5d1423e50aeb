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

package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/sage-x-project/keri-mailbox/envelope"
	"github.com/sage-x-project/keri-mailbox/ident"
)

// attachmentLengthDigits is the width of the hex length prefix in front
// of every attachment group, mirroring the envelope's own "v" field
// length encoding so the whole frame uses one convention.
const attachmentLengthDigits = 6

// ErrMalformedFrame means the POSTed body isn't valid CESR framing: a
// JSON payload (whose own length is read from its "v" field) followed
// by zero or more length-prefixed signature attachment groups.
var ErrMalformedFrame = errors.New("httpapi: malformed cesr frame")

// splitCESR separates a POSTed body into its canonical JSON payload and
// the flattened list of signatures carried by every attachment group
// that follows it. This is the minimal subset of CESR framing the core
// consumes — real CESR's full attachment grammar (seals, receipts,
// indexed signature groups with their own codes) is out of scope.
func splitCESR(body []byte) (payload []byte, signatures []ident.Signature, err error) {
	length, err := envelope.PayloadLength(body)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if length < 0 || length > len(body) {
		return nil, nil, fmt.Errorf("%w: declared payload length exceeds body", ErrMalformedFrame)
	}
	payload = body[:length]

	rest := body[length:]
	for len(rest) > 0 {
		if len(rest) < attachmentLengthDigits {
			return nil, nil, fmt.Errorf("%w: truncated attachment length prefix", ErrMalformedFrame)
		}
		groupLen, err := strconv.ParseUint(string(rest[:attachmentLengthDigits]), 16, 32)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: attachment length prefix: %v", ErrMalformedFrame, err)
		}
		rest = rest[attachmentLengthDigits:]
		if uint64(len(rest)) < groupLen {
			return nil, nil, fmt.Errorf("%w: truncated attachment group", ErrMalformedFrame)
		}

		var group []ident.Signature
		if err := json.Unmarshal(rest[:groupLen], &group); err != nil {
			return nil, nil, fmt.Errorf("%w: attachment group: %v", ErrMalformedFrame, err)
		}
		signatures = append(signatures, group...)
		rest = rest[groupLen:]
	}

	return payload, signatures, nil
}

// buildAttachmentGroup frames a single signature list as one attachment
// group: a 6-hex-digit length prefix followed by its JSON array bytes.
// Used by tests and by any future client helper that needs to produce a
// CESR-framed request body.
func buildAttachmentGroup(signatures []ident.Signature) ([]byte, error) {
	raw, err := json.Marshal(signatures)
	if err != nil {
		return nil, fmt.Errorf("httpapi: marshal attachment group: %w", err)
	}
	return []byte(fmt.Sprintf("%06x", len(raw)) + string(raw)), nil
}
