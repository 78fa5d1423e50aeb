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

package watcher

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sage-x-project/keri-mailbox/ident"
	"github.com/sage-x-project/keri-mailbox/kel"
	"github.com/sage-x-project/keri-mailbox/oobi"
)

// HTTPClient is the default Client: JSON over POST, with a context-
// scoped timeout on every round trip.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates a watcher client against baseURL, bounding every
// request to timeout.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type keyStateQuery struct {
	ID        string `json:"id"`
	Requester string `json:"requester"`
	Sig       []byte `json:"sig"`
}

type keyStateResponse struct {
	Ready bool          `json:"ready"`
	State *wireKeyState `json:"state,omitempty"`
}

type wireKeyState struct {
	Prefix      string   `json:"prefix"`
	Sn          uint64   `json:"sn"`
	EventDigest string   `json:"event_digest"`
	Keys        []string `json:"keys"`
	Threshold   int      `json:"threshold"`
	Witnesses   []string `json:"witnesses"`
}

// QueryKeyState implements Client.
func (c *HTTPClient) QueryKeyState(ctx context.Context, signer Signer, id ident.ID) (*kel.KeyState, error) {
	query := keyStateQuery{ID: id.String(), Requester: signer.PublicID().String()}
	sig, err := signer.Sign([]byte(query.ID + query.Requester))
	if err != nil {
		return nil, fmt.Errorf("watcher: sign query: %w", err)
	}
	query.Sig = sig

	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("watcher: marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/key-state", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("watcher: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("watcher: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("watcher: read response: %w", err)
	}

	if resp.StatusCode == http.StatusAccepted {
		return nil, ErrResponseNotReady
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("watcher: key-state query returned %d: %s", resp.StatusCode, string(respBody))
	}

	var wire keyStateResponse
	if err := json.Unmarshal(respBody, &wire); err != nil {
		return nil, fmt.Errorf("watcher: parse response: %w", err)
	}
	if !wire.Ready || wire.State == nil {
		return nil, ErrResponseNotReady
	}

	return decodeKeyState(wire.State)
}

// ForwardOobi implements Client.
func (c *HTTPClient) ForwardOobi(ctx context.Context, mailboxID ident.ID, record oobi.Record) error {
	payload := struct {
		MailboxID string      `json:"mailbox_id"`
		Record    oobi.Record `json:"record"`
	}{MailboxID: mailboxID.String(), Record: record}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("watcher: marshal oobi forward: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oobi/forward", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("watcher: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("watcher: forward oobi failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("watcher: forward oobi returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func decodeKeyState(wire *wireKeyState) (*kel.KeyState, error) {
	keys := make([]ed25519.PublicKey, 0, len(wire.Keys))
	for _, k := range wire.Keys {
		raw, err := base64.StdEncoding.DecodeString(k)
		if err != nil {
			return nil, fmt.Errorf("watcher: decode key: %w", err)
		}
		keys = append(keys, ed25519.PublicKey(raw))
	}
	witnesses := make([]ident.ID, 0, len(wire.Witnesses))
	for _, w := range wire.Witnesses {
		witnesses = append(witnesses, ident.ID(w))
	}
	return &kel.KeyState{
		Prefix:      ident.ID(wire.Prefix),
		Sn:          wire.Sn,
		EventDigest: ident.Digest(wire.EventDigest),
		Keys:        keys,
		Threshold:   wire.Threshold,
		Witnesses:   witnesses,
	}, nil
}
