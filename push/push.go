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

// Package push is the outbound push-notification transport NotifyService
// depends on: a fixed JSON envelope POSTed to a configurable endpoint,
// authorized with the mailbox's server key. Delivery is best-effort; a
// rejected or slow endpoint never propagates back to the caller.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sage-x-project/keri-mailbox/ident"
)

// Sender delivers a push notification telling id's device that digest is
// waiting in its mailbox.
type Sender interface {
	Send(ctx context.Context, token string, digest ident.Digest, id ident.ID) error
}

// HTTPSender posts the fixed notification envelope to a single configured
// endpoint over net/http, bounding every request to a fixed timeout so a
// hanging push provider never blocks NotifyService beyond it.
type HTTPSender struct {
	endpoint   string
	serverKey  string
	httpClient *http.Client
}

// NewHTTPSender builds a sender posting to endpoint, authorized with
// serverKey, with every request bounded to timeout.
func NewHTTPSender(endpoint, serverKey string, timeout time.Duration) *HTTPSender {
	return &HTTPSender{
		endpoint:   endpoint,
		serverKey:  serverKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type notificationBody struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type notificationData struct {
	Digest string `json:"digest"`
	ID     string `json:"id"`
}

type envelope struct {
	Notification notificationBody  `json:"notification"`
	Priority     string            `json:"priority"`
	Data         notificationData  `json:"data"`
	To           string            `json:"to"`
}

// Send implements Sender.
func (s *HTTPSender) Send(ctx context.Context, token string, digest ident.Digest, id ident.ID) error {
	body := envelope{
		Notification: notificationBody{Title: "New message", Body: "A new message is waiting in your mailbox"},
		Priority:     "high",
		Data:         notificationData{Digest: digest.String(), ID: id.String()},
		To:           token,
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("push: marshal envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("push: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+s.serverKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("push: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("push: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// FallbackSender tries primary first and falls back to secondary on any
// failure, e.g. reaching a client over its live WebSocket connection
// when one is open and otherwise falling back to a push provider.
type FallbackSender struct {
	primary, fallback Sender
}

// NewFallbackSender builds a Sender trying primary, then fallback.
func NewFallbackSender(primary, fallback Sender) *FallbackSender {
	return &FallbackSender{primary: primary, fallback: fallback}
}

// Send implements Sender.
func (s *FallbackSender) Send(ctx context.Context, token string, digest ident.Digest, id ident.ID) error {
	if err := s.primary.Send(ctx, token, digest, id); err == nil {
		return nil
	}
	return s.fallback.Send(ctx, token, digest, id)
}
