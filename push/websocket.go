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

package push

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sage-x-project/keri-mailbox/ident"
)

// ErrNoLiveConnection means id has no open WebSocket connection to push
// over; NotifyService treats this as any other best-effort failure.
var ErrNoLiveConnection = errors.New("push: no live connection for identifier")

// WebSocketSender delivers notifications over persistent WebSocket
// connections instead of a push provider, for clients that keep a
// socket open rather than registering a device token. It both serves
// the upgrade handshake and implements Sender, mirroring the shape of
// the project's own WebSocket transport server.
type WebSocketSender struct {
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	conns map[ident.ID]*websocket.Conn
}

// NewWebSocketSender builds an empty connection registry.
func NewWebSocketSender() *WebSocketSender {
	return &WebSocketSender{
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		conns: make(map[ident.ID]*websocket.Conn),
	}
}

// Upgrade accepts id's WebSocket connection and registers it, replacing
// any connection already registered for id. The connection is
// unregistered automatically once reads on it fail (the client closed
// or dropped it); callers don't need to call Remove themselves.
func (s *WebSocketSender) Upgrade(w http.ResponseWriter, r *http.Request, id ident.ID) error {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("push: websocket upgrade: %w", err)
	}

	s.mu.Lock()
	s.conns[id] = conn
	s.mu.Unlock()

	go s.drainUntilClosed(id, conn)
	return nil
}

// drainUntilClosed discards any client-sent frames (this channel is
// notify-only) until the connection errors, then unregisters it.
func (s *WebSocketSender) drainUntilClosed(id ident.ID, conn *websocket.Conn) {
	defer func() {
		s.mu.Lock()
		if s.conns[id] == conn {
			delete(s.conns, id)
		}
		s.mu.Unlock()
		_ = conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

type liveNotification struct {
	Digest string `json:"digest"`
	ID     string `json:"id"`
}

// Send implements Sender: token is ignored, since delivery is addressed
// by id's live connection rather than a provider-issued token.
func (s *WebSocketSender) Send(_ context.Context, _ string, digest ident.Digest, id ident.ID) error {
	s.mu.RLock()
	conn, ok := s.conns[id]
	s.mu.RUnlock()
	if !ok {
		return ErrNoLiveConnection
	}

	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteJSON(liveNotification{Digest: digest.String(), ID: id.String()}); err != nil {
		return fmt.Errorf("push: websocket write: %w", err)
	}
	return nil
}
