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

package mailbox

import (
	"context"

	"github.com/sage-x-project/keri-mailbox/ident"
	"github.com/sage-x-project/keri-mailbox/internal/logger"
	"github.com/sage-x-project/keri-mailbox/internal/metrics"
	"github.com/sage-x-project/keri-mailbox/push"
)

// requestInboxCapacity bounds every component's request inbox; a full
// inbox applies natural back-pressure to callers.
const requestInboxCapacity = 8

type notifyOp int

const (
	notifySaveToken notifyOp = iota
	notifySend
)

type notifyRequest struct {
	op     notifyOp
	id     ident.ID
	token  string
	digest ident.Digest
}

// NotifyService maintains the identifier-to-push-token map and emits
// best-effort push notifications. Both operations are fire-and-forget:
// neither blocks on, nor fails because of, the underlying push
// transport.
type NotifyService struct {
	inbox chan notifyRequest
}

// NewNotifyService starts the actor goroutine and returns its handle.
func NewNotifyService(sender push.Sender, log logger.Logger) *NotifyService {
	s := &NotifyService{inbox: make(chan notifyRequest, requestInboxCapacity)}
	go s.run(sender, log)
	return s
}

// SaveToken upserts token for id. Latest registration wins. It returns
// ErrBackpressure immediately, rather than blocking, if the inbox is
// full.
func (s *NotifyService) SaveToken(id ident.ID, token string) error {
	select {
	case s.inbox <- notifyRequest{op: notifySaveToken, id: id, token: token}:
		return nil
	default:
		return ErrBackpressure
	}
}

// Notify fires a best-effort push notification for (id, digest) if a
// token is known. Unknown identifiers are silently skipped. It returns
// ErrBackpressure immediately, rather than blocking, if the inbox is
// full.
func (s *NotifyService) Notify(id ident.ID, digest ident.Digest) error {
	select {
	case s.inbox <- notifyRequest{op: notifySend, id: id, digest: digest}:
		return nil
	default:
		metrics.NotifyAttempts.WithLabelValues("backpressure").Inc()
		return ErrBackpressure
	}
}

func (s *NotifyService) run(sender push.Sender, log logger.Logger) {
	tokens := make(map[ident.ID]string)
	for req := range s.inbox {
		switch req.op {
		case notifySaveToken:
			tokens[req.id] = req.token
		case notifySend:
			token, ok := tokens[req.id]
			if !ok {
				metrics.NotifyAttempts.WithLabelValues("no_token").Inc()
				continue
			}
			if err := sender.Send(context.Background(), token, req.digest, req.id); err != nil {
				metrics.NotifyAttempts.WithLabelValues("error").Inc()
				log.Warn("push notification failed",
					logger.String("id", req.id.String()),
					logger.String("digest", req.digest.String()),
					logger.Error(err))
			} else {
				metrics.NotifyAttempts.WithLabelValues("sent").Inc()
			}
		}
	}
}
