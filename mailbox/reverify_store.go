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
	"sync"

	"github.com/sage-x-project/keri-mailbox/ident"
)

type deferredMessage struct {
	message    []byte
	signatures []ident.Signature
}

// ReverifyStore parks at most one (message, signatures) tuple per sender
// while its key state is fetched. A new deferral for the same sender
// overwrites the old one; reading never removes the entry — the
// Verifier is responsible for not re-scheduling a Reverify once it has
// consumed one.
type ReverifyStore struct {
	mu   sync.Mutex
	data map[ident.ID]deferredMessage
}

// NewReverifyStore returns an empty store.
func NewReverifyStore() *ReverifyStore {
	return &ReverifyStore{data: make(map[ident.ID]deferredMessage)}
}

// Save upserts the parked tuple for sender.
func (s *ReverifyStore) Save(sender ident.ID, message []byte, signatures []ident.Signature) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sender] = deferredMessage{message: message, signatures: signatures}
}

// Get returns the parked tuple for sender, if any.
func (s *ReverifyStore) Get(sender ident.ID) ([]byte, []ident.Signature, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[sender]
	if !ok {
		return nil, nil, false
	}
	return v.message, v.signatures, true
}
