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

// ResponseStore maps a request digest to a deferred response payload,
// written exactly once per deferred request. There's no eviction; a
// production deployment would need a TTL (see DESIGN.md).
type ResponseStore struct {
	mu   sync.RWMutex
	data map[ident.Digest]string
}

// NewResponseStore returns an empty store.
func NewResponseStore() *ResponseStore {
	return &ResponseStore{data: make(map[ident.Digest]string)}
}

// Save records response under digest.
func (s *ResponseStore) Save(digest ident.Digest, response string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[digest] = response
}

// Get returns the response saved under digest, if any.
func (s *ResponseStore) Get(digest ident.Digest) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[digest]
	return v, ok
}
