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

package kel

import (
	"crypto/ed25519"
	"fmt"
	"sync"

	"github.com/sage-x-project/keri-mailbox/ident"
)

// MemoryStore is an in-process Store. It is the only Store
// implementation: no external KEL database exists anywhere in the
// reachable dependency set, and the spec itself treats the KEL event
// format as a dependency rather than something this repo stores
// durably, so a hand-rolled guarded map is the appropriate home (see
// DESIGN.md).
type MemoryStore struct {
	mu      sync.RWMutex
	events  map[string]*KeyState // keyed by prefix+sn+digest
	current map[ident.ID]*KeyState
}

// NewMemoryStore creates an empty key-state store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:  make(map[string]*KeyState),
		current: make(map[ident.ID]*KeyState),
	}
}

func eventKey(prefix ident.ID, sn uint64, digest ident.Digest) string {
	return fmt.Sprintf("%s/%d/%s", prefix, sn, digest)
}

// KeyStateAt implements Store.
func (s *MemoryStore) KeyStateAt(prefix ident.ID, sn uint64, eventDigest ident.Digest) (*KeyState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.events[eventKey(prefix, sn, eventDigest)]
	if !ok {
		return nil, false
	}
	return cloneKeyState(state), true
}

// CurrentKeyState implements Store.
func (s *MemoryStore) CurrentKeyState(prefix ident.ID) (*KeyState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.current[prefix]
	if !ok {
		return nil, false
	}
	return cloneKeyState(state), true
}

// Apply implements Store.
func (s *MemoryStore) Apply(prefix ident.ID, state *KeyState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := cloneKeyState(state)
	s.events[eventKey(prefix, state.Sn, state.EventDigest)] = stored
	s.current[prefix] = stored
}

func cloneKeyState(state *KeyState) *KeyState {
	clone := *state
	clone.Keys = append([]ed25519.PublicKey(nil), state.Keys...)
	clone.Witnesses = append([]ident.ID(nil), state.Witnesses...)
	return &clone
}
