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

package oobi

import (
	"context"
	"sync"

	"github.com/sage-x-project/keri-mailbox/ident"
)

// MemoryStore is a map-based Store guarded by sync.RWMutex, used by
// default and in tests.
type MemoryStore struct {
	mu        sync.RWMutex
	locations map[ident.ID][]Reply
	roles     map[roleKey][]Reply
}

type roleKey struct {
	controller ident.ID
	role       Role
	endpoint   ident.ID
}

// NewMemoryStore creates an empty in-process OOBI store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		locations: make(map[ident.ID][]Reply),
		roles:     make(map[roleKey][]Reply),
	}
}

// Register implements Store.
func (s *MemoryStore) Register(_ context.Context, replies []Reply) error {
	for _, r := range replies {
		if err := r.Record.Validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range replies {
		switch r.Record.Kind {
		case LocationSchemeKind:
			eid := r.Record.Location.EndpointID
			s.locations[eid] = append(s.locations[eid], cloneReply(r))
		case EndRoleKind:
			key := roleKey{r.Record.End.ControllerID, r.Record.End.Role, r.Record.End.EndpointID}
			s.roles[key] = append(s.roles[key], cloneReply(r))
		}
	}
	return nil
}

// GetLocation implements Store.
func (s *MemoryStore) GetLocation(_ context.Context, endpointID ident.ID) ([]Reply, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Reply, 0, len(s.locations[endpointID]))
	for _, r := range s.locations[endpointID] {
		out = append(out, cloneReply(r))
	}
	return out, nil
}

// GetRoleOobi implements Store.
func (s *MemoryStore) GetRoleOobi(_ context.Context, controllerID ident.ID, role Role, endpointID ident.ID) ([]Reply, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := roleKey{controllerID, role, endpointID}
	out := make([]Reply, 0, len(s.roles[key]))
	for _, r := range s.roles[key] {
		out = append(out, cloneReply(r))
	}
	return out, nil
}

// Ping implements Store. An in-process map is always reachable.
func (s *MemoryStore) Ping(_ context.Context) error { return nil }

func cloneReply(r Reply) Reply {
	clone := r
	clone.Signatures = append([]ident.Signature(nil), r.Signatures...)
	if r.Record.Location != nil {
		loc := *r.Record.Location
		clone.Record.Location = &loc
	}
	if r.Record.End != nil {
		end := *r.Record.End
		clone.Record.End = &end
	}
	return clone
}
