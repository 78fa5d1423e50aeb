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
	"github.com/sage-x-project/keri-mailbox/oobi"
)

// OobiService is the exclusive owner of the persistent OOBI database
// handle. Its backing oobi.Store is already single-owner (guarded by a
// mutex for the in-memory implementation, by the database itself for
// Postgres), so unlike Notify/Storage this component needs no actor
// goroutine of its own — it's a thin pass-through.
type OobiService struct {
	store oobi.Store
}

// NewOobiService wraps store.
func NewOobiService(store oobi.Store) *OobiService {
	return &OobiService{store: store}
}

// Register validates and persists a batch of signed OOBI replies.
func (s *OobiService) Register(ctx context.Context, replies []oobi.Reply) error {
	return s.store.Register(ctx, replies)
}

// GetLocation returns every location-scheme reply known for endpointID.
func (s *OobiService) GetLocation(ctx context.Context, endpointID ident.ID) ([]oobi.Reply, error) {
	return s.store.GetLocation(ctx, endpointID)
}

// GetRoleOobi returns every end-role reply matching the (controller,
// role, endpoint) triple.
func (s *OobiService) GetRoleOobi(ctx context.Context, controllerID ident.ID, role oobi.Role, endpointID ident.ID) ([]oobi.Reply, error) {
	return s.store.GetRoleOobi(ctx, controllerID, role, endpointID)
}
