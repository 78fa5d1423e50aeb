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

// Package oobi holds the out-of-band introduction record types and the
// persistent store the mailbox's OobiService actor owns exclusively.
package oobi

import (
	"context"
	"errors"

	"github.com/sage-x-project/keri-mailbox/ident"
)

// Role names an OOBI end-role relative to a controller.
type Role string

const (
	RoleController Role = "controller"
	RoleWitness    Role = "witness"
	RoleWatcher    Role = "watcher"
	RoleMailbox    Role = "mailbox"
	RoleAgent      Role = "agent"
)

// RecordKind tags the two OOBI record shapes.
type RecordKind int

const (
	LocationSchemeKind RecordKind = iota
	EndRoleKind
)

// LocationScheme binds an endpoint identifier to a transport and URL.
type LocationScheme struct {
	EndpointID ident.ID `json:"eid"`
	Transport  string   `json:"scheme"`
	URL        string   `json:"url"`
}

// EndRole associates a controller, a role, and an endpoint identifier.
type EndRole struct {
	ControllerID ident.ID `json:"cid"`
	Role         Role     `json:"role"`
	EndpointID   ident.ID `json:"eid"`
}

// Record is a tagged OOBI record: exactly one of Location or End is set,
// matching Kind.
type Record struct {
	Kind     RecordKind      `json:"kind"`
	Location *LocationScheme `json:"location,omitempty"`
	End      *EndRole        `json:"end,omitempty"`
}

// ErrMalformedRecord is returned when a Record's Kind doesn't match its
// populated payload.
var ErrMalformedRecord = errors.New("oobi: malformed record")

// Validate checks that Record's Kind and payload agree.
func (r Record) Validate() error {
	switch r.Kind {
	case LocationSchemeKind:
		if r.Location == nil || r.Location.EndpointID.Empty() || r.Location.URL == "" {
			return ErrMalformedRecord
		}
	case EndRoleKind:
		if r.End == nil || r.End.ControllerID.Empty() || r.End.EndpointID.Empty() {
			return ErrMalformedRecord
		}
	default:
		return ErrMalformedRecord
	}
	return nil
}

// Reply is a signed OOBI record as received over the register/resolve
// HTTP surface. The signatures are persisted alongside the record so a
// later GetLocation/GetRoleOobi call can hand back the same signed
// reply it was given.
type Reply struct {
	Record     Record            `json:"record"`
	Signatures []ident.Signature `json:"signatures,omitempty"`
}

// Store persists and serves OOBI reply records. It is the exclusive
// owner of the OOBI database handle; no other component touches it
// directly.
type Store interface {
	// Register validates and persists a batch of signed OOBI replies.
	Register(ctx context.Context, replies []Reply) error
	// GetLocation returns every location-scheme reply known for
	// endpointID, or an empty slice if none is known.
	GetLocation(ctx context.Context, endpointID ident.ID) ([]Reply, error)
	// GetRoleOobi returns every end-role reply matching the
	// (controller, role, endpoint) triple, or an empty slice if none is
	// known.
	GetRoleOobi(ctx context.Context, controllerID ident.ID, role Role, endpointID ident.ID) ([]Reply, error)
	// Ping reports whether the store's backing connection is healthy.
	Ping(ctx context.Context) error
}
