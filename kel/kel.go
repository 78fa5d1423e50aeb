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

// Package kel holds the mailbox's local view of other controllers' key
// state: a minimal read model over the key-event log, populated by
// watcher responses and consulted by the verifier. The event format
// itself is a dependency this package does not define (see the
// project's non-goals); KeyState only carries what the verifier needs
// to check a signature.
package kel

import (
	"crypto/ed25519"

	"github.com/sage-x-project/keri-mailbox/ident"
)

// KeyState is the key configuration in force for a controller, either at
// a specific key event or as its current (last-establishment) state.
type KeyState struct {
	Prefix      ident.ID
	Sn          uint64
	EventDigest ident.Digest
	Keys        []ed25519.PublicKey
	Threshold   int
	Witnesses   []ident.ID
}

// Store is the local controller's read/write view of other identifiers'
// key state.
type Store interface {
	// KeyStateAt returns the key configuration in force at a specific
	// key event, if known locally.
	KeyStateAt(prefix ident.ID, sn uint64, eventDigest ident.Digest) (*KeyState, bool)
	// CurrentKeyState returns the most recently applied key state for
	// prefix, if known locally.
	CurrentKeyState(prefix ident.ID) (*KeyState, bool)
	// Apply records state as the prefix's key state, both at its event
	// coordinates and as the new current state.
	Apply(prefix ident.ID, state *KeyState)
}
