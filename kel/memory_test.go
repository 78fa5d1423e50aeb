// SPDX-License-Identifier: LGPL-3.0-or-later

package kel

import (
	"crypto/ed25519"
	"testing"

	"github.com/sage-x-project/keri-mailbox/ident"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreApplyAndLookup(t *testing.T) {
	store := NewMemoryStore()
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	prefix := ident.BasicID(pub)
	digest := ident.DeriveSAID([]byte("event-0"))

	_, ok := store.CurrentKeyState(prefix)
	assert.False(t, ok)

	state := &KeyState{
		Prefix:      prefix,
		Sn:          0,
		EventDigest: digest,
		Keys:        []ed25519.PublicKey{pub},
		Threshold:   1,
	}
	store.Apply(prefix, state)

	current, ok := store.CurrentKeyState(prefix)
	require.True(t, ok)
	assert.Equal(t, prefix, current.Prefix)
	assert.Equal(t, uint64(0), current.Sn)

	at, ok := store.KeyStateAt(prefix, 0, digest)
	require.True(t, ok)
	assert.Equal(t, current.Keys, at.Keys)

	_, ok = store.KeyStateAt(prefix, 1, digest)
	assert.False(t, ok)
}

func TestMemoryStoreRotationUpdatesCurrent(t *testing.T) {
	store := NewMemoryStore()
	pub0, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	pub1, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	prefix := ident.BasicID(pub0)
	digest0 := ident.DeriveSAID([]byte("event-0"))
	digest1 := ident.DeriveSAID([]byte("event-1"))

	store.Apply(prefix, &KeyState{Prefix: prefix, Sn: 0, EventDigest: digest0, Keys: []ed25519.PublicKey{pub0}})
	store.Apply(prefix, &KeyState{Prefix: prefix, Sn: 1, EventDigest: digest1, Keys: []ed25519.PublicKey{pub1}})

	current, ok := store.CurrentKeyState(prefix)
	require.True(t, ok)
	assert.Equal(t, uint64(1), current.Sn)
	assert.Equal(t, []ed25519.PublicKey{pub1}, current.Keys)

	// The historical event at sn=0 is still reachable.
	at0, ok := store.KeyStateAt(prefix, 0, digest0)
	require.True(t, ok)
	assert.Equal(t, []ed25519.PublicKey{pub0}, at0.Keys)
}

func TestMemoryStoreCloneIsolatesCallers(t *testing.T) {
	store := NewMemoryStore()
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	prefix := ident.BasicID(pub)
	digest := ident.DeriveSAID([]byte("event-0"))

	store.Apply(prefix, &KeyState{Prefix: prefix, Sn: 0, EventDigest: digest, Keys: []ed25519.PublicKey{pub}})

	state, ok := store.CurrentKeyState(prefix)
	require.True(t, ok)
	state.Keys[0] = nil

	reread, ok := store.CurrentKeyState(prefix)
	require.True(t, ok)
	assert.NotNil(t, reread.Keys[0])
}
