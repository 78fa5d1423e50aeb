// SPDX-License-Identifier: LGPL-3.0-or-later

package mailbox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/keri-mailbox/ident"
	"github.com/sage-x-project/keri-mailbox/oobi"
)

func TestResponseStoreSaveAndGet(t *testing.T) {
	store := NewResponseStore()

	_, ok := store.Get("Esomedigest")
	assert.False(t, ok)

	store.Save("Esomedigest", `{"last_sn":0,"messages":"hi"}`)
	got, ok := store.Get("Esomedigest")
	require.True(t, ok)
	assert.Equal(t, `{"last_sn":0,"messages":"hi"}`, got)
}

func TestReverifyStoreUpsertAndGetDoesNotRemove(t *testing.T) {
	store := NewReverifyStore()
	sender := ident.ID("Bsender")

	_, _, ok := store.Get(sender)
	assert.False(t, ok)

	sigsV1 := []ident.Signature{{Kind: ident.Transferable, Sig: []byte("v1")}}
	store.Save(sender, []byte("message-v1"), sigsV1)

	msg, sigs, ok := store.Get(sender)
	require.True(t, ok)
	assert.Equal(t, []byte("message-v1"), msg)
	assert.Equal(t, sigsV1, sigs)

	// A second read must still see the same entry: Get never removes it.
	msg, _, ok = store.Get(sender)
	require.True(t, ok)
	assert.Equal(t, []byte("message-v1"), msg)

	// A later Save for the same sender overwrites, it doesn't accumulate.
	sigsV2 := []ident.Signature{{Kind: ident.Transferable, Sig: []byte("v2")}}
	store.Save(sender, []byte("message-v2"), sigsV2)
	msg, sigs, ok = store.Get(sender)
	require.True(t, ok)
	assert.Equal(t, []byte("message-v2"), msg)
	assert.Equal(t, sigsV2, sigs)
}

func TestSignerSignAndPublicID(t *testing.T) {
	kp := generateTestKeyPair(t)
	signer, err := NewSigner(kp)
	require.NoError(t, err)

	assert.True(t, signer.PublicID().IsBasic())

	sig, err := signer.Sign([]byte("payload"))
	require.NoError(t, err)
	assert.NoError(t, kp.Verify([]byte("payload"), sig))
}

func TestValidatorRejectsUnparsableMessage(t *testing.T) {
	notify := NewNotifyService(&recordingSender{}, nil)
	storage := NewStorageService(notify)
	responses := NewResponseStore()
	validator := NewValidator(storage, notify, responses)

	_, err := validator.Validate([]byte(`not json`))
	assert.ErrorIs(t, err, ErrUnknownMessage)
}

func TestOobiServiceRegisterAndGetLocationRoundTrip(t *testing.T) {
	facade := testFacade(t, newFakeWatcher(), &recordingSender{})
	ctx := context.Background()
	endpoint := ident.ID("Bendpoint1")

	reply := oobi.Reply{Record: oobi.Record{
		Kind:     oobi.LocationSchemeKind,
		Location: &oobi.LocationScheme{EndpointID: endpoint, Transport: "http", URL: "http://endpoint.example"},
	}}
	require.NoError(t, facade.OobiService.Register(ctx, []oobi.Reply{reply}))

	replies, err := facade.OobiService.GetLocation(ctx, endpoint)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, "http://endpoint.example", replies[0].Record.Location.URL)
}
