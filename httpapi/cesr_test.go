// SPDX-License-Identifier: LGPL-3.0-or-later

package httpapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/keri-mailbox/envelope"
	"github.com/sage-x-project/keri-mailbox/ident"
)

func TestSplitCESRNoAttachments(t *testing.T) {
	raw, _, err := envelope.EncodeSetToken("id", "token")
	require.NoError(t, err)

	payload, signatures, err := splitCESR(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, payload)
	assert.Empty(t, signatures)
}

func TestSplitCESRWithOneAttachmentGroup(t *testing.T) {
	raw, _, err := envelope.EncodeForward("receiver", "payload")
	require.NoError(t, err)

	sigs := []ident.Signature{
		{Kind: ident.Transferable, Last: &ident.LastEstablishment{Prefix: "receiver"}, Sig: []byte("sig-bytes")},
	}
	group, err := buildAttachmentGroup(sigs)
	require.NoError(t, err)

	body := append(append([]byte{}, raw...), group...)
	payload, signatures, err := splitCESR(body)
	require.NoError(t, err)
	assert.Equal(t, raw, payload)
	require.Len(t, signatures, 1)
	assert.Equal(t, ident.Transferable, signatures[0].Kind)
	assert.Equal(t, []byte("sig-bytes"), signatures[0].Sig)
}

func TestSplitCESRWithMultipleAttachmentGroups(t *testing.T) {
	raw, _, err := envelope.EncodeForward("receiver", "payload")
	require.NoError(t, err)

	group1, err := buildAttachmentGroup([]ident.Signature{{Kind: ident.Transferable, Sig: []byte("a")}})
	require.NoError(t, err)
	group2, err := buildAttachmentGroup([]ident.Signature{{Kind: ident.Transferable, Sig: []byte("b")}})
	require.NoError(t, err)

	body := append(append(append([]byte{}, raw...), group1...), group2...)
	_, signatures, err := splitCESR(body)
	require.NoError(t, err)
	require.Len(t, signatures, 2)
	assert.Equal(t, []byte("a"), signatures[0].Sig)
	assert.Equal(t, []byte("b"), signatures[1].Sig)
}

func TestSplitCESRRejectsTruncatedAttachment(t *testing.T) {
	raw, _, err := envelope.EncodeSetToken("id", "token")
	require.NoError(t, err)

	body := append(append([]byte{}, raw...), []byte("0000ff")...) // declares 255 bytes, has none
	_, _, err = splitCESR(body)
	assert.ErrorIs(t, err, ErrMalformedFrame)
}

func TestSplitCESRRejectsBadVField(t *testing.T) {
	_, _, err := splitCESR([]byte(`{"v":"not-a-valid-v-field","t":"qry"}`))
	assert.ErrorIs(t, err, ErrMalformedFrame)
}
