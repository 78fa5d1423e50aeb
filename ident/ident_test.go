// SPDX-License-Identifier: LGPL-3.0-or-later

package ident

import (
	"crypto/ed25519"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicID(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	id := BasicID(pub)
	assert.True(t, strings.HasPrefix(string(id), PrefixBasic))
	assert.True(t, id.IsBasic())
	assert.False(t, id.IsTransferable())
	assert.False(t, id.Empty())

	// Deterministic: same key, same prefix.
	assert.Equal(t, id, BasicID(pub))
}

func TestTransferableID(t *testing.T) {
	id := TransferableID([]byte("founding-event-bytes"))
	assert.True(t, strings.HasPrefix(string(id), PrefixTransferable))
	assert.True(t, id.IsTransferable())
	assert.False(t, id.IsBasic())

	assert.Equal(t, id, TransferableID([]byte("founding-event-bytes")))
	assert.NotEqual(t, id, TransferableID([]byte("other-event-bytes")))
}

func TestDeriveSAID(t *testing.T) {
	placeholder := Placeholder()
	assert.Equal(t, SAIDLength, len(placeholder))
	assert.True(t, strings.Count(placeholder, "#") == SAIDLength)

	d := DeriveSAID([]byte(`{"d":"` + placeholder + `","r":"fwd"}`))
	assert.True(t, strings.HasPrefix(string(d), DigestPrefix))
	assert.Equal(t, SAIDLength, len(string(d)))

	// Hashing is deterministic over identical bytes.
	d2 := DeriveSAID([]byte(`{"d":"` + placeholder + `","r":"fwd"}`))
	assert.Equal(t, d, d2)

	// Different bytes produce a different digest.
	d3 := DeriveSAID([]byte(`{"d":"` + placeholder + `","r":"qry"}`))
	assert.NotEqual(t, d, d3)
}

func TestSignatureVerifyCouplets(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	data := []byte("payload")
	sig := ed25519.Sign(priv, data)

	s := &Signature{
		Kind: NonTransferableCouplet,
		Couplets: []Couplet{
			{PublicKey: pub, Sig: sig},
		},
	}
	assert.NoError(t, s.VerifyCouplets(data))

	// Tampered signature fails.
	bad := &Signature{
		Kind:     NonTransferableCouplet,
		Couplets: []Couplet{{PublicKey: pub, Sig: []byte("not-a-signature")}},
	}
	assert.Error(t, bad.VerifyCouplets(data))

	// Empty couplet list fails closed.
	empty := &Signature{Kind: NonTransferableCouplet}
	assert.Error(t, empty.VerifyCouplets(data))

	// Wrong kind is rejected.
	wrongKind := &Signature{Kind: Transferable}
	assert.Error(t, wrongKind.VerifyCouplets(data))
}

func TestSignatureVerifyAgainstKeys(t *testing.T) {
	pub1, priv1, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	pub2, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	data := []byte("key-state-query")
	sig := &Signature{
		Kind: Transferable,
		Seal: &KeyEventSeal{Prefix: BasicID(pub1), Sn: 1, EventDigest: DeriveSAID(data)},
		Sig:  ed25519.Sign(priv1, data),
	}

	// Candidate set includes the signing key among decoys: succeeds.
	assert.NoError(t, sig.VerifyAgainstKeys(data, []ed25519.PublicKey{pub2, pub1}))

	// Candidate set without the signing key: fails.
	assert.Error(t, sig.VerifyAgainstKeys(data, []ed25519.PublicKey{pub2}))
}

func TestSignatureKindString(t *testing.T) {
	assert.Equal(t, "transferable", Transferable.String())
	assert.Equal(t, "non_transferable_couplet", NonTransferableCouplet.String())
	assert.Equal(t, "non_transferable_indexed", NonTransferableIndexed.String())
}
