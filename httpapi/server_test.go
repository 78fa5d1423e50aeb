// SPDX-License-Identifier: LGPL-3.0-or-later

package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/keri-mailbox/config"
	"github.com/sage-x-project/keri-mailbox/crypto/keys"
	"github.com/sage-x-project/keri-mailbox/envelope"
	"github.com/sage-x-project/keri-mailbox/ident"
	"github.com/sage-x-project/keri-mailbox/internal/logger"
	"github.com/sage-x-project/keri-mailbox/kel"
	"github.com/sage-x-project/keri-mailbox/mailbox"
	"github.com/sage-x-project/keri-mailbox/oobi"
	"github.com/sage-x-project/keri-mailbox/watcher"
)

func newBodyReader(b []byte) io.Reader { return bytes.NewReader(b) }

type noopSender struct{}

func (noopSender) Send(context.Context, string, ident.Digest, ident.ID) error { return nil }

type noopWatcher struct{}

func (noopWatcher) QueryKeyState(context.Context, watcher.Signer, ident.ID) (*kel.KeyState, error) {
	return nil, watcher.ErrResponseNotReady
}

func (noopWatcher) ForwardOobi(context.Context, ident.ID, oobi.Record) error { return nil }

func testServer(t *testing.T) *Server {
	t.Helper()
	kp, err := keys.GenerateEd25519KeyPair()
	require.NoError(t, err)

	cfg := &config.Config{Mailbox: &config.MailboxConfig{PublicURL: "http://mailbox.example"}}
	facade, err := mailbox.NewFacade(cfg, logger.NewDefaultLogger(), kp, kel.NewMemoryStore(), oobi.NewMemoryStore(), noopWatcher{}, noopSender{})
	require.NoError(t, err)

	return NewServer(":0", facade, logger.NewDefaultLogger(), nil)
}

func TestHandleIntroduce(t *testing.T) {
	srv := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/introduce", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var reply oobi.Reply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.Equal(t, "http://mailbox.example", reply.Record.Location.URL)
}

func TestHandleProcessMessageSuccessAndQuery(t *testing.T) {
	srv := testServer(t)

	forwardBody, _, err := envelope.EncodeForward("A", "hello")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", newBodyReader(forwardBody))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	queryBody, _, err := envelope.EncodeQueryBySn("A", 0)
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodPost, "/", newBodyReader(queryBody))
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hello")
}

func TestHandleProcessMessageMissingOobiReturns422(t *testing.T) {
	srv := testServer(t)

	kp, err := keys.GenerateEd25519KeyPair()
	require.NoError(t, err)

	body, _, err := envelope.EncodeForward("Bunknown", "payload")
	require.NoError(t, err)
	sig, err := kp.Sign(body)
	require.NoError(t, err)
	group, err := buildAttachmentGroup([]ident.Signature{{
		Kind: ident.Transferable,
		Last: &ident.LastEstablishment{Prefix: "Bunknown"},
		Sig:  sig,
	}})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", newBodyReader(append(body, group...)))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandleGetMessageNotFound(t *testing.T) {
	srv := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/messages/Eunknown", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleRegisterAndOobiByID(t *testing.T) {
	srv := testServer(t)

	reply := oobi.Reply{Record: oobi.Record{
		Kind:     oobi.LocationSchemeKind,
		Location: &oobi.LocationScheme{EndpointID: "Bendpoint1", Transport: "http", URL: "http://endpoint.example"},
	}}
	raw, err := json.Marshal([]oobi.Reply{reply})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/register", newBodyReader(raw))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/oobi/Bendpoint1", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http://endpoint.example")
}
