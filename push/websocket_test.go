// SPDX-License-Identifier: LGPL-3.0-or-later

package push

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/keri-mailbox/ident"
)

func TestWebSocketSenderSendWithNoConnectionReturnsErrNoLiveConnection(t *testing.T) {
	sender := NewWebSocketSender()
	err := sender.Send(context.Background(), "", ident.Digest("Edigest"), ident.ID("Breceiver"))
	assert.ErrorIs(t, err, ErrNoLiveConnection)
}

func TestWebSocketSenderDeliversOverUpgradedConnection(t *testing.T) {
	sender := NewWebSocketSender()
	httpSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, sender.Upgrade(w, r, ident.ID("Breceiver")))
	}))
	defer httpSrv.Close()

	wsURL := "ws" + strings.TrimPrefix(httpSrv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return sender.Send(context.Background(), "", ident.Digest("Edigest"), ident.ID("Breceiver")) == nil
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	var msg liveNotification
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "Edigest", msg.Digest)
	assert.Equal(t, "Breceiver", msg.ID)
}

func TestWebSocketSenderUnregistersOnClose(t *testing.T) {
	sender := NewWebSocketSender()
	httpSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, sender.Upgrade(w, r, ident.ID("Breceiver")))
	}))
	defer httpSrv.Close()

	wsURL := "ws" + strings.TrimPrefix(httpSrv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		return errors.Is(sender.Send(context.Background(), "", ident.Digest("Edigest"), ident.ID("Breceiver")), ErrNoLiveConnection)
	}, time.Second, 10*time.Millisecond)
}

type fakeSender struct {
	err   error
	calls int
}

func (f *fakeSender) Send(context.Context, string, ident.Digest, ident.ID) error {
	f.calls++
	return f.err
}

func TestFallbackSenderUsesPrimaryWhenItSucceeds(t *testing.T) {
	primary := &fakeSender{}
	fallback := &fakeSender{}
	sender := NewFallbackSender(primary, fallback)

	err := sender.Send(context.Background(), "", ident.Digest("Edigest"), ident.ID("Breceiver"))
	require.NoError(t, err)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 0, fallback.calls)
}

func TestFallbackSenderFallsBackOnPrimaryFailure(t *testing.T) {
	primary := &fakeSender{err: errors.New("no live connection")}
	fallback := &fakeSender{}
	sender := NewFallbackSender(primary, fallback)

	err := sender.Send(context.Background(), "", ident.Digest("Edigest"), ident.ID("Breceiver"))
	require.NoError(t, err)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
}
