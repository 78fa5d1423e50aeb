// SPDX-License-Identifier: LGPL-3.0-or-later

package httpapi

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/keri-mailbox/config"
	"github.com/sage-x-project/keri-mailbox/crypto/keys"
	"github.com/sage-x-project/keri-mailbox/ident"
	"github.com/sage-x-project/keri-mailbox/internal/logger"
	"github.com/sage-x-project/keri-mailbox/kel"
	"github.com/sage-x-project/keri-mailbox/mailbox"
	"github.com/sage-x-project/keri-mailbox/oobi"
	"github.com/sage-x-project/keri-mailbox/push"
)

func TestHandleLiveUpgradesAndDeliversNotification(t *testing.T) {
	kp, err := keys.GenerateEd25519KeyPair()
	require.NoError(t, err)

	live := push.NewWebSocketSender()
	cfg := &config.Config{Mailbox: &config.MailboxConfig{PublicURL: "http://mailbox.example"}}
	facade, err := mailbox.NewFacade(cfg, logger.NewDefaultLogger(), kp, kel.NewMemoryStore(), oobi.NewMemoryStore(), noopWatcher{}, live)
	require.NoError(t, err)

	srv := NewServer(":0", facade, logger.NewDefaultLogger(), live)
	httpSrv := httptest.NewServer(srv.Handler())
	defer httpSrv.Close()

	wsURL := "ws" + strings.TrimPrefix(httpSrv.URL, "http") + "/live/Breceiver"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return live.Send(t.Context(), "", ident.DeriveSAID([]byte("x")), ident.ID("Breceiver")) == nil
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	var msg map[string]string
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "Breceiver", msg["id"])
}
