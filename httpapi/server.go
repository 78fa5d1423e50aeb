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

// Package httpapi is the HTTP adapter over the mailbox core: it decodes
// CESR-framed request bodies, maps facade errors to status codes, and
// exposes the OOBI registration/resolution/introspection routes.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sage-x-project/keri-mailbox/ident"
	"github.com/sage-x-project/keri-mailbox/internal/logger"
	"github.com/sage-x-project/keri-mailbox/internal/metrics"
	"github.com/sage-x-project/keri-mailbox/mailbox"
	"github.com/sage-x-project/keri-mailbox/oobi"
	"github.com/sage-x-project/keri-mailbox/push"
)

// Server wraps net/http.Server with the mailbox's HTTP surface. Routes
// use the Go 1.22+ enhanced http.ServeMux pattern syntax rather than a
// third-party router: no router package appears anywhere in the
// reachable dependency set, and the project's own pkg/health server
// uses the same plain-mux style (see DESIGN.md).
type Server struct {
	facade *mailbox.Facade
	log    logger.Logger
	live   *push.WebSocketSender
	http   *http.Server
}

// NewServer builds a Server listening on addr (e.g. ":8080") and backed
// by facade for every route. live is optional (nil disables the
// /live/{id} WebSocket route) since not every deployment wants a
// connection-based notification channel alongside its push provider.
func NewServer(addr string, facade *mailbox.Facade, log logger.Logger, live *push.WebSocketSender) *Server {
	s := &Server{facade: facade, log: log, live: live}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /introduce", s.handleIntroduce)
	mux.HandleFunc("GET /oobi/{id}", s.handleOobiByID)
	mux.HandleFunc("GET /oobi/{cid}/{role}/{eid}", s.handleOobiByRole)
	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("POST /resolve", s.handleResolve)
	mux.HandleFunc("POST /{$}", s.handleProcessMessage)
	mux.HandleFunc("GET /messages/{said}", s.handleGetMessage)
	if live != nil {
		mux.HandleFunc("GET /live/{id}", s.handleLive)
	}

	s.http = &http.Server{
		Addr:              addr,
		Handler:           requestID(instrument(mux)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Start begins serving in the background. A returned error other than
// http.ErrServerClosed is logged at Error.
func (s *Server) Start() {
	s.log.Info("starting httpapi server", logger.String("addr", s.http.Addr))
	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("httpapi server error", logger.Error(err))
		}
	}()
}

// Shutdown gracefully stops the server, waiting for in-flight requests
// to finish or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler returns the server's routed http.Handler, letting tests drive
// requests through httptest without binding a real socket.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

type requestIDKey struct{}

// requestID tags every request with a fresh UUID, both as a response
// header and as a context value later handlers can log alongside their
// own fields.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// statusRecorder captures the status code a handler writes, since
// http.ResponseWriter doesn't expose it after the fact.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument records every request's latency against its route and
// resulting status code.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		metrics.RequestDuration.
			WithLabelValues(routeLabel(r), strconv.Itoa(rec.status)).
			Observe(time.Since(start).Seconds())
	})
}

// routeLabel collapses a request's path to its registered pattern shape
// rather than the literal path, so per-identifier/per-digest routes
// don't each mint their own metric series.
func routeLabel(r *http.Request) string {
	switch {
	case strings.HasPrefix(r.URL.Path, "/oobi/") && strings.Count(r.URL.Path, "/") == 2:
		return "GET /oobi/{id}"
	case strings.HasPrefix(r.URL.Path, "/oobi/"):
		return "GET /oobi/{cid}/{role}/{eid}"
	case strings.HasPrefix(r.URL.Path, "/messages/"):
		return "GET /messages/{said}"
	case strings.HasPrefix(r.URL.Path, "/live/"):
		return "GET /live/{id}"
	default:
		return r.Method + " " + r.URL.Path
	}
}

func (s *Server) requestLogger(r *http.Request) logger.Logger {
	if id, ok := r.Context().Value(requestIDKey{}).(string); ok {
		return s.log.WithFields(logger.String("request_id", id))
	}
	return s.log
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// handleIntroduce serves the mailbox's own self-introduction OOBI.
func (s *Server) handleIntroduce(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.facade.Oobi())
}

// handleOobiByID serves every location-scheme reply known for {id}.
func (s *Server) handleOobiByID(w http.ResponseWriter, r *http.Request) {
	id := ident.ID(r.PathValue("id"))
	replies, err := s.facade.OobiService.GetLocation(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, replies)
}

// handleOobiByRole serves every end-role + location reply matching the
// {cid}/{role}/{eid} triple.
func (s *Server) handleOobiByRole(w http.ResponseWriter, r *http.Request) {
	cid := ident.ID(r.PathValue("cid"))
	role := oobi.Role(r.PathValue("role"))
	eid := ident.ID(r.PathValue("eid"))

	replies, err := s.facade.OobiService.GetRoleOobi(r.Context(), cid, role, eid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, replies)
}

// handleRegister bulk-ingests signed OOBI replies.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	defer r.Body.Close()

	var replies []oobi.Reply
	if err := json.Unmarshal(body, &replies); err != nil {
		writeError(w, http.StatusBadRequest, "malformed oobi registration body")
		return
	}

	if err := s.facade.OobiService.Register(r.Context(), replies); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

// handleResolve triggers resolve_oobi for a single submitted OOBI reply.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	defer r.Body.Close()

	if err := s.facade.ResolveOobi(r.Context(), body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

// handleProcessMessage is the core's single ingress point: a CESR-framed
// message body, mapped to the status codes named in the project's HTTP
// surface exactly: 200 (with body) on success, 202 on ResponseNotReady,
// 401 on VerificationFailure, 422 on MissingOobi, 400 otherwise.
func (s *Server) handleProcessMessage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	defer r.Body.Close()

	payload, signatures, err := splitCESR(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reply, err := s.facade.ProcessMessage(r.Context(), payload, signatures)
	if err == nil {
		if reply == nil {
			writeJSON(w, http.StatusOK, nil)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(*reply))
		return
	}

	var notReady *mailbox.ResponseNotReady
	switch {
	case errors.As(err, &notReady):
		writeJSON(w, http.StatusAccepted, map[string]string{
			"digest": notReady.Digest.String(),
			"detail": fmt.Sprintf("ask /messages/%s later", notReady.Digest),
		})
	case errors.Is(err, mailbox.ErrVerificationFailure):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, mailbox.ErrMissingOobi):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.requestLogger(r).Warn("process_message failed", logger.Error(err))
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

// handleLive upgrades the connection to a WebSocket and registers it as
// id's live notification channel, an alternative to push-token delivery
// for clients willing to hold a persistent connection open.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	id := ident.ID(r.PathValue("id"))
	if err := s.live.Upgrade(w, r, id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
}

// handleGetMessage polls for a deferred response by its request digest.
func (s *Server) handleGetMessage(w http.ResponseWriter, r *http.Request) {
	said := ident.Digest(r.PathValue("said"))
	reply, ok := s.facade.GetResponse(said)
	if !ok {
		writeError(w, http.StatusNotFound, "no response recorded for this digest")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(reply))
}
