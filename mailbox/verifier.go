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

package mailbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sage-x-project/keri-mailbox/ident"
	"github.com/sage-x-project/keri-mailbox/internal/logger"
	"github.com/sage-x-project/keri-mailbox/internal/metrics"
	"github.com/sage-x-project/keri-mailbox/kel"
	"github.com/sage-x-project/keri-mailbox/oobi"
	"github.com/sage-x-project/keri-mailbox/watcher"
)

// taskQueueCapacity bounds the Verifier's task queue, distinct from any
// request inbox: Find/Reverify tasks may block it for seconds on
// external I/O, which is an accepted trade-off (see design notes).
const taskQueueCapacity = 20

// findRetryInterval is how long Find sleeps between watcher polls when
// the watcher reports the key state isn't ready yet.
const findRetryInterval = 3 * time.Second

type taskKind int

const (
	taskVerify taskKind = iota
	taskFind
	taskReverify
)

type task struct {
	kind       taskKind
	message    []byte
	signatures []ident.Signature
	senderID   ident.ID
	reply      chan error
}

// Verifier is the heart of the pipeline: it checks signatures against
// local key state, triggers watcher fetches on a miss, parks messages
// awaiting state in ReverifyStore, and replays them once state arrives.
type Verifier struct {
	kel           kel.Store
	signer        *Signer
	watcherClient watcher.Client
	oobiStore     oobi.Store
	reverify      *ReverifyStore
	validator     *Validator
	log           logger.Logger

	mu           sync.Mutex
	witnesses    map[ident.ID][]ident.ID
	pendingFinds map[ident.ID]bool

	tasks chan task
}

// NewVerifier wires a Verifier and starts its task-loop goroutine.
func NewVerifier(
	kelStore kel.Store,
	signer *Signer,
	watcherClient watcher.Client,
	oobiStore oobi.Store,
	reverify *ReverifyStore,
	validator *Validator,
	log logger.Logger,
) *Verifier {
	v := &Verifier{
		kel:           kelStore,
		signer:        signer,
		watcherClient: watcherClient,
		oobiStore:     oobiStore,
		reverify:      reverify,
		validator:     validator,
		log:           log,
		witnesses:     make(map[ident.ID][]ident.ID),
		pendingFinds:  make(map[ident.ID]bool),
		tasks:         make(chan task, taskQueueCapacity),
	}
	go v.run()
	return v
}

// Verify enqueues a Verify task and blocks for its outcome: nil on full
// success, ErrVerificationFailure, ErrMissingOobi, a *ResponseNotReady,
// ErrBackpressure if the task queue is full, or ctx's error if ctx is
// already done.
func (v *Verifier) Verify(ctx context.Context, message []byte, signatures []ident.Signature) error {
	reply := make(chan error, 1)
	t := task{kind: taskVerify, message: message, signatures: signatures, reply: reply}

	select {
	case v.tasks <- t:
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrBackpressure
	}

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Oobi resolves a submitted OOBI record inline: it runs concurrently
// with the task loop rather than going through the task queue, so a
// resolve_oobi call is never delayed behind a Find/Reverify task's
// blocking I/O.
func (v *Verifier) Oobi(ctx context.Context, oobiJSON []byte) error {
	var reply oobi.Reply
	if err := json.Unmarshal(oobiJSON, &reply); err != nil {
		return fmt.Errorf("%w: %v", ErrOobiParsingError, err)
	}
	if err := reply.Record.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrOobiParsingError, err)
	}

	if reply.Record.Kind == oobi.EndRoleKind &&
		reply.Record.End.Role == oobi.RoleWitness &&
		reply.Record.End.EndpointID.IsBasic() {
		controller := reply.Record.End.ControllerID
		v.mu.Lock()
		v.witnesses[controller] = append(v.witnesses[controller], reply.Record.End.EndpointID)
		v.mu.Unlock()
	}

	if err := v.oobiStore.Register(ctx, []oobi.Reply{reply}); err != nil {
		return fmt.Errorf("%w: %v", ErrOobiError, err)
	}
	if err := v.watcherClient.ForwardOobi(ctx, v.signer.PublicID(), reply.Record); err != nil {
		return fmt.Errorf("%w: %v", ErrOobiError, err)
	}
	return nil
}

func (v *Verifier) run() {
	for t := range v.tasks {
		metrics.VerifyTaskQueueDepth.Set(float64(len(v.tasks)))
		switch t.kind {
		case taskVerify:
			err := v.handleVerify(t.message, t.signatures)
			metrics.VerifyTasks.WithLabelValues("verify", verifyOutcome(err)).Inc()
			t.reply <- err
		case taskFind:
			v.handleFind(t.senderID)
		case taskReverify:
			v.handleReverify(t.senderID)
		}
	}
}

// verifyOutcome maps a Verify/Reverify result to the metric label the
// rest of the package's error taxonomy already defines.
func verifyOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrVerificationFailure):
		return "verification_failure"
	case errors.Is(err, ErrMissingOobi):
		return "missing_oobi"
	default:
		var notReady *ResponseNotReady
		if errors.As(err, &notReady) {
			return "response_not_ready"
		}
		return "error"
	}
}

// handleVerify runs verify() for every signature and reduces the
// results exactly per the per-signature algorithm.
func (v *Verifier) handleVerify(message []byte, signatures []ident.Signature) error {
	results, err := v.verifyAll(message, signatures)
	if err != nil {
		var missing *missingEvent
		if errors.As(err, &missing) {
			return v.handleMissingEvent(missing, message, signatures)
		}
		return err
	}

	for _, ok := range results {
		if !ok {
			return ErrVerificationFailure
		}
	}
	return nil
}

// verifyAll checks every signature concurrently — each check only reads
// local key state, so there's no shared mutation to coordinate beyond
// each goroutine's own result slot.
func (v *Verifier) verifyAll(message []byte, signatures []ident.Signature) ([]bool, error) {
	results := make([]bool, len(signatures))
	g, _ := errgroup.WithContext(context.Background())

	for i := range signatures {
		i := i
		g.Go(func() error {
			ok, err := v.verifyOne(signatures[i], message)
			if err != nil {
				return err
			}
			results[i] = ok
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// verifyOne implements §4.8.3 for a single signature.
func (v *Verifier) verifyOne(sig ident.Signature, data []byte) (bool, error) {
	switch sig.Kind {
	case ident.Transferable:
		switch {
		case sig.Seal != nil:
			state, ok := v.kel.KeyStateAt(sig.Seal.Prefix, sig.Seal.Sn, sig.Seal.EventDigest)
			if !ok {
				return false, &missingEvent{prefix: sig.Seal.Prefix, eventDigest: sig.Seal.EventDigest}
			}
			return sig.VerifyAgainstKeys(data, state.Keys) == nil, nil
		case sig.Last != nil:
			state, ok := v.kel.CurrentKeyState(sig.Last.Prefix)
			if !ok {
				return false, &missingEvent{prefix: sig.Last.Prefix}
			}
			return sig.VerifyAgainstKeys(data, state.Keys) == nil, nil
		default:
			return false, fmt.Errorf("mailbox: transferable signature carries neither a seal nor a last-establishment marker")
		}
	case ident.NonTransferableCouplet:
		return sig.VerifyCouplets(data) == nil, nil
	case ident.NonTransferableIndexed:
		return false, ident.ErrUnsupportedSignature
	default:
		return false, fmt.Errorf("mailbox: unknown signature kind %v", sig.Kind)
	}
}

func (v *Verifier) handleMissingEvent(missing *missingEvent, message []byte, signatures []ident.Signature) error {
	if !v.hasOobi(missing.prefix) {
		return ErrMissingOobi
	}

	v.reverify.Save(missing.prefix, message, signatures)

	v.mu.Lock()
	alreadyFinding := v.pendingFinds[missing.prefix]
	if !alreadyFinding {
		v.pendingFinds[missing.prefix] = true
	}
	v.mu.Unlock()
	if !alreadyFinding {
		// Non-blocking: this runs on the task loop's own goroutine, so a
		// blocking send here on a full queue would deadlock the loop.
		select {
		case v.tasks <- task{kind: taskFind, senderID: missing.prefix}:
		default:
			v.log.Warn("verifier task queue full, dropping find task", logger.String("sender", missing.prefix.String()))
			v.mu.Lock()
			delete(v.pendingFinds, missing.prefix)
			v.mu.Unlock()
		}
	}

	digest := ident.DeriveSAID(message)
	return &ResponseNotReady{Digest: digest}
}

// hasOobi reports whether any witness endpoint recorded for id has at
// least one location scheme persisted locally.
func (v *Verifier) hasOobi(id ident.ID) bool {
	v.mu.Lock()
	witnesses := append([]ident.ID(nil), v.witnesses[id]...)
	v.mu.Unlock()

	for _, w := range witnesses {
		replies, err := v.oobiStore.GetLocation(context.Background(), w)
		if err == nil && len(replies) > 0 {
			return true
		}
	}
	return false
}

// handleFind polls the watcher for senderID's key state until it's
// ready or a terminal error occurs, per §4.8.6.
func (v *Verifier) handleFind(senderID ident.ID) {
	defer func() {
		v.mu.Lock()
		delete(v.pendingFinds, senderID)
		v.mu.Unlock()
	}()

	for {
		state, err := v.watcherClient.QueryKeyState(context.Background(), v.signer, senderID)
		if err == nil {
			metrics.WatcherQueries.WithLabelValues("ok").Inc()
			v.kel.Apply(senderID, state)
			// Non-blocking for the same reason as handleMissingEvent's
			// taskFind enqueue: this also runs on the task loop goroutine.
			select {
			case v.tasks <- task{kind: taskReverify, senderID: senderID}:
			default:
				v.log.Warn("verifier task queue full, dropping reverify task", logger.String("sender", senderID.String()))
			}
			return
		}
		if errors.Is(err, watcher.ErrResponseNotReady) {
			metrics.WatcherQueries.WithLabelValues("not_ready").Inc()
			time.Sleep(findRetryInterval)
			continue
		}
		metrics.WatcherQueries.WithLabelValues("error").Inc()
		v.log.Warn("watcher key-state query failed",
			logger.String("sender", senderID.String()),
			logger.Error(err))
		return
	}
}

// handleReverify replays a parked message now that key state is local,
// per §4.8.7. Failure is silent best-effort: the message is dropped and
// ResponseStore simply never gets an entry for it.
func (v *Verifier) handleReverify(senderID ident.ID) {
	message, signatures, ok := v.reverify.Get(senderID)
	if !ok {
		return
	}
	err := v.handleVerify(message, signatures)
	metrics.VerifyTasks.WithLabelValues("reverify", verifyOutcome(err)).Inc()
	if err != nil {
		return
	}
	v.validator.ProcessAndSave(message)
}
