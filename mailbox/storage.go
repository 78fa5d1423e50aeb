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
	"encoding/json"

	"github.com/sage-x-project/keri-mailbox/ident"
	"github.com/sage-x-project/keri-mailbox/internal/metrics"
)

type storedEntry struct {
	digest  ident.Digest
	payload string
}

type storageOp int

const (
	storageSave storageOp = iota
	storageGetByIndex
	storageGetByDigest
)

type storageRequest struct {
	op       storageOp
	receiver ident.ID
	payload  string
	digest   ident.Digest
	from     uint64
	digests  []ident.Digest
	reply    chan *string
}

// StorageService holds, for each receiver identifier, an insertion-
// ordered append-only log of (digest, payload) pairs. It is the single
// owner of that map, so no mutex guards it: only the actor goroutine
// touches it.
type StorageService struct {
	inbox chan storageRequest
}

// NewStorageService starts the actor goroutine. Every successful Save
// triggers a fire-and-forget Notify on notify.
func NewStorageService(notify *NotifyService) *StorageService {
	s := &StorageService{inbox: make(chan storageRequest, requestInboxCapacity)}
	go s.run(notify)
	return s
}

// Save appends (digest, payload) to receiver's sequence and blocks until
// the append is durable in the actor's map, so a caller that returns
// right after Save is guaranteed the entry is visible to any later
// request (enqueue order on the same inbox already guarantees this; the
// ack exists so Save's contract doesn't depend on that subtlety). It
// returns ErrBackpressure immediately, rather than blocking, if the
// inbox is full.
func (s *StorageService) Save(receiver ident.ID, payload string, digest ident.Digest) error {
	reply := make(chan *string, 1)
	select {
	case s.inbox <- storageRequest{op: storageSave, receiver: receiver, payload: payload, digest: digest, reply: reply}:
	default:
		return ErrBackpressure
	}
	<-reply
	return nil
}

// indexResult is the wire shape get_by_index returns.
type indexResult struct {
	LastSn   uint64 `json:"last_sn"`
	Messages string `json:"messages"`
}

// GetByIndex returns payloads from index from (inclusive) to the end of
// receiver's sequence, concatenated, alongside the sequence's full
// length. The second return value is false if receiver is unknown or
// from is past the end of the sequence. It returns ErrBackpressure
// immediately, rather than blocking, if the inbox is full.
func (s *StorageService) GetByIndex(receiver ident.ID, from uint64) (string, bool, error) {
	reply := make(chan *string, 1)
	select {
	case s.inbox <- storageRequest{op: storageGetByIndex, receiver: receiver, from: from, reply: reply}:
	default:
		return "", false, ErrBackpressure
	}
	v := <-reply
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

// GetByDigest returns a JSON array of every payload in receiver's
// sequence whose digest appears in digests, in storage order. The second
// return value is false only when receiver is unknown; an empty match
// set still returns true with an empty array. It returns ErrBackpressure
// immediately, rather than blocking, if the inbox is full.
func (s *StorageService) GetByDigest(receiver ident.ID, digests []ident.Digest) (string, bool, error) {
	reply := make(chan *string, 1)
	select {
	case s.inbox <- storageRequest{op: storageGetByDigest, receiver: receiver, digests: digests, reply: reply}:
	default:
		return "", false, ErrBackpressure
	}
	v := <-reply
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

func (s *StorageService) run(notify *NotifyService) {
	entries := make(map[ident.ID][]storedEntry)
	for req := range s.inbox {
		switch req.op {
		case storageSave:
			entries[req.receiver] = append(entries[req.receiver], storedEntry{digest: req.digest, payload: req.payload})
			metrics.StorageSaves.Inc()
			_ = notify.Notify(req.receiver, req.digest)
			req.reply <- nil

		case storageGetByIndex:
			seq, ok := entries[req.receiver]
			if !ok || req.from >= uint64(len(seq)) {
				req.reply <- nil
				continue
			}
			var messages string
			for _, e := range seq[req.from:] {
				messages += e.payload
			}
			raw, _ := json.Marshal(indexResult{LastSn: uint64(len(seq)) - 1, Messages: messages})
			result := string(raw)
			req.reply <- &result

		case storageGetByDigest:
			seq, ok := entries[req.receiver]
			if !ok {
				req.reply <- nil
				continue
			}
			want := make(map[ident.Digest]bool, len(req.digests))
			for _, d := range req.digests {
				want[d] = true
			}
			matches := make([]string, 0)
			for _, e := range seq {
				if want[e.digest] {
					matches = append(matches, e.payload)
				}
			}
			raw, _ := json.Marshal(matches)
			result := string(raw)
			req.reply <- &result
		}
	}
}
