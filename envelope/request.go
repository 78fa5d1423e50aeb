// SPDX-License-Identifier: LGPL-3.0-or-later

package envelope

import (
	"encoding/json"
	"fmt"

	"github.com/sage-x-project/keri-mailbox/ident"
)

// Request is the parsed form of one of the four recognized envelope
// shapes. The interface is a closed sum type: only the types in this
// file implement it.
type Request interface {
	isRequest()
}

// ForwardRequest asks the mailbox to store and notify receiver of an
// opaque exchange payload: {t:"exn", r:"fwd", i:receiver, a:payload}.
type ForwardRequest struct {
	Receiver ident.ID
	Payload  string
}

func (ForwardRequest) isRequest() {}

// SetTokenRequest registers a push notification token for an
// identifier: {t:"exn", r:"/auth/f", i:id, f:token}.
type SetTokenRequest struct {
	ID    ident.ID
	Token string
}

func (SetTokenRequest) isRequest() {}

// QueryBySnRequest asks for every stored message at or after a given
// sequence index: {t:"qry", i:receiver, s:index}.
type QueryBySnRequest struct {
	Receiver ident.ID
	Index    uint64
}

func (QueryBySnRequest) isRequest() {}

// QueryByDigestRequest asks for specific stored responses by digest:
// {t:"qry", i:receiver, a:[digest, ...]}.
type QueryByDigestRequest struct {
	Receiver ident.ID
	Digests  []ident.Digest
}

func (QueryByDigestRequest) isRequest() {}

// EncodeForward builds a self-addressed ForwardRequest envelope.
func EncodeForward(receiver ident.ID, payload string) ([]byte, ident.Digest, error) {
	a, err := json.Marshal(payload)
	if err != nil {
		return nil, "", fmt.Errorf("envelope: marshal payload: %w", err)
	}
	return build(TypeExchange, RouteForward, receiver.String(), a, nil, "")
}

// EncodeSetToken builds a self-addressed SetTokenRequest envelope.
func EncodeSetToken(id ident.ID, token string) ([]byte, ident.Digest, error) {
	return build(TypeExchange, RouteSetToken, id.String(), nil, nil, token)
}

// EncodeQueryBySn builds a self-addressed QueryBySnRequest envelope.
func EncodeQueryBySn(receiver ident.ID, index uint64) ([]byte, ident.Digest, error) {
	return build(TypeQuery, "", receiver.String(), nil, uintPtr(index), "")
}

// EncodeQueryByDigest builds a self-addressed QueryByDigestRequest envelope.
func EncodeQueryByDigest(receiver ident.ID, digests []ident.Digest) ([]byte, ident.Digest, error) {
	raw := make([]string, len(digests))
	for i, d := range digests {
		raw[i] = d.String()
	}
	a, err := json.Marshal(raw)
	if err != nil {
		return nil, "", fmt.Errorf("envelope: marshal digests: %w", err)
	}
	return build(TypeQuery, "", receiver.String(), a, nil, "")
}

// Parse decodes raw into one of the four request shapes. It returns
// ErrUnknownMessage if raw isn't valid JSON or matches none of them.
func Parse(raw []byte) (Request, error) {
	var env wireEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownMessage, err)
	}

	switch {
	case env.T == TypeExchange && env.R == RouteForward:
		var payload string
		if len(env.A) == 0 {
			return nil, fmt.Errorf("%w: forward missing payload", ErrUnknownMessage)
		}
		if err := json.Unmarshal(env.A, &payload); err != nil {
			return nil, fmt.Errorf("%w: forward payload: %v", ErrUnknownMessage, err)
		}
		return ForwardRequest{Receiver: ident.ID(env.I), Payload: payload}, nil

	case env.T == TypeExchange && env.R == RouteSetToken:
		if env.F == "" {
			return nil, fmt.Errorf("%w: set-token missing token", ErrUnknownMessage)
		}
		return SetTokenRequest{ID: ident.ID(env.I), Token: env.F}, nil

	case env.T == TypeQuery && env.S != nil:
		return QueryBySnRequest{Receiver: ident.ID(env.I), Index: *env.S}, nil

	case env.T == TypeQuery && len(env.A) > 0:
		var digests []string
		if err := json.Unmarshal(env.A, &digests); err != nil {
			return nil, fmt.Errorf("%w: digest list: %v", ErrUnknownMessage, err)
		}
		out := make([]ident.Digest, len(digests))
		for i, d := range digests {
			out[i] = ident.Digest(d)
		}
		return QueryByDigestRequest{Receiver: ident.ID(env.I), Digests: out}, nil

	default:
		return nil, fmt.Errorf("%w: t=%q r=%q", ErrUnknownMessage, env.T, env.R)
	}
}
