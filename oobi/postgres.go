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

package oobi

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sage-x-project/keri-mailbox/ident"
)

// PostgresStore is a Store backed by two tables:
// oobi_locations(endpoint_id, transport, url, signatures) and
// oobi_roles(controller_id, role, endpoint_id, signatures). It is
// selected instead of MemoryStore when the mailbox's configured db_path
// is a postgres:// DSN rather than a filesystem path.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore opens a connection pool against connString (a
// postgres:// DSN) and verifies it is reachable before returning.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("oobi: create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("oobi: ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() { s.pool.Close() }

// Ping implements Store.
func (s *PostgresStore) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// Register implements Store.
func (s *PostgresStore) Register(ctx context.Context, replies []Reply) error {
	for _, r := range replies {
		if err := r.Record.Validate(); err != nil {
			return err
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("oobi: begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range replies {
		sigs, err := json.Marshal(r.Signatures)
		if err != nil {
			return fmt.Errorf("oobi: marshal signatures: %w", err)
		}

		switch r.Record.Kind {
		case LocationSchemeKind:
			_, err = tx.Exec(ctx, `
				INSERT INTO oobi_locations (endpoint_id, transport, url, signatures)
				VALUES ($1, $2, $3, $4)
			`, r.Record.Location.EndpointID.String(), r.Record.Location.Transport, r.Record.Location.URL, sigs)
		case EndRoleKind:
			_, err = tx.Exec(ctx, `
				INSERT INTO oobi_roles (controller_id, role, endpoint_id, signatures)
				VALUES ($1, $2, $3, $4)
			`, r.Record.End.ControllerID.String(), string(r.Record.End.Role), r.Record.End.EndpointID.String(), sigs)
		}
		if err != nil {
			return fmt.Errorf("oobi: insert reply: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("oobi: commit transaction: %w", err)
	}
	return nil
}

// GetLocation implements Store.
func (s *PostgresStore) GetLocation(ctx context.Context, endpointID ident.ID) ([]Reply, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT endpoint_id, transport, url, signatures
		FROM oobi_locations
		WHERE endpoint_id = $1
	`, endpointID.String())
	if err != nil {
		return nil, fmt.Errorf("oobi: query locations: %w", err)
	}
	defer rows.Close()

	var out []Reply
	for rows.Next() {
		var eid, transport, url string
		var sigsRaw []byte
		if err := rows.Scan(&eid, &transport, &url, &sigsRaw); err != nil {
			return nil, fmt.Errorf("oobi: scan location: %w", err)
		}
		var sigs []ident.Signature
		if len(sigsRaw) > 0 {
			if err := json.Unmarshal(sigsRaw, &sigs); err != nil {
				return nil, fmt.Errorf("oobi: unmarshal signatures: %w", err)
			}
		}
		out = append(out, Reply{
			Record: Record{
				Kind:     LocationSchemeKind,
				Location: &LocationScheme{EndpointID: ident.ID(eid), Transport: transport, URL: url},
			},
			Signatures: sigs,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("oobi: iterate locations: %w", err)
	}
	return out, nil
}

// GetRoleOobi implements Store.
func (s *PostgresStore) GetRoleOobi(ctx context.Context, controllerID ident.ID, role Role, endpointID ident.ID) ([]Reply, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT controller_id, role, endpoint_id, signatures
		FROM oobi_roles
		WHERE controller_id = $1 AND role = $2 AND endpoint_id = $3
	`, controllerID.String(), string(role), endpointID.String())
	if err != nil {
		return nil, fmt.Errorf("oobi: query roles: %w", err)
	}
	defer rows.Close()

	var out []Reply
	for rows.Next() {
		var cid, roleStr, eid string
		var sigsRaw []byte
		if err := rows.Scan(&cid, &roleStr, &eid, &sigsRaw); err != nil {
			return nil, fmt.Errorf("oobi: scan role: %w", err)
		}
		var sigs []ident.Signature
		if len(sigsRaw) > 0 {
			if err := json.Unmarshal(sigsRaw, &sigs); err != nil {
				return nil, fmt.Errorf("oobi: unmarshal signatures: %w", err)
			}
		}
		out = append(out, Reply{
			Record: Record{
				Kind: EndRoleKind,
				End:  &EndRole{ControllerID: ident.ID(cid), Role: Role(roleStr), EndpointID: ident.ID(eid)},
			},
			Signatures: sigs,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("oobi: iterate roles: %w", err)
	}
	return out, nil
}
