package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/abilitygen/internal/ability"
)

// ErrNoAbilities is returned when publishing an empty record set.
var ErrNoAbilities = errors.New("no abilities to publish")

// AbilityRepository mirrors the abilities document into PostgreSQL.
type AbilityRepository struct {
	db *pgxpool.Pool
}

// NewAbilityRepository creates an AbilityRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewAbilityRepository(db *pgxpool.Pool) *AbilityRepository {
	return &AbilityRepository{db: db}
}

// ReplaceAll swaps the stored abilities for records in one transaction.
//
// Precondition: records must be non-empty with unique ids.
// Postcondition: the table holds exactly records tagged with version, or is
// unchanged on error.
func (r *AbilityRepository) ReplaceAll(ctx context.Context, version string, records []ability.Ability) error {
	if len(records) == 0 {
		return ErrNoAbilities
	}

	batch := &pgx.Batch{}
	for _, a := range records {
		params, err := json.Marshal(a.Params)
		if err != nil {
			return fmt.Errorf("encoding params for ability %d: %w", a.ID, err)
		}
		batch.Queue(
			`INSERT INTO abilities (id, identifier, var_name, name, effect, trigger_kind, params, document_version)
			 VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8)`,
			a.ID, a.Identifier, a.VarName, a.Name, a.Effect, string(a.Params.Kind()), string(params), version,
		)
	}

	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM abilities`); err != nil {
			return fmt.Errorf("clearing abilities: %w", err)
		}
		results := tx.SendBatch(ctx, batch)
		for _, a := range records {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return fmt.Errorf("inserting ability %d: %w", a.ID, err)
			}
		}
		if err := results.Close(); err != nil {
			return fmt.Errorf("closing insert batch: %w", err)
		}
		return nil
	})
}

// List returns the stored abilities ascending by id.
//
// Postcondition: each record's Params is decoded and validated.
func (r *AbilityRepository) List(ctx context.Context) ([]ability.Ability, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, identifier, var_name, name, effect, params
		 FROM abilities ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying abilities: %w", err)
	}
	defer rows.Close()

	var out []ability.Ability
	for rows.Next() {
		var (
			a      ability.Ability
			params []byte
		)
		if err := rows.Scan(&a.ID, &a.Identifier, &a.VarName, &a.Name, &a.Effect, &params); err != nil {
			return nil, fmt.Errorf("scanning ability: %w", err)
		}
		if err := json.Unmarshal(params, &a.Params); err != nil {
			return nil, fmt.Errorf("decoding params for ability %d: %w", a.ID, err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating abilities: %w", err)
	}
	return out, nil
}

// CountByTrigger returns how many stored abilities use each trigger kind.
func (r *AbilityRepository) CountByTrigger(ctx context.Context) (map[ability.Kind]int, error) {
	rows, err := r.db.Query(ctx,
		`SELECT trigger_kind, COUNT(*) FROM abilities GROUP BY trigger_kind`,
	)
	if err != nil {
		return nil, fmt.Errorf("counting abilities: %w", err)
	}
	defer rows.Close()

	out := make(map[ability.Kind]int)
	for rows.Next() {
		var (
			kind  string
			count int
		)
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("scanning trigger count: %w", err)
		}
		out[ability.Kind(kind)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating trigger counts: %w", err)
	}
	return out, nil
}
