package importer

import (
	"context"
	"database/sql"
	"strings"

	"golang.org/x/text/cases"

	"github.com/observatorio/mcerdb/models"
)

type DimensionStore interface {
	LoadDimension(ctx context.Context, kind models.DimensionKind) ([]models.Dimension, error)
	InsertDimension(ctx context.Context, kind models.DimensionKind, name string) (int64, error)
}

// Resolver finds or creates dimension rows. It caches per import unit: the
// first miss for a kind loads the whole table, later misses insert.
type Resolver struct {
	store   DimensionStore
	fold    cases.Caser
	cache   map[models.DimensionKind]map[string]int64
	created map[models.DimensionKind]int
}

func NewResolver(store DimensionStore) *Resolver {
	return &Resolver{
		store:   store,
		fold:    cases.Fold(),
		cache:   make(map[models.DimensionKind]map[string]int64),
		created: make(map[models.DimensionKind]int),
	}
}

// Key is the equality form of a dimension value: trimmed, whitespace collapsed, case folded.
// Accents are kept, so "Bogotá" and "Bogota" stay distinct.
func (r *Resolver) Key(value string) string {
	return r.fold.String(strings.Join(strings.Fields(value), " "))
}

func (r *Resolver) load(ctx context.Context, kind models.DimensionKind) (map[string]int64, error) {
	if m, ok := r.cache[kind]; ok {
		return m, nil
	}
	rows, err := r.store.LoadDimension(ctx, kind)
	if err != nil {
		return nil, err
	}
	m := make(map[string]int64, len(rows))
	for _, d := range rows {
		k := r.Key(d.Name)
		if _, dup := m[k]; !dup {
			m[k] = d.ID
		}
	}
	r.cache[kind] = m
	return m, nil
}

// Resolve returns the key of value in kind, inserting it when unseen. An empty value is a null key.
func (r *Resolver) Resolve(ctx context.Context, kind models.DimensionKind, value string) (sql.NullInt64, error) {
	value = strings.Join(strings.Fields(value), " ")
	if value == "" {
		return sql.NullInt64{}, nil
	}
	m, err := r.load(ctx, kind)
	if err != nil {
		return sql.NullInt64{}, &DimensionResolutionError{Kind: kind, Value: value, Err: err}
	}
	k := r.Key(value)
	if id, ok := m[k]; ok {
		return sql.NullInt64{Int64: id, Valid: true}, nil
	}

	id, err := r.store.InsertDimension(ctx, kind, value)
	if err != nil {
		return sql.NullInt64{}, &DimensionResolutionError{Kind: kind, Value: value, Err: err}
	}
	m[k] = id
	r.created[kind]++
	return sql.NullInt64{Int64: id, Valid: true}, nil
}

// Created returns how many rows were inserted per kind.
func (r *Resolver) Created() map[models.DimensionKind]int {
	out := make(map[models.DimensionKind]int, len(r.created))
	for k, v := range r.created {
		out[k] = v
	}
	return out
}
