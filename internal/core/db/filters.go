package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/solatis/qbfilter/internal/types"
)

// Validator checks a filter payload before it is stored.
type Validator interface {
	Validate(payload []byte) error
}

// FilterStore persists named query-builder filters.
type FilterStore struct {
	queries   *Queries
	validator Validator
	now       func() time.Time
}

// NewFilterStore creates a store. Payloads are checked with validator on
// Save; a nil validator stores payloads unchecked.
func NewFilterStore(queries *Queries, validator Validator) *FilterStore {
	return &FilterStore{
		queries:   queries,
		validator: validator,
		now:       time.Now,
	}
}

// Save validates and stores payload under name, returning the new ID.
func (s *FilterStore) Save(ctx context.Context, name string, payload []byte) (types.FilterID, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: filter name is empty", types.ErrInvalidPayload)
	}
	if len(name) > types.MaxFilterNameLength {
		return "", fmt.Errorf("%w: filter name exceeds %d characters", types.ErrInvalidPayload, types.MaxFilterNameLength)
	}

	if s.validator != nil {
		if err := s.validator.Validate(payload); err != nil {
			return "", err
		}
	}

	id := types.NewFilterID()
	createdAt := s.now().UTC().Format(time.RFC3339)
	if _, err := s.queries.Exec(ctx, "insert-filter", string(id), name, string(payload), createdAt); err != nil {
		return "", fmt.Errorf("failed to insert filter: %w", err)
	}
	return id, nil
}

// Get returns the filter with id, ErrFilterNotFound when absent.
func (s *FilterStore) Get(ctx context.Context, id types.FilterID) (*types.SavedFilter, error) {
	var f types.SavedFilter
	if err := s.queries.Get(ctx, "get-filter", &f, string(id)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", types.ErrFilterNotFound, id)
		}
		return nil, fmt.Errorf("failed to get filter: %w", err)
	}
	return &f, nil
}

// List returns all filters ordered by ID, which is creation order for UUIDv7.
func (s *FilterStore) List(ctx context.Context) ([]types.SavedFilter, error) {
	filters := []types.SavedFilter{}
	if err := s.queries.Select(ctx, "list-filters", &filters); err != nil {
		return nil, fmt.Errorf("failed to list filters: %w", err)
	}
	return filters, nil
}

// Delete removes the filter with id, ErrFilterNotFound when absent.
func (s *FilterStore) Delete(ctx context.Context, id types.FilterID) error {
	res, err := s.queries.Exec(ctx, "delete-filter", string(id))
	if err != nil {
		return fmt.Errorf("failed to delete filter: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete filter: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", types.ErrFilterNotFound, id)
	}
	return nil
}
