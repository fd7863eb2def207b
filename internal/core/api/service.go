// Package api provides the filter service and its gRPC bindings.
package api

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/zerolog"
	"github.com/solatis/qbfilter/internal/core/config"
	"github.com/solatis/qbfilter/internal/core/logging"
	"github.com/solatis/qbfilter/internal/rules"
	"github.com/solatis/qbfilter/internal/target/sqltarget"
	"github.com/solatis/qbfilter/internal/types"
)

// Store is the saved filter persistence used by the service.
// Implemented by *db.FilterStore.
type Store interface {
	Save(ctx context.Context, name string, payload []byte) (types.FilterID, error)
	Get(ctx context.Context, id types.FilterID) (*types.SavedFilter, error)
	List(ctx context.Context) ([]types.SavedFilter, error)
	Delete(ctx context.Context, id types.FilterID) error
}

// FilterService translates, validates and stores query-builder filters.
// Thin orchestration layer delegating to rules, sqltarget and db packages.
type FilterService struct {
	engine         *rules.Engine
	store          Store
	placeholder    sq.PlaceholderFormat
	maxPayloadSize int
	logger         zerolog.Logger
}

// NewFilterService creates service instance with dependencies. store may be
// nil, in which case the saved filter operations fail with Unavailable.
func NewFilterService(engine *rules.Engine, store Store, cfg *config.Config, logger zerolog.Logger) (*FilterService, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}

	placeholder, err := sqltarget.Placeholder(cfg.Translator.Placeholder)
	if err != nil {
		return nil, err
	}

	if fields := engine.AllowedFields(); len(fields) == 0 {
		logger.Warn().Msg("no field allow-list configured, every identifier field is accepted")
	} else {
		logger.Debug().Strs("allowed_fields", fields).Msg("field allow-list configured")
	}

	return &FilterService{
		engine:         engine,
		store:          store,
		placeholder:    placeholder,
		maxPayloadSize: cfg.Server.MaxPayloadSize,
		logger:         logger,
	}, nil
}

// Translate turns payload into "SELECT * FROM table WHERE ..." and its arguments.
func (s *FilterService) Translate(ctx context.Context, table string, payload []byte) (string, []any, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	if err := checkTable(table); err != nil {
		return "", nil, err
	}
	if err := s.checkSize(payload); err != nil {
		return "", nil, err
	}

	sql, args, err := sqltarget.ToSQL(s.engine, s.placeholder, table, payload)
	if err != nil {
		logger := logging.FromContext(ctx, s.logger)
		logger.Debug().Err(err).Str("table", table).Msg("translation failed")
		return "", nil, err
	}
	return sql, args, nil
}

// Validate checks payload without producing a query.
func (s *FilterService) Validate(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.checkSize(payload); err != nil {
		return err
	}
	return s.engine.Validate(payload)
}

// SaveFilter validates and stores payload under name.
func (s *FilterService) SaveFilter(ctx context.Context, name string, payload []byte) (types.FilterID, error) {
	if s.store == nil {
		return "", errNoStore
	}
	if err := s.checkSize(payload); err != nil {
		return "", err
	}

	id, err := s.store.Save(ctx, name, payload)
	if err != nil {
		return "", err
	}
	logger := logging.FromContext(ctx, s.logger)
	logger.Info().Str("filter_id", string(id)).Str("name", name).Msg("filter saved")
	return id, nil
}

// ApplyFilter translates the saved filter id against table.
func (s *FilterService) ApplyFilter(ctx context.Context, id types.FilterID, table string) (string, []any, error) {
	f, err := s.GetFilter(ctx, id)
	if err != nil {
		return "", nil, err
	}
	return s.Translate(ctx, table, []byte(f.Payload))
}

// GetFilter returns a saved filter.
func (s *FilterService) GetFilter(ctx context.Context, id types.FilterID) (*types.SavedFilter, error) {
	if s.store == nil {
		return nil, errNoStore
	}
	return s.store.Get(ctx, id)
}

// ListFilters returns all saved filters.
func (s *FilterService) ListFilters(ctx context.Context) ([]types.SavedFilter, error) {
	if s.store == nil {
		return nil, errNoStore
	}
	return s.store.List(ctx)
}

// DeleteFilter removes a saved filter.
func (s *FilterService) DeleteFilter(ctx context.Context, id types.FilterID) error {
	if s.store == nil {
		return errNoStore
	}
	return s.store.Delete(ctx, id)
}

// Operators lists the supported operator names.
func (s *FilterService) Operators() []string {
	return rules.OperatorNames()
}

func (s *FilterService) checkSize(payload []byte) error {
	if s.maxPayloadSize > 0 && len(payload) > s.maxPayloadSize {
		return fmt.Errorf("%w: %d bytes, limit %d", types.ErrPayloadTooLarge, len(payload), s.maxPayloadSize)
	}
	return nil
}

func checkTable(table string) error {
	if !types.IsIdentifier(table) {
		return fmt.Errorf("%w: %q", types.ErrInvalidTable, table)
	}
	return nil
}
