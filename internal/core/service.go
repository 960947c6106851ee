package core

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/polyglot/internal/config"
	"github.com/JonMunkholm/polyglot/internal/store"
)

// Defaults used when no config section is supplied.
const (
	DefaultPageSize         = 50
	MaxPageSize             = 100
	DefaultMaxImportEntries = 10000
)

// Service provides the core business logic for translation management.
// It holds no state of its own beyond the injected storage handle; every
// mutating method runs in a single transaction.
type Service struct {
	db  *store.DB
	now func() time.Time

	defaultPageSize  int
	maxPageSize      int
	maxImportEntries int
	imports          *importLimiter
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithModeration applies the moderation listing limits.
func WithModeration(cfg config.ModerationConfig) Option {
	return func(s *Service) {
		if cfg.MaxPageSize > 0 {
			s.maxPageSize = cfg.MaxPageSize
		}
		if cfg.DefaultPageSize > 0 {
			s.defaultPageSize = cfg.DefaultPageSize
		}
	}
}

// WithImport applies the bulk import limits.
func WithImport(cfg config.ImportConfig) Option {
	return func(s *Service) {
		if cfg.MaxEntries > 0 {
			s.maxImportEntries = cfg.MaxEntries
		}
		s.imports = newImportLimiter(cfg.MaxConcurrent, cfg.MaxWait)
	}
}

// NewService creates a new Service instance.
func NewService(db *store.DB, opts ...Option) (*Service, error) {
	if db == nil {
		return nil, errors.New("core: nil database")
	}

	s := &Service{
		db:               db,
		now:              time.Now,
		defaultPageSize:  DefaultPageSize,
		maxPageSize:      MaxPageSize,
		maxImportEntries: DefaultMaxImportEntries,
		imports:          newImportLimiter(DefaultMaxConcurrentImports, DefaultImportMaxWait),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.defaultPageSize > s.maxPageSize {
		s.defaultPageSize = s.maxPageSize
	}
	return s, nil
}

func (s *Service) nowMillis() int64 {
	return toMillis(s.now())
}

// newID returns a time-ordered identifier so that rows created in the same
// millisecond still sort by creation.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// clampPage bounds a limit to [1, max] (0 meaning the default) and an
// offset to >= 0.
func (s *Service) clampPage(limit, offset int) (int, int) {
	switch {
	case limit == 0:
		limit = s.defaultPageSize
	case limit < 0:
		limit = 1
	case limit > s.maxPageSize:
		limit = s.maxPageSize
	}
	return limit, max(offset, 0)
}
