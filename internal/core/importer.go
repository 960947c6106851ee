package core

import (
	"context"
	"time"

	"github.com/JonMunkholm/polyglot/internal/logging"
	"github.com/JonMunkholm/polyglot/internal/store"
)

// BulkImport merges a flat dotted-path document into the project for one
// language. The whole batch is one transaction: entries are applied in
// sorted key order, missing keys are created with the type inferred from
// the value shape, and a shape that contradicts an existing key aborts
// everything with KEY_TYPE_MISMATCH. Each written translation is audited
// as IMPORT_BULK, including unchanged ones.
func (s *Service) BulkImport(ctx context.Context, projectID, language string, entries map[string]any, authorID string) (ImportResult, error) {
	var result ImportResult

	if len(entries) > s.maxImportEntries {
		return result, invalidf("import has %d keys, the limit is %d", len(entries), s.maxImportEntries)
	}

	// Validate every entry before touching storage.
	names := sortedKeys(entries)
	values := make([]Value, len(names))
	skip := make([]bool, len(names))
	for i, name := range names {
		if err := validateKeyName(name); err != nil {
			return result, err
		}
		v, skipped, err := rawToValue(name, entries[name])
		if err != nil {
			return result, err
		}
		if err := v.Validate(); err != nil {
			return result, invalidf("key %q: %s", name, err.(*Error).Message)
		}
		values[i], skip[i] = v, skipped
	}

	if err := s.imports.acquire(ctx); err != nil {
		return result, err
	}
	defer s.imports.release()

	start := time.Now()
	err := s.db.InTx(ctx, func(tx *store.Tx) error {
		result = ImportResult{}

		if _, err := projectByID(ctx, tx, projectID); err != nil {
			return err
		}
		if err := requireLanguage(ctx, tx, language); err != nil {
			return err
		}

		for i, name := range names {
			if skip[i] {
				result.Skipped++
				continue
			}
			v := values[i]

			key, created, err := s.getOrCreateKey(ctx, tx, projectID, name, v.Type(), nil)
			if err != nil {
				return err
			}
			if key.Type != v.Type() {
				return keyTypeMismatch(name, key.Type, v.Type())
			}
			if created {
				result.CreatedKeys++
			}

			old, err := s.upsertTranslation(ctx, tx, key, language, v, authorID, ActionImportBulk)
			if err != nil {
				return err
			}
			switch {
			case old == nil:
				result.Inserted++
			case old.Equal(v):
				result.Unchanged++
			default:
				result.Updated++
			}
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}

	logging.WithFields(ctx,
		"project_id", projectID,
		"language", language,
	).Info("import completed",
		"created_keys", result.CreatedKeys,
		"inserted", result.Inserted,
		"updated", result.Updated,
		"unchanged", result.Unchanged,
		"skipped", result.Skipped,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// ImportYAML parses a nested YAML document, flattens it into dotted-path
// keys and imports it with BulkImport.
func (s *Service) ImportYAML(ctx context.Context, projectID, language string, document []byte, authorID string) (ImportResult, error) {
	entries, err := parseYAML(document)
	if err != nil {
		return ImportResult{}, err
	}
	return s.BulkImport(ctx, projectID, language, entries, authorID)
}
