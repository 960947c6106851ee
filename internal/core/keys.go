package core

import (
	"context"

	"github.com/JonMunkholm/polyglot/internal/logging"
	"github.com/JonMunkholm/polyglot/internal/store"
)

const keyColumns = `id, project_id, key_name, value_type, description, created_at`

type keyRow struct {
	ID          string  `db:"id"`
	ProjectID   string  `db:"project_id"`
	Name        string  `db:"key_name"`
	ValueType   string  `db:"value_type"`
	Description *string `db:"description"`
	CreatedAt   int64   `db:"created_at"`
}

func (r keyRow) toKey() Key {
	return Key{
		ID:          r.ID,
		ProjectID:   r.ProjectID,
		Name:        r.Name,
		Type:        NormalizeType(r.ValueType),
		Description: r.Description,
		CreatedAt:   fromMillis(r.CreatedAt),
	}
}

// GetOrCreateKey returns the key named keyName in the project, creating it
// with inferred as its type when absent. An existing untyped key has its
// type backfilled; an already typed key is never retyped here.
func (s *Service) GetOrCreateKey(ctx context.Context, projectID, keyName string, inferred ValueType, description *string) (Key, error) {
	if err := validateKeyName(keyName); err != nil {
		return Key{}, err
	}

	var key Key
	err := s.db.InTx(ctx, func(tx *store.Tx) error {
		if _, err := projectByID(ctx, tx, projectID); err != nil {
			return err
		}
		var err error
		key, _, err = s.getOrCreateKey(ctx, tx, projectID, keyName, inferred, normalizeDescription(description))
		return err
	})
	return key, err
}

// getOrCreateKey inserts with ON CONFLICT DO NOTHING and then reads back, so
// concurrent callers converge on one row. created reports whether this call
// inserted it.
func (s *Service) getOrCreateKey(ctx context.Context, q store.Querier, projectID, keyName string, inferred ValueType, description *string) (key Key, created bool, err error) {
	if inferred != TypeList {
		inferred = TypeString
	}

	res, err := q.ExecContext(ctx,
		`INSERT INTO i18n_keys (id, project_id, key_name, value_type, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (project_id, key_name) DO NOTHING`,
		newID(), projectID, keyName, string(inferred), description, s.nowMillis())
	if err != nil {
		return Key{}, false, storageErr("create key", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		created = true
	}

	row, err := keyByName(ctx, q, projectID, keyName)
	if err != nil {
		return Key{}, false, err
	}

	if row.ValueType == "" {
		if _, err := q.ExecContext(ctx,
			`UPDATE i18n_keys SET value_type = ? WHERE id = ? AND value_type = ''`,
			string(inferred), row.ID); err != nil {
			return Key{}, false, storageErr("backfill key type", err)
		}
		row.ValueType = string(inferred)
	}

	return row.toKey(), created, nil
}

// CreateKeysBulk creates or updates a batch of keys atomically and returns
// the resulting keys in input order. Existing keys get their description
// updated when one is supplied and differs, and their type updated when one
// is supplied and differs. This is the only path that retypes a key.
func (s *Service) CreateKeysBulk(ctx context.Context, projectID string, items []KeySpec) ([]Key, error) {
	if len(items) == 0 {
		return nil, invalidf("at least one key is required")
	}

	types := make([]ValueType, len(items))
	for i, item := range items {
		if err := validateKeyName(item.Name); err != nil {
			return nil, err
		}
		if item.Type != "" {
			t, err := ParseValueType(item.Type)
			if err != nil {
				return nil, err
			}
			types[i] = t
		}
	}

	keys := make([]Key, len(items))
	var created, updated int
	err := s.db.InTx(ctx, func(tx *store.Tx) error {
		if _, err := projectByID(ctx, tx, projectID); err != nil {
			return err
		}

		for i, item := range items {
			desc := normalizeDescription(item.Description)

			row, err := keyByName(ctx, tx, projectID, item.Name)
			if err != nil && !IsNotFound(err) {
				return err
			}

			if err != nil {
				t := types[i]
				if t == "" {
					t = TypeString
				}
				row = keyRow{
					ID:          newID(),
					ProjectID:   projectID,
					Name:        item.Name,
					ValueType:   string(t),
					Description: desc,
					CreatedAt:   s.nowMillis(),
				}
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO i18n_keys (`+keyColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
					row.ID, row.ProjectID, row.Name, row.ValueType, row.Description, row.CreatedAt); err != nil {
					return storageErr("create key", err)
				}
				created++
				keys[i] = row.toKey()
				continue
			}

			changed := false
			if desc != nil && (row.Description == nil || *row.Description != *desc) {
				row.Description = desc
				changed = true
			}
			if types[i] != "" && row.ValueType != string(types[i]) {
				row.ValueType = string(types[i])
				changed = true
			}
			if changed {
				if _, err := tx.ExecContext(ctx,
					`UPDATE i18n_keys SET value_type = ?, description = ? WHERE id = ?`,
					row.ValueType, row.Description, row.ID); err != nil {
					return storageErr("update key", err)
				}
				updated++
			}
			keys[i] = row.toKey()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("keys saved",
		"project_id", projectID,
		"created", created,
		"updated", updated,
		"total", len(items),
	)
	return keys, nil
}

// DeleteKey hard-deletes a key of the project. Its translations,
// suggestions and audit history cascade away; a single DELETE audit entry
// that no longer references the key id records the deletion.
func (s *Service) DeleteKey(ctx context.Context, projectID, keyID, authorID string) error {
	err := s.db.InTx(ctx, func(tx *store.Tx) error {
		var row keyRow
		err := tx.GetContext(ctx, &row,
			`SELECT `+keyColumns+` FROM i18n_keys WHERE id = ? AND project_id = ?`, keyID, projectID)
		if err != nil {
			if store.IsNotFound(err) {
				return notFound("key", keyID)
			}
			return storageErr("get key", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM i18n_keys WHERE id = ?`, row.ID); err != nil {
			return storageErr("delete key", err)
		}

		return s.writeAudit(ctx, tx, auditParams{
			ProjectID: projectID,
			KeyName:   row.Name,
			Action:    ActionDelete,
			Author:    authorID,
		})
	})
	if err != nil {
		return err
	}

	logging.FromContext(ctx).Info("key deleted", "project_id", projectID, "key_id", keyID)
	return nil
}

// ListKeys returns the project's keys ordered by name.
func (s *Service) ListKeys(ctx context.Context, projectID string) ([]Key, error) {
	var rows []keyRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT `+keyColumns+` FROM i18n_keys WHERE project_id = ? ORDER BY key_name`, projectID); err != nil {
		return nil, storageErr("list keys", err)
	}

	keys := make([]Key, len(rows))
	for i, r := range rows {
		keys[i] = r.toKey()
	}
	return keys, nil
}

// GetKey loads a key by id.
func (s *Service) GetKey(ctx context.Context, keyID string) (Key, error) {
	row, err := keyByID(ctx, s.db, keyID)
	if err != nil {
		return Key{}, err
	}
	return row.toKey(), nil
}

func keyByName(ctx context.Context, q store.Querier, projectID, keyName string) (keyRow, error) {
	var row keyRow
	err := q.GetContext(ctx, &row,
		`SELECT `+keyColumns+` FROM i18n_keys WHERE project_id = ? AND key_name = ?`, projectID, keyName)
	if err != nil {
		if store.IsNotFound(err) {
			return keyRow{}, notFound("key", keyName)
		}
		return keyRow{}, storageErr("get key", err)
	}
	return row, nil
}

func keyByID(ctx context.Context, q store.Querier, keyID string) (keyRow, error) {
	var row keyRow
	err := q.GetContext(ctx, &row,
		`SELECT `+keyColumns+` FROM i18n_keys WHERE id = ?`, keyID)
	if err != nil {
		if store.IsNotFound(err) {
			return keyRow{}, notFound("key", keyID)
		}
		return keyRow{}, storageErr("get key", err)
	}
	return row, nil
}

// IsNotFound reports whether err is a NotFound domain error.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}
