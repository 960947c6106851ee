package core

import (
	"context"

	"github.com/JonMunkholm/polyglot/internal/logging"
	"github.com/JonMunkholm/polyglot/internal/store"
)

// GetTranslations returns keyName → value for every key of the project
// that has a translation in language. Keys without one are absent.
func (s *Service) GetTranslations(ctx context.Context, projectID, language string) (map[string]Value, error) {
	var rows []struct {
		KeyName string `db:"key_name"`
		Value   string `db:"value"`
	}
	err := s.db.SelectContext(ctx, &rows,
		`SELECT k.key_name, t.value
		   FROM i18n_keys k
		   JOIN i18n_translations t ON t.key_id = k.id AND t.language = ?
		  WHERE k.project_id = ?
		  ORDER BY k.key_name`,
		language, projectID)
	if err != nil {
		return nil, storageErr("get translations", err)
	}

	out := make(map[string]Value, len(rows))
	for _, r := range rows {
		out[r.KeyName] = decodeValue(r.Value)
	}
	return out, nil
}

// UpsertTranslation writes the value of a key in one language and records
// a MANUAL_EDIT audit entry with the previous value (nil when there was
// none). The value's shape must match the key type.
func (s *Service) UpsertTranslation(ctx context.Context, keyID, language string, value Value, authorID string) error {
	if err := value.Validate(); err != nil {
		return err
	}

	return s.db.InTx(ctx, func(tx *store.Tx) error {
		row, err := keyByID(ctx, tx, keyID)
		if err != nil {
			return err
		}
		key := row.toKey()
		if err := checkShape(key.Name, key.Type, value); err != nil {
			return err
		}
		if err := requireLanguage(ctx, tx, language); err != nil {
			return err
		}
		_, err = s.upsertTranslation(ctx, tx, key, language, value, authorID, ActionManualEdit)
		return err
	})
}

// SetTranslation is the manual edit entry point: it resolves the key by
// name, writes the value and optionally replaces the description, all in
// one transaction.
func (s *Service) SetTranslation(ctx context.Context, projectID, keyName, language string, value Value, description *string, authorID string) error {
	if err := validateKeyName(keyName); err != nil {
		return err
	}
	if err := value.Validate(); err != nil {
		return err
	}

	err := s.db.InTx(ctx, func(tx *store.Tx) error {
		row, err := keyByName(ctx, tx, projectID, keyName)
		if err != nil {
			return err
		}
		key := row.toKey()
		if err := checkShape(key.Name, key.Type, value); err != nil {
			return err
		}
		if err := requireLanguage(ctx, tx, language); err != nil {
			return err
		}
		if _, err := s.upsertTranslation(ctx, tx, key, language, value, authorID, ActionManualEdit); err != nil {
			return err
		}
		if description != nil {
			return setDescription(ctx, tx, key.ID, normalizeDescription(description))
		}
		return nil
	})
	if err != nil {
		return err
	}

	logging.FromContext(ctx).Info("translation saved",
		"project_id", projectID,
		"key", keyName,
		"language", language,
	)
	return nil
}

// UpdateKeyDescription replaces a key's description; nil clears it.
// Descriptions are metadata and are not audited.
func (s *Service) UpdateKeyDescription(ctx context.Context, keyID string, description *string) error {
	return setDescription(ctx, s.db, keyID, normalizeDescription(description))
}

func setDescription(ctx context.Context, q store.Querier, keyID string, description *string) error {
	res, err := q.ExecContext(ctx,
		`UPDATE i18n_keys SET description = ? WHERE id = ?`, description, keyID)
	if err != nil {
		return storageErr("update key description", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound("key", keyID)
	}
	return nil
}

// upsertTranslation writes one (key, language) row and its audit entry.
// It returns the previous value, nil when the row is new. Callers have
// already checked shape and language.
//
// The insert is attempted first so that two first writers cannot both
// see no row: the loser of the unique index waits for the winner, then
// falls through to the locked read and records the winner's value as old.
func (s *Service) upsertTranslation(ctx context.Context, tx *store.Tx, key Key, language string, value Value, author string, action AuditAction) (*Value, error) {
	encoded, err := encodeValue(value)
	if err != nil {
		return nil, storageErr("encode translation", err)
	}
	now := s.nowMillis()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO i18n_translations (key_id, language, value, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (key_id, language) DO NOTHING`,
		key.ID, language, encoded, now)
	if err != nil {
		return nil, storageErr("write translation", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, storageErr("write translation", err)
	}

	var old *Value
	if inserted == 0 {
		var previous string
		if err := tx.GetContext(ctx, &previous,
			`SELECT t.value FROM i18n_translations t WHERE t.key_id = ? AND t.language = ?`+tx.Dialect().ForUpdate("t"),
			key.ID, language); err != nil {
			return nil, storageErr("read translation", err)
		}
		v := decodeValue(previous)
		old = &v

		if _, err := tx.ExecContext(ctx,
			`UPDATE i18n_translations SET value = ?, updated_at = ? WHERE key_id = ? AND language = ?`,
			encoded, now, key.ID, language); err != nil {
			return nil, storageErr("write translation", err)
		}
	}

	keyID := key.ID
	err = s.writeAudit(ctx, tx, auditParams{
		ProjectID: key.ProjectID,
		KeyID:     &keyID,
		KeyName:   key.Name,
		Language:  &language,
		Action:    action,
		OldValue:  old,
		NewValue:  &value,
		Author:    author,
	})
	if err != nil {
		return nil, err
	}
	return old, nil
}
