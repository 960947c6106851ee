package core

import (
	"context"

	"github.com/JonMunkholm/polyglot/internal/store"
)

type languageRow struct {
	Code      string `db:"code"`
	CreatedAt int64  `db:"created_at"`
}

// AddLanguage registers a language code. Adding a code that already exists
// is a no-op that returns the stored row.
func (s *Service) AddLanguage(ctx context.Context, code string) (Language, error) {
	code, err := validateLanguageCode(code)
	if err != nil {
		return Language{}, err
	}

	var row languageRow
	err = s.db.InTx(ctx, func(tx *store.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO i18n_languages (code, created_at) VALUES (?, ?) ON CONFLICT (code) DO NOTHING`,
			code, s.nowMillis()); err != nil {
			return storageErr("add language", err)
		}
		if err := tx.GetContext(ctx, &row,
			`SELECT code, created_at FROM i18n_languages WHERE code = ?`, code); err != nil {
			return storageErr("get language", err)
		}
		return nil
	})
	if err != nil {
		return Language{}, err
	}
	return Language{Code: row.Code, CreatedAt: fromMillis(row.CreatedAt)}, nil
}

// ListLanguages returns every registered language ordered by code.
func (s *Service) ListLanguages(ctx context.Context) ([]Language, error) {
	var rows []languageRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT code, created_at FROM i18n_languages ORDER BY code`); err != nil {
		return nil, storageErr("list languages", err)
	}

	langs := make([]Language, len(rows))
	for i, r := range rows {
		langs[i] = Language{Code: r.Code, CreatedAt: fromMillis(r.CreatedAt)}
	}
	return langs, nil
}

// requireLanguage fails with NotFound unless code is registered.
func requireLanguage(ctx context.Context, q store.Querier, code string) error {
	var n int
	if err := q.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM i18n_languages WHERE code = ?`, code); err != nil {
		return storageErr("check language", err)
	}
	if n == 0 {
		return notFound("language", code)
	}
	return nil
}
