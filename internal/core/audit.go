package core

import (
	"context"
	"strings"

	"github.com/JonMunkholm/polyglot/internal/store"
)

// auditParams contains parameters for creating an audit log entry.
// A nil KeyID is used for entries that must outlive their key.
type auditParams struct {
	ProjectID string
	KeyID     *string
	KeyName   string
	Language  *string
	Action    AuditAction
	OldValue  *Value
	NewValue  *Value
	Author    string
}

type auditRow struct {
	ID        string  `db:"id"`
	ProjectID string  `db:"project_id"`
	KeyID     *string `db:"key_id"`
	KeyName   string  `db:"key_name"`
	Language  *string `db:"language"`
	Action    string  `db:"action"`
	OldValue  *string `db:"old_value"`
	NewValue  *string `db:"new_value"`
	Author    string  `db:"author"`
	CreatedAt int64   `db:"created_at"`
}

func (r auditRow) toEntry() AuditEntry {
	return AuditEntry{
		ID:        r.ID,
		ProjectID: r.ProjectID,
		KeyID:     r.KeyID,
		KeyName:   r.KeyName,
		Language:  r.Language,
		Action:    AuditAction(r.Action),
		OldValue:  decodeNullable(r.OldValue),
		NewValue:  decodeNullable(r.NewValue),
		Author:    r.Author,
		CreatedAt: fromMillis(r.CreatedAt),
	}
}

const auditColumns = `id, project_id, key_id, key_name, language, action, old_value, new_value, author, created_at`

// writeAudit appends one entry. It must only be called with the transaction
// that performs the change being recorded.
func (s *Service) writeAudit(ctx context.Context, tx *store.Tx, p auditParams) error {
	oldValue, err := encodeNullable(p.OldValue)
	if err != nil {
		return storageErr("encode audit value", err)
	}
	newValue, err := encodeNullable(p.NewValue)
	if err != nil {
		return storageErr("encode audit value", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO i18n_audit (`+auditColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		newID(), p.ProjectID, p.KeyID, p.KeyName, p.Language, string(p.Action),
		oldValue, newValue, p.Author, s.nowMillis())
	if err != nil {
		return storageErr("write audit", err)
	}
	return nil
}

// ListAudit returns audit entries matching the filter, oldest first.
func (s *Service) ListAudit(ctx context.Context, filter AuditFilter) ([]AuditEntry, error) {
	limit, offset := s.clampPage(filter.Limit, filter.Offset)

	var (
		where []string
		args  []any
	)
	if filter.ProjectID != "" {
		where = append(where, "project_id = ?")
		args = append(args, filter.ProjectID)
	}
	if filter.KeyID != "" {
		where = append(where, "key_id = ?")
		args = append(args, filter.KeyID)
	}
	if filter.Language != "" {
		where = append(where, "language = ?")
		args = append(args, filter.Language)
	}
	if filter.Action != "" {
		where = append(where, "action = ?")
		args = append(args, string(filter.Action))
	}

	query := `SELECT ` + auditColumns + ` FROM i18n_audit`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at ASC, id ASC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	var rows []auditRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, storageErr("list audit", err)
	}

	entries := make([]AuditEntry, len(rows))
	for i, r := range rows {
		entries[i] = r.toEntry()
	}
	return entries, nil
}
