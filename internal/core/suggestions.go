package core

import (
	"context"
	"strings"

	"github.com/JonMunkholm/polyglot/internal/logging"
	"github.com/JonMunkholm/polyglot/internal/store"
)

// moderationEvent is an input to the suggestion state machine.
type moderationEvent string

const (
	eventApprove moderationEvent = "approve"
	eventReject  moderationEvent = "reject"
)

// transitions is the full suggestion lifecycle. Terminal states have no
// outgoing edges.
var transitions = map[SuggestionStatus]map[moderationEvent]SuggestionStatus{
	StatusPending: {
		eventApprove: StatusApproved,
		eventReject:  StatusRejected,
	},
}

// nextStatus applies event to from, failing with NOT_PENDING when the
// suggestion can no longer move.
func nextStatus(id string, from SuggestionStatus, event moderationEvent) (SuggestionStatus, error) {
	to, ok := transitions[from][event]
	if !ok {
		return "", notPending(id, from)
	}
	return to, nil
}

// ParseSuggestionStatus accepts pending/approved/rejected in any case.
// An empty status means pending.
func ParseSuggestionStatus(raw string) (SuggestionStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "", string(StatusPending):
		return StatusPending, nil
	case string(StatusApproved):
		return StatusApproved, nil
	case string(StatusRejected):
		return StatusRejected, nil
	default:
		return "", invalidf("invalid status %q: must be pending, approved or rejected", raw)
	}
}

type suggestionRow struct {
	ID          string  `db:"id"`
	KeyID       string  `db:"key_id"`
	Language    string  `db:"language"`
	Value       string  `db:"value"`
	Author      string  `db:"author"`
	Status      string  `db:"status"`
	CreatedAt   int64   `db:"created_at"`
	ReviewedAt  *int64  `db:"reviewed_at"`
	ReviewedBy  *string `db:"reviewed_by"`
	KeyName     string  `db:"key_name"`
	ProjectID   string  `db:"project_id"`
	ProjectSlug string  `db:"project_slug"`
	ProjectName string  `db:"project_name"`
}

func (r suggestionRow) toSuggestion() Suggestion {
	sg := Suggestion{
		ID:          r.ID,
		KeyID:       r.KeyID,
		KeyName:     r.KeyName,
		ProjectSlug: r.ProjectSlug,
		ProjectName: r.ProjectName,
		Language:    r.Language,
		Value:       decodeValue(r.Value),
		Author:      r.Author,
		Status:      SuggestionStatus(r.Status),
		CreatedAt:   fromMillis(r.CreatedAt),
	}
	if r.ReviewedAt != nil {
		t := fromMillis(*r.ReviewedAt)
		sg.ReviewedAt = &t
	}
	if r.ReviewedBy != nil {
		sg.ReviewedBy = *r.ReviewedBy
	}
	return sg
}

const suggestionSelect = `SELECT s.id, s.key_id, s.language, s.value, s.author, s.status,
       s.created_at, s.reviewed_at, s.reviewed_by,
       k.key_name, k.project_id, p.slug AS project_slug, p.name AS project_name
  FROM i18n_suggestions s
  JOIN i18n_keys k ON k.id = s.key_id
  JOIN i18n_projects p ON p.id = k.project_id`

// CreateSuggestion records a PENDING proposal for a key in one language.
// The value must be non-blank and match the key type. Any number of
// pending suggestions may exist for the same key and language.
func (s *Service) CreateSuggestion(ctx context.Context, keyID, language string, value Value, authorID string) (Suggestion, error) {
	if err := validateAuthor(authorID); err != nil {
		return Suggestion{}, err
	}
	if err := value.validateContent(); err != nil {
		return Suggestion{}, err
	}

	var id string
	err := s.db.InTx(ctx, func(tx *store.Tx) error {
		row, err := keyByID(ctx, tx, keyID)
		if err != nil {
			return err
		}
		id, err = s.insertSuggestion(ctx, tx, row.toKey(), language, value, authorID)
		return err
	})
	if err != nil {
		return Suggestion{}, err
	}
	return s.suggestionByID(ctx, s.db, id)
}

// SubmitSuggestion is CreateSuggestion addressed by project and key name.
func (s *Service) SubmitSuggestion(ctx context.Context, projectID, keyName, language string, value Value, authorID string) (Suggestion, error) {
	if err := validateAuthor(authorID); err != nil {
		return Suggestion{}, err
	}
	if err := validateKeyName(keyName); err != nil {
		return Suggestion{}, err
	}
	if err := value.validateContent(); err != nil {
		return Suggestion{}, err
	}

	var id string
	err := s.db.InTx(ctx, func(tx *store.Tx) error {
		row, err := keyByName(ctx, tx, projectID, keyName)
		if err != nil {
			return err
		}
		id, err = s.insertSuggestion(ctx, tx, row.toKey(), language, value, authorID)
		return err
	})
	if err != nil {
		return Suggestion{}, err
	}
	return s.suggestionByID(ctx, s.db, id)
}

func (s *Service) insertSuggestion(ctx context.Context, tx *store.Tx, key Key, language string, value Value, author string) (string, error) {
	if err := checkShape(key.Name, key.Type, value); err != nil {
		return "", err
	}
	if err := requireLanguage(ctx, tx, language); err != nil {
		return "", err
	}

	encoded, err := encodeValue(value)
	if err != nil {
		return "", storageErr("encode suggestion", err)
	}

	id := newID()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO i18n_suggestions (id, key_id, language, value, author, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, key.ID, language, encoded, author, string(StatusPending), s.nowMillis()); err != nil {
		return "", storageErr("create suggestion", err)
	}

	logging.FromContext(ctx).Info("suggestion created",
		"suggestion_id", id,
		"key", key.Name,
		"language", language,
	)
	return id, nil
}

// ListSuggestions returns a page of suggestions with the given status,
// oldest first. Limit is clamped to [1, max page size], 0 meaning the
// default; negative offsets are treated as 0.
func (s *Service) ListSuggestions(ctx context.Context, filter SuggestionFilter) ([]Suggestion, error) {
	status := filter.Status
	if status == "" {
		status = StatusPending
	}
	limit, offset := s.clampPage(filter.Limit, filter.Offset)

	var rows []suggestionRow
	err := s.db.SelectContext(ctx, &rows,
		suggestionSelect+`
		 WHERE s.status = ?
		 ORDER BY s.created_at ASC, s.id ASC
		 LIMIT ? OFFSET ?`,
		string(status), limit, offset)
	if err != nil {
		return nil, storageErr("list suggestions", err)
	}

	out := make([]Suggestion, len(rows))
	for i, r := range rows {
		out[i] = r.toSuggestion()
	}
	return out, nil
}

// GetSuggestion loads one suggestion by id.
func (s *Service) GetSuggestion(ctx context.Context, id string) (Suggestion, error) {
	return s.suggestionByID(ctx, s.db, id)
}

// Approve applies a pending suggestion: the translation is upserted with an
// SUGGESTION_APPROVED audit entry and the suggestion becomes APPROVED.
// A suggestion that is no longer pending fails with NOT_PENDING and
// changes nothing.
func (s *Service) Approve(ctx context.Context, id, moderatorID string) (Suggestion, error) {
	return s.moderate(ctx, id, moderatorID, eventApprove)
}

// Reject closes a pending suggestion without touching the translation and
// records a SUGGESTION_REJECTED audit entry carrying the rejected value.
func (s *Service) Reject(ctx context.Context, id, moderatorID string) (Suggestion, error) {
	return s.moderate(ctx, id, moderatorID, eventReject)
}

func (s *Service) moderate(ctx context.Context, id, moderatorID string, event moderationEvent) (Suggestion, error) {
	if err := validateAuthor(moderatorID); err != nil {
		return Suggestion{}, err
	}

	var out Suggestion
	err := s.db.InTx(ctx, func(tx *store.Tx) error {
		sg, err := s.lockSuggestion(ctx, tx, id)
		if err != nil {
			return err
		}

		to, err := nextStatus(id, sg.Status, event)
		if err != nil {
			return err
		}

		// Compare-and-set: a concurrent moderator that got here first leaves
		// no PENDING row to update.
		reviewedAt := s.nowMillis()
		res, err := tx.ExecContext(ctx,
			`UPDATE i18n_suggestions SET status = ?, reviewed_at = ?, reviewed_by = ?
			 WHERE id = ? AND status = ?`,
			string(to), reviewedAt, moderatorID, id, string(StatusPending))
		if err != nil {
			return storageErr("update suggestion", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return storageErr("update suggestion", err)
		}
		if n == 0 {
			current, err := s.suggestionByID(ctx, tx, id)
			if err != nil {
				return err
			}
			return notPending(id, current.Status)
		}

		switch to {
		case StatusApproved:
			krow, err := keyByID(ctx, tx, sg.KeyID)
			if err != nil {
				return err
			}
			key := krow.toKey()
			if key.Type != sg.Value.Type() {
				return keyTypeMismatch(key.Name, key.Type, sg.Value.Type())
			}
			if _, err := s.upsertTranslation(ctx, tx, key, sg.Language, sg.Value, moderatorID, ActionSuggestionApproved); err != nil {
				return err
			}
		case StatusRejected:
			keyID, language, value := sg.KeyID, sg.Language, sg.Value
			if err := s.writeAudit(ctx, tx, auditParams{
				ProjectID: sg.projectID,
				KeyID:     &keyID,
				KeyName:   sg.KeyName,
				Language:  &language,
				Action:    ActionSuggestionRejected,
				NewValue:  &value,
				Author:    moderatorID,
			}); err != nil {
				return err
			}
		}

		sg.Status = to
		t := fromMillis(reviewedAt)
		sg.ReviewedAt = &t
		sg.ReviewedBy = moderatorID
		out = sg.Suggestion
		return nil
	})
	if err != nil {
		return Suggestion{}, err
	}

	logging.FromContext(ctx).Info("suggestion moderated",
		"suggestion_id", id,
		"status", string(out.Status),
		"moderator", moderatorID,
	)
	return out, nil
}

// lockedSuggestion carries the owning project alongside the public record.
type lockedSuggestion struct {
	Suggestion
	projectID string
}

// lockSuggestion reads a suggestion inside tx, taking a row lock where the
// dialect supports one.
func (s *Service) lockSuggestion(ctx context.Context, tx *store.Tx, id string) (lockedSuggestion, error) {
	var row suggestionRow
	err := tx.GetContext(ctx, &row,
		suggestionSelect+` WHERE s.id = ?`+tx.Dialect().ForUpdate("s"), id)
	if err != nil {
		if store.IsNotFound(err) {
			return lockedSuggestion{}, notFound("suggestion", id)
		}
		return lockedSuggestion{}, storageErr("get suggestion", err)
	}
	return lockedSuggestion{Suggestion: row.toSuggestion(), projectID: row.ProjectID}, nil
}

func (s *Service) suggestionByID(ctx context.Context, q store.Querier, id string) (Suggestion, error) {
	var row suggestionRow
	err := q.GetContext(ctx, &row, suggestionSelect+` WHERE s.id = ?`, id)
	if err != nil {
		if store.IsNotFound(err) {
			return Suggestion{}, notFound("suggestion", id)
		}
		return Suggestion{}, storageErr("get suggestion", err)
	}
	return row.toSuggestion(), nil
}
