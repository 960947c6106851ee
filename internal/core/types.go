package core

import "time"

// Project is a namespace of translation keys.
type Project struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Language is a translation target, identified by its code (e.g. en_us).
type Language struct {
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"createdAt"`
}

// Key is a typed translation slot within a project.
type Key struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"projectId"`
	Name        string    `json:"key"`
	Type        ValueType `json:"type"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// KeySpec describes one entry of a bulk key creation request.
// An empty Type leaves an existing key's type alone and defaults new keys
// to string. A nil Description leaves the stored description alone.
type KeySpec struct {
	Name        string  `json:"key"`
	Type        string  `json:"type,omitempty"`
	Description *string `json:"description,omitempty"`
}

// SuggestionStatus is the moderation state of a suggestion.
type SuggestionStatus string

const (
	StatusPending  SuggestionStatus = "PENDING"
	StatusApproved SuggestionStatus = "APPROVED"
	StatusRejected SuggestionStatus = "REJECTED"
)

// Suggestion is a proposed translation awaiting moderation.
type Suggestion struct {
	ID          string           `json:"id"`
	KeyID       string           `json:"keyId"`
	KeyName     string           `json:"key"`
	ProjectSlug string           `json:"projectSlug"`
	ProjectName string           `json:"projectName"`
	Language    string           `json:"language"`
	Value       Value            `json:"value"`
	Author      string           `json:"author"`
	Status      SuggestionStatus `json:"status"`
	CreatedAt   time.Time        `json:"createdAt"`
	ReviewedAt  *time.Time       `json:"reviewedAt,omitempty"`
	ReviewedBy  string           `json:"reviewedBy,omitempty"`
}

// SuggestionFilter selects a page of suggestions. Zero Limit means the
// configured default page size.
type SuggestionFilter struct {
	Status SuggestionStatus
	Limit  int
	Offset int
}

// AuditAction names the kind of change an audit entry records.
type AuditAction string

const (
	ActionImportBulk         AuditAction = "IMPORT_BULK"
	ActionSuggestionApproved AuditAction = "SUGGESTION_APPROVED"
	ActionSuggestionRejected AuditAction = "SUGGESTION_REJECTED"
	ActionManualEdit         AuditAction = "MANUAL_EDIT"
	ActionDelete             AuditAction = "DELETE"
)

// AuditEntry is an immutable record of one change.
type AuditEntry struct {
	ID        string      `json:"id"`
	ProjectID string      `json:"projectId"`
	KeyID     *string     `json:"keyId"`
	KeyName   string      `json:"key"`
	Language  *string     `json:"language"`
	Action    AuditAction `json:"action"`
	OldValue  *Value      `json:"oldValue"`
	NewValue  *Value      `json:"newValue"`
	Author    string      `json:"author"`
	CreatedAt time.Time   `json:"createdAt"`
}

// AuditFilter narrows an audit listing. Empty fields match everything.
type AuditFilter struct {
	ProjectID string
	KeyID     string
	Language  string
	Action    AuditAction
	Limit     int
	Offset    int
}

// ImportResult summarizes a bulk import.
type ImportResult struct {
	CreatedKeys int `json:"createdKeys"`
	Inserted    int `json:"inserted"`
	Updated     int `json:"updated"`
	Unchanged   int `json:"unchanged"`
	Skipped     int `json:"skipped"`
}

// Total is the number of translations written.
func (r ImportResult) Total() int {
	return r.Inserted + r.Updated + r.Unchanged
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
