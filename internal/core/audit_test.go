package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListAudit_Filters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	greeting := f.key(t, "greeting", TypeString)
	farewell := f.key(t, "farewell", TypeString)

	require.NoError(t, f.svc.UpsertTranslation(ctx, greeting.ID, "fr", StringValue("Bonjour"), "editor"))
	require.NoError(t, f.svc.UpsertTranslation(ctx, greeting.ID, "en_us", StringValue("Hello"), "editor"))
	_, err := f.svc.BulkImport(ctx, f.project.ID, "fr", map[string]any{"farewell": "Au revoir"}, "uploader")
	require.NoError(t, err)

	all := f.audit(t)
	require.Len(t, all, 3)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].CreatedAt.Before(all[i-1].CreatedAt), "entries are oldest first")
	}

	byKey, err := f.svc.ListAudit(ctx, AuditFilter{ProjectID: f.project.ID, KeyID: greeting.ID})
	require.NoError(t, err)
	assert.Len(t, byKey, 2)

	byLang, err := f.svc.ListAudit(ctx, AuditFilter{ProjectID: f.project.ID, Language: "fr"})
	require.NoError(t, err)
	assert.Len(t, byLang, 2)

	byAction, err := f.svc.ListAudit(ctx, AuditFilter{Action: ActionImportBulk})
	require.NoError(t, err)
	require.Len(t, byAction, 1)
	assert.Equal(t, farewell.ID, *byAction[0].KeyID)

	page, err := f.svc.ListAudit(ctx, AuditFilter{ProjectID: f.project.ID, Limit: 1, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, all[2].ID, page[0].ID)

	other, err := f.svc.CreateProject(ctx, "other", "Other")
	require.NoError(t, err)
	none, err := f.svc.ListAudit(ctx, AuditFilter{ProjectID: other.ID})
	require.NoError(t, err)
	assert.Empty(t, none)
}
