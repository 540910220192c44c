package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/anonto42/page-comments/backend/internal/apperrors"
	"github.com/anonto42/page-comments/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTemplateRepo() (*MemoryTemplateRepository, *time.Time) {
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := NewMemoryTemplateRepository()
	repo.now = func() time.Time { return clock }
	return repo, &clock
}

func boolPtr(b bool) *bool { return &b }
func strPtr(s string) *string { return &s }

func TestTemplateCreate(t *testing.T) {
	repo, _ := newTestTemplateRepo()
	ctx := context.Background()

	tpl, err := repo.Create(ctx, models.CreateTemplateRequest{
		Name:     "  thanks ",
		Content:  " Thank you! ",
		Triggers: models.Triggers{"thanks", " great ", ""},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, tpl.ID)
	assert.Equal(t, "thanks", tpl.Name)
	assert.Equal(t, "Thank you!", tpl.Content)
	assert.Equal(t, models.Triggers{"thanks", "great"}, tpl.Triggers)
	assert.True(t, tpl.IsActive, "templates are active by default")
	assert.Equal(t, tpl.CreatedAt, tpl.UpdatedAt)

	inactive, err := repo.Create(ctx, models.CreateTemplateRequest{
		Name: "off", Content: "x", Triggers: models.Triggers{"a"}, IsActive: boolPtr(false),
	})
	require.NoError(t, err)
	assert.False(t, inactive.IsActive)
}

func TestTemplateCreate_Validation(t *testing.T) {
	repo, _ := newTestTemplateRepo()
	ctx := context.Background()

	tests := []struct {
		name string
		req  models.CreateTemplateRequest
	}{
		{"empty name", models.CreateTemplateRequest{Name: "", Content: "x", Triggers: models.Triggers{"a"}}},
		{"blank content", models.CreateTemplateRequest{Name: "n", Content: "  ", Triggers: models.Triggers{"a"}}},
		{"no triggers", models.CreateTemplateRequest{Name: "n", Content: "x"}},
		{"only blank triggers", models.CreateTemplateRequest{Name: "n", Content: "x", Triggers: models.Triggers{" ", ""}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.Create(ctx, tt.req)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
		})
	}

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestTemplateUpdate(t *testing.T) {
	repo, clock := newTestTemplateRepo()
	ctx := context.Background()

	tpl, err := repo.Create(ctx, models.CreateTemplateRequest{Name: "n", Content: "c", Triggers: models.Triggers{"a"}})
	require.NoError(t, err)

	*clock = clock.Add(time.Minute)
	updated, err := repo.Update(ctx, tpl.ID, models.TemplatePatch{IsActive: boolPtr(false)})
	require.NoError(t, err)

	assert.False(t, updated.IsActive)
	assert.Equal(t, "n", updated.Name, "fields not provided stay untouched")
	assert.Equal(t, models.Triggers{"a"}, updated.Triggers)
	assert.Equal(t, tpl.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(tpl.UpdatedAt))

	*clock = clock.Add(time.Minute)
	triggers := models.Triggers{"b", "c"}
	updated, err = repo.Update(ctx, tpl.ID, models.TemplatePatch{Name: strPtr("renamed"), Triggers: &triggers})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, models.Triggers{"b", "c"}, updated.Triggers)
	assert.False(t, updated.IsActive)
}

func TestTemplateUpdate_Errors(t *testing.T) {
	repo, _ := newTestTemplateRepo()
	ctx := context.Background()

	_, err := repo.Update(ctx, "missing", models.TemplatePatch{Name: strPtr("x")})
	assert.True(t, apperrors.IsNotFound(err))

	tpl, err := repo.Create(ctx, models.CreateTemplateRequest{Name: "n", Content: "c", Triggers: models.Triggers{"a"}})
	require.NoError(t, err)

	_, err = repo.Update(ctx, tpl.ID, models.TemplatePatch{Name: strPtr("changed"), Content: strPtr(" ")})
	assert.True(t, apperrors.IsValidation(err))

	current, err := repo.GetByID(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "n", current.Name, "a rejected patch must not be partially applied")
}

func TestTemplateDeleteAndListOrder(t *testing.T) {
	repo, _ := newTestTemplateRepo()
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"first", "second", "third"} {
		tpl, err := repo.Create(ctx, models.CreateTemplateRequest{Name: name, Content: "c", Triggers: models.Triggers{name}})
		require.NoError(t, err)
		ids = append(ids, tpl.ID)
	}

	require.NoError(t, repo.Delete(ctx, ids[1]))
	assert.True(t, apperrors.IsNotFound(repo.Delete(ctx, ids[1])))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].Name)
	assert.Equal(t, "third", list[1].Name)

	_, err = repo.GetByID(ctx, ids[1])
	assert.True(t, apperrors.IsNotFound(err))
}

func TestTemplateList_ReturnsCopies(t *testing.T) {
	repo, _ := newTestTemplateRepo()
	ctx := context.Background()

	_, err := repo.Create(ctx, models.CreateTemplateRequest{Name: "n", Content: "c", Triggers: models.Triggers{"a"}})
	require.NoError(t, err)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	list[0].Triggers[0] = "mutated"
	list[0].IsActive = false

	again, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", again[0].Triggers[0])
	assert.True(t, again[0].IsActive)
}
