package repositories

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/anonto42/page-comments/backend/internal/apperrors"
	"github.com/anonto42/page-comments/backend/internal/models"
	"github.com/google/uuid"
)

// TemplateRepository defines the reply template store contract
type TemplateRepository interface {
	Create(ctx context.Context, req models.CreateTemplateRequest) (*models.Template, error)
	GetByID(ctx context.Context, id string) (*models.Template, error)
	Update(ctx context.Context, id string, patch models.TemplatePatch) (*models.Template, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.Template, error)
}

// newTemplate validates a create request and builds the record both backends store
func newTemplate(req models.CreateTemplateRequest, now time.Time) (*models.Template, error) {
	name := strings.TrimSpace(req.Name)
	content := strings.TrimSpace(req.Content)
	triggers := req.Triggers.Normalize()

	if name == "" || content == "" || len(triggers) == 0 {
		return nil, apperrors.Validation("Name, content, and triggers are required")
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	return &models.Template{
		ID:        uuid.NewString(),
		Name:      name,
		Content:   content,
		Triggers:  triggers,
		IsActive:  active,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// applyTemplatePatch applies the provided fields to t. updated_at is always refreshed.
func applyTemplatePatch(t *models.Template, patch models.TemplatePatch, now time.Time) error {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return apperrors.Validation("name cannot be empty")
		}
		t.Name = name
	}
	if patch.Content != nil {
		content := strings.TrimSpace(*patch.Content)
		if content == "" {
			return apperrors.Validation("content cannot be empty")
		}
		t.Content = content
	}
	if patch.Triggers != nil {
		triggers := patch.Triggers.Normalize()
		if len(triggers) == 0 {
			return apperrors.Validation("triggers cannot be empty")
		}
		t.Triggers = triggers
	}
	if patch.IsActive != nil {
		t.IsActive = *patch.IsActive
	}
	t.UpdatedAt = now
	return nil
}

// MemoryTemplateRepository keeps templates in insertion order in process memory
type MemoryTemplateRepository struct {
	mu        sync.RWMutex
	templates []*models.Template
	now       func() time.Time
}

// NewMemoryTemplateRepository creates an empty in-memory template store
func NewMemoryTemplateRepository() *MemoryTemplateRepository {
	return &MemoryTemplateRepository{now: time.Now}
}

func (r *MemoryTemplateRepository) indexOf(id string) int {
	for i, t := range r.templates {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Create validates and stores a new template
func (r *MemoryTemplateRepository) Create(_ context.Context, req models.CreateTemplateRequest) (*models.Template, error) {
	tpl, err := newTemplate(req, r.now().UTC())
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.templates = append(r.templates, tpl)
	r.mu.Unlock()

	out := tpl.Clone()
	return &out, nil
}

// GetByID returns a template by id
func (r *MemoryTemplateRepository) GetByID(_ context.Context, id string) (*models.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, apperrors.NotFound("template", id)
	}
	out := r.templates[i].Clone()
	return &out, nil
}

// Update applies a partial update. A rejected patch leaves the template untouched.
func (r *MemoryTemplateRepository) Update(_ context.Context, id string, patch models.TemplatePatch) (*models.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, apperrors.NotFound("template", id)
	}

	updated := r.templates[i].Clone()
	if err := applyTemplatePatch(&updated, patch, r.now().UTC()); err != nil {
		return nil, err
	}
	r.templates[i] = &updated

	out := updated.Clone()
	return &out, nil
}

// Delete removes a template
func (r *MemoryTemplateRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return apperrors.NotFound("template", id)
	}
	r.templates = append(r.templates[:i], r.templates[i+1:]...)
	return nil
}

// List returns every template in insertion order
func (r *MemoryTemplateRepository) List(_ context.Context) ([]models.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Template, 0, len(r.templates))
	for _, t := range r.templates {
		out = append(out, t.Clone())
	}
	return out, nil
}
