package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/page-comments/backend/internal/apperrors"
	"github.com/anonto42/page-comments/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgresTemplateRepository implements TemplateRepository for PostgreSQL
type PostgresTemplateRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewPostgresTemplateRepository creates a new PostgresTemplateRepository
func NewPostgresTemplateRepository(db *gorm.DB) *PostgresTemplateRepository {
	return &PostgresTemplateRepository{db: db, now: time.Now}
}

// Migrate creates or updates the templates table
func (r *PostgresTemplateRepository) Migrate() error {
	return r.db.AutoMigrate(&models.Template{})
}

// Create validates and inserts a new template
func (r *PostgresTemplateRepository) Create(ctx context.Context, req models.CreateTemplateRequest) (*models.Template, error) {
	tpl, err := newTemplate(req, r.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Create(tpl).Error; err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	return tpl, nil
}

// GetByID retrieves a template by ID
func (r *PostgresTemplateRepository) GetByID(ctx context.Context, id string) (*models.Template, error) {
	var tpl models.Template
	if err := r.db.WithContext(ctx).First(&tpl, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("template", id)
		}
		return nil, err
	}
	return &tpl, nil
}

// Update applies a partial update inside a row-locking transaction
func (r *PostgresTemplateRepository) Update(ctx context.Context, id string, patch models.TemplatePatch) (*models.Template, error) {
	var tpl models.Template
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&tpl, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("template", id)
			}
			return err
		}
		if err := applyTemplatePatch(&tpl, patch, r.now().UTC()); err != nil {
			return err
		}
		return tx.Save(&tpl).Error
	})
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

// Delete deletes a template by ID
func (r *PostgresTemplateRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Template{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("template", id)
	}
	return nil
}

// List returns templates in insertion order. created_at only has microsecond
// precision, so the sequence column decides.
func (r *PostgresTemplateRepository) List(ctx context.Context) ([]models.Template, error) {
	var templates []models.Template
	if err := r.db.WithContext(ctx).Order("seq asc").Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}
