package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/anonto42/page-comments/backend/internal/apperrors"
	"github.com/anonto42/page-comments/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockTemplateRepo(t *testing.T) (*PostgresTemplateRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err)

	repo := NewPostgresTemplateRepository(gdb)
	repo.now = func() time.Time { return testEpoch }
	return repo, mock
}

func TestPostgresTemplateList_OrdersBySequence(t *testing.T) {
	repo, mock := newMockTemplateRepo(t)

	// same microsecond, ids out of insertion order
	rows := sqlmock.NewRows([]string{"id", "name", "content", "triggers", "is_active", "seq", "created_at", "updated_at"}).
		AddRow("f0e1", "Welcome", "hi", []byte(`["hello"]`), true, int64(1), testEpoch, testEpoch).
		AddRow("0a9b", "Thanks", "welcome", []byte(`["thanks"]`), true, int64(2), testEpoch, testEpoch)
	mock.ExpectQuery(`SELECT \* FROM "templates" ORDER BY seq asc`).WillReturnRows(rows)

	templates, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, templates, 2)
	assert.Equal(t, "Welcome", templates[0].Name)
	assert.Equal(t, models.Triggers{"hello"}, templates[0].Triggers)
	assert.Equal(t, "Thanks", templates[1].Name)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTemplateCreate_AssignsSequence(t *testing.T) {
	repo, mock := newMockTemplateRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "templates" .* RETURNING "seq"`).
		WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(int64(7)))
	mock.ExpectCommit()

	tpl, err := repo.Create(context.Background(), models.CreateTemplateRequest{
		Name:     "Thanks",
		Content:  "welcome",
		Triggers: models.Triggers{"thanks"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), tpl.Seq)
	assert.True(t, tpl.IsActive)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTemplateGetByID_NotFound(t *testing.T) {
	repo, mock := newMockTemplateRepo(t)

	mock.ExpectQuery(`SELECT \* FROM "templates" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), "missing")
	assert.True(t, apperrors.IsNotFound(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}
