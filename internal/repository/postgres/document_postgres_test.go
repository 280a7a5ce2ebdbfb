package postgres

import (
	"context"
	"errors"
	"testing"

	"doclib/internal/apperr"
	"doclib/internal/model"
	storeMocks "doclib/internal/storage/mocks"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{"id", "name", "size", "uploaded_at", "path"}

func TestDocumentPostgres_LoadAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db, nil)
	ctx := context.Background()

	t.Run("success keeps order", func(t *testing.T) {
		rows := sqlmock.NewRows(columns).
			AddRow("b", "b.pdf", "1.00 KB", "4/21/2025, 9:00:00 AM", "").
			AddRow("a", "a.pdf", "2.00 MB", "4/22/2025, 9:00:00 AM", "/data/a-a.pdf")

		mock.ExpectQuery("SELECT (.+) FROM documents ORDER BY seq").WillReturnRows(rows)

		docs, err := repo.LoadAll(ctx)

		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "b", docs[0].ID)
		assert.Empty(t, docs[0].Path)
		assert.Equal(t, "/data/a-a.pdf", docs[1].Path)
	})

	t.Run("empty table", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents ORDER BY seq").WillReturnRows(sqlmock.NewRows(columns))

		docs, err := repo.LoadAll(ctx)

		require.NoError(t, err)
		assert.NotNil(t, docs)
		assert.Empty(t, docs)
	})

	t.Run("query error", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents").WillReturnError(errors.New("conn reset"))

		_, err := repo.LoadAll(ctx)

		assert.True(t, apperr.IsPersistence(err))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_SaveAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db, nil)
	ctx := context.Background()
	docs := []model.Document{
		{ID: "a", Name: "a.pdf", Size: "1.00 KB", UploadedAt: "t1"},
		{ID: "b", Name: "b.pdf", Size: "2.00 KB", UploadedAt: "t2", Path: "/p/b"},
	}

	t.Run("success", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM documents").WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectExec("INSERT INTO documents").WithArgs("a", "a.pdf", "1.00 KB", "t1", "").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO documents").WithArgs("b", "b.pdf", "2.00 KB", "t2", "/p/b").WillReturnResult(sqlmock.NewResult(2, 1))
		mock.ExpectCommit()

		assert.NoError(t, repo.SaveAll(ctx, docs))
	})

	t.Run("insert failure rolls back", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM documents").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("INSERT INTO documents").WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		err := repo.SaveAll(ctx, docs)

		assert.True(t, apperr.IsPersistence(err))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_Append(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db, nil)
	ctx := context.Background()
	d := model.Document{ID: "a", Name: "a.pdf", Size: "1.00 KB", UploadedAt: "t1", Path: "/p/a"}

	mock.ExpectExec("INSERT INTO documents").
		WithArgs(d.ID, d.Name, d.Size, d.UploadedAt, d.Path).
		WillReturnResult(sqlmock.NewResult(1, 1))
	assert.NoError(t, repo.Append(ctx, d))

	mock.ExpectExec("INSERT INTO documents").WillReturnError(errors.New("duplicate key value violates unique constraint"))
	assert.True(t, apperr.IsPersistence(repo.Append(ctx, d)))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_Remove(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()

	t.Run("found deletes blob and row", func(t *testing.T) {
		blobs := new(storeMocks.MockStorage)
		repo := NewDocumentPostgres(db, blobs)

		mock.ExpectQuery("SELECT id, (.+) FROM documents WHERE id = ?").
			WithArgs("a").
			WillReturnRows(sqlmock.NewRows([]string{"id", "path"}).AddRow("a", "/p/a"))
		blobs.On("Delete", ctx, "/p/a").Return(nil).Once()
		mock.ExpectExec("DELETE FROM documents WHERE id = ?").
			WithArgs("a").
			WillReturnResult(sqlmock.NewResult(0, 1))

		found, err := repo.Remove(ctx, "a")

		assert.NoError(t, err)
		assert.True(t, found)
		blobs.AssertExpectations(t)
	})

	t.Run("blob failure does not block delete", func(t *testing.T) {
		blobs := new(storeMocks.MockStorage)
		repo := NewDocumentPostgres(db, blobs)

		mock.ExpectQuery("SELECT id, (.+) FROM documents WHERE id = ?").
			WithArgs("b").
			WillReturnRows(sqlmock.NewRows([]string{"id", "path"}).AddRow("b", "/p/b"))
		blobs.On("Delete", ctx, "/p/b").Return(errors.New("io error")).Once()
		mock.ExpectExec("DELETE FROM documents WHERE id = ?").
			WithArgs("b").
			WillReturnResult(sqlmock.NewResult(0, 1))

		found, err := repo.Remove(ctx, "b")

		assert.NoError(t, err)
		assert.True(t, found)
	})

	t.Run("delete failure keeps blob", func(t *testing.T) {
		blobs := new(storeMocks.MockStorage)
		repo := NewDocumentPostgres(db, blobs)

		mock.ExpectQuery("SELECT id, (.+) FROM documents WHERE id = ?").
			WithArgs("c").
			WillReturnRows(sqlmock.NewRows([]string{"id", "path"}).AddRow("c", "/p/c"))
		mock.ExpectExec("DELETE FROM documents WHERE id = ?").
			WithArgs("c").
			WillReturnError(errors.New("conn reset"))

		found, err := repo.Remove(ctx, "c")

		assert.Error(t, err)
		assert.False(t, found)
		blobs.AssertNotCalled(t, "Delete", ctx, "/p/c")
	})

	t.Run("not found", func(t *testing.T) {
		repo := NewDocumentPostgres(db, nil)

		mock.ExpectQuery("SELECT id, (.+) FROM documents WHERE id = ?").
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows([]string{"id", "path"}))

		found, err := repo.Remove(ctx, "missing")

		assert.NoError(t, err)
		assert.False(t, found)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
