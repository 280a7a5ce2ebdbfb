package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"doclib/internal/apperr"
	"doclib/internal/logging"
	"doclib/internal/model"
	"doclib/internal/storage"
	storeMocks "doclib/internal/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*DocumentJSONFile, string) {
	t.Helper()
	dir := t.TempDir()
	blobs, err := storage.NewLocal(dir)
	require.NoError(t, err)
	s, err := NewDocumentJSONFile(filepath.Join(dir, "metadata.json"), blobs)
	require.NoError(t, err)
	return s, dir
}

func doc(id string) model.Document {
	return model.Document{ID: id, Name: id + ".pdf", Size: "1.00 KB", UploadedAt: "4/20/2025, 10:00:00 AM"}
}

func TestLoadAll_MissingFileIsEmpty(t *testing.T) {
	s, _ := newTestStore(t)

	docs, err := s.LoadAll(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestAppend_PreservesInsertionOrder(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, s.Append(ctx, doc(id)))
	}

	docs, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "c", docs[0].ID)
	assert.Equal(t, "a", docs[1].ID)
	assert.Equal(t, "b", docs[2].ID)
}

func TestAppend_RejectsDuplicateID(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, doc("x")))
	err := s.Append(ctx, doc("x"))

	assert.True(t, apperr.IsPersistence(err))
	docs, _ := s.LoadAll(ctx)
	assert.Len(t, docs, 1)
}

func TestSaveAll_PrettyPrintedAndNoTempFilesLeft(t *testing.T) {
	s, dir := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveAll(ctx, []model.Document{doc("a")}))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "[\n  {\n    \"id\": \"a\""))
	assert.NotContains(t, string(data), "path", "seeded records carry no path")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), e.Name())
	}
}

func TestSaveAll_RoundTripIsStable(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	in := []model.Document{doc("a"), {ID: "b", Name: "<odd> & name.pdf", Size: "512 bytes", UploadedAt: "now", Path: "/tmp/b.pdf"}}
	require.NoError(t, s.SaveAll(ctx, in))
	first, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		docs, err := s.LoadAll(ctx)
		require.NoError(t, err)
		require.NoError(t, s.SaveAll(ctx, docs))
	}

	again, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, first, again)

	docs, _ := s.LoadAll(ctx)
	assert.Equal(t, in, docs)
}

func TestSaveAll_PropagatesWriteFailure(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "gone")
	s, err := NewDocumentJSONFile(filepath.Join(sub, "metadata.json"), nil)
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(sub))

	err = s.SaveAll(context.Background(), []model.Document{doc("a")})

	assert.True(t, apperr.IsPersistence(err))
}

func TestLoadAll_ReadFailureIsPersistenceError(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDocumentJSONFile(dir, nil)
	require.NoError(t, err)

	_, err = s.LoadAll(context.Background())

	assert.True(t, apperr.IsPersistence(err))
}

func TestLoadAll_CorruptFileIsEmptyAndLogged(t *testing.T) {
	var buf bytes.Buffer
	logging.SetDefault(logging.New(&buf, time.UTC))
	defer logging.SetDefault(logging.New(os.Stdout, time.UTC))

	s, _ := newTestStore(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte(`[{"id": "a",`), 0o644))

	docs, err := s.LoadAll(context.Background())

	require.NoError(t, err)
	assert.Empty(t, docs)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "metadata_corrupt", entry["event"])
	assert.Equal(t, s.Path(), entry["path"])
}

func TestLoadAll_NullIsEmpty(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte("null"), 0o644))

	docs, err := s.LoadAll(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestRemove_PresentDeletesRecordAndBinary(t *testing.T) {
	s, dir := newTestStore(t)
	ctx := context.Background()

	bin := filepath.Join(dir, "b-report.pdf")
	require.NoError(t, os.WriteFile(bin, []byte("%PDF"), 0o644))
	withPath := doc("b")
	withPath.Path = bin

	require.NoError(t, s.SaveAll(ctx, []model.Document{doc("a"), withPath, doc("c")}))

	found, err := s.Remove(ctx, "b")
	require.NoError(t, err)
	assert.True(t, found)

	docs, _ := s.LoadAll(ctx)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].ID)
	assert.Equal(t, "c", docs[1].ID)

	_, err = os.Stat(bin)
	assert.True(t, os.IsNotExist(err))
}

func TestRemove_MissingBinaryStillRemovesMetadata(t *testing.T) {
	s, dir := newTestStore(t)
	ctx := context.Background()

	gone := doc("a")
	gone.Path = filepath.Join(dir, "a-never-written.pdf")
	require.NoError(t, s.SaveAll(ctx, []model.Document{gone}))

	found, err := s.Remove(ctx, "a")

	require.NoError(t, err)
	assert.True(t, found)
	docs, _ := s.LoadAll(ctx)
	assert.Empty(t, docs)
}

func TestRemove_BlobErrorIsSwallowed(t *testing.T) {
	dir := t.TempDir()
	blobs := new(storeMocks.MockStorage)
	s, err := NewDocumentJSONFile(filepath.Join(dir, "metadata.json"), blobs)
	require.NoError(t, err)
	ctx := context.Background()

	d := doc("a")
	d.Path = "/elsewhere/a.pdf"
	require.NoError(t, s.SaveAll(ctx, []model.Document{d}))
	blobs.On("Delete", ctx, "/elsewhere/a.pdf").Return(errors.New("permission denied")).Once()

	found, err := s.Remove(ctx, "a")

	require.NoError(t, err)
	assert.True(t, found)
	blobs.AssertExpectations(t)
}

func TestRemove_SaveFailureKeepsBinary(t *testing.T) {
	s, dir := newTestStore(t)
	ctx := context.Background()

	bin := filepath.Join(dir, "a-report.pdf")
	require.NoError(t, os.WriteFile(bin, []byte("%PDF"), 0o644))
	d := doc("a")
	d.Path = bin
	require.NoError(t, s.SaveAll(ctx, []model.Document{d}))

	orig := writeFile
	writeFile = func(string, []byte, os.FileMode) error { return errors.New("disk full") }
	defer func() { writeFile = orig }()

	found, err := s.Remove(ctx, "a")

	assert.False(t, found)
	assert.True(t, apperr.IsPersistence(err))
	_, err = os.Stat(bin)
	assert.NoError(t, err)
}

func TestRemove_AbsentLeavesFileUntouched(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveAll(ctx, []model.Document{doc("a"), doc("b")}))
	before, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	st, _ := os.Stat(s.Path())

	found, err := s.Remove(ctx, "zzz")

	require.NoError(t, err)
	assert.False(t, found)
	after, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)
	st2, _ := os.Stat(s.Path())
	assert.Equal(t, st.ModTime(), st2.ModTime())
}

func TestRemove_AbsentOnMissingFileCreatesNothing(t *testing.T) {
	s, _ := newTestStore(t)

	found, err := s.Remove(context.Background(), "x")

	require.NoError(t, err)
	assert.False(t, found)
	_, err = os.Stat(s.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestAppend_ConcurrentWritersLoseNothing(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Append(ctx, doc(fmt.Sprintf("doc-%02d", i))))
		}(i)
	}
	wg.Wait()

	docs, err := s.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, n)

	seen := map[string]bool{}
	for _, d := range docs {
		assert.False(t, seen[d.ID])
		seen[d.ID] = true
	}
}

func TestCanceledContext(t *testing.T) {
	s, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.LoadAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Append(ctx, doc("a")), context.Canceled)
	_, err = s.Remove(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPingContext(t *testing.T) {
	s, _ := newTestStore(t)
	assert.NoError(t, s.PingContext(context.Background()))
}

func TestIsTempFile(t *testing.T) {
	assert.True(t, IsTempFile(".metadata-2931.tmp"))
	assert.True(t, IsTempFile(".ping-88"))
	assert.False(t, IsTempFile("metadata.json"))
	assert.False(t, IsTempFile("a1-report.pdf"))
	assert.False(t, IsTempFile(".metadata.json"))
}
