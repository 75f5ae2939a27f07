package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// writePhotos creates n fake photos with strictly increasing mtimes, so
// photo-(n-1) is the newest.
func writePhotos(t *testing.T, dir string, n int) {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		path := filepath.Join(dir, fmt.Sprintf("photo-%03d.jpg", i))
		require.NoError(t, os.WriteFile(path, []byte("not really a jpeg"), 0o644))
		mt := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(path, mt, mt))
	}
}

func newGrantedLibrary(t *testing.T, dir string) *DirLibrary {
	t.Helper()
	lib, err := NewDirLibrary(DirConfig{Root: dir, AccessGranted: true}, testLogger())
	require.NoError(t, err)
	granted, err := lib.RequestPermission(context.Background())
	require.NoError(t, err)
	require.True(t, granted)
	return lib
}

func TestDirLibrary_PermissionRequired(t *testing.T) {
	dir := t.TempDir()
	writePhotos(t, dir, 2)

	lib, err := NewDirLibrary(DirConfig{Root: dir, AccessGranted: false}, testLogger())
	require.NoError(t, err)

	granted, err := lib.RequestPermission(context.Background())
	require.NoError(t, err)
	assert.False(t, granted)

	_, err = lib.ListPage(context.Background(), "", 10)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestDirLibrary_PermissionMissingRoot(t *testing.T) {
	lib, err := NewDirLibrary(DirConfig{
		Root:          filepath.Join(t.TempDir(), "missing"),
		AccessGranted: true,
	}, testLogger())
	require.NoError(t, err)

	granted, err := lib.RequestPermission(context.Background())
	require.NoError(t, err)
	assert.False(t, granted)
}

func TestDirLibrary_ListPagePaginates(t *testing.T) {
	dir := t.TempDir()
	writePhotos(t, dir, 5)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "album"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "album", "old.PNG"), []byte("x"), 0o644))
	old := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "album", "old.PNG"), old, old))

	lib := newGrantedLibrary(t, dir)
	ctx := context.Background()

	var ids []string
	cursor := ""
	pages := 0
	for {
		page, err := lib.ListPage(ctx, cursor, 2)
		require.NoError(t, err)
		pages++
		for _, a := range page.Items {
			ids = append(ids, a.ID)
		}
		if !page.HasMore {
			assert.Empty(t, page.NextCursor)
			break
		}
		cursor = page.NextCursor
	}

	assert.Equal(t, 3, pages)
	assert.Equal(t, []string{
		"photo-004.jpg",
		"photo-003.jpg",
		"photo-002.jpg",
		"photo-001.jpg",
		"photo-000.jpg",
		"album/old.PNG",
	}, ids)
}

func TestDirLibrary_CursorFromOldIndexRejected(t *testing.T) {
	dir := t.TempDir()
	writePhotos(t, dir, 3)
	lib := newGrantedLibrary(t, dir)
	ctx := context.Background()

	page, err := lib.ListPage(ctx, "", 1)
	require.NoError(t, err)
	require.True(t, page.HasMore)

	// Restarting enumeration rebuilds the index.
	_, err = lib.ListPage(ctx, "", 1)
	require.NoError(t, err)

	_, err = lib.ListPage(ctx, page.NextCursor, 1)
	assert.ErrorIs(t, err, ErrInvalidCursor)

	_, err = lib.ListPage(ctx, "garbage", 1)
	assert.ErrorIs(t, err, ErrInvalidCursor)
}

func TestDirLibrary_ResolveAndRead(t *testing.T) {
	dir := t.TempDir()
	writePhotos(t, dir, 1)
	lib := newGrantedLibrary(t, dir)
	ctx := context.Background()

	uri, err := lib.ResolveLocalURI(ctx, "photo-000.jpg")
	require.NoError(t, err)
	assert.Contains(t, uri, "file://")

	data, err := lib.ReadURI(ctx, uri)
	require.NoError(t, err)
	assert.Equal(t, []byte("not really a jpeg"), data)

	missing, err := lib.ResolveLocalURI(ctx, "gone.jpg")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestDirLibrary_RejectsPathsOutsideRoot(t *testing.T) {
	dir := t.TempDir()
	lib := newGrantedLibrary(t, dir)
	ctx := context.Background()

	_, err := lib.ResolveLocalURI(ctx, "../secret.jpg")
	assert.True(t, errors.Is(err, ErrOutsideLibrary))

	_, err = lib.ReadURI(ctx, "file:///etc/passwd")
	assert.ErrorIs(t, err, ErrOutsideLibrary)

	_, err = lib.ReadURI(ctx, "https://example.com/a.jpg")
	assert.ErrorIs(t, err, ErrOutsideLibrary)
}

func TestDirLibrary_DotsInFilenames(t *testing.T) {
	dir := t.TempDir()
	writePhotos(t, dir, 3)
	for _, name := range []string{"trip..2019.jpg", "a...jpg"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("dots"), 0o644))
	}
	lib := newGrantedLibrary(t, dir)
	ctx := context.Background()

	uri, err := lib.ResolveLocalURI(ctx, "trip..2019.jpg")
	require.NoError(t, err)
	data, err := lib.ReadURI(ctx, uri)
	require.NoError(t, err)
	assert.Equal(t, []byte("dots"), data)

	source, err := NewSource(lib, SourceConfig{}, testLogger())
	require.NoError(t, err)
	pool, err := source.EnumerateAll(ctx)
	require.NoError(t, err)
	assert.Len(t, pool, 5)

	for _, id := range []string{"", "..", "../x.jpg", "album/../../x.jpg", "/etc/passwd"} {
		_, err := lib.ResolveLocalURI(ctx, id)
		assert.ErrorIs(t, err, ErrOutsideLibrary, id)
	}
}

func TestDirLibrary_LinksLeavingRootIgnored(t *testing.T) {
	outside := t.TempDir()
	secret := filepath.Join(outside, "secret.jpg")
	require.NoError(t, os.WriteFile(secret, []byte("SECRET"), 0o644))

	dir := t.TempDir()
	writePhotos(t, dir, 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "inside.jpg"), []byte("inside"), 0o644))
	if err := os.Symlink(secret, filepath.Join(dir, "link.jpg")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	require.NoError(t, os.Symlink(filepath.Join(dir, "inside.jpg"), filepath.Join(dir, "alias.jpg")))

	lib := newGrantedLibrary(t, dir)
	ctx := context.Background()

	page, err := lib.ListPage(ctx, "", 10)
	require.NoError(t, err)
	var ids []string
	for _, a := range page.Items {
		ids = append(ids, a.ID)
	}
	assert.NotContains(t, ids, "link.jpg")
	assert.Contains(t, ids, "alias.jpg")

	_, err = lib.ResolveLocalURI(ctx, "link.jpg")
	assert.ErrorIs(t, err, ErrOutsideLibrary)

	linkURI := "file://" + filepath.ToSlash(filepath.Join(lib.root, "link.jpg"))
	_, err = lib.ReadURI(ctx, linkURI)
	assert.ErrorIs(t, err, ErrOutsideLibrary)

	uri, err := lib.ResolveLocalURI(ctx, "alias.jpg")
	require.NoError(t, err)
	data, err := lib.ReadURI(ctx, uri)
	require.NoError(t, err)
	assert.Equal(t, []byte("inside"), data)
}
