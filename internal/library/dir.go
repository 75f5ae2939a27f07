package library

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/DukeRupert/fetch/internal/domain"
	"github.com/rwcarlsen/goexif/exif"
)

// =============================================================================
// DirLibrary Implementation
// =============================================================================

// photoExtensions are the file types treated as photos.
var photoExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".heic": true,
	".webp": true,
}

// DirConfig holds configuration for a directory-backed library.
type DirConfig struct {
	// Root is the directory containing the user's photos.
	Root string

	// AccessGranted is the answer given to RequestPermission. The directory
	// must also be readable for access to be granted.
	AccessGranted bool
}

// DirLibrary implements Library over a directory tree of photo files.
//
// Assets are ordered newest first by EXIF capture time, falling back to the
// file modification time. An index snapshot is taken when enumeration starts
// (empty cursor); cursors are offsets into that snapshot.
type DirLibrary struct {
	root          string
	accessGranted bool
	logger        *slog.Logger

	mu         sync.Mutex
	granted    bool
	generation int
	index      []domain.Asset
}

// NewDirLibrary creates a DirLibrary rooted at cfg.Root.
func NewDirLibrary(cfg DirConfig, logger *slog.Logger) (*DirLibrary, error) {
	absRoot, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve library root: %w", err)
	}
	// A missing root is allowed here; RequestPermission denies access to it.
	if resolved, err := filepath.EvalSymlinks(absRoot); err == nil {
		absRoot = resolved
	}

	logger.Info("initialized photo library",
		"root", absRoot,
		"access_granted", cfg.AccessGranted,
	)

	return &DirLibrary{
		root:          absRoot,
		accessGranted: cfg.AccessGranted,
		logger:        logger,
	}, nil
}

// RequestPermission grants access if configured to and the root is a readable
// directory.
func (l *DirLibrary) RequestPermission(ctx context.Context) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	granted := false
	if l.accessGranted {
		info, err := os.Stat(l.root)
		granted = err == nil && info.IsDir()
	}

	l.mu.Lock()
	l.granted = granted
	l.mu.Unlock()

	l.logger.Debug("photo library permission requested", "granted", granted)
	return granted, nil
}

// ListPage returns the next page of assets.
func (l *DirLibrary) ListPage(ctx context.Context, cursor string, first int) (Page, error) {
	if ctx.Err() != nil {
		return Page{}, ctx.Err()
	}
	if first <= 0 {
		first = DefaultPageSize
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.granted {
		return Page{}, ErrPermissionDenied
	}

	offset := 0
	if cursor == "" {
		index, err := l.scan(ctx)
		if err != nil {
			return Page{}, err
		}
		l.index = index
		l.generation++
	} else {
		gen, off, err := parseCursor(cursor)
		if err != nil || gen != l.generation || off > len(l.index) {
			return Page{}, ErrInvalidCursor
		}
		offset = off
	}

	end := offset + first
	if end > len(l.index) {
		end = len(l.index)
	}

	items := make([]domain.Asset, end-offset)
	copy(items, l.index[offset:end])

	page := Page{
		Items:   items,
		HasMore: end < len(l.index),
	}
	if page.HasMore {
		page.NextCursor = formatCursor(l.generation, end)
	}
	return page, nil
}

// ResolveLocalURI returns a file:// URI for an asset, or "" if the file is gone.
func (l *DirLibrary) ResolveLocalURI(ctx context.Context, id string) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	path, err := l.resolvePath(id)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to stat asset: %w", err)
	}

	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String(), nil
}

// ReadURI reads the photo a resolved URI points to.
func (l *DirLibrary) ReadURI(ctx context.Context, uri string) ([]byte, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return nil, fmt.Errorf("%w: %s", ErrOutsideLibrary, uri)
	}

	path := filepath.Clean(filepath.FromSlash(u.Path))
	if !l.within(path) {
		return nil, fmt.Errorf("%w: %s", ErrOutsideLibrary, uri)
	}
	path, err = filepath.EvalSymlinks(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open photo: %w", err)
	}
	if !l.within(path) {
		return nil, fmt.Errorf("%w: %s", ErrOutsideLibrary, uri)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open photo: %w", err)
	}
	defer f.Close()

	return io.ReadAll(f)
}

// =============================================================================
// Internal Helpers
// =============================================================================

// scan walks the library root and returns every photo, newest first.
func (l *DirLibrary) scan(ctx context.Context) ([]domain.Asset, error) {
	var assets []domain.Asset

	err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			l.logger.Warn("skipping unreadable library entry", "path", path, "error", err)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !photoExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			target, err := filepath.EvalSymlinks(path)
			if err != nil || !l.within(target) {
				l.logger.Warn("skipping link leaving the library", "path", path)
				return nil
			}
		}

		rel, err := filepath.Rel(l.root, path)
		if err != nil {
			return nil
		}

		assets = append(assets, domain.Asset{
			ID:        filepath.ToSlash(rel),
			Filename:  d.Name(),
			CreatedAt: captureTime(path, d),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan photo library: %w", err)
	}

	sort.SliceStable(assets, func(i, j int) bool {
		if assets[i].CreatedAt.Equal(assets[j].CreatedAt) {
			return assets[i].ID < assets[j].ID
		}
		return assets[i].CreatedAt.After(assets[j].CreatedAt)
	})

	return assets, nil
}

// resolvePath converts an asset ID to an absolute path inside the root.
func (l *DirLibrary) resolvePath(id string) (string, error) {
	if !filepath.IsLocal(filepath.FromSlash(id)) {
		return "", fmt.Errorf("%w: %q", ErrOutsideLibrary, id)
	}

	path := filepath.Join(l.root, filepath.FromSlash(id))
	if !l.within(path) {
		return "", fmt.Errorf("%w: %q", ErrOutsideLibrary, id)
	}

	// Links may point anywhere; only their targets count.
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		if os.IsNotExist(err) {
			return path, nil
		}
		return "", fmt.Errorf("failed to resolve asset: %w", err)
	}
	if !l.within(target) {
		return "", fmt.Errorf("%w: %q", ErrOutsideLibrary, id)
	}
	return path, nil
}

func (l *DirLibrary) within(path string) bool {
	return path == l.root || strings.HasPrefix(path, l.root+string(filepath.Separator))
}

// captureTime reads the EXIF DateTime of a photo, or its modification time.
func captureTime(path string, d fs.DirEntry) time.Time {
	if f, err := os.Open(path); err == nil {
		x, err := exif.Decode(f)
		f.Close()
		if err == nil && x != nil {
			if t, err := x.DateTime(); err == nil {
				return t
			}
		}
	}

	if info, err := d.Info(); err == nil {
		return info.ModTime()
	}
	return time.Time{}
}

func formatCursor(generation, offset int) string {
	return strconv.Itoa(generation) + ":" + strconv.Itoa(offset)
}

func parseCursor(cursor string) (int, int, error) {
	genStr, offStr, ok := strings.Cut(cursor, ":")
	if !ok {
		return 0, 0, ErrInvalidCursor
	}
	gen, err := strconv.Atoi(genStr)
	if err != nil {
		return 0, 0, ErrInvalidCursor
	}
	off, err := strconv.Atoi(offStr)
	if err != nil || off < 0 {
		return 0, 0, ErrInvalidCursor
	}
	return gen, off, nil
}
