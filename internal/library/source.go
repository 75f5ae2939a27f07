package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/DukeRupert/fetch/internal/domain"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
)

const (
	defaultResolveConcurrency = 8
	defaultURICacheSize       = 4096
)

// SourceConfig configures how a Source enumerates a library.
type SourceConfig struct {
	// PageSize is the number of assets requested per page. Default: 100
	PageSize int

	// ResolveConcurrency bounds parallel URI resolutions. Default: 8
	ResolveConcurrency int

	// URICacheSize is the number of resolved URIs remembered between
	// enumerations. Default: 4096
	URICacheSize int
}

// Source turns a Library into the candidate pool the sampler draws from.
type Source struct {
	lib         Library
	pageSize    int
	concurrency int
	uris        *lru.Cache[string, string]
	logger      *slog.Logger
}

// NewSource creates a Source over lib.
func NewSource(lib Library, cfg SourceConfig, logger *slog.Logger) (*Source, error) {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.ResolveConcurrency <= 0 {
		cfg.ResolveConcurrency = defaultResolveConcurrency
	}
	if cfg.URICacheSize <= 0 {
		cfg.URICacheSize = defaultURICacheSize
	}

	cache, err := lru.New[string, string](cfg.URICacheSize)
	if err != nil {
		return nil, fmt.Errorf("create uri cache: %w", err)
	}

	return &Source{
		lib:         lib,
		pageSize:    cfg.PageSize,
		concurrency: cfg.ResolveConcurrency,
		uris:        cache,
		logger:      logger,
	}, nil
}

// RequestPermission forwards to the underlying library.
func (s *Source) RequestPermission(ctx context.Context) (bool, error) {
	return s.lib.RequestPermission(ctx)
}

// EnumerateAll pages through the entire library and returns every asset with
// a resolved local URI, in library order. Assets that resolve to no local URI
// are dropped so that empty slots only ever mean the pool ran out.
func (s *Source) EnumerateAll(ctx context.Context) ([]domain.Candidate, error) {
	const op = "library.enumerate"

	var assets []domain.Asset
	cursor := ""
	pages := 0
	for {
		page, err := s.lib.ListPage(ctx, cursor, s.pageSize)
		if err != nil {
			if errors.Is(err, ErrPermissionDenied) {
				return nil, domain.PermissionDenied(op)
			}
			return nil, domain.Internal(err, op, "failed to list photo library")
		}
		pages++
		assets = append(assets, page.Items...)
		if !page.HasMore {
			break
		}
		cursor = page.NextCursor
	}

	uris := make([]string, len(assets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, asset := range assets {
		i, asset := i, asset
		g.Go(func() error {
			uri, err := s.resolve(gctx, asset.ID)
			if err != nil {
				return fmt.Errorf("resolve %s: %w", asset.ID, err)
			}
			uris[i] = uri
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, domain.Internal(err, op, "failed to resolve photo")
	}

	candidates := make([]domain.Candidate, 0, len(assets))
	for i, asset := range assets {
		if uris[i] == "" {
			continue
		}
		candidates = append(candidates, domain.Candidate{AssetID: asset.ID, URI: uris[i]})
	}

	s.logger.Debug("enumerated photo library",
		"pages", pages,
		"assets", len(assets),
		"candidates", len(candidates),
	)

	return candidates, nil
}

// resolve returns the local URI of an asset, consulting the cache first.
// Missing local copies are not cached so a later sync can make them appear.
func (s *Source) resolve(ctx context.Context, id string) (string, error) {
	if uri, ok := s.uris.Get(id); ok {
		return uri, nil
	}

	uri, err := s.lib.ResolveLocalURI(ctx, id)
	if err != nil {
		return "", err
	}
	if uri != "" {
		s.uris.Add(id, uri)
	}
	return uri, nil
}
