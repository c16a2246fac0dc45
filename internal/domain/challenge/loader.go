package challenge

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"go.uber.org/zap"
)

// ManifestPattern matches challenge manifests below the catalog directory
const ManifestPattern = "**/challenge.{yaml,yml,toml}"

// LoadDir walks dir and parses every manifest matching ManifestPattern.
// Broken manifests are skipped and reported in the returned error.
func LoadDir(ctx context.Context, dir string) ([]Challenge, error) {
	var (
		mu    sync.Mutex
		paths []string
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, dir, func(p string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil || d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(dir, p)
		if relErr != nil {
			return nil
		}
		if ok, _ := doublestar.Match(ManifestPattern, filepath.ToSlash(rel)); ok {
			mu.Lock()
			paths = append(paths, p)
			mu.Unlock()
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}

	// Walk order is not deterministic
	sort.Strings(paths)

	var (
		out  []Challenge
		errs []error
	)
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		m, err := parseManifest(p, data)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ch, err := m.challenge(filepath.Dir(p), p)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
			continue
		}
		out = append(out, ch)
	}
	return out, errors.Join(errs...)
}

// LoadOptions names the catalog sources
type LoadOptions struct {
	Dir    string
	Remote *RemoteSource
	Logger *zap.Logger
}

// Load builds a catalog from the local directory and the remote index.
// Source failures are logged; the catalog always holds the default.
func Load(ctx context.Context, opts LoadOptions) *Catalog {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	catalog := NewCatalog()

	var found []Challenge
	if opts.Dir != "" {
		if _, err := os.Stat(opts.Dir); err != nil {
			logger.Info("Challenge directory unavailable", zap.String("dir", opts.Dir), zap.Error(err))
		} else {
			local, err := LoadDir(ctx, opts.Dir)
			if err != nil {
				logger.Warn("Some challenges failed to load", zap.String("dir", opts.Dir), zap.Error(err))
			}
			found = append(found, local...)
		}
	}

	if opts.Remote != nil {
		remote, err := opts.Remote.Fetch(ctx)
		if err != nil {
			logger.Warn("Remote challenge index unavailable", zap.String("url", opts.Remote.URL()), zap.Error(err))
		}
		found = append(found, remote...)
	}

	for _, ch := range found {
		if err := catalog.Add(ch); err != nil {
			logger.Warn("Challenge rejected", zap.String("id", ch.ID), zap.Error(err))
		}
	}

	logger.Info("Challenge catalog loaded", zap.Int("challenges", catalog.Len()))
	return catalog
}
