package backend

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/nlweb-ai/nlweb-go/internal/cache"
	"github.com/nlweb-ai/nlweb-go/internal/config"
	"github.com/nlweb-ai/nlweb-go/internal/models"
	"github.com/nlweb-ai/nlweb-go/pkg/utils"
)

// Manager fans queries out across backends and merges their results.
type Manager struct {
	backends []Backend
	write    Backend
	cfg      *config.RetrievalConfig
	logger   *zap.Logger
	cache    *cache.ResultCache
}

// NewManager creates a manager over the given backends. The first backend
// receives writes unless NewManagerFromConfig wires a flagged one.
func NewManager(backends []Backend, cfg *config.RetrievalConfig, logger *zap.Logger) (*Manager, error) {
	if len(backends) == 0 {
		return nil, errors.New("at least one backend is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{backends: backends, write: backends[0], cfg: cfg, logger: logger}
	if cfg.CacheEnabled {
		m.cache = cache.New(cfg.CacheSize, cfg.CacheTTL())
	}
	return m, nil
}

// NewManagerFromConfig constructs every configured endpoint and wires the
// write-flagged backend. Already-opened backends are closed on failure.
func NewManagerFromConfig(cfg *config.RetrievalConfig, logger *zap.Logger) (*Manager, error) {
	backends := make([]Backend, 0, len(cfg.Endpoints))
	var write Backend
	for _, ep := range cfg.Endpoints {
		b, err := New(ep)
		if err != nil {
			for _, open := range backends {
				_ = open.Close()
			}
			return nil, fmt.Errorf("endpoint %q: %w", ep.ID, err)
		}
		backends = append(backends, b)
		if ep.Write {
			write = b
		}
	}
	m, err := NewManager(backends, cfg, logger)
	if err != nil {
		return nil, err
	}
	if write != nil {
		m.write = write
	}
	return m, nil
}

// Search queries the backends concurrently and returns the merged ranked
// list. Backend failures and timeouts are logged and skipped; when every
// backend fails the result is an empty list, not an error. Cancellation of
// ctx is returned as an error.
func (m *Manager) Search(ctx context.Context, text, site string, maxResults int) ([]models.Result, error) {
	if maxResults <= 0 {
		maxResults = 10
	}

	var key string
	if m.cache != nil {
		key = cache.Key(text, site, maxResults)
		if cached, ok := m.cache.Get(key); ok {
			return cached, nil
		}
	}

	selected := m.backends
	if !m.cfg.MultiBackendOrDefault() {
		selected = selected[:1]
	}

	var (
		mu        sync.Mutex
		collected = make([][]models.Result, 0, len(selected))
		wg        sync.WaitGroup
		sem       = make(chan struct{}, m.maxConcurrent())
	)
	for _, b := range selected {
		wg.Add(1)
		go func(b Backend) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}
			bctx, cancel := context.WithTimeout(ctx, m.cfg.BackendTimeout())
			defer cancel()
			results, err := b.Search(bctx, text, site, maxResults)
			if err != nil {
				m.logger.Warn("backend search failed",
					zap.String("backend", b.ID()),
					zap.Error(err))
				return
			}
			mu.Lock()
			collected = append(collected, results)
			mu.Unlock()
		}(b)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	merged := MergeResults(collected, maxResults, m.cfg.DeduplicateOrDefault())
	if m.cache != nil {
		m.cache.Set(key, merged)
	}
	return merged, nil
}

func (m *Manager) maxConcurrent() int {
	if m.cfg.MaxConcurrent > 0 {
		return m.cfg.MaxConcurrent
	}
	return 4
}

// AvailableSites returns the union of site lists across backends, sorted.
// Failing backends are logged and skipped.
func (m *Manager) AvailableSites(ctx context.Context) ([]string, error) {
	var all []string
	for _, b := range m.backends {
		sites, err := b.Sites(ctx)
		if err != nil {
			m.logger.Warn("backend site listing failed",
				zap.String("backend", b.ID()),
				zap.Error(err))
			continue
		}
		all = append(all, sites...)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return utils.UniqueSorted(all), nil
}

// GetItemByURL looks the URL up in each backend in registration order and
// returns the first match, or ErrNotFound.
func (m *Manager) GetItemByURL(ctx context.Context, url string) (*models.Result, error) {
	for _, b := range m.backends {
		item, err := b.GetByURL(ctx, url)
		if err == nil {
			return item, nil
		}
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		m.logger.Warn("backend lookup failed",
			zap.String("backend", b.ID()),
			zap.Error(err))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
}

// WriteBackend returns the backend that receives item upserts.
func (m *Manager) WriteBackend() Backend { return m.write }

// Backend returns the backend with the given id.
func (m *Manager) Backend(id string) (Backend, bool) {
	for _, b := range m.backends {
		if b.ID() == id {
			return b, true
		}
	}
	return nil, false
}

// Backends returns the configured backends in registration order.
func (m *Manager) Backends() []Backend { return m.backends }

// BackendInfo describes the configured backends for diagnostics.
func (m *Manager) BackendInfo() []Info {
	infos := make([]Info, 0, len(m.backends))
	for _, b := range m.backends {
		infos = append(infos, Info{
			ID:            b.ID(),
			WriteEndpoint: b == m.write,
			Capabilities:  b.Capabilities(),
		})
	}
	return infos
}

// Close closes every backend and returns the first error encountered.
func (m *Manager) Close() error {
	var firstErr error
	for _, b := range m.backends {
		if err := b.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
