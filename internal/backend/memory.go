package backend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/nlweb-ai/nlweb-go/internal/corpus"
	"github.com/nlweb-ai/nlweb-go/internal/models"
	"github.com/nlweb-ai/nlweb-go/pkg/utils"
)

// MemoryBackend serves a corpus held in memory. It is seeded from a JSONL
// file when a path is configured and can be re-seeded at runtime.
type MemoryBackend struct {
	id   string
	path string

	mu    sync.RWMutex
	items []models.Result
	byURL map[string]int
}

// NewMemoryBackend creates a memory backend, seeding it from path when set.
// A missing corpus file is not an error; the backend starts empty.
func NewMemoryBackend(id, path string) (*MemoryBackend, error) {
	m := &MemoryBackend{id: id, path: path, byURL: make(map[string]int)}
	if path == "" {
		return m, nil
	}
	items, err := corpus.LoadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return m, nil
		}
		return nil, err
	}
	m.Replace(items)
	return m, nil
}

func (m *MemoryBackend) ID() string { return m.id }

func (m *MemoryBackend) Capabilities() Capabilities {
	return Capabilities{
		SiteFiltering: true,
		MaxResults:    100,
		Description:   "in-memory corpus with term-coverage ranking",
	}
}

// Path returns the corpus file backing this backend, if any.
func (m *MemoryBackend) Path() string { return m.path }

// Replace swaps the whole corpus. Used on the initial seed and on hot reload.
func (m *MemoryBackend) Replace(items []models.Result) {
	copied := make([]models.Result, len(items))
	copy(copied, items)
	byURL := make(map[string]int, len(copied))
	for i, item := range copied {
		byURL[item.URL] = i
	}

	m.mu.Lock()
	m.items = copied
	m.byURL = byURL
	m.mu.Unlock()
}

// Reload re-reads the corpus file and swaps the items. The current corpus
// is kept when the file cannot be read or parsed.
func (m *MemoryBackend) Reload() error {
	if m.path == "" {
		return fmt.Errorf("backend %s has no corpus path", m.id)
	}
	items, err := corpus.LoadFile(m.path)
	if err != nil {
		return err
	}
	m.Replace(items)
	return nil
}

// Count returns the number of items held.
func (m *MemoryBackend) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

func (m *MemoryBackend) Search(ctx context.Context, text, site string, maxResults int) ([]models.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if maxResults <= 0 {
		maxResults = 10
	}
	tokens := utils.Tokenize(text)

	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]models.Result, 0, maxResults)
	for _, item := range m.items {
		if site != "" && item.Site != site {
			continue
		}
		score := scoreTokens(tokens, item.Name, item.Description)
		if score <= 0 {
			continue
		}
		r := item
		r.Score = score
		results = append(results, r)
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

func (m *MemoryBackend) Sites(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	sites := make([]string, 0, len(m.items))
	for _, item := range m.items {
		sites = append(sites, item.Site)
	}
	return utils.UniqueSorted(sites), nil
}

func (m *MemoryBackend) GetByURL(ctx context.Context, url string) (*models.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx, ok := m.byURL[url]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
	}
	item := m.items[idx]
	return &item, nil
}

func (m *MemoryBackend) Put(ctx context.Context, items []models.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range items {
		if item.URL == "" || item.Name == "" {
			return fmt.Errorf("item needs name and url, got name=%q url=%q", item.Name, item.URL)
		}
		if idx, ok := m.byURL[item.URL]; ok {
			m.items[idx] = item
			continue
		}
		m.byURL[item.URL] = len(m.items)
		m.items = append(m.items, item)
	}
	return nil
}

func (m *MemoryBackend) Close() error { return nil }
