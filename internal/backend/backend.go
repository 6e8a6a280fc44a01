// Package backend provides retrieval backends and their concurrent fan-out manager.
package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/nlweb-ai/nlweb-go/internal/config"
	"github.com/nlweb-ai/nlweb-go/internal/models"
)

// ErrNotFound is returned by GetByURL when no item matches the URL.
var ErrNotFound = errors.New("item not found")

// Capabilities describes what a backend supports natively. Callers may use
// them to route queries; backends ignore filters they cannot apply.
type Capabilities struct {
	SiteFiltering  bool   `json:"site_filtering"`
	FullTextSearch bool   `json:"full_text_search"`
	SemanticSearch bool   `json:"semantic_search"`
	MaxResults     int    `json:"max_results"`
	Description    string `json:"description,omitempty"`
}

// Info identifies a configured backend for diagnostics.
type Info struct {
	ID            string       `json:"id"`
	WriteEndpoint bool         `json:"write_endpoint"`
	Capabilities  Capabilities `json:"capabilities"`
}

// Backend is a single retrieval source.
type Backend interface {
	ID() string
	Capabilities() Capabilities
	// Search returns up to maxResults items ranked by backend-assigned
	// score. An empty site means no site filter.
	Search(ctx context.Context, text, site string, maxResults int) ([]models.Result, error)
	// Sites lists the distinct site values this backend holds.
	Sites(ctx context.Context) ([]string, error)
	// GetByURL returns the stored item, or an error wrapping ErrNotFound.
	GetByURL(ctx context.Context, url string) (*models.Result, error)
	// Put upserts items keyed by URL.
	Put(ctx context.Context, items []models.Result) error
	Close() error
}

// New constructs a backend from its endpoint configuration.
func New(ep config.EndpointConfig) (Backend, error) {
	switch ep.Type {
	case "memory":
		return NewMemoryBackend(ep.ID, ep.Path)
	case "bleve":
		return NewBleveBackend(ep.ID, ep.Path)
	case "sqlite":
		return NewSQLiteBackend(ep.ID, ep.Path)
	default:
		return nil, fmt.Errorf("unknown backend type %q", ep.Type)
	}
}
