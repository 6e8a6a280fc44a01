package backend

import (
	"context"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/nlweb-ai/nlweb-go/internal/models"
)

// bleveItem is the document shape indexed for each result.
type bleveItem struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Site        string `json:"site"`
	URL         string `json:"url"`
}

// BleveBackend serves full-text search over indexed items.
type BleveBackend struct {
	id    string
	index bleve.Index
}

// NewBleveBackend creates or opens a Bleve index at path. An existing index
// is opened and reused; remove the directory to force a rebuild after a
// mapping change.
func NewBleveBackend(id, path string) (*BleveBackend, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so queries
	// match the exact indexed words.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("name", textFieldMapping)
	docMapping.AddFieldMappingsAt("description", textFieldMapping)
	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("site", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("url", keywordFieldMapping)
	im.AddDocumentMapping("item", docMapping)
	im.DefaultType = "item"
	im.DefaultMapping = docMapping

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open bleve index: %w", openErr)
		}
		return &BleveBackend{id: id, index: index}, nil
	}

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create bleve index: %w", err)
	}
	return &BleveBackend{id: id, index: index}, nil
}

func (b *BleveBackend) ID() string { return b.id }

func (b *BleveBackend) Capabilities() Capabilities {
	return Capabilities{
		SiteFiltering:  true,
		FullTextSearch: true,
		MaxResults:     100,
		Description:    "bleve full-text index",
	}
}

func (b *BleveBackend) Search(ctx context.Context, text, site string, maxResults int) ([]models.Result, error) {
	if maxResults <= 0 {
		maxResults = 10
	}
	var q blevequery.Query = bleve.NewMatchQuery(text)
	if site != "" {
		tq := bleve.NewTermQuery(site)
		tq.SetField("site")
		q = bleve.NewConjunctionQuery(q, tq)
	}
	req := bleve.NewSearchRequest(q)
	req.Size = maxResults
	req.Fields = []string{"*"}

	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bleve search failed: %w", err)
	}
	out := make([]models.Result, 0, len(res.Hits))
	for _, hit := range res.Hits {
		out = append(out, models.Result{
			Name:        fieldString(hit.Fields, "name"),
			URL:         hit.ID,
			Score:       hit.Score,
			Description: fieldString(hit.Fields, "description"),
			Site:        fieldString(hit.Fields, "site"),
		})
	}
	return out, nil
}

// Sites reads the distinct site terms from the field dictionary. The site
// field uses the keyword analyzer, so each term is a full site string.
func (b *BleveBackend) Sites(ctx context.Context) ([]string, error) {
	dict, err := b.index.FieldDict("site")
	if err != nil {
		return nil, fmt.Errorf("failed to read site dictionary: %w", err)
	}
	defer dict.Close()

	var sites []string
	for {
		entry, err := dict.Next()
		if err != nil || entry == nil {
			break
		}
		sites = append(sites, entry.Term)
	}
	return sites, nil
}

func (b *BleveBackend) GetByURL(ctx context.Context, url string) (*models.Result, error) {
	q := bleve.NewDocIDQuery([]string{url})
	req := bleve.NewSearchRequest(q)
	req.Size = 1
	req.Fields = []string{"*"}

	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bleve lookup failed: %w", err)
	}
	if len(res.Hits) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
	}
	hit := res.Hits[0]
	return &models.Result{
		Name:        fieldString(hit.Fields, "name"),
		URL:         hit.ID,
		Score:       hit.Score,
		Description: fieldString(hit.Fields, "description"),
		Site:        fieldString(hit.Fields, "site"),
	}, nil
}

func (b *BleveBackend) Put(ctx context.Context, items []models.Result) error {
	batch := b.index.NewBatch()
	for _, item := range items {
		if item.URL == "" || item.Name == "" {
			return fmt.Errorf("item needs name and url, got name=%q url=%q", item.Name, item.URL)
		}
		doc := bleveItem{Name: item.Name, Description: item.Description, Site: item.Site, URL: item.URL}
		if err := batch.Index(item.URL, doc); err != nil {
			return fmt.Errorf("failed to index %s: %w", item.URL, err)
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to apply index batch: %w", err)
	}
	return nil
}

func (b *BleveBackend) Close() error {
	return b.index.Close()
}

func fieldString(fields map[string]interface{}, name string) string {
	if v, ok := fields[name].(string); ok {
		return v
	}
	return ""
}
