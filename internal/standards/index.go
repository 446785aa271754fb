// Package standards provides full-text search over uploaded review standards.
package standards

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/cjk"

	"github.com/hyperjump/planreview/internal/models"
)

// ErrEmptyQuery is returned by Search for a blank query.
var ErrEmptyQuery = errors.New("empty query")

// DefaultLimit is used when Search is called with a non-positive limit.
const DefaultLimit = 10

// Hit is a single standards search result.
type Hit struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}

// indexedStandard is the document shape stored in the index.
type indexedStandard struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Content  string `json:"content"`
}

// Index is a Bleve index over standards. Name and content are analyzed with the
// CJK analyzer so Chinese text is searchable by bigram.
type Index struct {
	index bleve.Index
}

// NewIndex creates or opens a Bleve index at path. An empty path creates an
// in-memory index.
func NewIndex(path string) (*Index, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = cjk.AnalyzerName
	docMapping.AddFieldMappingsAt("name", textFieldMapping)
	docMapping.AddFieldMappingsAt("content", textFieldMapping)
	categoryFieldMapping := bleve.NewTextFieldMapping()
	categoryFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("category", categoryFieldMapping)
	im.AddDocumentMapping("standard", docMapping)
	im.DefaultType = "standard"
	im.DefaultMapping = docMapping
	im.DefaultAnalyzer = cjk.AnalyzerName

	if path == "" {
		index, err := bleve.NewMemOnly(im)
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory Bleve index: %w", err)
		}
		return &Index{index: index}, nil
	}

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &Index{index: index}, nil
	}

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &Index{index: index}, nil
}

// Index adds or replaces a standard in the index.
func (i *Index) Index(ctx context.Context, st *models.Standard) error {
	doc := indexedStandard{Name: st.Name, Category: st.Category, Content: st.Content}
	if err := i.index.Index(st.ID, doc); err != nil {
		return fmt.Errorf("failed to index standard %s: %w", st.ID, err)
	}
	return nil
}

// Search matches query against standard names and content. A non-empty
// category restricts hits to that category.
func (i *Index) Search(ctx context.Context, query, category string, limit int) ([]Hit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	nameQuery := bleve.NewMatchQuery(query)
	nameQuery.SetField("name")
	nameQuery.SetBoost(2)
	contentQuery := bleve.NewMatchQuery(query)
	contentQuery.SetField("content")
	q := bleve.NewDisjunctionQuery(nameQuery, contentQuery)

	req := bleve.NewSearchRequest(q)
	if category != "" {
		cq := bleve.NewTermQuery(category)
		cq.SetField("category")
		req = bleve.NewSearchRequest(bleve.NewConjunctionQuery(q, cq))
	}
	req.Size = limit
	req.Fields = []string{"name", "category"}

	results, err := i.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	hits := make([]Hit, len(results.Hits))
	for n, hit := range results.Hits {
		hits[n] = Hit{ID: hit.ID, Score: hit.Score}
		if name, ok := hit.Fields["name"].(string); ok {
			hits[n].Name = name
		}
		if cat, ok := hit.Fields["category"].(string); ok {
			hits[n].Category = cat
		}
	}
	return hits, nil
}

// Delete removes a standard from the index.
func (i *Index) Delete(ctx context.Context, id string) error {
	return i.index.Delete(id)
}

// DocCount returns the number of indexed standards.
func (i *Index) DocCount() (uint64, error) {
	return i.index.DocCount()
}

// Close closes the index.
func (i *Index) Close() error {
	return i.index.Close()
}
