package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// SearchParams configures a search query.
type SearchParams struct {
	Query string    // User's search query
	Types []DocType // Document types to include (empty = all)

	// Filters
	PoetID     string
	CategoryID string

	// Pagination
	Limit  int
	Offset int

	Highlight bool
}

// DefaultSearchParams returns sensible defaults.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		Limit:     20,
		Highlight: true,
	}
}

// SearchResult represents the search results.
type SearchResult struct {
	Query  string      `json:"query"`
	Total  uint64      `json:"total"`
	TookMs int64       `json:"took_ms"`
	Hits   []SearchHit `json:"hits"`
}

// SearchHit represents a single search result. For poet hits, PoetID carries
// the poet's catalog id and ID the index id ("poet:<id>").
type SearchHit struct {
	ID              string            `json:"id"`
	Type            DocType           `json:"type"`
	Score           float64           `json:"score"`
	Name            string            `json:"name"`
	Text            string            `json:"text,omitempty"`
	Transliteration string            `json:"transliteration,omitempty"`
	PoetID          string            `json:"poet_id,omitempty"`
	PoetName        string            `json:"poet_name,omitempty"`
	PoetUrduName    string            `json:"poet_urdu_name,omitempty"`
	CategoryID      string            `json:"category_id,omitempty"`
	Highlights      map[string]string `json:"highlights,omitempty"`
}

// Search executes a search query.
func (s *SearchIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	if params.Limit <= 0 {
		params.Limit = DefaultSearchParams().Limit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	searchRequest := bleve.NewSearchRequestOptions(buildSearchQuery(params), params.Limit, params.Offset, false)
	searchRequest.SortBy([]string{"-_score", "position"})

	if params.Highlight {
		searchRequest.Highlight = bleve.NewHighlight()
		for _, f := range []string{"name", "text", "transliteration", "poet_name"} {
			searchRequest.Highlight.AddField(f)
		}
	}

	searchRequest.Fields = []string{
		"type", "name", "text", "transliteration",
		"poet_id", "poet_name", "poet_urdu_name", "category_id",
	}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		field := func(name string) string {
			v, _ := hit.Fields[name].(string)
			return v
		}

		searchHit := SearchHit{
			ID:              hit.ID,
			Type:            DocType(field("type")),
			Score:           hit.Score,
			Name:            field("name"),
			Text:            field("text"),
			Transliteration: field("transliteration"),
			PoetID:          field("poet_id"),
			PoetName:        field("poet_name"),
			PoetUrduName:    field("poet_urdu_name"),
			CategoryID:      field("category_id"),
		}

		if len(hit.Fragments) > 0 {
			searchHit.Highlights = make(map[string]string)
			for f, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					searchHit.Highlights[f] = fragments[0]
				}
			}
		}

		result.Hits = append(result.Hits, searchHit)
	}

	return result, nil
}

// buildSearchQuery constructs the Bleve query from params.
func buildSearchQuery(params SearchParams) query.Query {
	var queries []query.Query

	if q := strings.TrimSpace(params.Query); q != "" {
		match := func(field string, boost float64) query.Query {
			m := bleve.NewMatchQuery(q)
			m.SetField(field)
			m.SetBoost(boost)
			return m
		}

		textQueries := []query.Query{
			match("text", 3.0),
			match("name", 3.0),
			match("transliteration", 2.0),
			match("poet_name", 1.5),
			match("poet_urdu_name", 1.5),
			match("translation", 1.0),
			match("category", 0.5),
		}

		// Romanized spellings vary (ghalib / galib), so the latin fields
		// also get fuzzy and prefix matching.
		lower := strings.ToLower(q)
		for _, f := range []string{"transliteration", "poet_name"} {
			fuzzy := bleve.NewFuzzyQuery(lower)
			fuzzy.SetFuzziness(1)
			fuzzy.SetField(f)
			fuzzy.SetBoost(0.8)
			textQueries = append(textQueries, fuzzy)

			if len([]rune(lower)) >= 2 {
				prefix := bleve.NewPrefixQuery(lower)
				prefix.SetField(f)
				prefix.SetBoost(0.5)
				textQueries = append(textQueries, prefix)
			}
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	if len(params.Types) > 0 {
		typeQueries := make([]query.Query, len(params.Types))
		for i, t := range params.Types {
			tq := bleve.NewTermQuery(string(t))
			tq.SetField("type")
			typeQueries[i] = tq
		}
		queries = append(queries, bleve.NewDisjunctionQuery(typeQueries...))
	}

	if params.PoetID != "" {
		tq := bleve.NewTermQuery(params.PoetID)
		tq.SetField("poet_id")
		queries = append(queries, tq)
	}

	if params.CategoryID != "" {
		tq := bleve.NewTermQuery(params.CategoryID)
		tq.SetField("category_id")
		queries = append(queries, tq)
	}

	if len(queries) == 0 {
		return bleve.NewMatchAllQuery()
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewConjunctionQuery(queries...)
}
