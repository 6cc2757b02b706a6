package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for search documents.
//
// Native-script fields use the standard analyzer (unicode tokenizer and
// lowercasing, no stemming). Transliterations and names are romanized Urdu,
// where English stemming would mangle words, so they use the simple
// analyzer. Only translations get English stemming.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = standard.Name

	docMapping := bleve.NewDocumentMapping()

	text := func(analyzer string, store, vectors bool) *mapping.FieldMapping {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = analyzer
		fm.Store = store
		fm.IncludeTermVectors = vectors
		return fm
	}

	docMapping.AddFieldMappingsAt("name", text(standard.Name, true, true))
	docMapping.AddFieldMappingsAt("text", text(standard.Name, true, true))
	docMapping.AddFieldMappingsAt("transliteration", text(simple.Name, true, true))
	docMapping.AddFieldMappingsAt("translation", text(en.AnalyzerName, true, false))
	docMapping.AddFieldMappingsAt("poet_name", text(simple.Name, true, true))
	docMapping.AddFieldMappingsAt("poet_urdu_name", text(standard.Name, true, false))
	docMapping.AddFieldMappingsAt("category", text(simple.Name, true, false))
	docMapping.AddFieldMappingsAt("biography", text(en.AnalyzerName, false, false))

	// Keyword fields for exact filtering.
	for _, f := range []string{"id", "type", "poet_id", "category_id"} {
		docMapping.AddFieldMappingsAt(f, text(keyword.Name, f != "id", false))
	}

	position := bleve.NewNumericFieldMapping()
	position.Store = true
	docMapping.AddFieldMappingsAt("position", position)

	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}
