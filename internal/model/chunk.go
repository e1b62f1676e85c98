// Package model contains the application's data model definitions.
package model

// Chunk is one bounded span of extracted legal text, produced by the
// indexer and immutable afterwards. The JSON field names are the on-disk
// artifact format shared between the indexer and the query service.
type Chunk struct {
	ID             int    `json:"id"`
	Text           string `json:"text"`
	SourceDocument string `json:"source_document"`
	PageOrSection  string `json:"page_or_section"`
}

// ScoredChunk pairs a chunk with its keyword-overlap score for one query.
// Scores are recomputed per query and never persisted.
type ScoredChunk struct {
	Chunk Chunk `json:"chunk"`
	Score int   `json:"score"`
}
