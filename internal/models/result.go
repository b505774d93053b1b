package models

// SearchResult is a single retrieval hit. For child-chunk hits the parent's
// content is inlined for context expansion; parent-level hits leave ParentID
// and ParentContent empty. Constructed fresh per query, never persisted.
type SearchResult struct {
	ChunkID       string        `json:"chunk_id"`
	DocumentID    string        `json:"document_id"`
	Similarity    float64       `json:"similarity"`
	Content       string        `json:"content"`
	Title         string        `json:"title,omitempty"`
	Type          ChunkType     `json:"type"`
	Metadata      ChunkMetadata `json:"metadata"`
	ParentID      string        `json:"parent_id,omitempty"`
	ParentContent string        `json:"parent_content,omitempty"`
	Rank          int           `json:"rank"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Results        []*SearchResult `json:"results"`
	Total          int             `json:"total"`
	Query          string          `json:"query"`
	RewrittenQuery string          `json:"rewritten_query,omitempty"`
	QueryTime      int64           `json:"query_time_ms"`
}

// Source references a chunk that grounded a synthesized answer.
type Source struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title,omitempty"`
	Excerpt    string  `json:"excerpt"`
	Similarity float64 `json:"similarity"`
}

// AnswerResponse is the response for an ask (answer synthesis) request.
type AnswerResponse struct {
	Answer    string   `json:"answer"`
	Sources   []Source `json:"sources"`
	QueryTime int64    `json:"query_time_ms"`
}
