// Package cli provides output helpers for the FinSight command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/quantrail/finsight/internal/models"
)

// SearchOutputFormat is the format for search result output.
type SearchOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText SearchOutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON SearchOutputFormat = "json"
)

// WriteSearchResults writes search results to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format SearchOutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	default:
		writeSearchResultsText(w, response)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) {
	fmt.Fprintf(w, "\nFound %d results in %dms\n", response.Total, response.QueryTime)
	if response.RewrittenQuery != "" && response.RewrittenQuery != response.Query {
		fmt.Fprintf(w, "Query rewritten to: %s\n", response.RewrittenQuery)
	}
	fmt.Fprintln(w)
	for _, result := range response.Results {
		writeOneResult(w, result)
	}
}

func writeOneResult(w io.Writer, result *models.SearchResult) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "Rank: %d | Similarity: %.4f | Type: %s\n", result.Rank, result.Similarity, result.Type)
	fmt.Fprintf(w, "Chunk: %s (document %s)\n", result.ChunkID, result.DocumentID)
	if result.Title != "" {
		fmt.Fprintf(w, "Title: %s\n", result.Title)
	}
	if result.Metadata.CompanyName != "" {
		fmt.Fprintf(w, "Company: %s", result.Metadata.CompanyName)
		if result.Metadata.FiscalPeriod != "" {
			fmt.Fprintf(w, " (%s)", result.Metadata.FiscalPeriod)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "\n%s\n", Truncate(result.Content, 200))
	fmt.Fprintln(w)
}

// WriteAnswer writes a synthesized answer with its sources to w.
func WriteAnswer(w io.Writer, response *models.AnswerResponse, format SearchOutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	default:
		fmt.Fprintf(w, "\n%s\n", response.Answer)
		if len(response.Sources) > 0 {
			fmt.Fprintf(w, "\nSources (%d):\n", len(response.Sources))
			for _, src := range response.Sources {
				title := src.Title
				if title == "" {
					title = src.ChunkID
				}
				fmt.Fprintf(w, "  - %s (%.2f): %s\n", title, src.Similarity, TruncateWords(src.Excerpt, 20))
			}
		}
		fmt.Fprintf(w, "\nAnswered in %dms\n", response.QueryTime)
		return nil
	}
}

// PrintSearchResults prints search results to stdout in text format.
func PrintSearchResults(response *models.SearchResponse) {
	_ = WriteSearchResults(os.Stdout, response, OutputText)
}

// Truncate truncates s to maxLen and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
