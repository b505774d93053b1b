package retrieval

import (
	"github.com/quantrail/finsight/internal/models"
	"github.com/quantrail/finsight/pkg/utils"
)

// DefaultRelativeCutoff is the alpha factor against the best match's
// similarity. Absolute thresholds do not transfer across embedding models,
// so the best available match is the only reliable reference point.
const DefaultRelativeCutoff = 0.5

// Filter applies the two-stage adaptive cutoff to a similarity-ranked
// candidate list.
type Filter struct {
	alpha float64
}

// NewFilter creates a filter with the given relative-cutoff alpha.
// alpha <= 0 selects the default.
func NewFilter(alpha float64) *Filter {
	if alpha <= 0 {
		alpha = DefaultRelativeCutoff
	}
	return &Filter{alpha: alpha}
}

// Apply filters candidates and truncates to maxResults. Candidates must
// already be sorted by descending similarity.
//
// Stage 1 drops everything scoring below best * alpha. Stage 2, only when
// strictness is supplied, drops survivors below mean + strictness * stddev
// of the survivors' scores. Ranks are renumbered on the final list.
func (f *Filter) Apply(candidates []*models.SearchResult, strictness *float64, maxResults int) []*models.SearchResult {
	if len(candidates) == 0 {
		return nil
	}

	cutoff := candidates[0].Similarity * f.alpha
	survivors := make([]*models.SearchResult, 0, len(candidates))
	for _, c := range candidates {
		if c.Similarity >= cutoff {
			survivors = append(survivors, c)
		}
	}

	if strictness != nil && len(survivors) > 0 {
		scores := make([]float64, len(survivors))
		for i, s := range survivors {
			scores[i] = s.Similarity
		}
		threshold := utils.Mean(scores) + *strictness*utils.StdDev(scores)
		kept := survivors[:0]
		for _, s := range survivors {
			if s.Similarity >= threshold {
				kept = append(kept, s)
			}
		}
		survivors = kept
	}

	if maxResults > 0 && len(survivors) > maxResults {
		survivors = survivors[:maxResults]
	}
	for i, s := range survivors {
		s.Rank = i + 1
	}
	return survivors
}
