package chunker

import "strings"

// Splitter breaks text into overlapping windows of at most size characters,
// preferring earlier separators in the list and falling back to later, finer
// ones only when a piece is still too large.
type Splitter struct {
	size       int
	overlap    int
	separators []string
}

// coarseSeparators are tuned to financial document structure: section
// headers and call-transcript markers first, then paragraph, sentence and
// word boundaries.
var coarseSeparators = []string{
	"\n## ", "\n# ",
	"\nOperator:", "\nQ&A", "\nQuestion:", "\nAnswer:",
	"\n\n", "\n", ". ", " ",
}

// fineSeparators split a parent's text into retrieval-sized children.
var fineSeparators = []string{"\n\n", "\n", ". ", " "}

// NewCoarseSplitter creates the parent-level splitter (~1500/200 by default).
func NewCoarseSplitter(size, overlap int) *Splitter {
	return &Splitter{size: size, overlap: overlap, separators: coarseSeparators}
}

// NewFineSplitter creates the child-level splitter (~400/50 by default).
func NewFineSplitter(size, overlap int) *Splitter {
	return &Splitter{size: size, overlap: overlap, separators: fineSeparators}
}

// Split returns windows of at most size characters with roughly overlap
// characters shared between consecutive windows.
func (s *Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return s.merge(s.breakUp(text, 0))
}

// breakUp recursively splits text at the given separator level until every
// piece fits the target size, hard-cutting as the last resort.
func (s *Splitter) breakUp(text string, sepIdx int) []string {
	if len(text) <= s.size {
		return []string{text}
	}
	if sepIdx >= len(s.separators) {
		var out []string
		for len(text) > s.size {
			out = append(out, text[:s.size])
			text = text[s.size:]
		}
		if text != "" {
			out = append(out, text)
		}
		return out
	}

	parts := splitKeeping(text, s.separators[sepIdx])
	if len(parts) == 1 {
		return s.breakUp(text, sepIdx+1)
	}
	var out []string
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if len(p) > s.size {
			out = append(out, s.breakUp(p, sepIdx+1)...)
		} else {
			out = append(out, p)
		}
	}
	return out
}

// splitKeeping splits on sep without discarding meaningful separator text.
// Marker separators (a newline followed by a header or transcript label) are
// re-attached to the start of the following piece; sentence separators keep
// their period on the preceding piece.
func splitKeeping(text, sep string) []string {
	raw := strings.Split(text, sep)
	if len(raw) == 1 {
		return raw
	}
	marker := strings.HasPrefix(sep, "\n") && strings.TrimSpace(sep) != ""
	keep := strings.TrimRight(sep, " \n")

	parts := make([]string, 0, len(raw))
	for i, p := range raw {
		if marker && i > 0 {
			p = strings.TrimPrefix(sep, "\n") + p
		} else if !marker && i < len(raw)-1 {
			p += keep
		}
		parts = append(parts, p)
	}
	return parts
}

// merge packs pieces into windows up to size chars, carrying an overlap tail
// from each emitted window into the next.
func (s *Splitter) merge(pieces []string) []string {
	var out []string
	var cur strings.Builder
	seedOnly := false
	for _, p := range pieces {
		if cur.Len() > 0 && cur.Len()+1+len(p) > s.size {
			if seedOnly {
				// the seed tail alone is not worth a window
				cur.Reset()
			} else {
				window := strings.TrimSpace(cur.String())
				if window != "" {
					out = append(out, window)
				}
				cur.Reset()
				cur.WriteString(overlapTail(window, s.overlap))
				seedOnly = true
			}
		}
		if cur.Len() > 0 {
			cur.WriteString("\n")
		}
		cur.WriteString(strings.TrimSpace(p))
		seedOnly = false
	}
	if window := strings.TrimSpace(cur.String()); window != "" && !seedOnly {
		out = append(out, window)
	}
	return out
}

// overlapTail returns the last overlap characters of text, trimmed forward to
// a word boundary so windows never start mid-word.
func overlapTail(text string, overlap int) string {
	if overlap <= 0 || text == "" {
		return ""
	}
	if len(text) <= overlap {
		return text
	}
	tail := text[len(text)-overlap:]
	if i := strings.IndexAny(tail, " \n"); i >= 0 {
		tail = tail[i+1:]
	}
	return tail
}
