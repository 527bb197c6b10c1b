package analysis

import (
	"strings"
)

// sectionMarkers maps the bracket markers the prompts ask for to the
// section keys stored with an analysis.
var sectionMarkers = []struct {
	marker string
	key    string
}{
	{"[SUMMARY]", "summary"},
	{"[KEY CONTRIBUTIONS]", "key_contributions"},
	{"[METHODOLOGY]", "methodology"},
	{"[NOVELTY]", "novelty"},
	{"[Q&A]", "qa"},
}

// ParseSections splits LLM output on bracket section markers. Matching is
// case-insensitive and markers may appear anywhere on a line. Text before
// the first marker is ignored. When no marker is found at all, the whole
// text is returned under "summary" so a malformed response is never lost.
func ParseSections(text string) map[string]string {
	type hit struct {
		key   string
		start int // index just past the marker
		pos   int // index of the marker itself
	}
	upper := strings.ToUpper(text)
	var hits []hit
	for _, sm := range sectionMarkers {
		searchFrom := 0
		for {
			i := strings.Index(upper[searchFrom:], sm.marker)
			if i < 0 {
				break
			}
			pos := searchFrom + i
			hits = append(hits, hit{key: sm.key, start: pos + len(sm.marker), pos: pos})
			searchFrom = pos + len(sm.marker)
		}
	}
	if len(hits) == 0 {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return map[string]string{}
		}
		return map[string]string{"summary": trimmed}
	}

	// Order by position so each section runs until the next marker.
	for i := 0; i < len(hits); i++ {
		for j := i + 1; j < len(hits); j++ {
			if hits[j].pos < hits[i].pos {
				hits[i], hits[j] = hits[j], hits[i]
			}
		}
	}

	out := make(map[string]string, len(hits))
	for i, h := range hits {
		end := len(text)
		if i+1 < len(hits) {
			end = hits[i+1].pos
		}
		content := strings.TrimSpace(text[h.start:end])
		if content == "" {
			continue
		}
		// Later duplicates of a marker win; in practice there is one of each.
		out[h.key] = content
	}
	return out
}
