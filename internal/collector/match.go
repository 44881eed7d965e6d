package collector

import (
	"regexp"
	"strings"
)

var parenExpr = regexp.MustCompile(`\([^)]*\)`)

// CleanAptName strips parenthesized qualifiers so "래미안(2차)" and
// "래미안 (임대)" both reduce to "래미안". The trade feed and the complex
// roster disagree on these suffixes constantly.
func CleanAptName(name string) string {
	return strings.TrimSpace(parenExpr.ReplaceAllString(name, ""))
}

// Candidate is one stored complex a feed row may resolve to.
type Candidate struct {
	AptID      int64
	AptName    string
	RegionName string
}

// MatchApartment resolves a feed row against the stored complexes of the
// same district. When the row names its legal dong, candidates are first
// narrowed to regions containing that dong; if the narrowing leaves
// nothing the full pool is used, since the roster's region names are not
// always dong-level. A candidate matches when either cleaned name contains
// the other, and the first match wins.
func MatchApartment(feedName, umdName string, candidates []Candidate) (Candidate, bool) {
	cleaned := CleanAptName(feedName)
	if cleaned == "" {
		return Candidate{}, false
	}

	pool := candidates
	if umd := strings.TrimSpace(umdName); umd != "" {
		var narrowed []Candidate
		for _, cand := range candidates {
			if strings.Contains(cand.RegionName, umd) {
				narrowed = append(narrowed, cand)
			}
		}
		if len(narrowed) > 0 {
			pool = narrowed
		}
	}

	for _, cand := range pool {
		stored := CleanAptName(cand.AptName)
		if stored == "" {
			continue
		}
		if strings.Contains(stored, cleaned) || strings.Contains(cleaned, stored) {
			return cand, true
		}
	}
	return Candidate{}, false
}
