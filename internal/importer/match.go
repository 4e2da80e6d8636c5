package importer

import (
	"strings"
	"unicode"

	"bakerypos/internal/model"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"
)

// AutoAcceptThreshold is the minimum score for a mapping to be accepted without an operator.
const AutoAcceptThreshold = 0.8

// ContainmentScore is awarded when one normalized name contains the other.
const ContainmentScore = 0.9

// Candidate is a catalog entry an external name can map to.
type Candidate struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Label     string
	key       string
}

// Match is the best candidate found for an external name.
type Match struct {
	Candidate Candidate
	Score     float64
}

// Normalize lowercases, turns punctuation into spaces and collapses whitespace.
func Normalize(name string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space && b.Len() > 0 {
			b.WriteRune(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}

// Similarity scores two names in [0,1]: 1 for equal normalized names,
// ContainmentScore when one contains the other, otherwise the character
// overlap ratio 1 - editDistance/longerLength.
func Similarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return ContainmentScore
	}
	longer := len([]rune(na))
	if n := len([]rune(nb)); n > longer {
		longer = n
	}
	dist := levenshtein.ComputeDistance(na, nb)
	score := 1 - float64(dist)/float64(longer)
	if score < 0 {
		return 0
	}
	return score
}

// BuildCandidates lists each product followed by its variants, preserving catalog order.
func BuildCandidates(products []model.Product) []Candidate {
	var out []Candidate
	for _, p := range products {
		out = append(out, Candidate{ProductID: p.ID, Label: p.Name, key: Normalize(p.Name)})
		for _, v := range p.Variants {
			vid := v.ID
			label := p.Name + " " + v.Name
			out = append(out, Candidate{ProductID: p.ID, VariantID: &vid, Label: label, key: Normalize(label)})
		}
	}
	return out
}

// BestMatch scores name against every candidate. Ties keep the first candidate encountered.
func BestMatch(name string, candidates []Candidate) (Match, bool) {
	var best Match
	found := false
	for _, c := range candidates {
		label := c.key
		if label == "" {
			label = c.Label
		}
		score := Similarity(name, label)
		if !found || score > best.Score {
			best = Match{Candidate: c, Score: score}
			found = true
		}
	}
	return best, found
}

// AutoAccepted reports whether m may be persisted without operator review.
func (m Match) AutoAccepted() bool {
	return m.Score >= AutoAcceptThreshold
}

// SplitDays separates day rows whose key was already imported from new ones.
func SplitDays(days []DayRow, imported map[string]bool) (fresh []DayRow, skipped []string) {
	for _, d := range days {
		if imported[d.DateKey] {
			skipped = append(skipped, d.DateKey)
			continue
		}
		fresh = append(fresh, d)
	}
	return fresh, skipped
}
