// Package classifier scores project text against a tiered keyword lexicon.
package classifier

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"

	ahocorasick "github.com/cloudflare/ahocorasick"

	"CEQAScanner/internal/domain"
)

// Per-match tier weights and the relevance threshold.
const (
	WeightHigh   = 0.30
	WeightMedium = 0.15
	WeightLow    = 0.05

	Threshold = 0.30
	MaxScore  = 1.0
)

var (
	ErrOverlappingTiers = errors.New("keyword appears in more than one tier")
	ErrEmptyKeyword     = errors.New("empty keyword")
)

// Lexicon is the keyword configuration; each tier carries a fixed weight.
type Lexicon struct {
	High   []string `yaml:"high"`
	Medium []string `yaml:"medium"`
	Low    []string `yaml:"low"`
}

// DefaultLexicon targets warehouse and logistics projects.
func DefaultLexicon() Lexicon {
	return Lexicon{
		High:   []string{"warehouse", "fulfillment", "distribution center", "distribution facility", "logistics center"},
		Medium: []string{"industrial", "cargo", "freight", "supply chain", "e-commerce"},
		Low:    []string{"storage", "shipping", "receiving", "inventory"},
	}
}

type tier struct {
	name     string
	weight   float64
	keywords []string
}

func (l Lexicon) tiers() []tier {
	return []tier{
		{name: "high", weight: WeightHigh, keywords: normalize(l.High)},
		{name: "medium", weight: WeightMedium, keywords: normalize(l.Medium)},
		{name: "low", weight: WeightLow, keywords: normalize(l.Low)},
	}
}

// Validate reports empty keywords and keywords shared between tiers.
func (l Lexicon) Validate() error {
	owner := map[string]string{}
	for _, t := range l.tiers() {
		for _, kw := range t.keywords {
			if kw == "" {
				return fmt.Errorf("tier %s: %w", t.name, ErrEmptyKeyword)
			}
			if prev, ok := owner[kw]; ok && prev != t.name {
				return fmt.Errorf("%q in tiers %s and %s: %w", kw, prev, t.name, ErrOverlappingTiers)
			}
			owner[kw] = t.name
		}
	}
	return nil
}

// Classifier is safe for concurrent use.
type Classifier struct {
	tiers    []tier
	patterns []string

	mu      sync.Mutex
	matcher *ahocorasick.Matcher

	logger *slog.Logger
}

// New validates the lexicon and builds the matching automaton once.
func New(lex Lexicon, log *slog.Logger) (*Classifier, error) {
	if err := lex.Validate(); err != nil {
		return nil, fmt.Errorf("invalid lexicon: %w", err)
	}

	c := &Classifier{tiers: lex.tiers(), logger: log}
	seen := map[string]bool{}
	for _, t := range c.tiers {
		for _, kw := range t.keywords {
			if !seen[kw] {
				seen[kw] = true
				c.patterns = append(c.patterns, kw)
			}
		}
	}
	if len(c.patterns) > 0 {
		c.matcher = ahocorasick.NewStringMatcher(c.patterns)
	}
	return c, nil
}

// ClassifyProject scores the title and description together.
func (c *Classifier) ClassifyProject(title, description string) domain.Classification {
	result := c.Classify(title + " " + description)
	if result.IsRelevant && c.logger != nil {
		c.logger.Info("classified as relevant", "title", title, "score", result.Score)
	}
	return result
}

// Classify sums tier weights for every keyword contained in text. Keywords
// are reported in lexicon order; overlapping occurrences all count.
func (c *Classifier) Classify(text string) domain.Classification {
	hits := c.contained(strings.ToLower(text))

	var (
		score   float64
		matched = make([]string, 0)
	)
	for _, t := range c.tiers {
		for _, kw := range t.keywords {
			if hits[kw] {
				score += t.weight
				matched = append(matched, kw)
			}
		}
	}

	score = clamp(score)
	return domain.Classification{
		IsRelevant:      IsRelevant(score),
		Score:           score,
		MatchedKeywords: matched,
	}
}

func (c *Classifier) contained(text string) map[string]bool {
	hits := map[string]bool{}
	if c.matcher == nil || text == "" {
		return hits
	}

	c.mu.Lock()
	idx := c.matcher.Match([]byte(text))
	c.mu.Unlock()

	for _, i := range idx {
		if i >= 0 && i < len(c.patterns) {
			hits[c.patterns[i]] = true
		}
	}
	return hits
}

// IsRelevant applies the inclusive relevance threshold.
func IsRelevant(score float64) bool {
	return score >= Threshold
}

// clamp rounds away float drift (0.05 * 6 must equal 0.30) and caps at MaxScore.
func clamp(score float64) float64 {
	score = math.Round(score*1e4) / 1e4
	return math.Min(score, MaxScore)
}

func normalize(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		out = append(out, strings.ToLower(strings.TrimSpace(kw)))
	}
	return out
}
