package scanner

import (
	"github.com/PuerkitoBio/goquery"
)

// Strategy recovers the value associated with a label from a parsed page.
// Implementations are pure and report a miss with ok == false.
type Strategy interface {
	Name() string
	Extract(doc *goquery.Document, label string) (value string, ok bool)
}

// Result is a successful extraction together with the strategy that produced it.
type Result struct {
	Value    string
	Strategy string
}

// Chain evaluates strategies in registration order; the first hit wins.
type Chain struct {
	strategies []Strategy
}

// NewChain builds a chain from the given strategies.
func NewChain(strategies ...Strategy) *Chain {
	c := &Chain{}
	for _, s := range strategies {
		c.Register(s)
	}
	return c
}

// DefaultChain returns adjacency, label-as-self, definition-list and text fallback, in that order.
func DefaultChain() *Chain {
	return NewChain(Adjacency{}, LabelAsSelf{}, DefinitionList{}, TextFallback{})
}

// Register appends a strategy to the end of the chain.
func (c *Chain) Register(s Strategy) {
	if s == nil {
		return
	}
	c.strategies = append(c.strategies, s)
}

// Names lists strategies in evaluation order.
func (c *Chain) Names() []string {
	names := make([]string, 0, len(c.strategies))
	for _, s := range c.strategies {
		names = append(names, s.Name())
	}
	return names
}

// Extract runs the chain for a label.
func (c *Chain) Extract(doc *goquery.Document, label string) (Result, bool) {
	if doc == nil || label == "" {
		return Result{}, false
	}
	for _, s := range c.strategies {
		if value, ok := s.Extract(doc, label); ok {
			return Result{Value: value, Strategy: s.Name()}, true
		}
	}
	return Result{}, false
}
