package scanner

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Adjacency matches an element holding only the label and returns its next sibling's text.
// A label wrapped in formatting (<td><b>Label</b></td>) is resolved through the
// enclosing elements that still hold nothing but the label.
type Adjacency struct{}

// Name identifies the strategy in chain results.
func (Adjacency) Name() string { return "adjacency" }

// Extract returns the first non-empty value container following a bare label.
func (Adjacency) Extract(doc *goquery.Document, label string) (string, bool) {
	var value string
	labelElements(doc, label).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if trailingText(s.Text(), label) != "" {
			return true
		}
		for cur := s; ; {
			if next := cur.Next(); next.Length() > 0 {
				if text := strings.TrimSpace(next.Text()); text != "" {
					value = text
					return false
				}
				return true
			}
			parent := cur.Parent()
			if parent.Length() == 0 || parent.Is("body, html") || !labelOnly(parent.Text(), label) {
				return true
			}
			cur = parent
		}
	})
	return value, value != ""
}

// LabelAsSelf matches an element carrying the label and its value inline, e.g. "Lead Agency: City of Ontario".
// The value must follow an explicit separator, so "Lead Agency Contact: Jane" is not a match.
type LabelAsSelf struct{}

// Name identifies the strategy in chain results.
func (LabelAsSelf) Name() string { return "label-as-self" }

// Extract returns the element's own text with the label and separator removed.
func (LabelAsSelf) Extract(doc *goquery.Document, label string) (string, bool) {
	var value string
	labelElements(doc, label).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, ok := inlineValue(s.Text(), label); ok {
			value = v
			return false
		}
		return true
	})
	return value, value != ""
}

// DefinitionList pairs a <dt> term holding the label with the <dd> that follows it.
type DefinitionList struct{}

// Name identifies the strategy in chain results.
func (DefinitionList) Name() string { return "definition-list" }

// Extract returns the first non-empty <dd> paired with a matching <dt>.
func (DefinitionList) Extract(doc *goquery.Document, label string) (string, bool) {
	var value string
	doc.Find("dt").EachWithBreak(func(_ int, dt *goquery.Selection) bool {
		if !strings.Contains(dt.Text(), label) {
			return true
		}
		dd := dt.NextFiltered("dd")
		if text := strings.TrimSpace(dd.Text()); text != "" {
			value = text
			return false
		}
		return true
	})
	return value, value != ""
}

// TextFallback scans text nodes case-insensitively and returns the text following the label's parent.
type TextFallback struct{}

// Name identifies the strategy in chain results.
func (TextFallback) Name() string { return "text-fallback" }

// Extract walks text nodes in document order, skipping script and style content.
func (TextFallback) Extract(doc *goquery.Document, label string) (string, bool) {
	needle := strings.ToLower(label)
	var value string

	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && skipElement(n) {
			return false
		}
		if n.Type == html.TextNode && strings.Contains(strings.ToLower(n.Data), needle) && n.Parent != nil {
			if sib := followingSibling(n.Parent); sib != nil {
				if text := strings.TrimSpace(nodeText(sib)); text != "" {
					value = text
					return true
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}

	for _, root := range doc.Nodes {
		if walk(root) {
			break
		}
	}
	return value, value != ""
}

// labelElements returns, in document order, the innermost elements whose text contains label.
func labelElements(doc *goquery.Document, label string) *goquery.Selection {
	return doc.Find("body *").FilterFunction(func(_ int, s *goquery.Selection) bool {
		if s.Is("script, style, noscript") || !strings.Contains(s.Text(), label) {
			return false
		}
		return s.Children().FilterFunction(func(_ int, child *goquery.Selection) bool {
			return strings.Contains(child.Text(), label)
		}).Length() == 0
	})
}

// trailingText returns whatever follows the label once separators are stripped.
func trailingText(text, label string) string {
	idx := strings.Index(text, label)
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(strings.TrimLeftFunc(text[idx+len(label):], isSeparator))
}

// labelOnly reports whether text is the label surrounded by separators only.
func labelOnly(text, label string) bool {
	idx := strings.Index(text, label)
	if idx < 0 {
		return false
	}
	return strings.TrimFunc(text[:idx], isSeparator) == "" && trailingText(text, label) == ""
}

// inlineValue returns the value written after the label and an explicit
// separator (":", "-", "|" or "–").
func inlineValue(text, label string) (string, bool) {
	idx := strings.Index(text, label)
	if idx < 0 {
		return "", false
	}
	rest := strings.TrimLeftFunc(text[idx+len(label):], unicode.IsSpace)
	if rest == "" || !strings.ContainsRune(":-|–", []rune(rest)[0]) {
		return "", false
	}
	rest = strings.TrimSpace(strings.TrimLeftFunc(rest, isSeparator))
	return rest, rest != ""
}

func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || r == ':' || r == '-' || r == '|' || r == '–'
}

// followingSibling skips comments and whitespace-only text.
func followingSibling(n *html.Node) *html.Node {
	for sib := n.NextSibling; sib != nil; sib = sib.NextSibling {
		if sib.Type == html.CommentNode {
			continue
		}
		if sib.Type == html.TextNode && strings.TrimSpace(sib.Data) == "" {
			continue
		}
		return sib
	}
	return nil
}

func skipElement(n *html.Node) bool {
	switch n.Data {
	case "script", "style", "noscript", "head":
		return true
	}
	return false
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(nodeText(c))
	}
	return b.String()
}
