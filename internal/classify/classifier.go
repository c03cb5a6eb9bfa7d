// Package classify maps raw labels (file names) to sensitivity categories
// using a deterministic keyword-weight table. Pure and history-independent:
// the same label always classifies the same way.
package classify

import (
	"regexp"
	"strings"

	"insider-sentinel/monitor/internal/event/domain"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// priority breaks score ties, most sensitive category first.
var priority = []domain.Category{
	domain.CategoryHighSensitivity,
	domain.CategoryRemovableStorage,
	domain.CategoryUnauthorizedApp,
	domain.CategoryLowSensitivity,
}

type Classifier struct {
	weights         map[domain.Category]map[string]float64
	defaultCategory domain.Category
}

// New creates a classifier from a category -> keyword -> weight table.
// defaultCategory is returned when no keyword matches.
func New(weights map[domain.Category]map[string]float64, defaultCategory domain.Category) *Classifier {
	return &Classifier{weights: weights, defaultCategory: defaultCategory}
}

// Tokenize produces simple lowercase tokens from a label.
func Tokenize(s string) []string {
	s = strings.ToLower(s)
	s = nonAlnum.ReplaceAllString(s, " ")
	return strings.Fields(s)
}

// Classify scores the label's tokens against each category's keyword weights
// and returns the highest-scoring category. Ties go to the more sensitive
// category; no match at all returns the default.
func (c *Classifier) Classify(label string) domain.Category {
	tokens := Tokenize(label)

	scores := make(map[domain.Category]float64, len(c.weights))
	for category, keywords := range c.weights {
		for _, tok := range tokens {
			if w, ok := keywords[tok]; ok {
				scores[category] += w
			}
		}
	}

	best := c.defaultCategory
	bestScore := 0.0
	for _, category := range priority {
		if s, ok := scores[category]; ok && s > bestScore {
			best = category
			bestScore = s
		}
	}
	return best
}
