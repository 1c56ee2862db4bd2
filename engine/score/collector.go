package score

import "strings"

// RecommendationTypePlace is the only recommendation kind produced today.
const RecommendationTypePlace = "place"

// DefaultRecommendationName stands in when a review record carries no name.
const DefaultRecommendationName = "Unknown Spot"

// Recommendation is a nearby place surfaced alongside a route.
type Recommendation struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// TagPolicy governs how a short tag is lifted out of a report's text.
type TagPolicy struct {
	// Delimiter splits the tag prefix from the rest of the text.
	Delimiter string
	// MaxLen rejects prefixes at or above this length.
	MaxLen int
}

// DefaultTagPolicy matches report texts shaped like "Assault: details...".
func DefaultTagPolicy() TagPolicy {
	return TagPolicy{Delimiter: ":", MaxLen: 30}
}

// Extract returns the tag for text, or false when the text yields none: the
// delimiter must be present and the prefix before it must be under MaxLen.
func (p TagPolicy) Extract(text string) (string, bool) {
	prefix, _, found := strings.Cut(text, p.Delimiter)
	if !found || len(prefix) >= p.MaxLen {
		return "", false
	}
	return prefix, true
}

// tagCollector accumulates unique tags in first-seen order up to a cap.
type tagCollector struct {
	max  int
	tags []string
}

func newTagCollector(max int) *tagCollector {
	return &tagCollector{max: max}
}

func (c *tagCollector) Add(tag string) {
	if len(c.tags) >= c.max {
		return
	}
	for _, have := range c.tags {
		if have == tag {
			return
		}
	}
	c.tags = append(c.tags, tag)
}

// Items returns collected tags, never nil.
func (c *tagCollector) Items() []string {
	if c.tags == nil {
		return []string{}
	}
	return c.tags
}

// recommendationCollector deduplicates places by exact name, keeps
// first-seen order, and stops accepting once full.
type recommendationCollector struct {
	max   int
	items []Recommendation
}

func newRecommendationCollector(max int) *recommendationCollector {
	return &recommendationCollector{max: max}
}

// Full reports whether the collector has hit its cap. Callers may use it to
// skip further retrieval.
func (c *recommendationCollector) Full() bool {
	return len(c.items) >= c.max
}

func (c *recommendationCollector) Add(name, description string) {
	if c.Full() {
		return
	}
	if name == "" {
		name = DefaultRecommendationName
	}
	for _, have := range c.items {
		if have.Name == name {
			return
		}
	}
	c.items = append(c.items, Recommendation{
		Name:        name,
		Description: description,
		Type:        RecommendationTypePlace,
	})
}

// Items returns collected recommendations, never nil.
func (c *recommendationCollector) Items() []Recommendation {
	if c.items == nil {
		return []Recommendation{}
	}
	return c.items
}
