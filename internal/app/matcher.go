package app

import (
	"strings"

	"voice-quiz-service/internal/domain"
)

// Matcher resolves answer strings against the dataset's entities. It is built once per
// loaded dataset and only reads from it.
type Matcher struct {
	entities  []domain.Entity
	byValue   map[string]int
	bySynonym map[string]int
}

// NewMatcher indexes entities by lower-cased value and synonym. The first entity wins
// when two share a key.
func NewMatcher(entities []domain.Entity) *Matcher {
	m := &Matcher{
		entities:  entities,
		byValue:   make(map[string]int, len(entities)),
		bySynonym: make(map[string]int),
	}
	for i, e := range entities {
		key := strings.ToLower(strings.TrimSpace(e.Value))
		if _, ok := m.byValue[key]; !ok {
			m.byValue[key] = i
		}
		for _, syn := range e.Synonyms {
			skey := strings.ToLower(strings.TrimSpace(syn))
			if _, ok := m.bySynonym[skey]; !ok {
				m.bySynonym[skey] = i
			}
		}
	}
	return m
}

// Lookup finds an entity by value, falling back to synonyms. With needsDescription an
// entity lacking a short description is reported as not found.
func (m *Matcher) Lookup(name string, needsDescription bool) (domain.Entity, bool) {
	if m == nil {
		return domain.Entity{}, false
	}
	key := strings.ToLower(strings.TrimSpace(name))
	idx, ok := m.byValue[key]
	if !ok {
		idx, ok = m.bySynonym[key]
	}
	if !ok {
		return domain.Entity{}, false
	}
	e := m.entities[idx]
	if needsDescription && e.ShortDescription == "" {
		return domain.Entity{}, false
	}
	return e, true
}

// Variants returns the answer followed by any registered synonyms.
func (m *Matcher) Variants(answer string) []string {
	out := []string{answer}
	e, ok := m.Lookup(answer, false)
	if !ok {
		return out
	}
	for _, syn := range e.Synonyms {
		if syn != "" && !strings.EqualFold(syn, answer) {
			out = append(out, syn)
		}
	}
	return out
}

// Card builds a "more info" card for an answer. Relative image paths are prefixed with
// imageBaseURL on the returned card only.
func (m *Matcher) Card(name, imageBaseURL string) (Card, bool) {
	e, ok := m.Lookup(name, true)
	if !ok {
		return Card{}, false
	}
	return Card{
		Title:    e.Value,
		Text:     e.ShortDescription,
		Image:    absoluteURL(e.Image, imageBaseURL),
		ImageAlt: absoluteURL(e.ImageAlt, imageBaseURL),
	}, true
}

func absoluteURL(src, base string) string {
	if src == "" || strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return src
	}
	return base + src
}
