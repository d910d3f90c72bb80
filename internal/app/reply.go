package app

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"voice-quiz-service/internal/domain"
)

// DirectiveType names an abstract reply the formatting layer renders per device.
type DirectiveType string

const (
	DirectiveSpeak       DirectiveType = "speak"
	DirectiveChoices     DirectiveType = "choices"
	DirectiveCard        DirectiveType = "card"
	DirectiveList        DirectiveType = "list"
	DirectiveSuggestions DirectiveType = "suggestions"
)

// Surface restrictions for a directive. Empty means every surface.
const (
	OnlyScreen = "screen"
	OnlyAudio  = "audio"
)

// Choice is one selectable option. Title is displayed, Key is sent back when selected.
type Choice struct {
	Title string `json:"title"`
	Key   string `json:"key"`
}

// Link is an optional card button.
type Link struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Card is a "more info" card.
type Card struct {
	Title    string `json:"title"`
	Text     string `json:"text,omitempty"`
	Image    string `json:"image,omitempty"`
	ImageAlt string `json:"imageAlt,omitempty"`
	Link     *Link  `json:"link,omitempty"`
}

// Directive is one abstract reply.
type Directive struct {
	Type        DirectiveType `json:"type"`
	Text        string        `json:"text,omitempty"`
	Audio       string        `json:"audio,omitempty"`
	Only        string        `json:"only,omitempty"`
	Title       string        `json:"title,omitempty"`
	Choices     []Choice      `json:"choices,omitempty"`
	Card        *Card         `json:"card,omitempty"`
	Items       []string      `json:"items,omitempty"`
	Suggestions []string      `json:"suggestions,omitempty"`
}

// CanvasState is the flat key-value update sent to the canvas front-end.
type CanvasState map[string]any

// Reply is everything produced by one turn.
type Reply struct {
	ConversationID string      `json:"conversationId"`
	Directives     []Directive `json:"directives"`
	Canvas         CanvasState `json:"canvas,omitempty"`
	CanvasURL      string      `json:"canvasUrl,omitempty"`
	Close          bool        `json:"close,omitempty"`
}

// replyBuilder accumulates directives for one turn. Canvas updates silently overwrite
// earlier values for the same key.
type replyBuilder struct {
	directives  []Directive
	suggestions []string
	canvas      CanvasState
	close       bool
}

func newReplyBuilder() *replyBuilder {
	return &replyBuilder{canvas: CanvasState{}}
}

func (b *replyBuilder) say(text string) {
	b.speak(domain.Phrase{Text: text}, "")
}

func (b *replyBuilder) sayPhrase(p domain.Phrase) {
	b.speak(p, "")
}

func (b *replyBuilder) speak(p domain.Phrase, only string) {
	if strings.TrimSpace(p.Text) == "" && p.Audio == "" {
		return
	}
	b.directives = append(b.directives, Directive{Type: DirectiveSpeak, Text: p.Text, Audio: p.Audio, Only: only})
}

// choices queues an option list. An empty list is a data or config bug.
func (b *replyBuilder) choices(title string, list []Choice) error {
	if len(list) == 0 {
		return fmt.Errorf("build choices %q: %w", title, domain.ErrEmptyChoices)
	}
	items := make([]Choice, len(list))
	for i, c := range list {
		items[i] = Choice{Title: capitalize(c.Title), Key: c.Key}
	}
	b.directives = append(b.directives, Directive{Type: DirectiveChoices, Title: title, Choices: items})
	return nil
}

func (b *replyBuilder) card(c Card) {
	b.directives = append(b.directives, Directive{Type: DirectiveCard, Card: &c})
}

func (b *replyBuilder) list(title string, items []string) {
	b.directives = append(b.directives, Directive{Type: DirectiveList, Title: title, Items: items})
}

func (b *replyBuilder) suggest(s ...string) {
	b.suggestions = append(b.suggestions, s...)
}

func (b *replyBuilder) update(kv CanvasState) {
	for k, v := range kv {
		b.canvas[k] = v
	}
}

func (b *replyBuilder) build(s *Session) Reply {
	directives := b.directives
	if len(b.suggestions) > 0 {
		directives = append(directives, Directive{Type: DirectiveSuggestions, Suggestions: b.suggestions})
	}
	canvas := b.canvas
	if len(s.Queue) > 0 {
		canvas["qNum"] = s.QNum
		canvas["totalQs"] = len(s.Queue)
	}
	return Reply{
		ConversationID: s.ConversationID,
		Directives:     directives,
		Canvas:         canvas,
		Close:          b.close,
	}
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// textList joins items as "a, b, and c"; two items are joined without a comma.
func textList(items []string, lastDivider string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " " + lastDivider + " " + items[1]
	}
	return strings.Join(items[:len(items)-1], ", ") + ", " + lastDivider + " " + items[len(items)-1]
}
