package domain

import (
	"fmt"
	"strings"
)

// QuizType selects how questions are presented. The values are what the canvas switches on.
type QuizType string

const (
	QuizTypeMC   QuizType = "Easy"
	QuizTypeFree QuizType = "Hard"
)

// ParseQuizType maps a selection key or spoken option to a quiz type.
func ParseQuizType(raw string) (QuizType, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "easy", "mc", "multiple choice":
		return QuizTypeMC, true
	case "hard", "free", "free answer", "practice test":
		return QuizTypeFree, true
	}
	return "", false
}

// ScreenType selects which visual screen the canvas shows.
type ScreenType string

const (
	ScreenWelcome      ScreenType = "welcome"
	ScreenQuestion     ScreenType = "question"
	ScreenSingleResult ScreenType = "single-result"
	ScreenResults      ScreenType = "results"
	ScreenFallback     ScreenType = "fallback"
	ScreenAbout        ScreenType = "about"
)

// Question is immutable once loaded and shared by every session.
type Question struct {
	Index        int      `json:"index"`
	Question     string   `json:"question"`
	Answers      []string `json:"answers"`
	WrongAnswers []string `json:"wrongAnswers"`
	MustHave     int      `json:"mustHave,omitempty"` // defaults to 1 if zero
}

// Required is the minimum number of distinct correct answers.
func (q Question) Required() int {
	if q.MustHave < 1 {
		return 1
	}
	return q.MustHave
}

// Entity is a known answer with synonyms and optional "more info" content.
type Entity struct {
	Value            string   `json:"value"`
	Synonyms         []string `json:"synonyms,omitempty"`
	ShortDescription string   `json:"shortDescription,omitempty"`
	Image            string   `json:"image,omitempty"`
	ImageAlt         string   `json:"image_alt,omitempty"`
}

// MiscItem is a canned phrase row. Text and Audio may hold several variants.
type MiscItem struct {
	ID    string   `json:"id"`
	Text  []string `json:"text,omitempty"`
	Audio []string `json:"audio,omitempty"`
}

// Phrase is one picked variant of a MiscItem.
type Phrase struct {
	Text  string `json:"text"`
	Audio string `json:"audio,omitempty"`
}

// Dataset holds everything loaded from the content source. It is read-only after load.
type Dataset struct {
	ID        string     `json:"id,omitempty"`
	Questions []Question `json:"questions"`
	Answers   []Entity   `json:"answers"`
	Misc      []MiscItem `json:"misc,omitempty"`
}

// Question returns the question with the given index.
func (d *Dataset) Question(index int) (Question, bool) {
	if d == nil || index < 0 || index >= len(d.Questions) {
		return Question{}, false
	}
	return d.Questions[index], true
}

// Normalize stamps each question with its position and validates the content. Loaders
// call it once after decoding.
func (d *Dataset) Normalize() error {
	if len(d.Questions) == 0 {
		return ErrNoQuestions
	}
	for i := range d.Questions {
		d.Questions[i].Index = i
		if len(d.Questions[i].Answers) == 0 {
			return fmt.Errorf("question %d has no answers: %w", i, ErrInvalidDataset)
		}
	}
	return nil
}

// OrderingConfig controls how a session's queue is built.
type OrderingConfig struct {
	UseSelectedQuestions bool  `yaml:"useSelectedQuestions" json:"useSelectedQuestions"`
	SelectedQuestions    []int `yaml:"selectedQuestions" json:"selectedQuestions,omitempty"`
	RandomizeOrder       bool  `yaml:"randomizeOrder" json:"randomizeOrder"`
	PrioritizeUnseen     bool  `yaml:"prioritizeUnseen" json:"prioritizeUnseen"`
	PrioritizeWrong      bool  `yaml:"prioritizeWrong" json:"prioritizeWrong"`
	NumQuestions         int   `yaml:"numQuestions" json:"numQuestions"`
}

// Surface describes what the requesting device can render.
type Surface struct {
	Screen bool `json:"screen"`
	Canvas bool `json:"canvas"`
}

// Turn is a single user turn delivered to the fulfillment webhook.
type Turn struct {
	ConversationID string   `json:"conversationId"`
	UserID         string   `json:"userId"`
	Intent         string   `json:"intent"`
	RawText        string   `json:"rawText"`
	Entities       []string `json:"entities,omitempty"`
	Option         string   `json:"option,omitempty"`
	Number         int      `json:"number,omitempty"`
	Surface        Surface  `json:"surface"`
}
