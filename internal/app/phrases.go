package app

import (
	"math/rand"
	"strings"

	"voice-quiz-service/internal/domain"
)

// defaultPhrases backs every phrase key the flow uses so a dataset without misc rows
// still produces a complete conversation.
var defaultPhrases = map[string][]string{
	"intro":                    {"Welcome to the quiz! Do you want multiple choice or free answer?"},
	"intro welcome back":       {"Welcome back! Multiple choice or free answer this time?"},
	"homeHeadline":             {"How do you want to study?"},
	"mcBtn":                    {"Easy (Multiple choice)"},
	"freeBtn":                  {"Hard (Free answer)"},
	"about headline":           {"About this quiz"},
	"about body":               {"Practice questions and track what you've learned."},
	"quiz type fallback":       {"Sorry, do you want multiple choice or free answer?"},
	"fallback":                 {"Sorry, I didn't get that."},
	"correct":                  {"Correct!", "That's right!"},
	"incorrect headline":       {"Not quite."},
	"incorrect headline retry": {"Not quite. Want to try again?"},
	"retry ask":                {"Do you want to try again, or hear the answer?"},
	"moreinfo multiple":        {"Here are all the possible answers."},
	"moreinfo single":          {"Here's more about that answer."},
	"quiz done":                {"That was the last question. Ready to see your score?"},
	"see score button":         {"See score"},
	"continue prompt":          {"Ready for the next question?"},
	"next button":              {"Next question"},
	"another round":            {"Here's another round."},
	"next question":            {"Next question."},
	"previous question":        {"Going back."},
	"not ready for next":       {"Okay, take your time. Say next question when you're ready."},
	"skip retry":               {"Okay."},
	"dont know":                {"No problem."},
	"next round button":        {"Play again"},
	"stop button":              {"Stop"},
	"start free":               {"Let's start the free answer quiz."},
	"restart free":             {"Starting over with free answer."},
	"start mc":                 {"Let's start the multiple choice quiz."},
	"restart mc":               {"Starting over with multiple choice."},
	"restart ask":              {"Do you want to play another round?"},
	"pass feedback":            {"You passed!"},
	"fail feedback":            {"Keep practicing and you'll get there."},
	"goodbye":                  {"Goodbye"},
	"history deleted":          {"History deleted."},
	"feedback low":             {"Keep at it."},
	"feedback mid":             {"Nice work."},
	"feedback high":            {"Excellent!"},
}

// defaultSounds are audio-only cues played before the matching phrase.
var defaultSounds = map[string][]string{
	"correct sfx":       {"sfx/correct.mp3"},
	"incorrect sfx":     {"sfx/incorrect.mp3"},
	"feedback low-sfx":  {"sfx/feedback-low.mp3"},
	"feedback mid-sfx":  {"sfx/feedback-mid.mp3"},
	"feedback high-sfx": {"sfx/feedback-high.mp3"},
}

// phrasebook picks phrase variants from the dataset misc rows, then the defaults.
type phrasebook struct {
	items map[string]domain.MiscItem
}

func newPhrasebook(misc []domain.MiscItem) *phrasebook {
	pb := &phrasebook{items: make(map[string]domain.MiscItem, len(misc))}
	for _, item := range misc {
		pb.items[item.ID] = item
	}
	return pb
}

// get returns one variant for key. When text and audio lists have the same length the
// picked variants stay aligned.
func (pb *phrasebook) get(rnd *rand.Rand, key string) domain.Phrase {
	item, ok := pb.items[key]
	if !ok {
		item = domain.MiscItem{ID: key, Text: defaultPhrases[key], Audio: defaultSounds[key]}
	}
	if len(item.Text) > 0 && len(item.Text) == len(item.Audio) {
		i := rnd.Intn(len(item.Text))
		return domain.Phrase{Text: item.Text[i], Audio: item.Audio[i]}
	}
	var p domain.Phrase
	if len(item.Text) > 0 {
		p.Text = item.Text[rnd.Intn(len(item.Text))]
	}
	if len(item.Audio) > 0 {
		p.Audio = item.Audio[rnd.Intn(len(item.Audio))]
	}
	return p
}

func (pb *phrasebook) text(rnd *rand.Rand, key string) string {
	return pb.get(rnd, key).Text
}

// is reports whether s matches any text variant of key, ignoring case.
func (pb *phrasebook) is(key, s string) bool {
	variants := defaultPhrases[key]
	if item, ok := pb.items[key]; ok {
		variants = item.Text
	}
	for _, v := range variants {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(s)) {
			return true
		}
	}
	return false
}
