package app

import (
	"strings"

	"voice-quiz-service/internal/domain"
)

// Evaluation is the outcome of checking one user turn against a question.
type Evaluation struct {
	Correct          bool     `json:"correct"`
	CorrectAnswers   []string `json:"correctAnswers"`
	IncorrectAnswers []string `json:"incorrectAnswers"`
}

// UserAnswers is what gets recorded as "what the user said".
func (e Evaluation) UserAnswers() []string {
	if e.Correct {
		return append([]string(nil), e.CorrectAnswers...)
	}
	out := make([]string, 0, len(e.CorrectAnswers)+len(e.IncorrectAnswers))
	out = append(out, e.CorrectAnswers...)
	return append(out, e.IncorrectAnswers...)
}

// CheckAnswer evaluates raw input and recognized answer entities against a question.
// An input that matches nothing is recorded whole as an incorrect answer; it is never
// an error.
func CheckAnswer(q domain.Question, state QuestionState, raw string, entities []string, m *Matcher) Evaluation {
	answers := state.answersFor(q)
	lowerRaw := strings.ToLower(raw)

	var eval Evaluation
	for _, answer := range answers {
		if matched, ok := matchEntity(answer, entities); ok {
			eval.CorrectAnswers = append(eval.CorrectAnswers, matched)
			continue
		}
		for _, variant := range m.Variants(answer) {
			v := strings.ToLower(variant)
			if v == "" || !strings.Contains(lowerRaw, v) {
				continue
			}
			if partOfWrongAnswer(v, lowerRaw, q.WrongAnswers) {
				continue
			}
			eval.CorrectAnswers = append(eval.CorrectAnswers, answer)
			break
		}
	}

	for _, wrong := range q.WrongAnswers {
		w := strings.ToLower(wrong)
		if w == "" || !strings.Contains(lowerRaw, w) {
			continue
		}
		if containedInAny(w, answers) {
			continue
		}
		eval.IncorrectAnswers = append(eval.IncorrectAnswers, wrong)
	}

	if len(eval.CorrectAnswers) == 0 && len(eval.IncorrectAnswers) == 0 {
		eval.IncorrectAnswers = []string{raw}
	}

	eval.Correct = len(eval.CorrectAnswers) >= q.Required() && len(eval.IncorrectAnswers) == 0
	return eval
}

// matchEntity returns the recognized entity, in its original casing, equal to answer.
func matchEntity(answer string, entities []string) (string, bool) {
	for _, e := range entities {
		if strings.EqualFold(e, answer) {
			return e, true
		}
	}
	return "", false
}

// partOfWrongAnswer reports whether the matched text v only occurs because a wrong answer
// containing it was said: either the whole input is a wrong answer, or a longer wrong
// answer that contains v is present in the input.
func partOfWrongAnswer(v, lowerRaw string, wrongAnswers []string) bool {
	for _, wrong := range wrongAnswers {
		w := strings.ToLower(wrong)
		if w == "" {
			continue
		}
		if w == strings.TrimSpace(lowerRaw) {
			return true
		}
		if len(w) > len(v) && strings.Contains(w, v) && strings.Contains(lowerRaw, w) {
			return true
		}
	}
	return false
}

func containedInAny(w string, answers []string) bool {
	for _, a := range answers {
		if strings.Contains(strings.ToLower(a), w) {
			return true
		}
	}
	return false
}
