package app

import (
	"fmt"
	"math/rand"

	"voice-quiz-service/internal/domain"
)

const minWrongChoices = 2

// BuildChoices assembles the multiple-choice set for a question: a random sample of wrong
// answers and required correct answers, in uniformly random order. The question's slices
// are copied before shuffling; they are shared by every session.
func BuildChoices(rnd *rand.Rand, q domain.Question, state QuestionState) []string {
	numCorrect := q.Required()
	numWrong := minWrongChoices
	if numCorrect >= 3 {
		numWrong = 3
	}

	wrong := append([]string(nil), q.WrongAnswers...)
	shuffleStrings(rnd, wrong)
	if len(wrong) > numWrong {
		wrong = wrong[:numWrong]
	}
	for i := 1; len(wrong) < minWrongChoices; i++ {
		wrong = append(wrong, fmt.Sprintf("Placeholder wrong answer %d", i))
	}

	right := append([]string(nil), state.answersFor(q)...)
	shuffleStrings(rnd, right)
	if len(right) > numCorrect {
		right = right[:numCorrect]
	}

	choices := append(wrong, right...)
	shuffleStrings(rnd, choices)
	return choices
}
