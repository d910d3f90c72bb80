package app

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"voice-quiz-service/internal/domain"
)

func TestBuildChoicesSingleAnswer(t *testing.T) {
	q := domain.Question{Answers: []string{"Paris"}, WrongAnswers: []string{"London", "Berlin", "Rome", "Madrid"}}
	before := append([]string(nil), q.WrongAnswers...)

	for seed := int64(0); seed < 10; seed++ {
		choices := BuildChoices(rand.New(rand.NewSource(seed)), q, QuestionState{})
		assert.Len(t, choices, 3)
		assert.Contains(t, choices, "Paris")
		for _, c := range choices {
			assert.Contains(t, append(q.WrongAnswers, "Paris"), c)
		}
		assert.Len(t, uniq(choices), 3)
	}
	assert.Equal(t, before, q.WrongAnswers, "question slices must not be shuffled in place")
}

func TestBuildChoicesManyRequired(t *testing.T) {
	q := domain.Question{
		Answers:      []string{"A", "B", "C", "D"},
		WrongAnswers: []string{"V", "W", "X", "Y", "Z"},
		MustHave:     3,
	}
	choices := BuildChoices(rand.New(rand.NewSource(1)), q, QuestionState{})
	assert.Len(t, choices, 6)

	right := 0
	for _, c := range choices {
		if c >= "A" && c <= "D" {
			right++
		}
	}
	assert.Equal(t, 3, right)
}

func TestBuildChoicesPadsWrongAnswers(t *testing.T) {
	q := domain.Question{Answers: []string{"Paris"}}
	choices := BuildChoices(rand.New(rand.NewSource(1)), q, QuestionState{})
	assert.ElementsMatch(t, []string{"Paris", "Placeholder wrong answer 1", "Placeholder wrong answer 2"}, choices)

	q.WrongAnswers = []string{"London"}
	choices = BuildChoices(rand.New(rand.NewSource(1)), q, QuestionState{})
	assert.ElementsMatch(t, []string{"Paris", "London", "Placeholder wrong answer 1"}, choices)
}

func uniq(items []string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, it := range items {
		out[it] = struct{}{}
	}
	return out
}
