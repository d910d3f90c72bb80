package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"voice-quiz-service/internal/domain"
)

func TestCheckAnswer(t *testing.T) {
	france := domain.Question{Question: "What is the capital of France?", Answers: []string{"Paris"}, WrongAnswers: []string{"London", "Berlin"}}
	pets := domain.Question{Question: "Name two pets", Answers: []string{"Cats", "Dogs"}, WrongAnswers: []string{"Snakes"}, MustHave: 2}
	whale := domain.Question{Question: "Largest fish?", Answers: []string{"Whale shark"}, WrongAnswers: []string{"Blue whale shark"}}
	matcher := NewMatcher([]domain.Entity{{Value: "Paris", Synonyms: []string{"City of Light"}}})

	cases := []struct {
		name      string
		q         domain.Question
		raw       string
		entities  []string
		correct   bool
		wantRight []string
		wantWrong []string
	}{
		{"exact text", france, "Paris", nil, true, []string{"Paris"}, nil},
		{"inside a sentence", france, "i think it is paris", nil, true, []string{"Paris"}, nil},
		{"synonym", france, "the city of light", nil, true, []string{"Paris"}, nil},
		{"recognized entity keeps casing", france, "", []string{"paris"}, true, []string{"paris"}, nil},
		{"wrong answer", france, "London", nil, false, nil, []string{"London"}},
		{"right and wrong", france, "paris or london", nil, false, []string{"Paris"}, []string{"London"}},
		{"unmatched input recorded whole", france, "banana", nil, false, nil, []string{"banana"}},
		{"one of two required", pets, "cats", nil, false, []string{"Cats"}, nil},
		{"both required", pets, "cats and dogs", nil, true, []string{"Cats", "Dogs"}, nil},
		{"required plus wrong", pets, "cats dogs and snakes", nil, false, []string{"Cats", "Dogs"}, []string{"Snakes"}},
		{"answer inside longer wrong answer", whale, "a blue whale shark", nil, false, nil, []string{"Blue whale shark"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			eval := CheckAnswer(tc.q, QuestionState{}, tc.raw, tc.entities, matcher)
			assert.Equal(t, tc.correct, eval.Correct)
			assert.Equal(t, tc.wantRight, eval.CorrectAnswers)
			assert.Equal(t, tc.wantWrong, eval.IncorrectAnswers)
		})
	}
}

func TestCheckAnswerUsesStateOverride(t *testing.T) {
	q := domain.Question{Answers: []string{"Paris"}, WrongAnswers: []string{"Rome"}}
	state := QuestionState{Answers: []string{"Lyon"}}

	eval := CheckAnswer(q, state, "lyon", nil, nil)
	assert.True(t, eval.Correct)
	assert.Equal(t, []string{"Lyon"}, eval.UserAnswers())
}

func TestEvaluationUserAnswers(t *testing.T) {
	eval := Evaluation{CorrectAnswers: []string{"Cats"}, IncorrectAnswers: []string{"Snakes"}}
	assert.Equal(t, []string{"Cats", "Snakes"}, eval.UserAnswers())

	eval.Correct = true
	eval.IncorrectAnswers = nil
	assert.Equal(t, []string{"Cats"}, eval.UserAnswers())
}
