package app

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"voice-quiz-service/internal/domain"
)

func TestReplyBuilderChoicesRejectsEmpty(t *testing.T) {
	b := newReplyBuilder()
	err := b.choices("Pick one", nil)
	assert.ErrorIs(t, err, domain.ErrEmptyChoices)

	require.NoError(t, b.choices("", []Choice{{Title: "easy", Key: "Easy"}}))
	reply := b.build(NewSession("conv-1"))
	require.Len(t, reply.Directives, 1)
	assert.Equal(t, "Easy", reply.Directives[0].Choices[0].Title)
}

func TestReplyBuilderAppendsSuggestionsAndProgress(t *testing.T) {
	b := newReplyBuilder()
	b.say("Hello")
	b.say("   ")
	b.suggest("Yes", "No")
	b.update(CanvasState{"headline": "first"})
	b.update(CanvasState{"headline": "second"})

	s := NewSession("conv-1")
	s.Queue = []int{3, 1}
	s.QNum = 1
	reply := b.build(s)

	require.Len(t, reply.Directives, 2)
	assert.Equal(t, DirectiveSpeak, reply.Directives[0].Type)
	assert.Equal(t, []string{"Yes", "No"}, reply.Directives[1].Suggestions)
	assert.Equal(t, "second", reply.Canvas["headline"])
	assert.Equal(t, 1, reply.Canvas["qNum"])
	assert.Equal(t, 2, reply.Canvas["totalQs"])
}

func TestTextList(t *testing.T) {
	assert.Equal(t, "", textList(nil, "or"))
	assert.Equal(t, "a", textList([]string{"a"}, "or"))
	assert.Equal(t, "a or b", textList([]string{"a", "b"}, "or"))
	assert.Equal(t, "a, b, and c", textList([]string{"a", "b", "c"}, "and"))
}

func TestCorrectResponse(t *testing.T) {
	single := domain.Question{Answers: []string{"Paris"}}
	assert.Equal(t, "The correct answer is Paris.", correctResponse(single, single.Answers))

	anyOf := domain.Question{Answers: []string{"a", "b", "c"}}
	assert.Equal(t, "The correct answers could be a, b, or c.", correctResponse(anyOf, anyOf.Answers))

	allOf := domain.Question{Answers: []string{"Cats", "Dogs"}, MustHave: 2}
	assert.Equal(t, "The correct answers are Cats and Dogs.", correctResponse(allOf, allOf.Answers))
}

func TestPhrasebook(t *testing.T) {
	pb := newPhrasebook([]domain.MiscItem{
		{ID: "correct", Text: []string{"Yes!", "Right!"}, Audio: []string{"yes.mp3", "right.mp3"}},
		{ID: "next round button", Text: []string{"Go again"}},
	})
	rnd := rand.New(rand.NewSource(5))

	for i := 0; i < 10; i++ {
		p := pb.get(rnd, "correct")
		switch p.Text {
		case "Yes!":
			assert.Equal(t, "yes.mp3", p.Audio)
		case "Right!":
			assert.Equal(t, "right.mp3", p.Audio)
		default:
			t.Fatalf("unexpected phrase %+v", p)
		}
	}

	assert.Equal(t, "Goodbye", pb.text(rnd, "goodbye"), "defaults fill missing rows")
	assert.Empty(t, pb.text(rnd, "no such key"))
	assert.True(t, pb.is("next round button", "go again"))
	assert.False(t, pb.is("next round button", "Play again"))
}
