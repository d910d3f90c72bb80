package app

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"voice-quiz-service/internal/domain"
)

// historyFixture: q0 always right, q1 always wrong, q2..q4 unseen.
func historyFixture() *domain.History {
	h := domain.NewHistory(5)
	h.LogQuestion(0, true)
	h.LogQuestion(1, false)
	return h
}

func TestBuildQueueLinear(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	queue := BuildQueue(5, historyFixture(), domain.OrderingConfig{}, rnd)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, queue)
}

func TestBuildQueueTruncates(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	queue := BuildQueue(5, nil, domain.OrderingConfig{NumQuestions: 2}, rnd)
	assert.Equal(t, []int{0, 1}, queue)

	queue = BuildQueue(5, nil, domain.OrderingConfig{NumQuestions: 50}, rnd)
	assert.Len(t, queue, 5)
}

func TestBuildQueuePriorities(t *testing.T) {
	cases := []struct {
		name     string
		ordering domain.OrderingConfig
		want     []int
	}{
		{"unseen first", domain.OrderingConfig{PrioritizeUnseen: true}, []int{2, 3, 4, 0, 1}},
		{"wrong first", domain.OrderingConfig{PrioritizeWrong: true}, []int{1, 0, 2, 3, 4}},
		{"unseen then wrong", domain.OrderingConfig{PrioritizeUnseen: true, PrioritizeWrong: true}, []int{2, 3, 4, 1, 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rnd := rand.New(rand.NewSource(7))
			assert.Equal(t, tc.want, BuildQueue(5, historyFixture(), tc.ordering, rnd))
		})
	}
}

func TestBuildQueueRandomizedKeepsSubsetOrder(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		rnd := rand.New(rand.NewSource(seed))
		ordering := domain.OrderingConfig{PrioritizeUnseen: true, PrioritizeWrong: true, RandomizeOrder: true}
		queue := BuildQueue(5, historyFixture(), ordering, rnd)

		assert.ElementsMatch(t, []int{2, 3, 4}, queue[:3])
		assert.Equal(t, []int{1, 0}, queue[3:])
	}
}

func TestBuildQueueRandomIsPermutation(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	queue := BuildQueue(10, nil, domain.OrderingConfig{RandomizeOrder: true}, rnd)
	sorted := append([]int(nil), queue...)
	sort.Ints(sorted)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, sorted)
}

func TestBuildQueueSelectedQuestions(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	ordering := domain.OrderingConfig{UseSelectedQuestions: true, SelectedQuestions: []int{3, 3, 7, -1, 1}}
	assert.Equal(t, []int{3, 1}, BuildQueue(5, nil, ordering, rnd))

	ordering.SelectedQuestions = nil
	assert.Empty(t, BuildQueue(5, nil, ordering, rnd))
}

func TestFullQueuePassingBoundary(t *testing.T) {
	h := domain.NewHistory(2)
	// q0: 3 of 4 correct sits exactly on the passing ratio.
	h.LogQuestion(0, true)
	h.LogQuestion(0, true)
	h.LogQuestion(0, true)
	h.LogQuestion(0, false)
	// q1: 1 of 2 correct is still wrong.
	h.LogQuestion(1, true)
	h.LogQuestion(1, false)

	rnd := rand.New(rand.NewSource(1))
	queue := FullQueue(2, h, domain.OrderingConfig{PrioritizeWrong: true}, rnd)
	assert.Equal(t, []int{1, 0}, queue)
}
