package app

import (
	"math/rand"
	"sort"

	"voice-quiz-service/internal/domain"
)

// priorityPassingPct splits seen questions into "wrong" and "correct" subsets.
const priorityPassingPct = 0.75

// BuildQueue returns the question indices for one round.
func BuildQueue(numQuestions int, history *domain.History, ordering domain.OrderingConfig, rnd *rand.Rand) []int {
	full := FullQueue(numQuestions, history, ordering, rnd)
	limit := ordering.NumQuestions
	if limit <= 0 || limit > len(full) {
		limit = len(full)
	}
	return full[:limit]
}

// FullQueue returns every candidate question ordered by the ordering config and history.
func FullQueue(numQuestions int, history *domain.History, ordering domain.OrderingConfig, rnd *rand.Rand) []int {
	candidates := candidateSet(numQuestions, ordering)

	if !ordering.PrioritizeUnseen && !ordering.PrioritizeWrong {
		queue := append([]int(nil), candidates...)
		if ordering.RandomizeOrder {
			shuffleInts(rnd, queue)
		}
		return queue
	}

	var unseen, seen, wrong, correct []int
	for _, q := range candidates {
		rec := history.Record(q)
		switch {
		case rec == nil || rec.SeenCount == 0:
			unseen = append(unseen, q)
		case rec.CorrectCount > 0 && rec.Ratio() >= priorityPassingPct:
			seen = append(seen, q)
			correct = append(correct, q)
		default:
			seen = append(seen, q)
			wrong = append(wrong, q)
		}
	}

	var subsets [][]int
	switch {
	case ordering.PrioritizeUnseen && !ordering.PrioritizeWrong:
		subsets = [][]int{unseen, seen}
	case !ordering.PrioritizeUnseen && ordering.PrioritizeWrong:
		subsets = [][]int{wrong, correct, unseen}
	default:
		subsets = [][]int{unseen, wrong, correct}
	}

	queue := make([]int, 0, len(candidates))
	for _, set := range subsets {
		sort.Ints(set)
		if ordering.RandomizeOrder {
			shuffleInts(rnd, set)
		}
		queue = append(queue, set...)
	}
	return queue
}

// candidateSet is the selected list (deduplicated, in range) or every question index.
func candidateSet(numQuestions int, ordering domain.OrderingConfig) []int {
	if !ordering.UseSelectedQuestions {
		all := make([]int, numQuestions)
		for i := range all {
			all[i] = i
		}
		return all
	}
	seen := make(map[int]struct{}, len(ordering.SelectedQuestions))
	out := make([]int, 0, len(ordering.SelectedQuestions))
	for _, q := range ordering.SelectedQuestions {
		if q < 0 || q >= numQuestions {
			continue
		}
		if _, dup := seen[q]; dup {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}
	return out
}

// shuffleInts is an in-place Fisher-Yates shuffle.
func shuffleInts(rnd *rand.Rand, a []int) {
	for i := len(a) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		a[i], a[j] = a[j], a[i]
	}
}

func shuffleStrings(rnd *rand.Rand, a []string) {
	for i := len(a) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		a[i], a[j] = a[j], a[i]
	}
}
