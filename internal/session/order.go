package session

import (
	"math/rand"

	"probeword/internal/models"
)

// Order produces the presentation order for one session: a copy of the
// question set, shuffled when randomization is on. It is computed exactly once
// at session creation and stored; re-deriving it mid-session would let the two
// stages disagree on ordering.
func Order(questions []models.Question, randomize bool, rng *rand.Rand) []models.Question {
	order := make([]models.Question, len(questions))
	copy(order, questions)
	if randomize {
		rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}
	return order
}
