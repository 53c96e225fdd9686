package brackets

import (
	"context"
	"errors"

	"github.com/Dosada05/tournament-ladder/models"
)

var (
	ErrIncompleteRound   = errors.New("previous round has undecided matches")
	ErrNoEligiblePlayers = errors.New("no eligible players to form a round")
)

type GenerateRoundParams struct {
	Tournament *models.Tournament
	// Ratings maps every pool player to the current rating; used for first-round seeding.
	Ratings map[string]int
	// PriorRounds holds the matches of every existing round, aligned with Tournament.Bracket.
	PriorRounds [][]*models.Match
}

type RoundGenerator interface {
	GenerateRound(ctx context.Context, params GenerateRoundParams) (*RoundPlan, error)

	GetName() string
}
