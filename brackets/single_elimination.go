package brackets

import (
	"context"
	"fmt"
	"math/bits"
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/Dosada05/tournament-ladder/models"
)

type RoundKind string

const (
	// RoundPreliminary reduces an irregular field to the next lower power of two.
	RoundPreliminary RoundKind = "preliminary"
	// RoundSeeded is the first round of a power-of-two field: 1 vs n, 2 vs n-1, ...
	RoundSeeded RoundKind = "seeded"
	// RoundSequential pairs players in the order they were assembled.
	RoundSequential RoundKind = "sequential"
)

type BracketMatch struct {
	OrderInRound int
	Player1      string
	Player2      string
}

type RoundPlan struct {
	Kind     RoundKind
	Eligible []string
	Matches  []*BracketMatch
	// Byes are eligible players left out of this round; they stay eligible for the next one.
	Byes []string
}

type SingleEliminationGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSingleEliminationGenerator uses rng to shuffle preliminary rounds.
func NewSingleEliminationGenerator(rng *rand.Rand) *SingleEliminationGenerator {
	return &SingleEliminationGenerator{rng: rng}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "SingleElimination"
}

func (g *SingleEliminationGenerator) GenerateRound(ctx context.Context, params GenerateRoundParams) (*RoundPlan, error) {
	if params.Tournament == nil {
		return nil, fmt.Errorf("tournament is required to generate a round")
	}
	if len(params.PriorRounds) != len(params.Tournament.Bracket) {
		return nil, fmt.Errorf("got matches for %d rounds, bracket has %d", len(params.PriorRounds), len(params.Tournament.Bracket))
	}

	eligible, err := EligiblePlayers(params.Tournament, params.PriorRounds)
	if err != nil {
		return nil, err
	}
	n := len(eligible)
	if n == 0 {
		return nil, ErrNoEligiblePlayers
	}

	plan := &RoundPlan{Eligible: eligible}
	switch {
	case !isPowerOfTwo(n):
		plan.Kind = RoundPreliminary
		plan.Matches, plan.Byes = g.preliminary(eligible)
	case len(params.Tournament.Bracket) == 0:
		plan.Kind = RoundSeeded
		plan.Matches, err = seeded(eligible, params.Ratings)
		if err != nil {
			return nil, err
		}
	default:
		plan.Kind = RoundSequential
		plan.Matches = sequential(eligible)
	}

	if len(plan.Matches) == 0 {
		return nil, ErrNoEligiblePlayers
	}
	return plan, nil
}

// EligiblePlayers returns the pool when the bracket is empty. Otherwise it returns the
// pool players that never played (pool order) followed by the winners of the most
// recent round (match order). Any undecided match in that round is ErrIncompleteRound.
func EligiblePlayers(t *models.Tournament, priorRounds [][]*models.Match) ([]string, error) {
	if len(priorRounds) == 0 {
		return append([]string{}, t.Players...), nil
	}

	last := priorRounds[len(priorRounds)-1]
	winners := make([]string, 0, len(last))
	for _, m := range last {
		if !m.Completed {
			return nil, fmt.Errorf("%w: match %s", ErrIncompleteRound, m.ID)
		}
		// Завершённый матч без победителя — неявка, дальше никто не проходит.
		if m.Winner != nil {
			winners = append(winners, *m.Winner)
		}
	}

	participated := make(map[string]struct{})
	for _, round := range priorRounds {
		for _, m := range round {
			for _, p := range m.Players {
				participated[p] = struct{}{}
			}
		}
	}

	eligible := make([]string, 0, len(t.Players))
	for _, p := range t.Players {
		if _, ok := participated[p]; !ok {
			eligible = append(eligible, p)
		}
	}
	return append(eligible, winners...), nil
}

func (g *SingleEliminationGenerator) preliminary(eligible []string) ([]*BracketMatch, []string) {
	n := len(eligible)
	p := 1 << bits.Len(uint(n-1)) // smallest power of two >= n
	m := n - p/2

	shuffled := append([]string{}, eligible...)
	g.mu.Lock()
	g.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	g.mu.Unlock()

	matches := make([]*BracketMatch, 0, m)
	for i := 0; i < m; i++ {
		matches = append(matches, &BracketMatch{
			OrderInRound: i + 1,
			Player1:      shuffled[i],
			Player2:      shuffled[2*m-1-i],
		})
	}
	return matches, shuffled[2*m:]
}

func seeded(eligible []string, ratings map[string]int) ([]*BracketMatch, error) {
	for _, p := range eligible {
		if _, ok := ratings[p]; !ok {
			return nil, fmt.Errorf("no rating known for player %q", p)
		}
	}
	sorted := append([]string{}, eligible...)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := ratings[sorted[i]], ratings[sorted[j]]
		if ri != rj {
			return ri > rj
		}
		return sorted[i] < sorted[j]
	})

	n := len(sorted)
	matches := make([]*BracketMatch, 0, n/2)
	for i := 0; i < n/2; i++ {
		matches = append(matches, &BracketMatch{
			OrderInRound: i + 1,
			Player1:      sorted[i],
			Player2:      sorted[n-1-i],
		})
	}
	return matches, nil
}

func sequential(eligible []string) []*BracketMatch {
	matches := make([]*BracketMatch, 0, len(eligible)/2)
	for i := 0; i+1 < len(eligible); i += 2 {
		matches = append(matches, &BracketMatch{
			OrderInRound: len(matches) + 1,
			Player1:      eligible[i],
			Player2:      eligible[i+1],
		})
	}
	return matches
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
