package brackets

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/Dosada05/tournament-ladder/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGenerator(seed uint64) *SingleEliminationGenerator {
	return NewSingleEliminationGenerator(rand.New(rand.NewPCG(seed, seed+1)))
}

func playersOf(n int) ([]string, map[string]int) {
	names := make([]string, n)
	ratings := make(map[string]int, n)
	for i := range names {
		names[i] = fmt.Sprintf("p%02d", i+1)
		ratings[names[i]] = 1000 + 10*i
	}
	return names, ratings
}

// toMatches turns a plan into stored matches; winners[i] is the winner of match i ("" = undecided).
func toMatches(plan *RoundPlan, round int, winners ...string) []*models.Match {
	out := make([]*models.Match, len(plan.Matches))
	for i, bm := range plan.Matches {
		m := &models.Match{
			ID:      fmt.Sprintf("r%d-m%d", round, i+1),
			Players: []string{bm.Player1, bm.Player2},
		}
		if i < len(winners) && winners[i] != "" {
			w := winners[i]
			m.Winner = &w
			m.Completed = true
		}
		out[i] = m
	}
	return out
}

func appendRound(t *models.Tournament, matches []*models.Match) {
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	t.Bracket = append(t.Bracket, models.Round{MatchIDs: ids})
}

func TestGenerateRound_SeedsFirstRoundByRating(t *testing.T) {
	ctx := context.Background()
	g := newTestGenerator(1)
	tournament := &models.Tournament{Name: "Spring Open", Players: []string{"C", "A", "D", "B"}}
	ratings := map[string]int{"A": 1500, "B": 1400, "C": 1300, "D": 1200}

	first, err := g.GenerateRound(ctx, GenerateRoundParams{Tournament: tournament, Ratings: ratings})
	require.NoError(t, err)
	assert.Equal(t, RoundSeeded, first.Kind)
	require.Len(t, first.Matches, 2)
	assert.Equal(t, [2]string{"A", "D"}, [2]string{first.Matches[0].Player1, first.Matches[0].Player2})
	assert.Equal(t, [2]string{"B", "C"}, [2]string{first.Matches[1].Player1, first.Matches[1].Player2})
	assert.Empty(t, first.Byes)

	round1 := toMatches(first, 1, "A", "B")
	appendRound(tournament, round1)

	second, err := g.GenerateRound(ctx, GenerateRoundParams{Tournament: tournament, PriorRounds: [][]*models.Match{round1}})
	require.NoError(t, err)
	assert.Equal(t, RoundSequential, second.Kind)
	require.Len(t, second.Matches, 1)
	assert.Equal(t, "A", second.Matches[0].Player1)
	assert.Equal(t, "B", second.Matches[0].Player2)
}

func TestGenerateRound_SeedingPairsRankWithMirror(t *testing.T) {
	for _, n := range []int{2, 4, 8, 16, 32} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			names, ratings := playersOf(n)
			plan, err := newTestGenerator(7).GenerateRound(context.Background(), GenerateRoundParams{
				Tournament: &models.Tournament{Players: names},
				Ratings:    ratings,
			})
			require.NoError(t, err)
			require.Len(t, plan.Matches, n/2)

			// playersOf rates later names higher, so rank i is names[n-1-i].
			for i, m := range plan.Matches {
				assert.Equal(t, names[n-1-i], m.Player1, "rank %d", i+1)
				assert.Equal(t, names[i], m.Player2, "rank %d", n-i)
				assert.Equal(t, i+1, m.OrderInRound)
			}
		})
	}
}

func TestGenerateRound_PreliminaryCounts(t *testing.T) {
	for n := 3; n <= 40; n++ {
		if isPowerOfTwo(n) {
			continue
		}
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			names, ratings := playersOf(n)
			plan, err := newTestGenerator(uint64(n)).GenerateRound(context.Background(), GenerateRoundParams{
				Tournament: &models.Tournament{Players: names},
				Ratings:    ratings,
			})
			require.NoError(t, err)

			p := 1
			for p < n {
				p <<= 1
			}
			m := n - p/2

			assert.Equal(t, RoundPreliminary, plan.Kind)
			assert.Len(t, plan.Matches, m)
			assert.Len(t, plan.Byes, n-2*m)

			seen := make(map[string]int)
			for _, bm := range plan.Matches {
				seen[bm.Player1]++
				seen[bm.Player2]++
			}
			for _, b := range plan.Byes {
				seen[b]++
			}
			assert.Len(t, seen, n)
			for name, count := range seen {
				assert.Equal(t, 1, count, "player %s placed more than once", name)
			}

			// Preliminary winners plus byes always form a power of two.
			assert.True(t, isPowerOfTwo(m+len(plan.Byes)))
		})
	}
}

func TestGenerateRound_ThreePlayers(t *testing.T) {
	ctx := context.Background()
	g := newTestGenerator(3)
	tournament := &models.Tournament{Players: []string{"X", "Y", "Z"}}
	ratings := map[string]int{"X": 1200, "Y": 1100, "Z": 1000}

	first, err := g.GenerateRound(ctx, GenerateRoundParams{Tournament: tournament, Ratings: ratings})
	require.NoError(t, err)
	assert.Equal(t, RoundPreliminary, first.Kind)
	require.Len(t, first.Matches, 1)
	require.Len(t, first.Byes, 1)

	bye := first.Byes[0]
	winner := first.Matches[0].Player2
	round1 := toMatches(first, 1, winner)
	appendRound(tournament, round1)

	second, err := g.GenerateRound(ctx, GenerateRoundParams{Tournament: tournament, PriorRounds: [][]*models.Match{round1}})
	require.NoError(t, err)
	assert.Equal(t, RoundSequential, second.Kind)
	require.Len(t, second.Matches, 1)
	assert.Equal(t, bye, second.Matches[0].Player1)
	assert.Equal(t, winner, second.Matches[0].Player2)
}

func TestGenerateRound_SameSeedSamePlan(t *testing.T) {
	names, ratings := playersOf(11)
	params := GenerateRoundParams{Tournament: &models.Tournament{Players: names}, Ratings: ratings}

	a, err := newTestGenerator(42).GenerateRound(context.Background(), params)
	require.NoError(t, err)
	b, err := newTestGenerator(42).GenerateRound(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestGenerateRound_IncompleteRound(t *testing.T) {
	ctx := context.Background()
	g := newTestGenerator(5)
	names, ratings := playersOf(8)
	tournament := &models.Tournament{Players: names}

	first, err := g.GenerateRound(ctx, GenerateRoundParams{Tournament: tournament, Ratings: ratings})
	require.NoError(t, err)

	winners := []string{first.Matches[0].Player1, first.Matches[1].Player1, "", first.Matches[3].Player2}
	round1 := toMatches(first, 1, winners...)
	appendRound(tournament, round1)

	_, err = g.GenerateRound(ctx, GenerateRoundParams{Tournament: tournament, PriorRounds: [][]*models.Match{round1}})
	require.ErrorIs(t, err, ErrIncompleteRound)
	assert.Contains(t, err.Error(), round1[2].ID)
}

func TestGenerateRound_NoEligiblePlayers(t *testing.T) {
	ctx := context.Background()

	t.Run("empty pool", func(t *testing.T) {
		_, err := newTestGenerator(1).GenerateRound(ctx, GenerateRoundParams{Tournament: &models.Tournament{}})
		require.ErrorIs(t, err, ErrNoEligiblePlayers)
	})

	t.Run("single player", func(t *testing.T) {
		_, err := newTestGenerator(1).GenerateRound(ctx, GenerateRoundParams{
			Tournament: &models.Tournament{Players: []string{"solo"}},
			Ratings:    map[string]int{"solo": 1200},
		})
		require.ErrorIs(t, err, ErrNoEligiblePlayers)
	})

	t.Run("champion decided", func(t *testing.T) {
		tournament := &models.Tournament{Players: []string{"A", "B"}}
		final := toMatches(&RoundPlan{Matches: []*BracketMatch{{Player1: "A", Player2: "B"}}}, 1, "A")
		appendRound(tournament, final)

		_, err := newTestGenerator(1).GenerateRound(ctx, GenerateRoundParams{
			Tournament:  tournament,
			PriorRounds: [][]*models.Match{final},
		})
		require.ErrorIs(t, err, ErrNoEligiblePlayers)
	})
}

func TestGenerateRound_RejectsMisalignedRounds(t *testing.T) {
	tournament := &models.Tournament{Players: []string{"A", "B"}, Bracket: []models.Round{{MatchIDs: []string{"m1"}}}}
	_, err := newTestGenerator(1).GenerateRound(context.Background(), GenerateRoundParams{Tournament: tournament})
	require.Error(t, err)
}

func TestEligiblePlayers(t *testing.T) {
	won := func(id, a, b, winner string) *models.Match {
		m := &models.Match{ID: id, Players: []string{a, b}, Completed: true}
		if winner != "" {
			m.Winner = &winner
		}
		return m
	}

	tests := []struct {
		name   string
		pool   []string
		rounds [][]*models.Match
		want   []string
	}{
		{
			name: "empty bracket returns the pool",
			pool: []string{"A", "B", "C"},
			want: []string{"A", "B", "C"},
		},
		{
			name:   "byes come before winners",
			pool:   []string{"A", "B", "C"},
			rounds: [][]*models.Match{{won("m1", "A", "C", "C")}},
			want:   []string{"B", "C"},
		},
		{
			name: "late registrations join the next round",
			pool: []string{"A", "B", "C", "D", "E", "F"},
			rounds: [][]*models.Match{{
				won("m1", "A", "B", "A"),
				won("m2", "C", "D", "D"),
			}},
			want: []string{"E", "F", "A", "D"},
		},
		{
			name: "defaulted match advances nobody",
			pool: []string{"A", "B", "C", "D"},
			rounds: [][]*models.Match{{
				won("m1", "A", "B", "B"),
				won("m2", "C", "D", ""),
			}},
			want: []string{"B"},
		},
		{
			name: "only the last round's winners advance",
			pool: []string{"A", "B", "C", "D"},
			rounds: [][]*models.Match{
				{won("m1", "A", "B", "A"), won("m2", "C", "D", "C")},
				{won("m3", "A", "C", "C")},
			},
			want: []string{"C"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EligiblePlayers(&models.Tournament{Players: tt.pool}, tt.rounds)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
