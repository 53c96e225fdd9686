// Package ratings implements the stage-sensitive Elo variant used after every match.
package ratings

import "math"

const (
	// MinCoefficient is the floor applied to the dynamic coefficient.
	MinCoefficient = 16

	upsetThreshold  = 100
	upsetAdjustment = 5

	// Stage bonuses only apply to brackets with at least this many rounds.
	stageMinRounds = 6
	quarterBonus   = 4
	semiBonus      = 8
	finalBonus     = 16
)

// Match describes a decided match from the point of view of the rating engine.
type Match struct {
	RatingA int
	RatingB int
	AWon    bool
	// PoolSize is the size of the tournament's player pool; it is the base coefficient.
	PoolSize int
	// TotalRounds is the number of rounds in the bracket, RoundIndex the round holding
	// the match (-1 when unknown).
	TotalRounds int
	RoundIndex  int
}

type Outcome struct {
	K         int
	ExpectedA float64
	ExpectedB float64
	NewA      int
	NewB      int
}

// ExpectedScore returns the logistic expectation of a player rated r against opponent.
func ExpectedScore(r, opponent int) float64 {
	return 1 / (1 + math.Pow(10, float64(opponent-r)/400))
}

// Coefficient returns k: pool size, adjusted for upsets and late bracket stages, floored at MinCoefficient.
func Coefficient(m Match) int {
	k := m.PoolSize

	diff := m.RatingA - m.RatingB
	if diff > upsetThreshold || -diff > upsetThreshold {
		lowerWon := (m.RatingA < m.RatingB) == m.AWon
		if lowerWon {
			k += upsetAdjustment
		} else {
			k -= upsetAdjustment
		}
	}

	if m.TotalRounds >= stageMinRounds && m.RoundIndex >= 0 {
		quarter := m.TotalRounds - 3
		switch m.RoundIndex {
		case quarter:
			k += quarterBonus
		case quarter + 1:
			k += semiBonus
		case quarter + 2:
			k += finalBonus
		}
	}

	if k < MinCoefficient {
		k = MinCoefficient
	}
	return k
}

// Rate computes both new ratings. Results are truncated toward zero.
func Rate(m Match) Outcome {
	k := Coefficient(m)
	ea := ExpectedScore(m.RatingA, m.RatingB)
	eb := ExpectedScore(m.RatingB, m.RatingA)

	actualA, actualB := 0.0, 1.0
	if m.AWon {
		actualA, actualB = 1.0, 0.0
	}

	return Outcome{
		K:         k,
		ExpectedA: ea,
		ExpectedB: eb,
		NewA:      int(float64(m.RatingA) + float64(k)*(actualA-ea)),
		NewB:      int(float64(m.RatingB) + float64(k)*(actualB-eb)),
	}
}
