package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dosada05/tournament-ladder/brackets"
	"github.com/Dosada05/tournament-ladder/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoredMatch(t *testing.T, env *testEnv) *models.Match {
	t.Helper()
	env.addTournament(t, "Cup", "ann", "bob")
	m := &models.Match{ID: "m1", TournamentName: "Cup", Players: []string{"ann", "bob"}, Sets: []models.Set{}}
	require.NoError(t, env.matches.Create(context.Background(), m))
	return m
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func TestApplyResult_OverwritesOnlyPresentFields(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	newStoredMatch(t, env)
	svc := env.matchService()

	start := time.Date(2025, 5, 10, 18, 0, 0, 0, time.UTC)
	updated, err := svc.ApplyResult(ctx, "m1", models.MatchResult{StartTime: &start})
	require.NoError(t, err)
	require.NotNil(t, updated.StartTime)
	assert.True(t, start.Equal(*updated.StartTime))
	assert.Nil(t, updated.Winner)
	assert.False(t, updated.Completed)

	sets := []models.Set{
		{Score: [2]int{11, 7}, Winner: "ann"},
		{Score: [2]int{9, 11}, Winner: "bob"},
		{Score: [2]int{11, 4}, Winner: "ann"},
	}
	updated, err = svc.ApplyResult(ctx, "m1", models.MatchResult{Sets: sets, Winner: strPtr("ann"), Completed: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, sets, updated.Sets)
	assert.Equal(t, "ann", *updated.Winner)
	assert.True(t, updated.Completed)
	require.NotNil(t, updated.StartTime, "start time must survive later partial updates")

	stored, err := svc.GetMatch(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, updated, stored)

	assert.Equal(t, []string{brackets.MessageMatchUpdated, brackets.MessageMatchUpdated}, env.notifier.types())
}

func TestApplyResult_Validation(t *testing.T) {
	tests := []struct {
		name   string
		result models.MatchResult
		fields []string
	}{
		{
			name:   "empty payload",
			result: models.MatchResult{},
			fields: []string{"result"},
		},
		{
			name:   "winner is not a participant",
			result: models.MatchResult{Winner: strPtr("carl")},
			fields: []string{"winner"},
		},
		{
			name: "set winner is not a participant",
			result: models.MatchResult{Sets: []models.Set{
				{Score: [2]int{11, 3}, Winner: "ann"},
				{Score: [2]int{11, 3}, Winner: "carl"},
			}},
			fields: []string{"sets[1].winner"},
		},
		{
			name:   "set winner holds the lower score",
			result: models.MatchResult{Sets: []models.Set{{Score: [2]int{5, 11}, Winner: "ann"}}},
			fields: []string{"sets[0].score"},
		},
		{
			name:   "drawn set",
			result: models.MatchResult{Sets: []models.Set{{Score: [2]int{10, 10}, Winner: "bob"}}},
			fields: []string{"sets[0].score"},
		},
		{
			name:   "negative score",
			result: models.MatchResult{Sets: []models.Set{{Score: [2]int{-1, 11}, Winner: "bob"}}},
			fields: []string{"sets[0].score"},
		},
		{
			name: "one message per violated field",
			result: models.MatchResult{
				Winner: strPtr("zed"),
				Sets: []models.Set{
					{Score: [2]int{3, 11}, Winner: "ann"},
					{Score: [2]int{11, 3}, Winner: "nobody"},
				},
			},
			fields: []string{"winner", "sets[0].score", "sets[1].winner"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			newStoredMatch(t, env)

			_, err := env.matchService().ApplyResult(context.Background(), "m1", tt.result)
			require.ErrorIs(t, err, ErrValidationFailed)

			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Len(t, vErr.Fields, len(tt.fields))
			for _, f := range tt.fields {
				assert.Contains(t, vErr.Fields, f)
			}

			stored, err := env.matches.FindByID(context.Background(), "m1")
			require.NoError(t, err)
			assert.Nil(t, stored.Winner, "invalid result must not be persisted")
			assert.Empty(t, stored.Sets)
			assert.Empty(t, env.notifier.types())
		})
	}
}

func TestApplyResult_ClosedRound(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	for name, r := range map[string]int{"A": 1500, "B": 1400, "C": 1300, "D": 1200} {
		env.addPlayer(t, name, r)
	}
	env.addTournament(t, "Cup", "A", "B", "C", "D")
	builder := env.bracketService(3)

	first, err := builder.GenerateRound(ctx, "Cup")
	require.NoError(t, err)
	opener := first.Matches[0]
	env.decide(t, opener.ID, "A")
	env.decide(t, first.Matches[1].ID, "B")

	svc := env.matchService()
	_, err = svc.ApplyResult(ctx, opener.ID, models.MatchResult{Winner: strPtr("D")})
	require.NoError(t, err, "the last round stays editable")
	env.decide(t, opener.ID, "A")

	_, err = builder.GenerateRound(ctx, "Cup")
	require.NoError(t, err)

	_, err = svc.ApplyResult(ctx, opener.ID, models.MatchResult{Completed: boolPtr(false)})
	require.ErrorIs(t, err, ErrRoundClosed)
	_, err = svc.ApplyResult(ctx, opener.ID, models.MatchResult{Winner: strPtr("D")})
	require.ErrorIs(t, err, ErrRoundClosed)

	stored, err := env.matches.FindByID(ctx, opener.ID)
	require.NoError(t, err)
	assert.True(t, stored.Completed)
	assert.Equal(t, "A", *stored.Winner)

	start := time.Date(2025, 5, 10, 18, 0, 0, 0, time.UTC)
	updated, err := svc.ApplyResult(ctx, opener.ID, models.MatchResult{StartTime: &start, Winner: strPtr("A"), Completed: boolPtr(true)})
	require.NoError(t, err, "details that keep the outcome are still accepted")
	require.NotNil(t, updated.StartTime)
}

func TestApplyResult_UnknownMatch(t *testing.T) {
	env := newTestEnv()
	_, err := env.matchService().ApplyResult(context.Background(), "missing", models.MatchResult{Completed: boolPtr(true)})
	require.ErrorIs(t, err, ErrMatchNotFound)

	_, err = env.matchService().GetMatch(context.Background(), "missing")
	require.ErrorIs(t, err, ErrMatchNotFound)
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"winner": "bad", "sets[0].score": "worse"}}
	assert.Equal(t, "validation failed: sets[0].score: worse; winner: bad", err.Error())
	assert.True(t, errors.Is(err, ErrValidationFailed))
}
