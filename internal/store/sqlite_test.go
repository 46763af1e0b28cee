package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scrappy/internal/controller"
	"scrappy/internal/types"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "games.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func game(d types.Difficulty, level int, outcome types.Outcome, end time.Time) controller.GameRecord {
	return controller.GameRecord{
		Difficulty: d,
		Level:      level,
		Outcome:    outcome,
		StartedAt:  end.Add(-30 * time.Second),
		EndedAt:    end,
	}
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

func TestRecordAndListGames(t *testing.T) {
	ctx := context.Background()
	s := openTempStore(t)
	base := time.Date(2026, time.May, 4, 18, 0, 0, 0, time.UTC)

	require.NoError(t, s.RecordGame(ctx, game(types.Easy, 3, types.OutcomeDead, base)))
	require.NoError(t, s.RecordGame(ctx, game(types.Hard, 10, types.OutcomeWin, base.Add(time.Minute))))
	require.NoError(t, s.RecordGame(ctx, game(types.Medium, 1, types.OutcomeDisconnected, base.Add(2*time.Minute))))

	games, err := s.RecentGames(ctx, 2)
	require.NoError(t, err)
	require.Len(t, games, 2)

	assert.Equal(t, types.Medium, games[0].Difficulty)
	assert.Equal(t, types.OutcomeDisconnected, games[0].Outcome)
	assert.Equal(t, types.Hard, games[1].Difficulty)
	assert.Equal(t, 10, games[1].Level)
	assert.Equal(t, base.Add(time.Minute), games[1].EndedAt)
	assert.Equal(t, 30*time.Second, games[1].Duration())
	assert.NotEmpty(t, games[0].ID)
	assert.NotEqual(t, games[0].ID, games[1].ID)
}

func TestRecentGamesEmpty(t *testing.T) {
	s := openTempStore(t)

	games, err := s.RecentGames(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, games)

	games, err = s.RecentGames(context.Background(), 0)
	require.NoError(t, err)
	assert.Nil(t, games)
}

func TestRecordGameValidates(t *testing.T) {
	ctx := context.Background()
	s := openTempStore(t)
	now := time.Now()

	assert.Error(t, s.RecordGame(ctx, game(types.Difficulty(9), 1, types.OutcomeDead, now)))
	assert.Error(t, s.RecordGame(ctx, game(types.Easy, 1, "", now)))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, s.RecordGame(cancelled, game(types.Easy, 1, types.OutcomeDead, now)), context.Canceled)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s := openTempStore(t)
	now := time.Date(2026, time.May, 4, 18, 0, 0, 0, time.UTC)

	require.NoError(t, s.RecordGame(ctx, game(types.Easy, 4, types.OutcomeDead, now)))
	require.NoError(t, s.RecordGame(ctx, game(types.Easy, 10, types.OutcomeWin, now)))
	require.NoError(t, s.RecordGame(ctx, game(types.Hard, 2, types.OutcomeDead, now)))

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, st.Played)
	assert.Equal(t, 1, st.Won)
	assert.Equal(t, 10, st.BestLevel[types.Easy])
	assert.Equal(t, 2, st.BestLevel[types.Hard])
	_, ok := st.BestLevel[types.Medium]
	assert.False(t, ok)
}

func TestStoreSatisfiesRecorder(t *testing.T) {
	var _ controller.GameRecorder = openTempStore(t)
}
