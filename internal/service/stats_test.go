package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/cache"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/model"
)

func TestMemberStatsZeroWhenAbsent(t *testing.T) {
	e := newEngine(t, baseTime)
	st, err := e.board.MemberStats(context.Background(), "ghost", "g1")
	require.NoError(t, err)
	assert.Equal(t, "ghost", st.MemberID)
	assert.Equal(t, 0, st.Total())
	assert.Zero(t, st.Accuracy())
}

func TestLeaderboardServedFromCache(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, baseTime)
	require.NoError(t, e.stats.IncrementOutcome(ctx, "u1", "g1", model.OutcomePerfect))

	board, err := e.board.Leaderboard(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, board, 1)

	// 缓存未失效前读不到新写入
	require.NoError(t, e.stats.IncrementOutcome(ctx, "u2", "g1", model.OutcomePerfect))
	board, err = e.board.Leaderboard(ctx, "g1")
	require.NoError(t, err)
	assert.Len(t, board, 1)

	e.board.Invalidate(ctx, "g1")
	board, err = e.board.Leaderboard(ctx, "g1")
	require.NoError(t, err)
	assert.Len(t, board, 2)
	assert.Equal(t, 1, e.cache.deletes)
}

func TestLeaderboardWithoutCache(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, baseTime)
	log := logrus.New()
	log.SetOutput(io.Discard)
	svc := NewStatsService(e.stats, nil, time.Minute, log)

	require.NoError(t, e.stats.IncrementOutcome(ctx, "u1", "g1", model.OutcomeFailed))
	board, err := svc.Leaderboard(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, 1, board[0].Failed)
	assert.Zero(t, board[0].Accuracy)
}

func TestUpcomingCachesNonEmptyFetch(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, baseTime)
	log := logrus.New()
	log.SetOutput(io.Discard)
	svc := NewMatchService(e.source, e.cache, 48*time.Hour, time.Minute, log)
	svc.now = func() time.Time { return baseTime.Add(-time.Hour) }

	assert.Empty(t, svc.Upcoming(ctx))
	_, cached := e.cache.data[cache.UpcomingKey]
	assert.False(t, cached)

	e.source.upcoming = []model.Match{bo3("m1", baseTime)}
	got := svc.Upcoming(ctx)
	require.Len(t, got, 1)

	e.source.upcoming = append(e.source.upcoming, bo3("m2", baseTime.Add(time.Hour)))
	assert.Len(t, svc.Upcoming(ctx), 1)
}
