package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/cache"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/model"
)

// announceAndPredict 公告 m1 并让 A 预测 2:0、B 预测 2:1
func announceAndPredict(t *testing.T, e *engine, communityID string) {
	t.Helper()
	ctx := context.Background()
	e.setNow(baseTime.Add(-time.Hour))
	require.NoError(t, e.discovery.Run(ctx))

	_, err := e.prediction.Submit(ctx, communityID, "A", "m1", "2:0")
	require.NoError(t, err)
	_, err = e.prediction.Submit(ctx, communityID, "B", "m1", "2:1")
	require.NoError(t, err)
}

func TestSettlementEndToEndBO3(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, baseTime)
	e.source.upcoming = []model.Match{bo3("m1", baseTime)}
	require.NoError(t, e.channels.SetBroadcastChannel(ctx, "g1", "c1"))
	announceAndPredict(t, e, "g1")

	// 未完赛时保持 BROADCAST
	e.setNow(baseTime.Add(time.Hour))
	require.NoError(t, e.settlement.Run(ctx))
	assert.Empty(t, e.notifier.results)

	e.source.results["m1"] = &model.MatchResult{MatchID: "m1", Team1: "T1", Team2: "GEN", Winner: "T1", Score1: 2, Score2: 1}
	require.NoError(t, e.settlement.Run(ctx))

	a, err := e.board.MemberStats(ctx, "A", "g1")
	require.NoError(t, err)
	assert.Equal(t, 0, a.Perfect)
	assert.Equal(t, 1, a.Winner)
	assert.Equal(t, 0, a.Failed)

	b, err := e.board.MemberStats(ctx, "B", "g1")
	require.NoError(t, err)
	assert.Equal(t, 1, b.Perfect)
	assert.Equal(t, 0, b.Winner)
	assert.Equal(t, 0, b.Failed)

	_, err = e.tracker.Get(ctx, "g1", "m1")
	assert.Error(t, err)

	require.Len(t, e.notifier.results, 1)
	res := e.notifier.results[0]
	assert.Equal(t, "c1", res.ChannelID)
	assert.Equal(t, "2:1", res.Result.Score())
	assert.Equal(t, []model.ResultEntry{
		{MemberID: "A", Prediction: "2:0", Outcome: model.OutcomeWinner},
		{MemberID: "B", Prediction: "2:1", Outcome: model.OutcomePerfect},
	}, res.Entries)

	// 重复结算不改变战绩
	require.NoError(t, e.settlement.Run(ctx))
	_, err = e.settlement.SettleMatch(ctx, "g1", &model.Match{ID: "m1"}, e.source.results["m1"])
	assert.ErrorIs(t, err, ErrAlreadySettled)

	a, err = e.board.MemberStats(ctx, "A", "g1")
	require.NoError(t, err)
	assert.Equal(t, 1, a.Total())
	b, err = e.board.MemberStats(ctx, "B", "g1")
	require.NoError(t, err)
	assert.Equal(t, 1, b.Total())
	assert.Len(t, e.notifier.results, 1)

	preds, err := e.ledger.PredictionsFor(ctx, "m1")
	require.NoError(t, err)
	for _, p := range preds {
		require.NotNil(t, p.Outcome)
		require.NotNil(t, p.ActualScore)
		assert.Equal(t, "2:1", *p.ActualScore)
	}
}

func TestSettlementPerCommunityAndSingleFetch(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, baseTime)
	e.source.upcoming = []model.Match{bo3("m1", baseTime)}
	require.NoError(t, e.channels.SetBroadcastChannel(ctx, "g1", "c1"))
	require.NoError(t, e.channels.SetBroadcastChannel(ctx, "g2", "c2"))
	announceAndPredict(t, e, "g1")

	_, err := e.prediction.Submit(ctx, "g2", "A", "m1", "0:2")
	require.NoError(t, err)

	e.setNow(baseTime.Add(2 * time.Hour))
	e.source.results["m1"] = &model.MatchResult{MatchID: "m1", Winner: "T1", Score1: 2, Score2: 0}
	require.NoError(t, e.settlement.Run(ctx))

	assert.Equal(t, 1, e.source.checkCount("m1"))
	assert.Len(t, e.notifier.results, 2)

	g1, err := e.board.MemberStats(ctx, "A", "g1")
	require.NoError(t, err)
	assert.Equal(t, 1, g1.Perfect)
	g2, err := e.board.MemberStats(ctx, "A", "g2")
	require.NoError(t, err)
	assert.Equal(t, 1, g2.Failed)
	assert.Equal(t, 0, g2.Perfect)
}

func TestSettlementSkipsMatchesNotYetStarted(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, baseTime.Add(-time.Hour))
	e.source.upcoming = []model.Match{bo3("m1", baseTime)}
	require.NoError(t, e.channels.SetBroadcastChannel(ctx, "g1", "c1"))
	require.NoError(t, e.discovery.Run(ctx))
	e.source.results["m1"] = &model.MatchResult{MatchID: "m1", Score1: 2, Score2: 0}

	require.NoError(t, e.settlement.Run(ctx))
	assert.Equal(t, 0, e.source.checkCount("m1"))
	assert.Empty(t, e.notifier.results)
}

func TestSettlementAdvancesWhenResultDeliveryFails(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, baseTime)
	e.source.upcoming = []model.Match{bo3("m1", baseTime)}
	require.NoError(t, e.channels.SetBroadcastChannel(ctx, "g1", "c1"))
	announceAndPredict(t, e, "g1")

	e.notifier.failResults = true
	e.setNow(baseTime.Add(2 * time.Hour))
	e.source.results["m1"] = &model.MatchResult{MatchID: "m1", Score1: 0, Score2: 2, Winner: "GEN"}
	require.NoError(t, e.settlement.Run(ctx))

	_, err := e.tracker.Get(ctx, "g1", "m1")
	assert.Error(t, err)

	a, err := e.board.MemberStats(ctx, "A", "g1")
	require.NoError(t, err)
	assert.Equal(t, 1, a.Failed)

	e.notifier.failResults = false
	require.NoError(t, e.settlement.Run(ctx))
	assert.Empty(t, e.notifier.results)
	a, err = e.board.MemberStats(ctx, "A", "g1")
	require.NoError(t, err)
	assert.Equal(t, 1, a.Total())
}

func TestSettlementInvalidatesLeaderboardCache(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, baseTime)
	e.source.upcoming = []model.Match{bo3("m1", baseTime)}
	require.NoError(t, e.channels.SetBroadcastChannel(ctx, "g1", "c1"))
	announceAndPredict(t, e, "g1")

	board, err := e.board.Leaderboard(ctx, "g1")
	require.NoError(t, err)
	assert.Empty(t, board)
	_, cached := e.cache.data[cache.LeaderboardKey("g1")]
	assert.True(t, cached)

	e.setNow(baseTime.Add(2 * time.Hour))
	e.source.results["m1"] = &model.MatchResult{MatchID: "m1", Score1: 2, Score2: 1, Winner: "T1"}
	require.NoError(t, e.settlement.Run(ctx))

	_, cached = e.cache.data[cache.LeaderboardKey("g1")]
	assert.False(t, cached)

	board, err = e.board.Leaderboard(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, "B", board[0].MemberID)
	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, "A", board[1].MemberID)
	assert.InDelta(t, 1.0, board[1].Accuracy, 1e-9)
}

func TestRediscoveryAfterSettlementDoesNotDoubleCount(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, baseTime)
	e.source.upcoming = []model.Match{bo3("m1", baseTime)}
	require.NoError(t, e.channels.SetBroadcastChannel(ctx, "g1", "c1"))
	announceAndPredict(t, e, "g1")

	e.setNow(baseTime.Add(2 * time.Hour))
	e.source.results["m1"] = &model.MatchResult{MatchID: "m1", Score1: 2, Score2: 1, Winner: "T1"}
	require.NoError(t, e.settlement.Run(ctx))

	// 同一比赛被重新公告后再次结算，已结算的预测不会重复计数
	require.NoError(t, e.tracker.RecordBroadcast(ctx, "g1", &model.Match{ID: "m1", ScheduledAt: baseTime, Format: model.FormatBO3}))
	require.NoError(t, e.settlement.Run(ctx))

	b, err := e.board.MemberStats(ctx, "B", "g1")
	require.NoError(t, err)
	assert.Equal(t, 1, b.Total())
}
