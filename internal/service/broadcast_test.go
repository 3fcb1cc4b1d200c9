package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/apperr"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/model"
)

func matchIDs(ms []model.Match) []string {
	ids := make([]string, 0, len(ms))
	for _, m := range ms {
		ids = append(ids, m.ID)
	}
	return ids
}

func TestPendingForCommunityIsReadOnly(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, baseTime)
	fetched := []model.Match{bo3("m1", baseTime), bo3("m2", baseTime.Add(time.Hour))}

	first, err := e.tracker.PendingForCommunity(ctx, "g1", fetched)
	require.NoError(t, err)
	second, err := e.tracker.PendingForCommunity(ctx, "g1", fetched)
	require.NoError(t, err)

	assert.Equal(t, []string{"m1", "m2"}, matchIDs(first))
	assert.Equal(t, matchIDs(first), matchIDs(second))
}

func TestRecordAndRetireGateAnnouncements(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, baseTime)
	m1 := bo3("m1", baseTime)
	fetched := []model.Match{m1, bo3("m2", baseTime.Add(time.Hour))}

	require.NoError(t, e.tracker.RecordBroadcast(ctx, "g1", &m1))
	require.NoError(t, e.tracker.RecordBroadcast(ctx, "g1", &m1))

	pending, err := e.tracker.PendingForCommunity(ctx, "g1", fetched)
	require.NoError(t, err)
	assert.Equal(t, []string{"m2"}, matchIDs(pending))

	other, err := e.tracker.PendingForCommunity(ctx, "g2", fetched)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2"}, matchIDs(other))

	retired, err := e.tracker.Retire(ctx, "g1", "m1")
	require.NoError(t, err)
	assert.True(t, retired)
	retired, err = e.tracker.Retire(ctx, "g1", "m1")
	require.NoError(t, err)
	assert.False(t, retired)

	pending, err = e.tracker.PendingForCommunity(ctx, "g1", fetched)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2"}, matchIDs(pending))
}

func TestTrackerGetMissing(t *testing.T) {
	e := newEngine(t, baseTime)
	_, err := e.tracker.Get(context.Background(), "g1", "nope")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
