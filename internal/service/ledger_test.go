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

func TestValidatePredictionBO3(t *testing.T) {
	for text, code := range map[string]string{
		"2:0":     "",
		"2:1":     "",
		"3:0":     apperr.CodeExceedsFormat,
		"2:2":     apperr.CodeImpossibleTie,
		"1:1":     apperr.CodeNoWinner,
		"two:one": apperr.CodeBadFormat,
	} {
		_, err := ValidatePrediction(text, model.FormatBO3)
		if code == "" {
			assert.NoError(t, err, text)
			continue
		}
		assert.Equal(t, code, apperr.CodeOf(err), text)
	}
}

func TestLedgerSubmitInsertsThenOverwrites(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, baseTime)
	m := bo3("m1", baseTime)

	p, created, err := e.ledger.Submit(ctx, "m1", "u1", "g1", "2:0", &m)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, p.PredictionUUID)
	assert.Equal(t, "T1", p.Team1)

	p2, created, err := e.ledger.Submit(ctx, "m1", "u1", "g1", "1:2", &m)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, p.ID, p2.ID)
	assert.Equal(t, "1:2", p2.Score)

	all, err := e.ledger.PredictionsFor(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "1:2", all[0].Score)
}

func TestLedgerSubmitReturnsValidatorErrorUntouched(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, baseTime)
	m := bo3("m1", baseTime)

	_, _, err := e.ledger.Submit(ctx, "m1", "u1", "g1", "2:2", &m)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeImpossibleTie, apperr.CodeOf(err))
	assert.Equal(t, "兩隊不能同時達到最高勝場！", err.Error())

	all, err := e.ledger.PredictionsFor(ctx, "m1")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestLedgerPredictionsForSpansCommunities(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, baseTime)
	m := bo3("m1", baseTime)

	for _, g := range []string{"g1", "g2"} {
		_, _, err := e.ledger.Submit(ctx, "m1", "u1", g, "2:1", &m)
		require.NoError(t, err)
	}
	all, err := e.ledger.PredictionsFor(ctx, "m1")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestLedgerRejectsSettledPrediction(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, baseTime)
	m := bo3("m1", baseTime)

	p, _, err := e.ledger.Submit(ctx, "m1", "u1", "g1", "2:1", &m)
	require.NoError(t, err)
	_, err = e.predictions.MarkSettled(ctx, p.ID, model.OutcomePerfect, "2:1", baseTime.Add(time.Hour))
	require.NoError(t, err)

	_, _, err = e.ledger.Submit(ctx, "m1", "u1", "g1", "2:0", &m)
	assert.Equal(t, apperr.CodeAlreadySettled, apperr.CodeOf(err))
}

func TestLedgerHistory(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, baseTime)
	m1 := bo3("m1", baseTime)
	m2 := bo3("m2", baseTime.Add(24*time.Hour))

	_, _, err := e.ledger.Submit(ctx, "m1", "u1", "g1", "2:1", &m1)
	require.NoError(t, err)
	_, _, err = e.ledger.Submit(ctx, "m2", "u1", "g1", "0:2", &m2)
	require.NoError(t, err)

	h, err := e.ledger.History(ctx, "u1", "g1", 5)
	require.NoError(t, err)
	require.Len(t, h, 2)
	assert.Equal(t, "m2", h[0].MatchID)
}
