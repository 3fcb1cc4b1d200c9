package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/apperr"
)

func checkText(text string, f Format) error {
	s, err := ParseScore(text)
	if err != nil {
		return err
	}
	return f.CheckScore(s)
}

func TestCheckScoreAcceptsOnlyFinishedSeries(t *testing.T) {
	for _, f := range []Format{FormatBO1, FormatBO3, FormatBO5} {
		max := f.MaxWins()
		for a := 0; a <= max+1; a++ {
			for b := 0; b <= max+1; b++ {
				err := f.CheckScore(Score{Team1: a, Team2: b})
				want := (a == max && b < max) || (b == max && a < max)
				assert.Equal(t, want, err == nil, "%s %d:%d", f, a, b)
			}
		}
	}
}

func TestValidateBO3Cases(t *testing.T) {
	cases := []struct {
		text string
		code string
	}{
		{"2:0", ""},
		{"2:1", ""},
		{"0:2", ""},
		{"3:0", apperr.CodeExceedsFormat},
		{"2:2", apperr.CodeImpossibleTie},
		{"1:1", apperr.CodeNoWinner},
		{"0:0", apperr.CodeNoWinner},
		{"two:one", apperr.CodeBadFormat},
		{"-1:2", apperr.CodeBadFormat},
		{"2:1 ", apperr.CodeBadFormat},
		{"", apperr.CodeBadFormat},
		{"99999999999999999999999:1", apperr.CodeExceedsFormat},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			err := checkText(tc.text, FormatBO3)
			if tc.code == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperr.IsKind(err, apperr.KindValidation))
			assert.Equal(t, tc.code, apperr.CodeOf(err))
		})
	}
}

func TestExceedsFormatMessageNamesFormat(t *testing.T) {
	err := checkText("4:0", FormatBO5)
	require.Error(t, err)
	assert.Equal(t, "BO5 最高只能到 3 勝！", err.Error())
}

func TestParseBestOf(t *testing.T) {
	assert.Equal(t, FormatBO3, ParseBestOf("3"))
	assert.Equal(t, FormatBO5, ParseBestOf("5"))
	assert.Equal(t, FormatBO1, ParseBestOf("1"))
	assert.Equal(t, FormatBO1, ParseBestOf(""))
}

func TestEvaluate(t *testing.T) {
	result := &MatchResult{Score1: 2, Score2: 1}

	assert.Equal(t, OutcomePerfect, Evaluate(Score{2, 1}, result))
	assert.Equal(t, OutcomeWinner, Evaluate(Score{2, 0}, result))
	assert.Equal(t, OutcomeFailed, Evaluate(Score{1, 2}, result))
	assert.Equal(t, OutcomeFailed, Evaluate(Score{0, 2}, result))
}

func TestBroadcastRecordSnapshotRoundTrip(t *testing.T) {
	start := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	m := &Match{ID: "m1", Team1: "T1", Team2: "GEN", ScheduledAt: start, Format: FormatBO5, Tournament: "LCK/2025 Season"}

	rec, err := NewBroadcastRecord("guild", m)
	require.NoError(t, err)
	assert.Equal(t, "m1", rec.MatchID)

	got, err := rec.Match()
	require.NoError(t, err)
	assert.Equal(t, *m, *got)
	assert.Equal(t, start.Add(30*time.Minute), got.Deadline())
}

func TestMemberStatsAccuracy(t *testing.T) {
	assert.Equal(t, 0.0, (&MemberStats{}).Accuracy())
	s := &MemberStats{Perfect: 1, Winner: 2, Failed: 1}
	assert.Equal(t, 4, s.Total())
	assert.InDelta(t, 0.75, s.Accuracy(), 1e-9)
}
