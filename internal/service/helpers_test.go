package service

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/apperr"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/cache"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/config"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/database"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/model"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/repository"
)

var baseTime = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

type fakeSource struct {
	mu       sync.Mutex
	upcoming []model.Match
	results  map[string]*model.MatchResult
	checks   map[string]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{results: map[string]*model.MatchResult{}, checks: map[string]int{}}
}

func (f *fakeSource) GetName() string { return "fake" }

func (f *fakeSource) FetchUpcoming(_ context.Context, start, end time.Time) []model.Match {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Match
	for _, m := range f.upcoming {
		if !m.ScheduledAt.Before(start) && m.ScheduledAt.Before(end) {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeSource) CheckResult(_ context.Context, matchID string) (*model.MatchResult, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checks[matchID]++
	r, ok := f.results[matchID]
	return r, ok
}

func (f *fakeSource) checkCount(matchID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.checks[matchID]
}

type fakeNotifier struct {
	mu            sync.Mutex
	announcements []*model.Announcement
	results       []*model.ResultAnnouncement
	failAnnounce  map[string]bool
	failResults   bool
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{failAnnounce: map[string]bool{}}
}

func (n *fakeNotifier) Announce(_ context.Context, a *model.Announcement) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failAnnounce[a.Match.ID] {
		return apperr.Delivery("announce failed", errors.New("discord 503"))
	}
	n.announcements = append(n.announcements, a)
	return nil
}

func (n *fakeNotifier) PublishResult(_ context.Context, r *model.ResultAnnouncement) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failResults {
		return apperr.Delivery("result failed", errors.New("discord 503"))
	}
	n.results = append(n.results, r)
	return nil
}

type memoryCache struct {
	mu      sync.Mutex
	data    map[string]interface{}
	deletes int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string]interface{}{}}
}

func (c *memoryCache) Get(_ context.Context, key string, dst interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return false, nil
	}
	switch d := dst.(type) {
	case *[]LeaderboardEntry:
		*d = v.([]LeaderboardEntry)
	case *[]model.Match:
		*d = v.([]model.Match)
	}
	return true, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
		c.deletes++
	}
	return nil
}

var _ cache.Cache = (*memoryCache)(nil)

// engine 组装一套基于 sqlite 的服务
type engine struct {
	db          *gorm.DB
	source      *fakeSource
	notifier    *fakeNotifier
	cache       *memoryCache
	broadcasts  repository.BroadcastRepository
	predictions repository.PredictionRepository
	stats       repository.StatsRepository
	tracker     *BroadcastTracker
	ledger      *LedgerService
	prediction  *PredictionService
	channels    *ChannelService
	board       *StatsService
	discovery   *DiscoveryService
	settlement  *SettlementService
}

func newEngine(t *testing.T, now time.Time) *engine {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	db, err := database.Open(&config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "engine.db"),
	}, log)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	e := &engine{
		db:          db,
		source:      newFakeSource(),
		notifier:    newFakeNotifier(),
		cache:       newMemoryCache(),
		broadcasts:  repository.NewBroadcastRepository(db),
		predictions: repository.NewPredictionRepository(db),
		stats:       repository.NewStatsRepository(db),
	}
	clock := func() time.Time { return now }

	e.tracker = NewBroadcastTracker(e.broadcasts, log)
	e.ledger = NewLedgerService(e.predictions, log)
	e.prediction = NewPredictionService(db, e.tracker, e.ledger, log)
	e.prediction.now = clock
	e.channels = NewChannelService(e.broadcasts, log)
	e.board = NewStatsService(e.stats, e.cache, time.Minute, log)
	e.discovery = NewDiscoveryService(e.broadcasts, e.tracker, e.source, e.notifier, 48*time.Hour, log)
	e.discovery.now = clock
	e.settlement = NewSettlementService(db, e.broadcasts, e.predictions, e.stats, e.tracker, e.source, e.notifier, e.board, 2, log)
	e.settlement.now = clock
	return e
}

func bo3(id string, start time.Time) model.Match {
	return model.Match{ID: id, Team1: "T1", Team2: "GEN", ScheduledAt: start, Format: model.FormatBO3, Tournament: "LCK/2025 Season"}
}

// setNow 调整所有服务的时钟
func (e *engine) setNow(now time.Time) {
	clock := func() time.Time { return now }
	e.prediction.now = clock
	e.discovery.now = clock
	e.settlement.now = clock
}
