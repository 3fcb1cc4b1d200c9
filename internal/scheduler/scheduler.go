// Package scheduler 周期任务调度：cron 触发与手动触发共用同一把互斥，同一任务不会并发执行
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/metrics"
)

// 任务名
const (
	JobDiscovery  = "discovery"
	JobSettlement = "settlement"
)

// ErrUnknownJob 任务未注册
var ErrUnknownJob = errors.New("unknown job")

// JobFunc 一次周期执行
type JobFunc func(ctx context.Context) error

type job struct {
	name string
	fn   JobFunc
	sem  *semaphore.Weighted
}

// Scheduler 基于 robfig/cron 的调度器
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	logger *logrus.Logger

	mu   sync.RWMutex
	jobs map[string]*job
}

// New 创建调度器，cron 表达式按 UTC 解析
func New(logger *logrus.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cron.PrintfLogger(logger)),
		),
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
		jobs:   make(map[string]*job),
	}
}

// Register 注册任务；spec 为空时只允许手动触发
func (s *Scheduler) Register(name, spec string, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[name]; ok {
		return fmt.Errorf("job %s already registered", name)
	}
	s.jobs[name] = &job{name: name, fn: fn, sem: semaphore.NewWeighted(1)}

	if spec == "" {
		return nil
	}
	if _, err := s.cron.AddFunc(spec, func() {
		if _, err := s.TryRun(s.ctx, name); err != nil {
			s.logger.WithError(err).WithField("job", name).Error("周期任务执行失败")
		}
	}); err != nil {
		delete(s.jobs, name)
		return fmt.Errorf("invalid cron spec %q for %s: %w", spec, name, err)
	}
	return nil
}

// TryRun 立即执行一次任务；上一轮还没结束时直接跳过，返回 false
func (s *Scheduler) TryRun(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	j, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}

	if !j.sem.TryAcquire(1) {
		metrics.CycleRuns.WithLabelValues(name, "skipped").Inc()
		s.logger.WithField("job", name).Warn("上一轮尚未结束，跳过本次执行")
		return false, nil
	}
	defer j.sem.Release(1)

	start := time.Now()
	err := j.fn(ctx)
	metrics.CycleDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.CycleRuns.WithLabelValues(name, "error").Inc()
		return true, err
	}
	metrics.CycleRuns.WithLabelValues(name, "ok").Inc()
	return true, nil
}

// Jobs 已注册任务名
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.jobs))
	for n := range s.jobs {
		names = append(names, n)
	}
	return names
}

// Start 启动 cron
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Infof("调度器已启动，%d 个定时条目", len(s.cron.Entries()))
}

// StopTimeout 停止时等待进行中任务的上限，超时后才取消任务上下文
const StopTimeout = 2 * time.Minute

// Stop 停止 cron，等进行中的任务跑完再取消上下文
func (s *Scheduler) Stop() {
	s.stop(StopTimeout)
}

func (s *Scheduler) stop(timeout time.Duration) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-time.After(timeout):
		s.logger.Warnf("等待进行中任务超过 %s，取消任务", timeout)
	}
	s.cancel()
}
