// Package metrics 引擎的 Prometheus 指标，通过 /api/internal/metrics 暴露
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lolpredict"

var (
	// CycleRuns 周期任务执行次数，result: ok/error/skipped
	CycleRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cycle_runs_total",
		Help:      "Periodic cycle executions by job and result.",
	}, []string{"job", "result"})

	// CycleDuration 周期任务耗时
	CycleDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "cycle_duration_seconds",
		Help:      "Duration of periodic cycles.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"job"})

	// Announcements 比赛公告发送次数，result: ok/failed
	Announcements = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "announcements_total",
		Help:      "Match announcements by delivery result.",
	}, []string{"result"})

	// SettledMatches 结算完成的 (社区, 比赛) 数
	SettledMatches = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "settled_matches_total",
		Help:      "Matches settled per community.",
	})

	// SettledPredictions 按结算结果统计
	SettledPredictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "settled_predictions_total",
		Help:      "Predictions settled by outcome.",
	}, []string{"outcome"})

	// ResultDeliveryFailures 结果公告发送失败次数（状态照常推进）
	ResultDeliveryFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "result_delivery_failures_total",
		Help:      "Result announcements that failed to send.",
	})

	// SourceErrors 数据源错误，op: fetch_upcoming/check_result
	SourceErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "source_errors_total",
		Help:      "Match source errors degraded to empty results.",
	}, []string{"op"})

	// PredictionsSubmitted 预测提交，result: created/updated/rejected
	PredictionsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "predictions_submitted_total",
		Help:      "Prediction submissions by result.",
	}, []string{"result"})
)
