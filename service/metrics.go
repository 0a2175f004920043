package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP 请求耗时
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "riskit_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)

	// 打分结果计数
	predictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "riskit_predictions_total",
			Help: "Total number of risk predictions by model and outcome",
		},
		[]string{"model", "outcome"},
	)

	// 训练期未出现的分箱计数（在线分布漂移信号）
	unknownBins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "riskit_unknown_bins_total",
			Help: "Total number of encoded values that fell into bins unseen during fit",
		},
		[]string{"feature"},
	)

	// 打分失败计数
	predictionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "riskit_prediction_errors_total",
			Help: "Total number of failed predictions",
		},
		[]string{"code"},
	)
)
