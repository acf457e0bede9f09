package middleware

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/spdeepak/crm-session-guard/internal/guard"
)

const (
	requestMethod = "requestMethod"
	requestPath   = "requestPath"
	statusCode    = "statusCode"
	action        = "action"
	route         = "route"
)

var (
	requestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_session_guard_api_request_counter",
			Help: "API request counter",
		}, []string{requestMethod, requestPath, statusCode},
	)
	requestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crm_session_guard_api_latency_seconds",
			Help:    "API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{requestMethod, requestPath, statusCode},
	)
	decisionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_session_guard_decisions_total",
			Help: "Session guard decisions by action",
		}, []string{action},
	)
	denialCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_session_guard_permission_denials_total",
			Help: "Navigations rejected by the permission table",
		}, []string{route},
	)
)

func init() {
	prometheus.MustRegister(requestCounter, requestLatency, decisionCounter, denialCounter)
}

func MetricHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()
		duration := time.Since(start)
		httpStatusCode := strconv.Itoa(ctx.Writer.Status())
		if strings.HasPrefix(httpStatusCode, "4") || strings.HasPrefix(httpStatusCode, "5") {
			slog.DebugContext(ctx, fmt.Sprintf("Request failed with status code %s for %s at %s from %s", httpStatusCode, ctx.Request.Method, ctx.FullPath(), ctx.Request.Host))
		}
		path := ctx.FullPath()
		if path == "" {
			path = "unmatched"
		}
		requestCounter.With(
			prometheus.Labels{
				requestMethod: ctx.Request.Method,
				requestPath:   path,
				statusCode:    httpStatusCode,
			},
		).Inc()
		requestLatency.WithLabelValues(ctx.Request.Method, path, httpStatusCode).
			Observe(duration.Seconds())
	}
}

// ObserveDecision counts one guard decision. It fits guard.WithDecisionObserver.
func ObserveDecision(decision guard.Decision) {
	decisionCounter.WithLabelValues(decision.Action.String()).Inc()
}

func ObserveDenial(matchedRoute string) {
	denialCounter.WithLabelValues(matchedRoute).Inc()
}
