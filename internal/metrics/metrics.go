package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "wisefido_simulator"

// Collector 模拟器运行指标，使用独立 Registry（测试互不干扰）
type Collector struct {
	registry      *prometheus.Registry
	published     *prometheus.CounterVec
	publishErrors *prometheus.CounterVec
	violations    *prometheus.CounterVec
	overruns      prometheus.Counter
	tickDuration  prometheus.Histogram
}

// New 创建并注册所有指标
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "published_total",
			Help:      "Payloads published, by channel",
		}, []string{"channel"}),
		publishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Publish attempts that failed, by channel",
		}, []string{"channel"}),
		violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schema_violations_total",
			Help:      "Payloads dropped because they failed schema validation, by schema",
		}, []string{"schema"}),
		overruns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tick_overruns_total",
			Help:      "Ticks whose work took longer than the tick interval",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Time spent building, validating and publishing one tick, jitter included",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	c.registry.MustRegister(
		c.published,
		c.publishErrors,
		c.violations,
		c.overruns,
		c.tickDuration,
	)
	return c
}

// Registry 底层 Registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) Published(channel string) {
	c.published.WithLabelValues(channel).Inc()
}

func (c *Collector) PublishError(channel string) {
	c.publishErrors.WithLabelValues(channel).Inc()
}

func (c *Collector) Violation(schema string) {
	c.violations.WithLabelValues(schema).Inc()
}

func (c *Collector) Overrun() {
	c.overruns.Inc()
}

func (c *Collector) ObserveTick(d time.Duration) {
	c.tickDuration.Observe(d.Seconds())
}

// Handler /metrics 处理器
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Server /metrics HTTP 服务
type Server struct {
	srv    *http.Server
	logger *zap.Logger
}

// NewServer 创建指标服务
func NewServer(addr string, c *Collector, logger *zap.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Start 后台监听；监听失败只记录日志，不影响发布
func (s *Server) Start() {
	go func() {
		s.logger.Info("Metrics server listening", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Metrics server failed", zap.Error(err))
		}
	}()
}

// Shutdown 优雅关闭
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
