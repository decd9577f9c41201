package service

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"

	"wisefido-simulator/contract"
	"wisefido-simulator/internal/config"
	"wisefido-simulator/internal/metrics"
	"wisefido-simulator/internal/pacer"
	"wisefido-simulator/internal/publisher"
	"wisefido-simulator/internal/sampler"
	"wisefido-simulator/internal/schema"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PublisherFactory 建立发布连接
type PublisherFactory func(ctx context.Context, opts publisher.Options, logger *zap.Logger) (publisher.Publisher, error)

// Options 可替换的协作者（测试用）
type Options struct {
	NewPublisher PublisherFactory
	Clock        pacer.Clock
	Stdout       io.Writer
}

// SimulatorService 模拟器服务
type SimulatorService struct {
	config        *config.Config
	logger        *zap.Logger
	runID         string
	schemas       *schema.Set
	publisher     publisher.Publisher
	pacer         *pacer.Pacer
	metrics       *metrics.Collector
	metricsServer *metrics.Server
	stopOnce      sync.Once
	stopErr       error
}

// NewSimulatorService 创建模拟器服务：校验配置 → 加载 schema → 连接总线
func NewSimulatorService(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*SimulatorService, error) {
	return NewSimulatorServiceWithOptions(ctx, cfg, logger, Options{})
}

// NewSimulatorServiceWithOptions 同上，可替换协作者
func NewSimulatorServiceWithOptions(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts Options) (*SimulatorService, error) {
	if opts.NewPublisher == nil {
		opts.NewPublisher = publisher.New
	}
	if opts.Clock == nil {
		opts.Clock = pacer.RealClock{}
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	// 配置错误必须在任何连接之前返回
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID), zap.String("mode", cfg.Mode))

	topology := buildTopology(cfg)

	schemas, err := loadSchemas(cfg.SchemaDir, topology.SchemaNames())
	if err != nil {
		return nil, err
	}
	logger.Info("Schemas loaded",
		zap.String("source", schemas.Source()),
		zap.Strings("schemas", schemas.Names()),
	)

	collector := metrics.New()

	pub, err := opts.NewPublisher(ctx, publisher.Options{
		Transport: cfg.Transport,
		MQTT:      cfg.MQTT,
		Redis:     cfg.Redis,
		Kafka:     cfg.Kafka,
		Stdout:    opts.Stdout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect %s transport: %w", cfg.Transport, err)
	}

	p, err := pacer.New(pacer.Config{
		Pacing:   cfg.Pacing,
		Policy:   cfg.ViolationPolicy(),
		MaxTicks: cfg.Run.MaxTicks,
	}, topology, pacer.Deps{
		Sampler:   sampler.New(sampler.NewMT19937(cfg.Seed), cfg.Ranges),
		Clock:     opts.Clock,
		Validator: schemas,
		Publisher: pub,
		Recorder:  collector,
	}, logger)
	if err != nil {
		_ = pub.Close()
		return nil, fmt.Errorf("failed to create pacer: %w", err)
	}

	s := &SimulatorService{
		config:    cfg,
		logger:    logger,
		runID:     runID,
		schemas:   schemas,
		publisher: pub,
		pacer:     p,
		metrics:   collector,
	}
	if cfg.Metrics.Addr != "" {
		s.metricsServer = metrics.NewServer(cfg.Metrics.Addr, collector, logger)
	}
	return s, nil
}

// RunID 本次运行的唯一标识
func (s *SimulatorService) RunID() string {
	return s.runID
}

// Metrics 指标收集器
func (s *SimulatorService) Metrics() *metrics.Collector {
	return s.metrics
}

// Run 阻塞直到 ctx 取消、达到 --ticks 或出现致命错误（如 abort 策略下的校验失败）
func (s *SimulatorService) Run(ctx context.Context) (pacer.Stats, error) {
	if s.metricsServer != nil {
		s.metricsServer.Start()
	}

	s.logger.Info("Simulator running",
		zap.String("transport", s.publisher.Transport()),
		zap.Float64("hz", s.config.Pacing.RatePerSecond),
		zap.Int("jitter_ms", s.config.Pacing.JitterMs),
		zap.Int("devices", s.config.Pacing.DeviceCount),
		zap.Int64("seed", s.config.Seed),
	)

	stats, err := s.pacer.Run(ctx)

	s.logger.Info("Simulator finished",
		zap.Int("ticks", stats.Ticks),
		zap.Int("published", stats.Published),
		zap.Int("publish_errors", stats.PublishErrors),
		zap.Int("violations", stats.Violations),
		zap.Int("overruns", stats.Overruns),
	)
	return stats, err
}

// Stop 释放连接，多次调用只执行一次
func (s *SimulatorService) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping simulator service")

		if s.metricsServer != nil {
			if err := s.metricsServer.Shutdown(ctx); err != nil {
				s.logger.Error("Error stopping metrics server", zap.Error(err))
			}
		}

		if err := s.publisher.Close(); err != nil {
			s.logger.Error("Error closing publisher", zap.Error(err))
			s.stopErr = err
		}

		s.logger.Info("Simulator service stopped")
	})
	return s.stopErr
}

func buildTopology(cfg *config.Config) pacer.Topology {
	if cfg.IsMultiDevice() {
		return pacer.MultiDevice(cfg.Pacing.DeviceCount)
	}
	return pacer.SingleStream(cfg.Identity, cfg.Kind())
}

func loadSchemas(dir string, names []string) (*schema.Set, error) {
	var fsys fs.FS = contract.FS
	source := "embedded contract"
	if dir != "" {
		fsys = os.DirFS(dir)
		source = dir
	}
	return schema.Load(fsys, source, names...)
}
