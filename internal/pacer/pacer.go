package pacer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"wisefido-simulator/internal/models"
	"wisefido-simulator/internal/sampler"
	"wisefido-simulator/internal/schema"

	"go.uber.org/zap"
)

// Validator 校验序列化后的消息体
type Validator interface {
	Validate(schemaName string, body []byte) error
}

// Publisher 发布消息体
type Publisher interface {
	Publish(ctx context.Context, channel string, body []byte) error
}

// Recorder 运行指标；nil 表示不记录
type Recorder interface {
	Published(channel string)
	PublishError(channel string)
	Violation(schema string)
	Overrun()
	ObserveTick(d time.Duration)
}

// Config 节奏配置
type Config struct {
	Pacing   models.PacingConfig
	Policy   ViolationPolicy
	MaxTicks int // 0 = 直到取消
}

// Deps 协作者
type Deps struct {
	Sampler   *sampler.Sampler
	Clock     Clock
	Validator Validator
	Publisher Publisher
	Recorder  Recorder
}

// Stats 运行统计
type Stats struct {
	Ticks         int
	Published     int
	PublishErrors int
	Violations    int
	Overruns      int
}

// Pacer 单协程 tick 循环：采样 → 构建 → 校验 → 发布 → 抖动，tick 结束后补足间隔
type Pacer struct {
	cfg      Config
	topology Topology
	deps     Deps
	interval time.Duration
	logger   *zap.Logger

	lastStampMs int64
	stats       Stats
}

// New 创建 Pacer；速率必须 > 0
func New(cfg Config, topology Topology, deps Deps, logger *zap.Logger) (*Pacer, error) {
	rate := cfg.Pacing.RatePerSecond
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return nil, fmt.Errorf("rate must be a positive finite number, got %v", rate)
	}
	interval, ok := IntervalFor(rate)
	if !ok {
		return nil, fmt.Errorf("rate %v too small: interval overflows", rate)
	}
	if cfg.Pacing.JitterMs < 0 {
		return nil, fmt.Errorf("jitter must be >= 0 ms, got %d", cfg.Pacing.JitterMs)
	}
	if len(topology) == 0 {
		return nil, errors.New("topology has no streams")
	}
	if deps.Sampler == nil || deps.Clock == nil || deps.Validator == nil || deps.Publisher == nil {
		return nil, errors.New("sampler, clock, validator and publisher are required")
	}
	if deps.Recorder == nil {
		deps.Recorder = nopRecorder{}
	}

	return &Pacer{
		cfg:      cfg,
		topology: topology,
		deps:     deps,
		interval: interval,
		logger:   logger,
	}, nil
}

// IntervalFor 速率对应的 tick 间隔；间隔超出 time.Duration 范围或不足 1ns 时 ok=false
func IntervalFor(rate float64) (time.Duration, bool) {
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0, false
	}
	nanos := float64(time.Second) / rate
	if nanos >= math.MaxInt64 || nanos < 1 {
		return 0, false
	}
	return time.Duration(nanos), true
}

// Interval tick 间隔
func (p *Pacer) Interval() time.Duration {
	return p.interval
}

// Stats 当前统计
func (p *Pacer) Stats() Stats {
	return p.stats
}

// Run 循环直到 ctx 取消、达到 MaxTicks 或出现致命错误。
// 取消只在 tick 之间生效；ctx 取消视为正常结束，返回 nil。
func (p *Pacer) Run(ctx context.Context) (Stats, error) {
	p.logger.Info("Pacer started",
		zap.Int("streams", len(p.topology)),
		zap.Duration("interval", p.interval),
		zap.Int("jitter_ms", p.cfg.Pacing.JitterMs),
		zap.String("on_violation", p.cfg.Policy.String()),
		zap.Int("max_ticks", p.cfg.MaxTicks),
	)

	for {
		if ctx.Err() != nil {
			return p.stats, nil
		}
		if p.cfg.MaxTicks > 0 && p.stats.Ticks >= p.cfg.MaxTicks {
			return p.stats, nil
		}

		start := p.deps.Clock.Now()
		if err := p.Tick(ctx); err != nil {
			return p.stats, err
		}
		elapsed := p.deps.Clock.Now().Sub(start)
		p.deps.Recorder.ObserveTick(elapsed)

		// 不追赶：慢 tick 之后直接开始下一个
		remaining := p.interval - elapsed
		if remaining <= 0 {
			p.stats.Overruns++
			p.deps.Recorder.Overrun()
			p.logger.Warn("Tick overran interval",
				zap.Int("tick", p.stats.Ticks),
				zap.Duration("elapsed", elapsed),
				zap.Duration("interval", p.interval),
			)
			continue
		}
		if err := p.deps.Clock.Sleep(ctx, remaining); err != nil {
			return p.stats, nil
		}
	}
}

// Tick 执行一个 tick 的所有发布槽位。
// tick 内部不响应取消：发布使用脱离取消的 ctx，抖动睡眠不可中断。
func (p *Pacer) Tick(ctx context.Context) error {
	tickCtx := context.WithoutCancel(ctx)

	for _, stream := range p.topology {
		reading := p.deps.Sampler.Sample(stream.Kind)
		msg, err := stream.Build(p.stamp(), reading)
		if err != nil {
			return err
		}
		body, err := msg.Marshal()
		if err != nil {
			return err
		}

		if err := p.deps.Validator.Validate(msg.Schema, body); err != nil {
			var violation *schema.ViolationError
			if !errors.As(err, &violation) {
				return fmt.Errorf("validate %s for device %s: %w", msg.Channel, msg.Device, err)
			}

			p.stats.Violations++
			p.deps.Recorder.Violation(msg.Schema)
			p.logger.Warn("Payload failed schema validation, dropped",
				zap.String("channel", msg.Channel),
				zap.String("device", msg.Device),
				zap.String("schema", violation.Schema),
				zap.String("field", violation.Field),
				zap.String("constraint", violation.Constraint),
				zap.String("message", violation.Message),
			)
			if p.cfg.Policy == PolicyAbort {
				return err
			}
			continue
		}

		if err := p.deps.Publisher.Publish(tickCtx, msg.Channel, body); err != nil {
			p.stats.PublishErrors++
			p.deps.Recorder.PublishError(msg.Channel)
			p.logger.Warn("Publish failed",
				zap.String("channel", msg.Channel),
				zap.String("device", msg.Device),
				zap.Error(err),
			)
		} else {
			p.stats.Published++
			p.deps.Recorder.Published(msg.Channel)
			p.logger.Debug("Published",
				zap.String("channel", msg.Channel),
				zap.String("device", msg.Device),
				zap.ByteString("payload", body),
			)
		}

		if jitter := p.deps.Sampler.Jitter(p.cfg.Pacing.JitterMs); jitter > 0 {
			_ = p.deps.Clock.Sleep(context.Background(), jitter)
		}
	}

	p.stats.Ticks++
	return nil
}

// stamp 当前毫秒时间戳，时钟回拨时沿用上一次的值
func (p *Pacer) stamp() int64 {
	now := p.deps.Clock.Now().UnixMilli()
	if now < p.lastStampMs {
		return p.lastStampMs
	}
	p.lastStampMs = now
	return now
}

type nopRecorder struct{}

func (nopRecorder) Published(string)          {}
func (nopRecorder) PublishError(string)       {}
func (nopRecorder) Violation(string)          {}
func (nopRecorder) Overrun()                  {}
func (nopRecorder) ObserveTick(time.Duration) {}
