package publisher

import (
	"context"
	"sync"

	"wisefido-simulator/common/config"
	rediscommon "wisefido-simulator/common/redis"

	"go.uber.org/zap"
)

// RedisStream 每个通道写入一个 Redis Stream（XADD），字段 channel/payload
type RedisStream struct {
	client    *rediscommon.Client
	prefix    string
	maxLen    int64
	logger    *zap.Logger
	closeOnce sync.Once
	closeErr  error
	closed    bool
}

// NewRedisStream 创建客户端并 PING；失败返回 *TransportError
func NewRedisStream(ctx context.Context, cfg *config.RedisConfig, logger *zap.Logger) (*RedisStream, error) {
	client := rediscommon.NewRedisClient(cfg)
	if err := rediscommon.Ping(ctx, client); err != nil {
		_ = rediscommon.Close(client)
		return nil, &TransportError{Transport: TransportRedis, Err: err}
	}

	logger.Info("Connected to Redis",
		zap.String("addr", cfg.Addr),
		zap.String("stream_prefix", cfg.StreamPrefix),
	)
	return &RedisStream{
		client: client,
		prefix: cfg.StreamPrefix,
		maxLen: cfg.StreamMaxLen,
		logger: logger,
	}, nil
}

// Publish XADD 到 prefix+通道名（"/" 换成 ":"）
func (p *RedisStream) Publish(ctx context.Context, channel string, body []byte) error {
	if p.closed {
		return &TransportError{Transport: TransportRedis, Channel: channel, Err: ErrClosed}
	}

	stream := rediscommon.StreamName(p.prefix, channel)
	_, err := rediscommon.PublishToStream(ctx, p.client, stream, map[string]interface{}{
		"channel": channel,
		"payload": body,
	}, p.maxLen)
	if err != nil {
		return &TransportError{Transport: TransportRedis, Channel: channel, Err: err}
	}
	return nil
}

// Close 关闭连接池
func (p *RedisStream) Close() error {
	p.closeOnce.Do(func() {
		p.closed = true
		p.closeErr = rediscommon.Close(p.client)
		p.logger.Info("Redis connection closed")
	})
	return p.closeErr
}

func (p *RedisStream) Transport() string { return TransportRedis }
