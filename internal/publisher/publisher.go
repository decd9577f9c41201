package publisher

import (
	"context"
	"errors"
	"fmt"
)

// 支持的传输方式
const (
	TransportMQTT   = "mqtt"
	TransportRedis  = "redis"
	TransportKafka  = "kafka"
	TransportStdout = "stdout"
)

// Transports 所有可选传输方式
var Transports = []string{TransportMQTT, TransportRedis, TransportKafka, TransportStdout}

// ErrClosed 发布器已关闭
var ErrClosed = errors.New("publisher closed")

// Publisher 把已校验的消息体发送到总线通道，最多一次，不重试
type Publisher interface {
	Publish(ctx context.Context, channel string, body []byte) error
	// Close 释放连接，可重复调用，只生效一次
	Close() error
	Transport() string
}

// TransportError 连接或发布失败
type TransportError struct {
	Transport string
	Channel   string // 连接阶段为空
	Err       error
}

func (e *TransportError) Error() string {
	if e.Channel == "" {
		return fmt.Sprintf("%s transport: %v", e.Transport, e.Err)
	}
	return fmt.Sprintf("%s transport: publish to %s: %v", e.Transport, e.Channel, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
