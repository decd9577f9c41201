package publisher

import (
	"context"
	"fmt"
	"io"

	"wisefido-simulator/common/config"

	"go.uber.org/zap"
)

// Options 创建发布器所需的配置
type Options struct {
	Transport string
	MQTT      config.MQTTConfig
	Redis     config.RedisConfig
	Kafka     config.KafkaConfig
	Stdout    io.Writer
}

// New 按 Transport 建立连接；连接失败为 *TransportError
func New(ctx context.Context, opts Options, logger *zap.Logger) (Publisher, error) {
	switch opts.Transport {
	case TransportMQTT, "":
		p, err := NewMQTT(&opts.MQTT, logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	case TransportRedis:
		p, err := NewRedisStream(ctx, &opts.Redis, logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	case TransportKafka:
		p, err := NewKafka(ctx, &opts.Kafka, logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	case TransportStdout:
		return NewStdout(opts.Stdout), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", opts.Transport)
	}
}
