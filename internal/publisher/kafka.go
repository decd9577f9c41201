package publisher

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"wisefido-simulator/common/config"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka 每个通道一个 topic（"icu/spo2" → prefix + "icu.spo2"）
type Kafka struct {
	writer    kafkaWriter
	prefix    string
	logger    *zap.Logger
	closeOnce sync.Once
	closeErr  error
	closed    bool
}

// KafkaTopic 通道名映射为 topic 名
func KafkaTopic(prefix, channel string) string {
	return prefix + strings.ReplaceAll(channel, "/", ".")
}

// NewKafka 先拨号第一个 broker 确认可达，再创建同步 Writer
func NewKafka(ctx context.Context, cfg *config.KafkaConfig, logger *zap.Logger) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, &TransportError{Transport: TransportKafka, Err: errors.New("no brokers configured")}
	}

	conn, err := kafka.DialContext(ctx, "tcp", cfg.Brokers[0])
	if err != nil {
		return nil, &TransportError{Transport: TransportKafka, Err: err}
	}
	_ = conn.Close()

	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		BatchSize:              1,
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           writeTimeout,
		MaxAttempts:            1,
		AllowAutoTopicCreation: true,
	}

	logger.Info("Connected to Kafka",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic_prefix", cfg.TopicPrefix),
	)
	return newKafka(writer, cfg.TopicPrefix, logger), nil
}

func newKafka(writer kafkaWriter, prefix string, logger *zap.Logger) *Kafka {
	return &Kafka{writer: writer, prefix: prefix, logger: logger}
}

// Publish 写入一条消息，key 为通道名
func (p *Kafka) Publish(ctx context.Context, channel string, body []byte) error {
	if p.closed {
		return &TransportError{Transport: TransportKafka, Channel: channel, Err: ErrClosed}
	}

	err := p.writer.WriteMessages(ctx, kafka.Message{
		Topic: KafkaTopic(p.prefix, channel),
		Key:   []byte(channel),
		Value: body,
	})
	if err != nil {
		return &TransportError{Transport: TransportKafka, Channel: channel, Err: err}
	}
	return nil
}

// Close 刷新并关闭 Writer
func (p *Kafka) Close() error {
	p.closeOnce.Do(func() {
		p.closed = true
		p.closeErr = p.writer.Close()
		p.logger.Info("Kafka writer closed")
	})
	return p.closeErr
}

func (p *Kafka) Transport() string { return TransportKafka }
