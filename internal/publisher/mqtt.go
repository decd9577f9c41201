package publisher

import (
	"context"
	"sync"

	"wisefido-simulator/common/config"
	mqttcommon "wisefido-simulator/common/mqtt"

	"go.uber.org/zap"
)

// mqttClient *mqttcommon.Client 的最小接口，测试中替换
type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
	Disconnect()
}

// MQTT 发布到 MQTT broker（retain=false）
type MQTT struct {
	client    mqttClient
	qos       byte
	logger    *zap.Logger
	closeOnce sync.Once
	closed    bool
}

// NewMQTT 连接 broker；连接失败返回 *TransportError
func NewMQTT(cfg *config.MQTTConfig, logger *zap.Logger) (*MQTT, error) {
	client, err := mqttcommon.NewClient(cfg, logger)
	if err != nil {
		return nil, &TransportError{Transport: TransportMQTT, Err: err}
	}

	logger.Info("Connected to MQTT broker",
		zap.String("broker", cfg.BrokerURL()),
		zap.String("client_id", cfg.ClientID),
	)
	return newMQTT(client, cfg.QoS, logger), nil
}

func newMQTT(client mqttClient, qos byte, logger *zap.Logger) *MQTT {
	return &MQTT{client: client, qos: qos, logger: logger}
}

// Publish 发布一条消息
func (p *MQTT) Publish(ctx context.Context, channel string, body []byte) error {
	if p.closed {
		return &TransportError{Transport: TransportMQTT, Channel: channel, Err: ErrClosed}
	}
	if err := ctx.Err(); err != nil {
		return &TransportError{Transport: TransportMQTT, Channel: channel, Err: err}
	}
	if err := p.client.Publish(channel, p.qos, false, body); err != nil {
		return &TransportError{Transport: TransportMQTT, Channel: channel, Err: err}
	}
	return nil
}

// Close 断开连接
func (p *MQTT) Close() error {
	p.closeOnce.Do(func() {
		p.closed = true
		p.client.Disconnect()
		p.logger.Info("Disconnected from MQTT broker")
	})
	return nil
}

func (p *MQTT) Transport() string { return TransportMQTT }
