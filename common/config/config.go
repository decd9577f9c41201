package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// MQTTConfig MQTT配置
type MQTTConfig struct {
	Host           string
	Port           int
	ClientID       string
	Username       string
	Password       string
	QoS            byte
	KeepAlive      time.Duration
	PublishTimeout time.Duration // 单次发布等待上限，超时视为发布失败（不重试）
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	StreamPrefix string // Stream 名前缀，如 "sim:" → "sim:icu:spo2"
	StreamMaxLen int64  // XADD MAXLEN ~，0 = 不裁剪
}

// KafkaConfig Kafka配置
type KafkaConfig struct {
	Brokers      []string
	TopicPrefix  string
	WriteTimeout time.Duration
}

// BrokerURL 获取MQTT broker地址（paho 需要 scheme://host:port）
func (c *MQTTConfig) BrokerURL() string {
	return "tcp://" + net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// LoadFromEnv 从环境变量加载MQTT配置
func (c *MQTTConfig) LoadFromEnv(prefix string) {
	if host := os.Getenv(prefix + "_HOST"); host != "" {
		c.Host = host
	}
	if port := os.Getenv(prefix + "_PORT"); port != "" {
		fmt.Sscanf(port, "%d", &c.Port)
	}
	if clientID := os.Getenv(prefix + "_CLIENT_ID"); clientID != "" {
		c.ClientID = clientID
	}
	if username := os.Getenv(prefix + "_USERNAME"); username != "" {
		c.Username = username
	}
	if password := os.Getenv(prefix + "_PASSWORD"); password != "" {
		c.Password = password
	}
}

// LoadFromEnv 从环境变量加载Redis配置
func (c *RedisConfig) LoadFromEnv(prefix string) {
	if addr := os.Getenv(prefix + "_ADDR"); addr != "" {
		c.Addr = addr
	}
	if password := os.Getenv(prefix + "_PASSWORD"); password != "" {
		c.Password = password
	}
	if db := os.Getenv(prefix + "_DB"); db != "" {
		fmt.Sscanf(db, "%d", &c.DB)
	}
	if streamPrefix := os.Getenv(prefix + "_STREAM_PREFIX"); streamPrefix != "" {
		c.StreamPrefix = streamPrefix
	}
}

// LoadFromEnv 从环境变量加载Kafka配置（KAFKA_BROKERS 逗号分隔）
func (c *KafkaConfig) LoadFromEnv(prefix string) {
	if brokers := os.Getenv(prefix + "_BROKERS"); brokers != "" {
		c.Brokers = SplitList(brokers)
	}
	if topicPrefix := os.Getenv(prefix + "_TOPIC_PREFIX"); topicPrefix != "" {
		c.TopicPrefix = topicPrefix
	}
}

// SplitList 拆分逗号分隔列表，忽略空项
func SplitList(list string) []string {
	var out []string
	for _, item := range strings.Split(list, ",") {
		if s := strings.TrimSpace(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}
