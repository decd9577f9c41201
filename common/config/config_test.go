package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMQTTConfig_BrokerURL(t *testing.T) {
	c := &MQTTConfig{Host: "mosquitto", Port: 1883}
	assert.Equal(t, "tcp://mosquitto:1883", c.BrokerURL())

	c = &MQTTConfig{Host: "::1", Port: 1883}
	assert.Equal(t, "tcp://[::1]:1883", c.BrokerURL())
}

func TestMQTTConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("TEST_MQTT_HOST", "broker")
	t.Setenv("TEST_MQTT_PORT", "8883")
	t.Setenv("TEST_MQTT_USERNAME", "sim")

	c := &MQTTConfig{Host: "localhost", Port: 1883}
	c.LoadFromEnv("TEST_MQTT")

	assert.Equal(t, "broker", c.Host)
	assert.Equal(t, 8883, c.Port)
	assert.Equal(t, "sim", c.Username)
	assert.Equal(t, "", c.Password)
}

func TestRedisConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("TEST_REDIS_ADDR", "redis:6379")
	t.Setenv("TEST_REDIS_DB", "2")
	t.Setenv("TEST_REDIS_STREAM_PREFIX", "icu-sim:")

	c := &RedisConfig{}
	c.LoadFromEnv("TEST_REDIS")

	assert.Equal(t, "redis:6379", c.Addr)
	assert.Equal(t, 2, c.DB)
	assert.Equal(t, "icu-sim:", c.StreamPrefix)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, SplitList(" a:9092, ,b:9092,"))
	assert.Nil(t, SplitList(""))
}
