package config

import (
	"errors"
	"flag"
	"io"
	"strings"
	"testing"

	"wisefido-simulator/internal/models"
	"wisefido-simulator/internal/pacer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bpArgs = []string{"--mode", "blood-pressure", "--device-id", "bp-icu-a-bed-3", "--icu-id", "icu-a", "--bed-id", "bed-3"}

func clearSimEnv(t *testing.T) {
	UsageOutput = io.Discard
	for _, key := range []string{
		"SIM_MODE", "SIM_TRANSPORT", "SIM_HZ", "SIM_JITTER_MS", "SIM_DEVICES", "SIM_ON_VIOLATION",
		"MQTT_HOST", "MQTT_PORT", "MQTT_CLIENT_ID", "MQTT_USERNAME", "MQTT_PASSWORD",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "REDIS_STREAM_PREFIX",
		"KAFKA_BROKERS", "KAFKA_TOPIC_PREFIX",
		"SCHEMA_DIR", "METRICS_ADDR", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func requireConfigError(t *testing.T, err error) *ConfigError {
	t.Helper()
	var cerr *ConfigError
	require.True(t, errors.As(err, &cerr), "expected ConfigError, got %v", err)
	return cerr
}

func TestLoad_DefaultValues(t *testing.T) {
	clearSimEnv(t)

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, ModeVitals, cfg.Mode)
	assert.Equal(t, "mqtt", cfg.Transport)
	assert.Equal(t, "127.0.0.1", cfg.MQTT.Host)
	assert.Equal(t, 1883, cfg.MQTT.Port)
	assert.Equal(t, byte(0), cfg.MQTT.QoS)
	assert.True(t, strings.HasPrefix(cfg.MQTT.ClientID, "wisefido-simulator-vitals-"))
	assert.Len(t, cfg.MQTT.ClientID, len("wisefido-simulator-vitals-")+8)

	assert.Equal(t, 1.0, cfg.Pacing.RatePerSecond)
	assert.Equal(t, 50, cfg.Pacing.JitterMs)
	assert.Equal(t, 5, cfg.Pacing.DeviceCount)
	assert.Equal(t, int64(1), cfg.Seed)
	assert.Equal(t, models.DefaultRanges(), cfg.Ranges)
	assert.Equal(t, 0, cfg.Run.MaxTicks)
	assert.Equal(t, pacer.PolicyAbort, cfg.ViolationPolicy())
	assert.Equal(t, "", cfg.SchemaDir)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_ModeDefaults(t *testing.T) {
	clearSimEnv(t)

	cfg, err := Load(bpArgs)
	require.NoError(t, err)
	assert.Equal(t, 0.2, cfg.Pacing.RatePerSecond)
	assert.Equal(t, 100, cfg.Pacing.JitterMs)
	assert.Equal(t, 1, cfg.Pacing.DeviceCount)
	assert.False(t, cfg.IsMultiDevice())
	assert.Equal(t, models.KindBloodPressure, cfg.Kind())
	assert.Equal(t, models.DeviceIdentity{DeviceID: "bp-icu-a-bed-3", ICUID: "icu-a", BedID: "bed-3"}, cfg.Identity)

	cfg, err = Load([]string{"--mode", "spo2", "--device-id", "s1", "--icu-id", "icu-a", "--bed-id", "bed-1"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, cfg.Pacing.RatePerSecond)
	assert.Equal(t, 50, cfg.Pacing.JitterMs)
	assert.Equal(t, models.KindSpO2, cfg.Kind())
}

func TestLoad_ExplicitFlagsOverrideModeDefaults(t *testing.T) {
	clearSimEnv(t)

	args := append([]string{}, bpArgs...)
	args = append(args, "--hz", "2", "--jitter-ms", "0", "--seed", "42", "--ticks", "10", "--on-violation", "skip")
	cfg, err := Load(args)
	require.NoError(t, err)

	assert.Equal(t, 2.0, cfg.Pacing.RatePerSecond)
	assert.Equal(t, 0, cfg.Pacing.JitterMs)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, 10, cfg.Run.MaxTicks)
	assert.Equal(t, pacer.PolicySkip, cfg.ViolationPolicy())
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	clearSimEnv(t)
	t.Setenv("SIM_TRANSPORT", "redis")
	t.Setenv("REDIS_ADDR", "redis:6380")
	t.Setenv("MQTT_HOST", "mosquitto")
	t.Setenv("MQTT_PORT", "1884")
	t.Setenv("SIM_DEVICES", "3")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg, err := Load([]string{"--devices", "7"})
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Transport)
	assert.Equal(t, "redis:6380", cfg.Redis.Addr)
	assert.Equal(t, "mosquitto", cfg.MQTT.Host)
	assert.Equal(t, 1884, cfg.MQTT.Port)
	assert.Equal(t, 7, cfg.Pacing.DeviceCount)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)

	cfg, err = Load(nil)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Pacing.DeviceCount)
}

func TestLoad_RateMustBePositive(t *testing.T) {
	clearSimEnv(t)

	for _, hz := range []string{"0", "-1"} {
		_, err := Load([]string{"--hz", hz})
		cerr := requireConfigError(t, err)
		assert.Contains(t, cerr.Error(), "--hz must be > 0")
	}

	_, err := Load([]string{"--hz", "1e-10"})
	cerr := requireConfigError(t, err)
	assert.Contains(t, cerr.Error(), "interval overflows")

	cfg, err := Load([]string{"--hz", "1e-9"})
	require.NoError(t, err)
	assert.Equal(t, 1e-9, cfg.Pacing.RatePerSecond)
}

func TestLoad_HelpDescribesRangeFlags(t *testing.T) {
	clearSimEnv(t)
	var out strings.Builder
	UsageOutput = &out

	_, err := Load([]string{"--help"})
	assert.ErrorIs(t, err, flag.ErrHelp)
	assert.Contains(t, out.String(), "systolic minimum (mmHg)")
	assert.Contains(t, out.String(), "pulse maximum (bpm)")
	UsageOutput = io.Discard
}

func TestLoad_ReportsEveryProblem(t *testing.T) {
	clearSimEnv(t)

	_, err := Load([]string{
		"--mode", "spo2",
		"--jitter-ms", "-5",
		"--spo2-min", "99", "--spo2-max", "90",
		"--port", "70000",
		"--on-violation", "ignore",
	})
	cerr := requireConfigError(t, err)

	joined := strings.Join(cerr.Problems, "\n")
	assert.Contains(t, joined, "--jitter-ms must be >= 0")
	assert.Contains(t, joined, "spo2 range min 99 > max 90")
	assert.Contains(t, joined, "--port must be in [1, 65535]")
	assert.Contains(t, joined, "--on-violation")
	assert.Contains(t, joined, "--device-id is required")
	assert.Contains(t, joined, "--icu-id is required")
	assert.Contains(t, joined, "--bed-id is required")
}

func TestLoad_VitalsNeedsAtLeastOneDevice(t *testing.T) {
	clearSimEnv(t)

	_, err := Load([]string{"--devices", "0"})
	cerr := requireConfigError(t, err)
	assert.Contains(t, cerr.Error(), "--devices must be >= 1")
}

func TestLoad_UnknownModeAndTransport(t *testing.T) {
	clearSimEnv(t)

	_, err := Load([]string{"--mode", "temperature", "--transport", "amqp"})
	cerr := requireConfigError(t, err)
	joined := strings.Join(cerr.Problems, "\n")
	assert.Contains(t, joined, `invalid --mode "temperature"`)
	assert.Contains(t, joined, `invalid --transport "amqp"`)
}

func TestLoad_BadFlags(t *testing.T) {
	clearSimEnv(t)

	_, err := Load([]string{"--hz", "fast"})
	requireConfigError(t, err)

	_, err = Load([]string{"--qos", "3"})
	cerr := requireConfigError(t, err)
	assert.Contains(t, cerr.Error(), "--qos")

	_, err = Load([]string{"extra"})
	requireConfigError(t, err)

	_, err = Load([]string{"--help"})
	assert.ErrorIs(t, err, flag.ErrHelp)
}

func TestValidate(t *testing.T) {
	clearSimEnv(t)

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())

	cfg.Pacing.RatePerSecond = 0
	cfg.Ranges.Systolic = models.Range{Min: 150, Max: 90}
	cerr := requireConfigError(t, cfg.Validate())
	assert.Len(t, cerr.Problems, 2)
}

func TestGetEnv(t *testing.T) {
	t.Setenv("SIM_TEST_KEY", "value")
	assert.Equal(t, "value", getEnv("SIM_TEST_KEY", "default"))

	t.Setenv("SIM_TEST_KEY", "")
	assert.Equal(t, "default", getEnv("SIM_TEST_KEY", "default"))
}
