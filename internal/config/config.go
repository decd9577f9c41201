package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"wisefido-simulator/common/config"
	"wisefido-simulator/internal/models"
	"wisefido-simulator/internal/pacer"
	"wisefido-simulator/internal/publisher"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// 运行模式
const (
	ModeBloodPressure = "blood-pressure"
	ModeSpO2          = "spo2"
	ModeVitals        = "vitals"
)

// UsageOutput 解析失败或 --help 时打印用法的位置
var UsageOutput io.Writer = os.Stderr

// Modes 所有模式
var Modes = []string{ModeBloodPressure, ModeSpO2, ModeVitals}

type modeDefaults struct {
	hz       float64
	jitterMs int
	devices  int
}

var defaultsByMode = map[string]modeDefaults{
	ModeBloodPressure: {hz: 0.2, jitterMs: 100, devices: 1},
	ModeSpO2:          {hz: 1, jitterMs: 50, devices: 1},
	ModeVitals:        {hz: 1, jitterMs: 50, devices: 5},
}

// Config 模拟器配置
type Config struct {
	Mode      string
	Transport string

	MQTT  config.MQTTConfig
	Redis config.RedisConfig
	Kafka config.KafkaConfig

	// 单设备模式的设备身份
	Identity models.DeviceIdentity

	Pacing models.PacingConfig
	Ranges models.RangeConfig
	Seed   int64

	Run struct {
		MaxTicks    int    // 0 = 直到中断
		OnViolation string // abort | skip
	}

	// SchemaDir 为空时使用内置 contract
	SchemaDir string

	Metrics struct {
		Addr string // 为空则不启动 /metrics
	}

	Log struct {
		Level  string
		Format string
	}
}

// ConfigError 配置无效，启动前致命；列出所有问题
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

type errList []string

func (e *errList) addf(format string, a ...any) { *e = append(*e, fmt.Sprintf(format, a...)) }
func (e *errList) has() bool                    { return len(*e) > 0 }

// IsMultiDevice vitals 模式
func (c *Config) IsMultiDevice() bool {
	return c.Mode == ModeVitals
}

// Kind 单设备模式对应的生命体征
func (c *Config) Kind() models.VitalKind {
	if c.Mode == ModeSpO2 {
		return models.KindSpO2
	}
	return models.KindBloodPressure
}

// ViolationPolicy 解析后的校验失败策略
func (c *Config) ViolationPolicy() pacer.ViolationPolicy {
	p, _ := pacer.ParseViolationPolicy(c.Run.OnViolation)
	return p
}

// Load 加载配置：.env → 环境变量 → 命令行参数，最后校验。
// --help 时返回 flag.ErrHelp。
func Load(args []string) (*Config, error) {
	_ = godotenv.Load() // 没有 .env 时直接用环境变量

	cfg := &Config{}
	var errs errList

	// 从环境变量加载（默认值）
	cfg.Mode = getEnv("SIM_MODE", ModeVitals)
	cfg.Transport = getEnv("SIM_TRANSPORT", publisher.TransportMQTT)

	cfg.MQTT.Host = "127.0.0.1"
	cfg.MQTT.Port = 1883
	cfg.MQTT.LoadFromEnv("MQTT")
	cfg.MQTT.QoS = 0

	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.StreamPrefix = "sim:"
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.Kafka.Brokers = []string{"localhost:9092"}
	cfg.Kafka.LoadFromEnv("KAFKA")

	cfg.Ranges = models.DefaultRanges()
	cfg.Seed = 1
	cfg.Run.OnViolation = getEnv("SIM_ON_VIOLATION", "abort")
	cfg.SchemaDir = getEnv("SCHEMA_DIR", "")
	cfg.Metrics.Addr = getEnv("METRICS_ADDR", "")
	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	fs := flag.NewFlagSet("wisefido-simulator", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {
		fmt.Fprintf(UsageOutput, "Usage of %s:\n", fs.Name())
		fs.SetOutput(UsageOutput)
		fs.PrintDefaults()
		fs.SetOutput(io.Discard)
	}

	fs.StringVar(&cfg.Mode, "mode", cfg.Mode, "blood-pressure | spo2 | vitals")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "mqtt | redis | kafka | stdout")

	fs.StringVar(&cfg.MQTT.Host, "host", cfg.MQTT.Host, "MQTT host")
	fs.IntVar(&cfg.MQTT.Port, "port", cfg.MQTT.Port, "MQTT TCP port")
	fs.StringVar(&cfg.MQTT.ClientID, "client-id", cfg.MQTT.ClientID, "MQTT client id (default wisefido-simulator-<mode>-<random>)")
	fs.StringVar(&cfg.MQTT.Username, "username", cfg.MQTT.Username, "MQTT username")
	fs.StringVar(&cfg.MQTT.Password, "password", cfg.MQTT.Password, "MQTT password")
	qos := fs.Int("qos", 0, "MQTT QoS (0, 1 or 2)")

	fs.StringVar(&cfg.Redis.Addr, "redis-addr", cfg.Redis.Addr, "Redis address for --transport redis")
	fs.StringVar(&cfg.Redis.StreamPrefix, "redis-stream-prefix", cfg.Redis.StreamPrefix, "Redis stream name prefix")
	fs.Int64Var(&cfg.Redis.StreamMaxLen, "redis-stream-maxlen", 0, "approximate MAXLEN per stream (0 = unbounded)")
	kafkaBrokers := fs.String("kafka-brokers", strings.Join(cfg.Kafka.Brokers, ","), "comma separated Kafka brokers for --transport kafka")
	fs.StringVar(&cfg.Kafka.TopicPrefix, "kafka-topic-prefix", cfg.Kafka.TopicPrefix, "Kafka topic prefix")

	fs.StringVar(&cfg.Identity.DeviceID, "device-id", "", "stable device id, e.g. bp-icu-a-bed-3 (single-device modes)")
	fs.StringVar(&cfg.Identity.ICUID, "icu-id", "", "ICU identifier, e.g. icu-a (single-device modes)")
	fs.StringVar(&cfg.Identity.BedID, "bed-id", "", "bed identifier, e.g. bed-3 (single-device modes)")
	fs.IntVar(&cfg.Pacing.DeviceCount, "devices", 0, "number of simulated devices (vitals mode)")

	fs.Float64Var(&cfg.Pacing.RatePerSecond, "hz", 0, "ticks per second")
	fs.IntVar(&cfg.Pacing.JitterMs, "jitter-ms", 0, "max random delay after each publish (ms)")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed for reproducibility")

	fs.IntVar(&cfg.Ranges.Systolic.Min, "sys-min", cfg.Ranges.Systolic.Min, "systolic minimum (mmHg)")
	fs.IntVar(&cfg.Ranges.Systolic.Max, "sys-max", cfg.Ranges.Systolic.Max, "systolic maximum (mmHg)")
	fs.IntVar(&cfg.Ranges.Diastolic.Min, "dia-min", cfg.Ranges.Diastolic.Min, "diastolic minimum (mmHg)")
	fs.IntVar(&cfg.Ranges.Diastolic.Max, "dia-max", cfg.Ranges.Diastolic.Max, "diastolic maximum (mmHg)")
	fs.IntVar(&cfg.Ranges.SpO2.Min, "spo2-min", cfg.Ranges.SpO2.Min, "SpO2 minimum (%)")
	fs.IntVar(&cfg.Ranges.SpO2.Max, "spo2-max", cfg.Ranges.SpO2.Max, "SpO2 maximum (%)")
	fs.IntVar(&cfg.Ranges.Pulse.Min, "pulse-min", cfg.Ranges.Pulse.Min, "pulse minimum (bpm)")
	fs.IntVar(&cfg.Ranges.Pulse.Max, "pulse-max", cfg.Ranges.Pulse.Max, "pulse maximum (bpm)")

	fs.IntVar(&cfg.Run.MaxTicks, "ticks", 0, "stop after N ticks (0 = run until interrupted)")
	fs.StringVar(&cfg.Run.OnViolation, "on-violation", cfg.Run.OnViolation, "abort | skip")
	fs.StringVar(&cfg.SchemaDir, "schema-dir", cfg.SchemaDir, "load schemas from this directory instead of the built-in contract")
	fs.StringVar(&cfg.Metrics.Addr, "metrics-addr", cfg.Metrics.Addr, "serve Prometheus metrics on this address, e.g. :9100")
	fs.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "debug | info | warn | error")
	fs.StringVar(&cfg.Log.Format, "log-format", cfg.Log.Format, "json | console")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, &ConfigError{Problems: []string{err.Error()}}
	}
	if fs.NArg() > 0 {
		errs.addf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if d, ok := defaultsByMode[cfg.Mode]; ok {
		if !set["hz"] {
			cfg.Pacing.RatePerSecond = envFloat("SIM_HZ", d.hz, &errs)
		}
		if !set["jitter-ms"] {
			cfg.Pacing.JitterMs = envInt("SIM_JITTER_MS", d.jitterMs, &errs)
		}
		if !set["devices"] {
			cfg.Pacing.DeviceCount = envInt("SIM_DEVICES", d.devices, &errs)
		}
	}
	if !cfg.IsMultiDevice() {
		cfg.Pacing.DeviceCount = 1
	}

	cfg.Kafka.Brokers = config.SplitList(*kafkaBrokers)
	if *qos < 0 || *qos > 2 {
		errs.addf("--qos must be 0, 1 or 2, got %d", *qos)
	} else {
		cfg.MQTT.QoS = byte(*qos)
	}

	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = fmt.Sprintf("wisefido-simulator-%s-%s", cfg.Mode, uuid.NewString()[:8])
	}

	cfg.validate(&errs)
	if errs.has() {
		return nil, &ConfigError{Problems: errs}
	}
	return cfg, nil
}

// Validate 校验配置，返回 *ConfigError
func (c *Config) Validate() error {
	var errs errList
	c.validate(&errs)
	if errs.has() {
		return &ConfigError{Problems: errs}
	}
	return nil
}

func (c *Config) validate(errs *errList) {
	ensureOneOf("--mode", c.Mode, Modes, errs)
	ensureOneOf("--transport", c.Transport, publisher.Transports, errs)
	if _, err := pacer.ParseViolationPolicy(c.Run.OnViolation); err != nil {
		errs.addf("--on-violation: %v", err)
	}

	rate := c.Pacing.RatePerSecond
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		errs.addf("--hz must be > 0, got %v", rate)
	} else if _, ok := pacer.IntervalFor(rate); !ok {
		errs.addf("--hz %v out of range: interval overflows", rate)
	}
	if c.Pacing.JitterMs < 0 {
		errs.addf("--jitter-ms must be >= 0, got %d", c.Pacing.JitterMs)
	}
	if c.Run.MaxTicks < 0 {
		errs.addf("--ticks must be >= 0, got %d", c.Run.MaxTicks)
	}

	if c.IsMultiDevice() {
		if c.Pacing.DeviceCount < 1 {
			errs.addf("--devices must be >= 1, got %d", c.Pacing.DeviceCount)
		}
	} else if c.Mode == ModeBloodPressure || c.Mode == ModeSpO2 {
		if c.Identity.DeviceID == "" {
			errs.addf("--device-id is required in %s mode", c.Mode)
		}
		if c.Identity.ICUID == "" {
			errs.addf("--icu-id is required in %s mode", c.Mode)
		}
		if c.Identity.BedID == "" {
			errs.addf("--bed-id is required in %s mode", c.Mode)
		}
	}

	checkRange("systolic", c.Ranges.Systolic, errs)
	checkRange("diastolic", c.Ranges.Diastolic, errs)
	checkRange("spo2", c.Ranges.SpO2, errs)
	checkRange("pulse", c.Ranges.Pulse, errs)

	switch c.Transport {
	case publisher.TransportMQTT:
		if c.MQTT.Host == "" {
			errs.addf("--host must not be empty")
		}
		if c.MQTT.Port < 1 || c.MQTT.Port > 65535 {
			errs.addf("--port must be in [1, 65535], got %d", c.MQTT.Port)
		}
	case publisher.TransportRedis:
		if c.Redis.Addr == "" {
			errs.addf("--redis-addr must not be empty")
		}
	case publisher.TransportKafka:
		if len(c.Kafka.Brokers) == 0 {
			errs.addf("--kafka-brokers must list at least one broker")
		}
	}
}

func checkRange(name string, r models.Range, errs *errList) {
	if r.Min > r.Max {
		errs.addf("%s range min %d > max %d", name, r.Min, r.Max)
	}
}

func ensureOneOf(key, val string, allowed []string, errs *errList) {
	for _, a := range allowed {
		if val == a {
			return
		}
	}
	errs.addf("invalid %s %q (allowed: %s)", key, val, strings.Join(allowed, ", "))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envInt(key string, defaultValue int, errs *errList) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		errs.addf("%s must be an integer, got %q", key, raw)
		return defaultValue
	}
	return v
}

func envFloat(key string, defaultValue float64, errs *errList) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		errs.addf("%s must be a number, got %q", key, raw)
		return defaultValue
	}
	return v
}
