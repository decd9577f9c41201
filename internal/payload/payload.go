package payload

import (
	"fmt"
	"strconv"

	"wisefido-simulator/internal/models"

	jsoniter "github.com/json-iterator/go"
)

// 与 encoding/json 输出一致（字段顺序按结构体声明）
var jsonStd = jsoniter.ConfigCompatibleWithStandardLibrary

// Format 信封格式
type Format int

const (
	// FormatContract 单设备模式：contractVersion/deviceId/icuId/bedId/timestampMs
	FormatContract Format = iota
	// FormatCompact 多设备模式：deviceId(int)/读数字段/timestamp
	FormatCompact
)

func (f Format) String() string {
	if f == FormatCompact {
		return "compact"
	}
	return "contract"
}

// Payload 待校验、待发布的一条消息
type Payload struct {
	Channel     string
	Kind        models.VitalKind
	Schema      string // 校验用的 schema 文件名
	Device      string // 日志用的设备标识
	TimestampMs int64
	Body        interface{}
}

// Marshal 序列化为线上 JSON
func (p Payload) Marshal() ([]byte, error) {
	b, err := jsonStd.Marshal(p.Body)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload for %s: %w", p.Kind, p.Device, err)
	}
	return b, nil
}

type contractBloodPressure struct {
	models.Envelope
	models.BloodPressure
}

type contractSpO2 struct {
	models.Envelope
	models.SpO2
}

type contractPulse struct {
	models.Envelope
	models.Pulse
}

type compactBloodPressure struct {
	DeviceID int `json:"deviceId"`
	models.BloodPressure
	Timestamp int64 `json:"timestamp"`
}

type compactSpO2 struct {
	DeviceID int `json:"deviceId"`
	models.SpO2
	Timestamp int64 `json:"timestamp"`
}

type compactPulse struct {
	DeviceID int `json:"deviceId"`
	models.Pulse
	Timestamp int64 `json:"timestamp"`
}

// Contract 合并设备身份、时间戳和读数
func Contract(identity models.DeviceIdentity, timestampMs int64, reading models.VitalReading) Payload {
	env := models.NewEnvelope(identity, timestampMs)

	var body interface{}
	switch r := reading.(type) {
	case models.BloodPressure:
		body = contractBloodPressure{Envelope: env, BloodPressure: r}
	case models.SpO2:
		body = contractSpO2{Envelope: env, SpO2: r}
	case models.Pulse:
		body = contractPulse{Envelope: env, Pulse: r}
	}

	return Payload{
		Channel:     reading.Kind().Channel(),
		Kind:        reading.Kind(),
		Schema:      SchemaName(FormatContract, reading.Kind()),
		Device:      identity.DeviceID,
		TimestampMs: timestampMs,
		Body:        body,
	}
}

// Compact 多设备模式的简化信封
func Compact(deviceNumber int, timestampMs int64, reading models.VitalReading) Payload {
	var body interface{}
	switch r := reading.(type) {
	case models.BloodPressure:
		body = compactBloodPressure{DeviceID: deviceNumber, BloodPressure: r, Timestamp: timestampMs}
	case models.SpO2:
		body = compactSpO2{DeviceID: deviceNumber, SpO2: r, Timestamp: timestampMs}
	case models.Pulse:
		body = compactPulse{DeviceID: deviceNumber, Pulse: r, Timestamp: timestampMs}
	}

	return Payload{
		Channel:     reading.Kind().Channel(),
		Kind:        reading.Kind(),
		Schema:      SchemaName(FormatCompact, reading.Kind()),
		Device:      strconv.Itoa(deviceNumber),
		TimestampMs: timestampMs,
		Body:        body,
	}
}

// SchemaName 每种 (信封格式, 类型) 对应一个 schema 文件
func SchemaName(format Format, kind models.VitalKind) string {
	base := "pulse"
	switch kind {
	case models.KindBloodPressure:
		base = "blood_pressure"
	case models.KindSpO2:
		base = "spo2"
	}
	if format == FormatCompact {
		return base + ".compact.schema.json"
	}
	return base + ".schema.json"
}
