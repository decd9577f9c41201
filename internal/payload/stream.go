package payload

import (
	"fmt"
	"strconv"

	"wisefido-simulator/internal/models"
)

// Stream 一个 (设备, 生命体征) 发布流
type Stream struct {
	Kind         models.VitalKind
	Format       Format
	Identity     models.DeviceIdentity // FormatContract
	DeviceNumber int                   // FormatCompact，从 1 开始
}

// ContractStream 单设备流
func ContractStream(identity models.DeviceIdentity, kind models.VitalKind) Stream {
	return Stream{Kind: kind, Format: FormatContract, Identity: identity}
}

// CompactStream 多设备模式中的一个流
func CompactStream(deviceNumber int, kind models.VitalKind) Stream {
	return Stream{Kind: kind, Format: FormatCompact, DeviceNumber: deviceNumber}
}

// Channel 发布通道
func (s Stream) Channel() string {
	return s.Kind.Channel()
}

// SchemaName 校验用的 schema
func (s Stream) SchemaName() string {
	return SchemaName(s.Format, s.Kind)
}

// Device 日志用的设备标识
func (s Stream) Device() string {
	if s.Format == FormatCompact {
		return strconv.Itoa(s.DeviceNumber)
	}
	return s.Identity.DeviceID
}

// Build 用读数构建消息；读数类型必须与流一致
func (s Stream) Build(timestampMs int64, reading models.VitalReading) (Payload, error) {
	if reading == nil || reading.Kind() != s.Kind {
		return Payload{}, fmt.Errorf("stream %s/%s cannot carry reading %T", s.Device(), s.Kind, reading)
	}
	if s.Format == FormatCompact {
		return Compact(s.DeviceNumber, timestampMs, reading), nil
	}
	return Contract(s.Identity, timestampMs, reading), nil
}
