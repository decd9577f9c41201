package models

// ContractVersion 消息契约版本
const ContractVersion = 1

// DeviceIdentity 设备身份，启动时从配置构建，运行期间只读
type DeviceIdentity struct {
	DeviceID string
	ICUID    string
	BedID    string
}

// Envelope 单设备模式的消息信封
type Envelope struct {
	ContractVersion int    `json:"contractVersion"`
	DeviceID        string `json:"deviceId"`
	ICUID           string `json:"icuId"`
	BedID           string `json:"bedId"`
	TimestampMs     int64  `json:"timestampMs"`
}

// NewEnvelope 用当前时间戳构建信封
func NewEnvelope(identity DeviceIdentity, timestampMs int64) Envelope {
	return Envelope{
		ContractVersion: ContractVersion,
		DeviceID:        identity.DeviceID,
		ICUID:           identity.ICUID,
		BedID:           identity.BedID,
		TimestampMs:     timestampMs,
	}
}
