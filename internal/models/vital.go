package models

import "fmt"

// VitalKind 生命体征类型；声明顺序即多设备模式下的发布顺序
type VitalKind int

const (
	KindPulse VitalKind = iota
	KindBloodPressure
	KindSpO2
)

// 总线通道
const (
	ChannelBloodPressure = "icu/bloodPressure"
	ChannelSpO2          = "icu/spo2"
	ChannelPulse         = "icu/pulse"
)

// MixedKinds 多设备模式每台设备每个tick的发布顺序
var MixedKinds = []VitalKind{KindPulse, KindBloodPressure, KindSpO2}

func (k VitalKind) String() string {
	switch k {
	case KindPulse:
		return "pulse"
	case KindBloodPressure:
		return "blood-pressure"
	case KindSpO2:
		return "spo2"
	default:
		return fmt.Sprintf("VitalKind(%d)", int(k))
	}
}

// Channel 该类型读数发布到的通道
func (k VitalKind) Channel() string {
	switch k {
	case KindPulse:
		return ChannelPulse
	case KindBloodPressure:
		return ChannelBloodPressure
	case KindSpO2:
		return ChannelSpO2
	default:
		return ""
	}
}

// ParseVitalKind 解析 "blood-pressure" / "spo2" / "pulse"
func ParseVitalKind(s string) (VitalKind, error) {
	switch s {
	case "pulse":
		return KindPulse, nil
	case "blood-pressure", "bp":
		return KindBloodPressure, nil
	case "spo2":
		return KindSpO2, nil
	default:
		return 0, fmt.Errorf("unknown vital kind %q", s)
	}
}

// VitalReading 一次采样结果（BloodPressure / SpO2 / Pulse 之一）
type VitalReading interface {
	Kind() VitalKind
	isVitalReading()
}

// BloodPressure 血压读数，Diastolic < Systolic
type BloodPressure struct {
	Systolic  int `json:"systolic"`
	Diastolic int `json:"diastolic"`
}

// SpO2 血氧饱和度读数
type SpO2 struct {
	SpO2 int `json:"spo2"`
}

// Pulse 脉搏读数
type Pulse struct {
	BPM int `json:"bpm"`
}

func (BloodPressure) Kind() VitalKind { return KindBloodPressure }
func (SpO2) Kind() VitalKind          { return KindSpO2 }
func (Pulse) Kind() VitalKind         { return KindPulse }

func (BloodPressure) isVitalReading() {}
func (SpO2) isVitalReading()          {}
func (Pulse) isVitalReading()         {}
