package models

import "fmt"

// Range 闭区间 [Min, Max]
type Range struct {
	Min int
	Max int
}

func (r Range) String() string {
	return fmt.Sprintf("[%d, %d]", r.Min, r.Max)
}

// Contains 判断 v 是否在闭区间内
func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// RangeConfig 各生命体征的取值范围
type RangeConfig struct {
	Systolic  Range
	Diastolic Range
	SpO2      Range
	Pulse     Range
}

// DefaultRanges 默认范围
func DefaultRanges() RangeConfig {
	return RangeConfig{
		Systolic:  Range{Min: 90, Max: 150},
		Diastolic: Range{Min: 55, Max: 95},
		SpO2:      Range{Min: 90, Max: 100},
		Pulse:     Range{Min: 55, Max: 120},
	}
}

// PacingConfig 发送节奏配置
type PacingConfig struct {
	RatePerSecond float64
	JitterMs      int
	DeviceCount   int // 仅多设备模式
}
