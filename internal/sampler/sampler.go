package sampler

import (
	"time"

	"wisefido-simulator/internal/models"
)

// DiastolicGap 舒张压上限 = 收缩压 - DiastolicGap
const DiastolicGap = 10

// Sampler 按范围配置生成生命体征读数。
// 所有设备、所有类型以及抖动共用同一个随机流，抽取顺序固定。
type Sampler struct {
	src    Source
	ranges models.RangeConfig
}

// New 创建采样器
func New(src Source, ranges models.RangeConfig) *Sampler {
	return &Sampler{src: src, ranges: ranges}
}

// Ranges 当前范围配置
func (s *Sampler) Ranges() models.RangeConfig {
	return s.ranges
}

// Sample 生成一个指定类型的读数
func (s *Sampler) Sample(kind models.VitalKind) models.VitalReading {
	switch kind {
	case models.KindBloodPressure:
		return s.BloodPressure()
	case models.KindSpO2:
		return s.SpO2()
	default:
		return s.Pulse()
	}
}

// BloodPressure 先抽收缩压，再抽舒张压候选值，舒张压截断到 systolic-10。
// 截断后可能低于 Diastolic.Min。
func (s *Sampler) BloodPressure() models.BloodPressure {
	systolic := s.src.IntRange(s.ranges.Systolic.Min, s.ranges.Systolic.Max)
	candidate := s.src.IntRange(s.ranges.Diastolic.Min, s.ranges.Diastolic.Max)
	return models.BloodPressure{
		Systolic:  systolic,
		Diastolic: min(candidate, systolic-DiastolicGap),
	}
}

// SpO2 生成血氧读数
func (s *Sampler) SpO2() models.SpO2 {
	return models.SpO2{SpO2: s.src.IntRange(s.ranges.SpO2.Min, s.ranges.SpO2.Max)}
}

// Pulse 生成脉搏读数
func (s *Sampler) Pulse() models.Pulse {
	return models.Pulse{BPM: s.src.IntRange(s.ranges.Pulse.Min, s.ranges.Pulse.Max)}
}

// Jitter 抽取 [0, maxMs] 毫秒的抖动；maxMs <= 0 时不消耗随机数
func (s *Sampler) Jitter(maxMs int) time.Duration {
	if maxMs <= 0 {
		return 0
	}
	return time.Duration(s.src.IntRange(0, maxMs)) * time.Millisecond
}
