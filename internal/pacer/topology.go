package pacer

import (
	"wisefido-simulator/internal/models"
	"wisefido-simulator/internal/payload"
)

// Topology 一个 tick 内按顺序发布的流
type Topology []payload.Stream

// SingleStream 单设备单通道
func SingleStream(identity models.DeviceIdentity, kind models.VitalKind) Topology {
	return Topology{payload.ContractStream(identity, kind)}
}

// MultiDevice 设备号 1..count 升序，每台设备依次 pulse、blood-pressure、spo2
func MultiDevice(count int) Topology {
	topology := make(Topology, 0, count*len(models.MixedKinds))
	for device := 1; device <= count; device++ {
		for _, kind := range models.MixedKinds {
			topology = append(topology, payload.CompactStream(device, kind))
		}
	}
	return topology
}

// SchemaNames 拓扑用到的所有 schema（去重，保持首次出现顺序）
func (t Topology) SchemaNames() []string {
	seen := make(map[string]bool, len(t))
	var names []string
	for _, s := range t {
		name := s.SchemaName()
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}
