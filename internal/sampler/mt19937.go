package sampler

import "math/bits"

const (
	mtN         = 624
	mtM         = 397
	mtMatrixA   = 0x9908b0df
	mtUpperMask = 0x80000000
	mtLowerMask = 0x7fffffff
)

// Source 闭区间整数随机源
type Source interface {
	IntRange(lo, hi int) int
}

// MT19937 32位梅森旋转随机流。
//
// 种子按 init_by_array 展开（|seed| 的 32 位小端分组），有界整数用
// 位长拒绝采样：k = bitlen(n)，取高 k 位，>= n 则重抽。这样同一个种子
// 得到的读数序列与既有的录制数据逐值一致。
type MT19937 struct {
	state [mtN]uint32
	index int
}

// NewMT19937 创建随机流
func NewMT19937(seed int64) *MT19937 {
	m := &MT19937{}
	m.seedByArray(seedKey(seed))
	return m
}

func seedKey(seed int64) []uint32 {
	u := uint64(seed)
	if seed < 0 {
		u = -u
	}
	key := []uint32{uint32(u)}
	for u >>= 32; u != 0; u >>= 32 {
		key = append(key, uint32(u))
	}
	return key
}

func (m *MT19937) seedLinear(s uint32) {
	m.state[0] = s
	for i := 1; i < mtN; i++ {
		prev := m.state[i-1]
		m.state[i] = 1812433253*(prev^(prev>>30)) + uint32(i)
	}
	m.index = mtN
}

func (m *MT19937) seedByArray(key []uint32) {
	m.seedLinear(19650218)
	mt := &m.state

	i, j := 1, 0
	k := mtN
	if len(key) > k {
		k = len(key)
	}
	for ; k > 0; k-- {
		prev := mt[i-1]
		mt[i] = (mt[i] ^ ((prev ^ (prev >> 30)) * 1664525)) + key[j] + uint32(j)
		i++
		j++
		if i >= mtN {
			mt[0] = mt[mtN-1]
			i = 1
		}
		if j >= len(key) {
			j = 0
		}
	}
	for k = mtN - 1; k > 0; k-- {
		prev := mt[i-1]
		mt[i] = (mt[i] ^ ((prev ^ (prev >> 30)) * 1566083941)) - uint32(i)
		i++
		if i >= mtN {
			mt[0] = mt[mtN-1]
			i = 1
		}
	}
	mt[0] = 0x80000000
}

func (m *MT19937) twist() {
	mt := &m.state
	for kk := 0; kk < mtN; kk++ {
		y := (mt[kk] & mtUpperMask) | (mt[(kk+1)%mtN] & mtLowerMask)
		v := mt[(kk+mtM)%mtN] ^ (y >> 1)
		if y&1 != 0 {
			v ^= mtMatrixA
		}
		mt[kk] = v
	}
	m.index = 0
}

// Uint32 下一个 32 位输出
func (m *MT19937) Uint32() uint32 {
	if m.index >= mtN {
		m.twist()
	}
	y := m.state[m.index]
	m.index++

	y ^= y >> 11
	y ^= (y << 7) & 0x9d2c5680
	y ^= (y << 15) & 0xefc60000
	y ^= y >> 18
	return y
}

// Bits 取 k 位随机数（k <= 64），低位字先生成
func (m *MT19937) Bits(k int) uint64 {
	if k <= 0 {
		return 0
	}
	if k <= 32 {
		return uint64(m.Uint32() >> (32 - k))
	}
	low := uint64(m.Uint32())
	high := m.Uint32()
	if rest := k - 32; rest < 32 {
		high >>= 32 - rest
	}
	return low | uint64(high)<<32
}

// IntRange 闭区间 [lo, hi] 上的均匀整数；hi < lo 时 panic
func (m *MT19937) IntRange(lo, hi int) int {
	if hi < lo {
		panic("sampler: IntRange called with hi < lo")
	}
	n := uint64(int64(hi)-int64(lo)) + 1
	if n == 0 {
		// 跨度覆盖整个 int64
		return int(int64(m.Bits(64)))
	}
	k := bits.Len64(n)
	r := m.Bits(k)
	for r >= n {
		r = m.Bits(k)
	}
	return lo + int(r)
}
