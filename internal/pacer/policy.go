package pacer

import "fmt"

// ViolationPolicy 样本校验失败后的处理方式
type ViolationPolicy int

const (
	// PolicyAbort 丢弃样本并结束运行
	PolicyAbort ViolationPolicy = iota
	// PolicySkip 丢弃样本，记录日志后继续
	PolicySkip
)

func (p ViolationPolicy) String() string {
	if p == PolicySkip {
		return "skip"
	}
	return "abort"
}

// ParseViolationPolicy 解析 "abort" / "skip"
func ParseViolationPolicy(s string) (ViolationPolicy, error) {
	switch s {
	case "abort", "":
		return PolicyAbort, nil
	case "skip":
		return PolicySkip, nil
	default:
		return PolicyAbort, fmt.Errorf("unknown violation policy %q (want abort or skip)", s)
	}
}
