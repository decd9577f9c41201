package schema

import "fmt"

// LoadError schema 文件缺失或无法编译，启动阶段致命
type LoadError struct {
	Schema string
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load schema %s from %s: %v", e.Schema, e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// ViolationError 消息不符合 schema；该样本被丢弃，不会发布
type ViolationError struct {
	Schema     string
	Field      string // 实例路径，如 "spo2"；根对象为 "(root)"
	Constraint string // 违反的关键字，如 "maximum" / "required"
	Message    string
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("schema %s: field %s violates %s: %s", e.Schema, e.Field, e.Constraint, e.Message)
}
