package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// 数字解码为 json.Number，保留整数/小数的区别
var jsonNumber = jsoniter.Config{UseNumber: true}.Froze()

// Set 启动时预编译好的 schema 集合，运行期只读
type Set struct {
	source  string
	schemas map[string]*jsonschema.Schema
}

// Load 从 fsys 读取并编译指定的 schema 文件。
// source 仅用于错误信息（目录名或 "embedded"）。
func Load(fsys fs.FS, source string, names ...string) (*Set, error) {
	set := &Set{
		source:  source,
		schemas: make(map[string]*jsonschema.Schema, len(names)),
	}

	for _, name := range names {
		if _, ok := set.schemas[name]; ok {
			continue
		}

		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, &LoadError{Schema: name, Source: source, Err: err}
		}

		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
			return nil, &LoadError{Schema: name, Source: source, Err: err}
		}
		compiled, err := compiler.Compile(name)
		if err != nil {
			return nil, &LoadError{Schema: name, Source: source, Err: err}
		}
		set.schemas[name] = compiled
	}

	return set, nil
}

// Names 已加载的 schema 名称（排序）
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.schemas))
	for name := range s.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Source schema 来源
func (s *Set) Source() string {
	return s.source
}

// Validate 校验序列化后的消息体。
// 失败时返回 *ViolationError；未加载的 schema 名返回普通错误。
func (s *Set) Validate(name string, body []byte) error {
	compiled, ok := s.schemas[name]
	if !ok {
		return fmt.Errorf("schema %s not loaded from %s", name, s.source)
	}

	var instance interface{}
	if err := jsonNumber.Unmarshal(body, &instance); err != nil {
		return &ViolationError{
			Schema:     name,
			Field:      "(root)",
			Constraint: "json",
			Message:    err.Error(),
		}
	}

	err := compiled.Validate(instance)
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return fmt.Errorf("validate against %s: %w", name, err)
	}
	return toViolation(name, verr)
}

// toViolation 取第一个叶子原因，给出具体字段和关键字
func toViolation(name string, verr *jsonschema.ValidationError) *ViolationError {
	leaf := verr
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}

	field := strings.ReplaceAll(strings.TrimPrefix(leaf.InstanceLocation, "/"), "/", ".")

	constraint := leaf.KeywordLocation
	if i := strings.LastIndex(constraint, "/"); i >= 0 {
		constraint = constraint[i+1:]
	}

	// required 挂在父对象上，字段名只在消息里："missing properties: 'spo2'"
	if constraint == "required" {
		if missing := firstQuoted(leaf.Message); missing != "" {
			if field == "" {
				field = missing
			} else {
				field += "." + missing
			}
		}
	}
	if field == "" {
		field = "(root)"
	}

	return &ViolationError{
		Schema:     name,
		Field:      field,
		Constraint: constraint,
		Message:    leaf.Message,
	}
}

func firstQuoted(msg string) string {
	start := strings.IndexByte(msg, '\'')
	if start < 0 {
		return ""
	}
	end := strings.IndexByte(msg[start+1:], '\'')
	if end < 0 {
		return ""
	}
	return msg[start+1 : start+1+end]
}
