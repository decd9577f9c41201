// Package contract 消息契约：每种 (生命体征, 信封格式) 一个 JSON Schema (Draft 2020-12)
package contract

import "embed"

// FS 内置的 schema 文件，--schema-dir 未指定时使用
//
//go:embed *.schema.json
var FS embed.FS
