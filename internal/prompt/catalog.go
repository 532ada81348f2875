package prompt

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"doctrans/pkg/contract"
)

// Template: 单一 kind 的格式→模板映射与备注。
type Template struct {
	Formats map[string]string `yaml:"formats"`
	Notes   string            `yaml:"notes"`
}

// Info: List 产出的只读条目。
type Info struct {
	Formats []string `json:"formats"`
	Notes   string   `json:"notes,omitempty"`
}

// Catalog: (kind, format) → 模板 的提示词目录。
// 构造后只读；由声明式 YAML 文档装载，运行期不做 I/O。
type Catalog struct {
	kinds map[string]Template
}

// NewCatalog 从已解析文档构造。
func NewCatalog(kinds map[string]Template) *Catalog {
	if kinds == nil {
		kinds = map[string]Template{}
	}
	return &Catalog{kinds: kinds}
}

// Load 从 YAML 文件装载目录（构造期 I/O）。
func Load(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("prompt catalog read: %w", err)
	}
	return Parse(b)
}

// Parse 解析 YAML 文档。
func Parse(b []byte) (*Catalog, error) {
	var kinds map[string]Template
	if err := yaml.Unmarshal(b, &kinds); err != nil {
		return nil, fmt.Errorf("prompt catalog parse: %w", err)
	}
	return NewCatalog(kinds), nil
}

// Default 返回编译期内置目录。
func Default() *Catalog {
	c, err := Parse([]byte(defaultCatalogYAML))
	if err != nil {
		// 内置文档解析失败属构建错误
		panic(err)
	}
	return c
}

// Render 渲染 (kind, format) 模板。
// 替换为字面 {name}→值，不是模板语言；未知 {name} 原样保留。
// kind 缺失报 ErrTemplateNotFound；format 缺失报 ErrFormatNotFound。
func (c *Catalog) Render(kind, format string, vars map[string]string) (string, error) {
	t, ok := c.kinds[kind]
	if !ok {
		return "", fmt.Errorf("prompt %q: %w", kind, contract.ErrTemplateNotFound)
	}
	s, ok := t.Formats[format]
	if !ok {
		return "", fmt.Errorf("prompt %q/%q: %w", kind, format, contract.ErrFormatNotFound)
	}
	for k, v := range vars {
		s = strings.ReplaceAll(s, "{"+k+"}", v)
	}
	return s, nil
}

// List 返回 kind → {formats, notes}（formats 排序稳定）。
func (c *Catalog) List() map[string]Info {
	out := make(map[string]Info, len(c.kinds))
	for kind, t := range c.kinds {
		formats := make([]string, 0, len(t.Formats))
		for f := range t.Formats {
			formats = append(formats, f)
		}
		sort.Strings(formats)
		out[kind] = Info{Formats: formats, Notes: t.Notes}
	}
	return out
}

// 内置目录。保留变量：{source} {target} {start} {end} {context}。
// {start}/{end} 为哨兵标记，与占位符语法 @@N@@ 不冲突。
const defaultCatalogYAML = `
translate:
  notes: 通用文档翻译；@@N@@ 占位符必须原样保留。
  formats:
    text: |
      You are a professional translator. Translate the user content from {source} into {target}.
      Rules:
      - Preserve every placeholder of the form @@N@@ exactly as-is. Do not translate, move or delete them.
      - Do not add commentary or explanations.
      - The user content is wrapped between {start} and {end}. Return ONLY the translation, wrapped
        between the same two markers: {start} and {end}.
      {context}
    html: |
      You are a professional translator. Translate the user content from {source} into {target}.
      The content is an HTML fragment.
      Rules:
      - Preserve every HTML tag, attribute and entity exactly as-is; translate only human-readable text.
      - Preserve every placeholder of the form @@N@@ exactly as-is.
      - The user content is wrapped between {start} and {end}. Return ONLY the translated fragment,
        wrapped between the same two markers: {start} and {end}.
      {context}
    json: |
      You are a professional translator. Translate the user content from {source} into {target}.
      The content is a JSON document.
      Rules:
      - Keep the JSON structure unchanged: same keys, same nesting, same array lengths and order.
      - Translate only string values; never translate keys, numbers, booleans or null.
      - Preserve every placeholder of the form @@N@@ exactly as-is.
      - The user content is wrapped between {start} and {end}. Return ONLY the translated JSON,
        wrapped between the same two markers: {start} and {end}.
      {context}
`
