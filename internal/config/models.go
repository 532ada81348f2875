package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"doctrans/pkg/contract"
)

// Models: 模型注册表（构造后只读，可并发读）。
// 全部厂商知识（端点、凭证位、用量路径）都在声明文档里。
type Models struct {
	byKey map[string]*contract.ModelConfig
}

type modelsDoc struct {
	Models map[string]*contract.ModelConfig `yaml:"models"`
}

// LoadModels 装载模型声明；path 为空时使用编译期内置文档。
func LoadModels(path string) (*Models, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultModels(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("models read: %w", err)
	}
	return ParseModels(b)
}

// ParseModels 解析 YAML 声明（严格拒绝未知字段）。
func ParseModels(b []byte) (*Models, error) {
	var doc modelsDoc
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("models parse: %w", err)
	}
	m := &Models{byKey: make(map[string]*contract.ModelConfig, len(doc.Models))}
	for key, cfg := range doc.Models {
		if cfg == nil {
			return nil, fmt.Errorf("models: %w: entry %q empty", contract.ErrConfig, key)
		}
		if strings.TrimSpace(cfg.Vendor) == "" {
			return nil, fmt.Errorf("models: %w: entry %q missing vendor", contract.ErrConfig, key)
		}
		if strings.TrimSpace(cfg.Endpoint) == "" {
			return nil, fmt.Errorf("models: %w: entry %q missing endpoint", contract.ErrConfig, key)
		}
		cfg.Key = key
		m.byKey[key] = cfg
	}
	return m, nil
}

// DefaultModels 返回编译期内置注册表。
func DefaultModels() *Models {
	m, err := ParseModels([]byte(defaultModelsYAML))
	if err != nil {
		// 内置文档解析失败属构建错误
		panic(err)
	}
	return m
}

// Has 判断模型键是否登记。
func (m *Models) Has(key string) bool {
	_, ok := m.byKey[key]
	return ok
}

// Get 返回模型声明；未登记返回 nil。
func (m *Models) Get(key string) *contract.ModelConfig {
	return m.byKey[key]
}

// Keys 返回全部模型键（排序稳定）。
func (m *Models) Keys() []string {
	keys := make([]string, 0, len(m.byKey))
	for k := range m.byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// 内置模型声明。用量路径为厂商原始载荷上的点路径。
const defaultModelsYAML = `
models:
  openai:
    vendor: openai
    endpoint: https://api.openai.com/v1/chat/completions
    model: gpt-4o-mini
    auth:
      env: OPENAI_API_KEY
      placement: header
      field: Authorization
      prefix: "Bearer "
    defaults:
      temperature: 0.2
    usage:
      tokens:
        total: total_tokens
        breakdown:
          input: prompt_tokens
          output: completion_tokens
    structured_errors: true
    help_url: https://platform.openai.com/api-keys
    notes: OpenAI Chat Completions。

  gemini:
    vendor: gemini
    endpoint: https://generativelanguage.googleapis.com/v1beta/models/{model}:generateContent
    model: gemini-1.5-flash
    auth:
      env: GEMINI_API_KEY
      placement: query
      field: key
    usage:
      tokens:
        total: totalTokenCount
        breakdown:
          input: promptTokenCount
          output: candidatesTokenCount
    structured_errors: true
    help_url: https://aistudio.google.com/app/apikey
    notes: Google Generative Language API。

  deepl:
    vendor: deepl
    endpoint: https://api-free.deepl.com/v2/translate
    auth:
      env: DEEPL_API_KEY
      placement: header
      field: Authorization
      prefix: "DeepL-Auth-Key "
    char_limit: 120000
    variables: []
    structured_errors: true
    help_url: https://www.deepl.com/account/summary
    notes: DeepL REST；表单编码，无逐 token 用量。
`
