package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"
)

// Defaults 返回带有安全默认值的 Config 雏形。
// 注意：Model 不设默认（必须由 JSON/ENV/CLI 提供）。
func Defaults() Config {
	return Config{
		Source:         "auto",
		Format:         "text",
		TimeoutSeconds: 60,
		Logging:        Logging{Level: "info"},
	}
}

// LoadJSON 从文件路径或原始 JSON 解析 Config（严格拒绝未知字段）。
func LoadJSON(path string, raw []byte) (Config, error) {
	var cfg Config
	var r io.Reader
	switch {
	case len(raw) > 0:
		r = bytes.NewReader(raw)
	case path != "":
		f, err := os.Open(path)
		if err != nil {
			return cfg, err
		}
		defer f.Close()
		r = f
	default:
		return cfg, errors.New("no config source provided")
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Merge 按优先级合并（后者覆盖前者）。
// 标量与列表为整体替换；Variables 逐键覆盖；布尔真值才覆盖
// （false 无法区分"未设置"，显式关闭走各自的 no_* 通道）。
func Merge(base, over Config) Config {
	out := base
	if strings.TrimSpace(over.Model) != "" {
		out.Model = strings.TrimSpace(over.Model)
	}
	if strings.TrimSpace(over.Source) != "" {
		out.Source = strings.TrimSpace(over.Source)
	}
	if strings.TrimSpace(over.Target) != "" {
		out.Target = strings.TrimSpace(over.Target)
	}
	if strings.TrimSpace(over.Format) != "" {
		out.Format = strings.TrimSpace(over.Format)
	}
	if over.Filters != nil {
		out.Filters = cloneStrings(over.Filters)
	}
	if over.Repairs != nil {
		out.Repairs = cloneStrings(over.Repairs)
	}
	if strings.TrimSpace(over.Context) != "" {
		out.Context = over.Context
	}
	if len(over.Variables) > 0 {
		if out.Variables == nil {
			out.Variables = make(map[string]string, len(over.Variables))
		}
		for k, v := range over.Variables {
			out.Variables[k] = v
		}
	}
	if over.DryRun {
		out.DryRun = true
	}
	if over.Verbose {
		out.Verbose = true
	}
	if strings.TrimSpace(over.Proxy) != "" {
		out.Proxy = strings.TrimSpace(over.Proxy)
	}
	if over.TimeoutSeconds > 0 {
		out.TimeoutSeconds = over.TimeoutSeconds
	}
	if strings.TrimSpace(over.Logging.Level) != "" {
		out.Logging.Level = strings.TrimSpace(over.Logging.Level)
	}
	if strings.TrimSpace(over.ModelsPath) != "" {
		out.ModelsPath = strings.TrimSpace(over.ModelsPath)
	}
	if strings.TrimSpace(over.PromptsPath) != "" {
		out.PromptsPath = strings.TrimSpace(over.PromptsPath)
	}
	return out
}

func cloneStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func splitComma(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
