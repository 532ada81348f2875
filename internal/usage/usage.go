package usage

import (
	"encoding/json"
	"strings"

	"doctrans/pkg/contract"
)

// Normalize 依模型配置的点路径声明归一化厂商原始用量载荷。
// 路径缺失/类型不符一律取 0；厂商知识全部留在配置。
func Normalize(raw map[string]any, spec map[string]contract.UsageSpec) contract.UsageResult {
	out := contract.UsageResult{}
	for category, sp := range spec {
		c := contract.UsageCategory{Total: IntAt(raw, sp.Total)}
		if len(sp.Breakdown) > 0 {
			c.Breakdown = make(map[string]int, len(sp.Breakdown))
			for label, path := range sp.Breakdown {
				c.Breakdown[label] = IntAt(raw, path)
			}
		}
		out[category] = c
	}
	return out
}

// IntAt 取点路径处的整数值；缺失/非数值返回 0。
func IntAt(v any, path string) int {
	if strings.TrimSpace(path) == "" {
		return 0
	}
	cur := v
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return 0
		}
		cur, ok = m[seg]
		if !ok {
			return 0
		}
	}
	return asInt(cur)
}

func asInt(v any) int {
	switch x := v.(type) {
	case int:
		return x
	case int64:
		return int(x)
	case float64:
		return int(x)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return int(i)
		}
		if f, err := x.Float64(); err == nil {
			return int(f)
		}
	}
	return 0
}
