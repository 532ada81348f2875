package usage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"doctrans/pkg/contract"
)

// TestIntAt 点路径取值；缺省为 0。
func TestIntAt(t *testing.T) {
	raw := map[string]any{
		"total_tokens": float64(30),
		"detail": map[string]any{
			"prompt":     float64(10),
			"completion": float64(20),
		},
	}
	assert.Equal(t, 30, IntAt(raw, "total_tokens"))
	assert.Equal(t, 10, IntAt(raw, "detail.prompt"))
	assert.Equal(t, 0, IntAt(raw, "detail.missing"))
	assert.Equal(t, 0, IntAt(raw, "no.such.path"))
	assert.Equal(t, 0, IntAt(raw, ""))
	assert.Equal(t, 0, IntAt(nil, "a"))
	// 中间段不是对象
	assert.Equal(t, 0, IntAt(raw, "total_tokens.deeper"))
}

// TestNormalize 类别与分项归一化。
func TestNormalize(t *testing.T) {
	raw := map[string]any{
		"prompt_tokens":     float64(11),
		"completion_tokens": float64(7),
		"total_tokens":      float64(18),
	}
	spec := map[string]contract.UsageSpec{
		"tokens": {
			Total: "total_tokens",
			Breakdown: map[string]string{
				"input":  "prompt_tokens",
				"output": "completion_tokens",
			},
		},
		"requests": {Total: "missing_counter"},
	}
	got := Normalize(raw, spec)
	assert.Equal(t, 18, got["tokens"].Total)
	assert.Equal(t, 11, got["tokens"].Breakdown["input"])
	assert.Equal(t, 7, got["tokens"].Breakdown["output"])
	assert.Equal(t, 0, got["requests"].Total)
	assert.Nil(t, got["requests"].Breakdown)
}

// TestNormalizeNilRaw 原始载荷缺失（如 dry run）时全部为 0。
func TestNormalizeNilRaw(t *testing.T) {
	spec := map[string]contract.UsageSpec{"tokens": {Total: "total_tokens"}}
	got := Normalize(nil, spec)
	assert.Equal(t, 0, got["tokens"].Total)
}
