package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doctrans/internal/prompt"
	"doctrans/pkg/contract"
)

// fakeRegistry: 测试用模型注册表。
type fakeRegistry map[string]*contract.ModelConfig

func (r fakeRegistry) Has(key string) bool               { _, ok := r[key]; return ok }
func (r fakeRegistry) Get(key string) *contract.ModelConfig { return r[key] }

// fakeHTTP: 录制请求并返回预置响应。
type fakeHTTP struct {
	calls int
	last  contract.HTTPRequest
	res   contract.HTTPResult
	err   error
}

func (f *fakeHTTP) Do(_ context.Context, req contract.HTTPRequest) (contract.HTTPResult, error) {
	f.calls++
	f.last = req
	res := f.res
	res.DebugRequest = "REQ " + req.Method + " " + req.URL
	if req.DryRun {
		return contract.HTTPResult{DebugRequest: res.DebugRequest}, nil
	}
	return res, f.err
}

func openaiBody(t *testing.T, content, finish string) []byte {
	t.Helper()
	b, err := json.Marshal(map[string]any{
		"choices": []map[string]any{{
			"message":       map[string]any{"content": content},
			"finish_reason": finish,
		}},
		"usage": map[string]any{
			"total_tokens":      float64(18),
			"prompt_tokens":     float64(11),
			"completion_tokens": float64(7),
		},
	})
	require.NoError(t, err)
	return b
}

func openaiModel() *contract.ModelConfig {
	return &contract.ModelConfig{
		Key:      "gpt",
		Vendor:   "openai",
		Endpoint: "https://api.openai.com/v1/chat/completions",
		Model:    "gpt-4o-mini",
		Auth: contract.Auth{
			Env:       "TEST_OPENAI_KEY",
			Placement: contract.AuthHeader,
			Field:     "Authorization",
			Prefix:    "Bearer ",
		},
		Usage: map[string]contract.UsageSpec{
			"tokens": {
				Total: "total_tokens",
				Breakdown: map[string]string{
					"input":  "prompt_tokens",
					"output": "completion_tokens",
				},
			},
		},
		HelpURL: "https://platform.example/help",
	}
}

func newTranslator(h contract.HTTPClient, models fakeRegistry) *Translator {
	return &Translator{
		Models:  models,
		Prompts: prompt.Default(),
		HTTP:    h,
	}
}

// TestDryRunFilters 干跑：result == original，统计与规约一致。
func TestDryRunFilters(t *testing.T) {
	h := &fakeHTTP{}
	tr := newTranslator(h, fakeRegistry{"gpt": openaiModel()})
	t.Setenv("TEST_OPENAI_KEY", "sk-test")

	in := `Read <a href="https://example.com/page?id=1">link</a> or https://another.tld`
	res, err := tr.Translate(context.Background(), in, Options{
		Model: "gpt", Source: "en", Target: "zh",
		Format:  contract.FormatText,
		Filters: []string{"url", "html_a"},
		DryRun:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, in, res.Output)
	require.Len(t, res.FilterStats, 2)
	assert.Equal(t, contract.FilterStat{Filter: "url", Count: 2}, res.FilterStats[0])
	assert.Equal(t, contract.FilterStat{Filter: "html_a", Count: 1}, res.FilterStats[1])
	assert.Equal(t, 0, res.HTTPStatus)
	assert.NotEmpty(t, res.DebugRequest)
	assert.NotEqual(t, in, res.Prepared)
}

// TestDryRunJSON 干跑 JSON：前后语法与 schema 零差异。
func TestDryRunJSON(t *testing.T) {
	tr := newTranslator(&fakeHTTP{}, fakeRegistry{"gpt": openaiModel()})
	t.Setenv("TEST_OPENAI_KEY", "sk-test")

	in := `{"article":{"name":"X","tags":["a","b"]}}`
	res, err := tr.Translate(context.Background(), in, Options{
		Model: "gpt", Source: "en", Target: "de",
		Format: contract.FormatJSON,
		DryRun: true,
	})
	require.NoError(t, err)
	assert.Equal(t, in, res.Output)
}

// TestFullRoundTrip 真实路径：掩蔽→哨兵回显→还原→用量归一化。
func TestFullRoundTrip(t *testing.T) {
	h := &fakeHTTP{}
	tr := newTranslator(h, fakeRegistry{"gpt": openaiModel()})
	t.Setenv("TEST_OPENAI_KEY", "sk-test")

	h.res = contract.HTTPResult{
		Status: 200,
		Body:   openaiBody(t, contract.WrapMarked("Hallo @@0@@ Welt"), "stop"),
	}
	res, err := tr.Translate(context.Background(), "Hello https://x.tld world", Options{
		Model: "gpt", Source: "en", Target: "de",
		Format:  contract.FormatText,
		Filters: []string{"url"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hallo https://x.tld Welt", res.Output)
	assert.Equal(t, 200, res.HTTPStatus)
	assert.Equal(t, 18, res.Consumed["tokens"].Total)
	assert.Equal(t, 11, res.Consumed["tokens"].Breakdown["input"])
	// 凭证注入到声明的 header 位，且列入脱敏清单
	assert.Equal(t, "Bearer sk-test", h.last.Header["Authorization"])
	assert.Contains(t, h.last.Secrets, "sk-test")
	// 出站 user 内容不含明文 URL（已被占位符遮蔽）
	assert.NotContains(t, string(h.last.Body), "x.tld")
}

// TestPlaceholderSyntaxRejected 输入自带占位符语法：拒绝而非转义。
func TestPlaceholderSyntaxRejected(t *testing.T) {
	h := &fakeHTTP{}
	tr := newTranslator(h, fakeRegistry{"gpt": openaiModel()})
	t.Setenv("TEST_OPENAI_KEY", "sk-test")

	_, err := tr.Translate(context.Background(), "含 @@3@@ 的文本", Options{
		Model: "gpt", Target: "de", Format: contract.FormatText,
	})
	require.ErrorIs(t, err, contract.ErrValidation)
	assert.Zero(t, h.calls, "应在任何 I/O 前失败")
}

// TestConfigErrors I/O 前配置失败。
func TestConfigErrors(t *testing.T) {
	h := &fakeHTTP{}
	tr := newTranslator(h, fakeRegistry{"gpt": openaiModel()})

	t.Run("未知模型", func(t *testing.T) {
		_, err := tr.Translate(context.Background(), "x", Options{Model: "nope", Format: contract.FormatText})
		require.ErrorIs(t, err, contract.ErrConfig)
	})
	t.Run("未知格式", func(t *testing.T) {
		_, err := tr.Translate(context.Background(), "x", Options{Model: "gpt", Format: "pdf"})
		require.ErrorIs(t, err, contract.ErrConfig)
	})
	t.Run("未知厂商", func(t *testing.T) {
		m := openaiModel()
		m.Vendor = "nobody"
		tr := newTranslator(h, fakeRegistry{"m": m})
		_, err := tr.Translate(context.Background(), "x", Options{Model: "m", Format: contract.FormatText})
		require.ErrorIs(t, err, contract.ErrConfig)
	})
	assert.Zero(t, h.calls)
}

// TestAuthMissing 凭证缺失：I/O 前失败，消息含帮助地址。
func TestAuthMissing(t *testing.T) {
	h := &fakeHTTP{}
	tr := newTranslator(h, fakeRegistry{"gpt": openaiModel()})
	t.Setenv("TEST_OPENAI_KEY", "")

	_, err := tr.Translate(context.Background(), "x", Options{
		Model: "gpt", Target: "de", Format: contract.FormatText,
	})
	require.ErrorIs(t, err, contract.ErrAuth)
	assert.Contains(t, err.Error(), "TEST_OPENAI_KEY")
	assert.Contains(t, err.Error(), "platform.example")
	assert.Zero(t, h.calls)
}

// TestCharLimit 超限在 PreValidate 失败。
func TestCharLimit(t *testing.T) {
	m := openaiModel()
	m.CharLimit = 5
	tr := newTranslator(&fakeHTTP{}, fakeRegistry{"gpt": m})
	t.Setenv("TEST_OPENAI_KEY", "sk-test")

	_, err := tr.Translate(context.Background(), "123456", Options{
		Model: "gpt", Target: "de", Format: contract.FormatText,
	})
	require.ErrorIs(t, err, contract.ErrValidation)
}

// TestTransportFailures HTTP 状态与网络错误的收口。
func TestTransportFailures(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "sk-test")

	t.Run("网络失败", func(t *testing.T) {
		h := &fakeHTTP{err: errors.New("dial refused")}
		tr := newTranslator(h, fakeRegistry{"gpt": openaiModel()})
		res, err := tr.Translate(context.Background(), "x", Options{
			Model: "gpt", Target: "de", Format: contract.FormatText,
		})
		require.ErrorIs(t, err, contract.ErrTransport)
		assert.NotEmpty(t, res.DebugRequest, "错误路径仍须回填诊断")
	})
	t.Run("未接管的500", func(t *testing.T) {
		h := &fakeHTTP{res: contract.HTTPResult{Status: 500, Body: []byte("boom")}}
		tr := newTranslator(h, fakeRegistry{"gpt": openaiModel()})
		res, err := tr.Translate(context.Background(), "x", Options{
			Model: "gpt", Target: "de", Format: contract.FormatText,
		})
		require.ErrorIs(t, err, contract.ErrTransport)
		assert.Equal(t, 500, res.HTTPStatus)
		assert.Equal(t, "boom", res.RawResponseBody)
	})
	t.Run("结构化错误厂商的4xx", func(t *testing.T) {
		m := openaiModel()
		m.StructuredErrors = true
		h := &fakeHTTP{res: contract.HTTPResult{
			Status: 401,
			Body:   []byte(`{"error":{"message":"bad key"}}`),
		}}
		tr := newTranslator(h, fakeRegistry{"gpt": m})
		_, err := tr.Translate(context.Background(), "x", Options{
			Model: "gpt", Target: "de", Format: contract.FormatText,
		})
		require.ErrorIs(t, err, contract.ErrVendor)
		assert.Contains(t, err.Error(), "bad key")
	})
}

// TestResponseFormatErrors 标记缺失与截断。
func TestResponseFormatErrors(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "sk-test")

	t.Run("标记缺失", func(t *testing.T) {
		h := &fakeHTTP{res: contract.HTTPResult{Status: 200, Body: openaiBody(t, "裸译文", "stop")}}
		tr := newTranslator(h, fakeRegistry{"gpt": openaiModel()})
		res, err := tr.Translate(context.Background(), "x", Options{
			Model: "gpt", Target: "de", Format: contract.FormatText,
		})
		require.ErrorIs(t, err, contract.ErrMarkersNotFound)
		assert.NotEmpty(t, res.RawResponseBody)
	})
	t.Run("截断", func(t *testing.T) {
		h := &fakeHTTP{res: contract.HTTPResult{Status: 200, Body: openaiBody(t, contract.MarkerStart+"部分", "length")}}
		tr := newTranslator(h, fakeRegistry{"gpt": openaiModel()})
		_, err := tr.Translate(context.Background(), "x", Options{
			Model: "gpt", Target: "de", Format: contract.FormatText,
		})
		require.ErrorIs(t, err, contract.ErrTruncated)
	})
}

// TestPostValidateSchema schema 比对与可选修复。
func TestPostValidateSchema(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "sk-test")
	in := `{"a":null,"s":"x"}`

	t.Run("丢键未开修复判失败", func(t *testing.T) {
		h := &fakeHTTP{res: contract.HTTPResult{
			Status: 200,
			Body:   openaiBody(t, contract.WrapMarked(`{"s":"y"}`), "stop"),
		}}
		tr := newTranslator(h, fakeRegistry{"gpt": openaiModel()})
		_, err := tr.Translate(context.Background(), in, Options{
			Model: "gpt", Target: "de", Format: contract.FormatJSON,
		})
		require.ErrorIs(t, err, contract.ErrValidation)
	})
	t.Run("开启missing_nulls修复通过", func(t *testing.T) {
		h := &fakeHTTP{res: contract.HTTPResult{
			Status: 200,
			Body:   openaiBody(t, contract.WrapMarked(`{"s":"y"}`), "stop"),
		}}
		tr := newTranslator(h, fakeRegistry{"gpt": openaiModel()})
		res, err := tr.Translate(context.Background(), in, Options{
			Model: "gpt", Target: "de", Format: contract.FormatJSON,
			Repairs: []string{"missing_nulls"},
		})
		require.NoError(t, err)
		var got map[string]any
		require.NoError(t, json.Unmarshal([]byte(res.Output), &got))
		v, ok := got["a"]
		assert.True(t, ok && v == nil, "应补回 a:null: %q", res.Output)
	})
	t.Run("后置语法畸形判失败", func(t *testing.T) {
		h := &fakeHTTP{res: contract.HTTPResult{
			Status: 200,
			Body:   openaiBody(t, contract.WrapMarked(`{"s": 不是JSON`), "stop"),
		}}
		tr := newTranslator(h, fakeRegistry{"gpt": openaiModel()})
		_, err := tr.Translate(context.Background(), in, Options{
			Model: "gpt", Target: "de", Format: contract.FormatJSON,
		})
		require.ErrorIs(t, err, contract.ErrValidation)
	})
}

// TestQueryAuthPlacement query 位凭证注入。
func TestQueryAuthPlacement(t *testing.T) {
	m := &contract.ModelConfig{
		Key: "gem", Vendor: "gemini",
		Endpoint: "https://g.example/models/{model}:generateContent",
		Model:    "gemini-1.5-flash",
		Auth: contract.Auth{
			Env: "TEST_GEMINI_KEY", Placement: contract.AuthQuery, Field: "key",
		},
	}
	t.Setenv("TEST_GEMINI_KEY", "g-secret")
	h := &fakeHTTP{}
	tr := newTranslator(h, fakeRegistry{"gem": m})
	_, err := tr.Translate(context.Background(), "x", Options{
		Model: "gem", Target: "de", Format: contract.FormatText, DryRun: true,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(h.last.URL, "key=g-secret"), h.last.URL)
	assert.Contains(t, h.last.Secrets, "g-secret")
}
