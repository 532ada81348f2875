package gemini

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"doctrans/pkg/contract"
)

// Driver: generateContent 型厂商驱动（哨兵标记协议）。
type Driver struct{}

// New 构造驱动实例。
func New() contract.Driver { return Driver{} }

type gmPart struct {
	Text string `json:"text"`
}

type gmResp struct {
	Error *struct {
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text json.RawMessage `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata map[string]any `json:"usageMetadata"`
}

// BuildRequest 构造 generateContent 请求体。
// system 提示走 systemInstruction；user 内容包裹哨兵标记。
func (Driver) BuildRequest(cfg contract.ModelConfig, prepared string, opts contract.CallOptions) (contract.Request, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return contract.Request{}, fmt.Errorf("gemini: %w: model not set", contract.ErrConfig)
	}
	for _, v := range cfg.Variables {
		if strings.TrimSpace(opts.Variables[v]) == "" {
			return contract.Request{}, fmt.Errorf("gemini: %w: required variable %q not set", contract.ErrConfig, v)
		}
	}
	body := map[string]any{
		"contents": []map[string]any{
			{"role": "user", "parts": []gmPart{{Text: contract.WrapMarked(prepared)}}},
		},
	}
	if opts.SystemPrompt != "" {
		body["systemInstruction"] = map[string]any{"parts": []gmPart{{Text: opts.SystemPrompt}}}
	}
	if len(cfg.Defaults) > 0 {
		// 默认参数进 generationConfig（温度等）
		gen := make(map[string]any, len(cfg.Defaults))
		for k, v := range cfg.Defaults {
			gen[k] = v
		}
		body["generationConfig"] = gen
	}
	b, err := json.Marshal(body)
	if err != nil {
		return contract.Request{}, fmt.Errorf("gemini encode: %w", err)
	}
	// 端点含模型名占位 {model}；凭证由编排层按 query 位注入
	url := strings.ReplaceAll(cfg.Endpoint, "{model}", cfg.Model)
	return contract.Request{
		Method: http.MethodPost,
		URL:    url,
		Header: map[string]string{"Content-Type": "application/json"},
		Body:   b,
	}, nil
}

// ParseResponse 与 chat 型驱动同一解析序列；截断信号为 MAX_TOKENS。
func (Driver) ParseResponse(cfg contract.ModelConfig, rawBody []byte) (contract.Response, error) {
	var r gmResp
	if err := json.Unmarshal(rawBody, &r); err != nil {
		return contract.Response{}, fmt.Errorf("gemini decode: %w", contract.ErrResponseInvalid)
	}
	if r.Error != nil && r.Error.Message != "" {
		return contract.Response{}, fmt.Errorf("gemini: %w: %s", contract.ErrVendor, r.Error.Message)
	}
	if len(r.Candidates) == 0 || len(r.Candidates[0].Content.Parts) == 0 {
		return contract.Response{}, fmt.Errorf("gemini: %w: candidates empty", contract.ErrResponseInvalid)
	}
	cand := r.Candidates[0]
	var content string
	if err := json.Unmarshal(cand.Content.Parts[0].Text, &content); err != nil || content == "" {
		return contract.Response{}, fmt.Errorf("gemini: %w: text missing or not a string", contract.ErrResponseInvalid)
	}
	if strings.EqualFold(cand.FinishReason, "MAX_TOKENS") {
		return contract.Response{}, fmt.Errorf("gemini: %w: finishReason=MAX_TOKENS", contract.ErrTruncated)
	}
	text, ok := contract.ExtractMarked(content)
	if !ok {
		return contract.Response{}, fmt.Errorf("gemini: %w", contract.ErrMarkersNotFound)
	}
	return contract.Response{Text: text, Usage: r.UsageMetadata}, nil
}
