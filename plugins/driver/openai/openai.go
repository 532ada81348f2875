package openai

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"doctrans/pkg/contract"
)

// Driver: chat-completion 型厂商驱动（哨兵标记协议）。
// 每次调用新建；无私有状态。
type Driver struct{}

// New 构造驱动实例。
func New() contract.Driver { return Driver{} }

type oaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type oaResp struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
	Choices []struct {
		Message struct {
			Content json.RawMessage `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage map[string]any `json:"usage"`
}

// BuildRequest 构造 chat/completions 请求体。
// 出站 user 内容包裹于哨兵标记之间；配置缺失在任何网络活动前报错。
func (Driver) BuildRequest(cfg contract.ModelConfig, prepared string, opts contract.CallOptions) (contract.Request, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return contract.Request{}, fmt.Errorf("openai: %w: model not set", contract.ErrConfig)
	}
	for _, v := range cfg.Variables {
		if strings.TrimSpace(opts.Variables[v]) == "" {
			return contract.Request{}, fmt.Errorf("openai: %w: required variable %q not set", contract.ErrConfig, v)
		}
	}
	body := map[string]any{
		"model": cfg.Model,
		"messages": []oaMessage{
			{Role: "system", Content: opts.SystemPrompt},
			{Role: "user", Content: contract.WrapMarked(prepared)},
		},
	}
	// 默认参数原样合并；不覆盖协议字段
	for k, v := range cfg.Defaults {
		if k == "model" || k == "messages" {
			continue
		}
		body[k] = v
	}
	b, err := json.Marshal(body)
	if err != nil {
		return contract.Request{}, fmt.Errorf("openai encode: %w", err)
	}
	return contract.Request{
		Method: http.MethodPost,
		URL:    cfg.Endpoint,
		Header: map[string]string{
			"Content-Type": "application/json",
			"Accept":       "application/json",
		},
		Body: b,
	}, nil
}

// ParseResponse 解析序列：
// 1) content 字段缺失/非字符串 → ErrResponseInvalid；
// 2) finish_reason=length → ErrTruncated（快速失败，不做部分恢复）；
// 3) 哨兵区间缺失 → ErrMarkersNotFound；
// 4) 返回修剪后的内层区间；usage 原样透传。
func (Driver) ParseResponse(cfg contract.ModelConfig, rawBody []byte) (contract.Response, error) {
	var r oaResp
	if err := json.Unmarshal(rawBody, &r); err != nil {
		return contract.Response{}, fmt.Errorf("openai decode: %w", contract.ErrResponseInvalid)
	}
	if r.Error != nil && r.Error.Message != "" {
		return contract.Response{}, fmt.Errorf("openai: %w: %s", contract.ErrVendor, r.Error.Message)
	}
	if len(r.Choices) == 0 {
		return contract.Response{}, fmt.Errorf("openai: %w: choices empty", contract.ErrResponseInvalid)
	}
	choice := r.Choices[0]
	var content string
	if err := json.Unmarshal(choice.Message.Content, &content); err != nil || content == "" {
		return contract.Response{}, fmt.Errorf("openai: %w: content missing or not a string", contract.ErrResponseInvalid)
	}
	if choice.FinishReason == "length" {
		return contract.Response{}, fmt.Errorf("openai: %w: finish_reason=length", contract.ErrTruncated)
	}
	text, ok := contract.ExtractMarked(content)
	if !ok {
		return contract.Response{}, fmt.Errorf("openai: %w", contract.ErrMarkersNotFound)
	}
	return contract.Response{Text: text, Usage: r.Usage}, nil
}
