package deepl

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"doctrans/pkg/contract"
)

// Driver: field 型厂商驱动（无哨兵标记协议）。
// JSON 容器走标点护盾：厂商面向 HTML 的格式保留特性会误伤
// JSON 结构标点，发送前以私有标记标签替换、收到后逆向还原。
// 护盾状态跨 Build/Parse 携带——实例每次调用新建。
type Driver struct {
	shielded bool
}

// New 构造驱动实例（每次调用新建）。
func New() contract.Driver { return &Driver{} }

// JSON 结构标点 → 私有标记标签。顺序固定，双向一致。
var punctTags = [...][2]string{
	{`{`, `<x0/>`},
	{`}`, `<x1/>`},
	{`[`, `<x2/>`},
	{`]`, `<x3/>`},
	{`:`, `<x4/>`},
	{`,`, `<x5/>`},
	{`"`, `<x6/>`},
}

func shield(s string) string {
	for _, p := range punctTags {
		s = strings.ReplaceAll(s, p[0], p[1])
	}
	return s
}

func unshield(s string) string {
	for i := len(punctTags) - 1; i >= 0; i-- {
		s = strings.ReplaceAll(s, punctTags[i][1], punctTags[i][0])
	}
	return s
}

// BuildRequest 构造 form 编码请求：直接寻址字段（text/target_lang/...）。
func (d *Driver) BuildRequest(cfg contract.ModelConfig, prepared string, opts contract.CallOptions) (contract.Request, error) {
	if strings.TrimSpace(opts.Target) == "" {
		return contract.Request{}, fmt.Errorf("deepl: %w: target language not set", contract.ErrConfig)
	}
	for _, v := range cfg.Variables {
		if strings.TrimSpace(opts.Variables[v]) == "" {
			return contract.Request{}, fmt.Errorf("deepl: %w: required variable %q not set", contract.ErrConfig, v)
		}
	}
	text := prepared
	if opts.Format == contract.FormatJSON {
		text = shield(text)
		d.shielded = true
	}
	form := url.Values{}
	form.Set("text", text)
	form.Set("target_lang", strings.ToUpper(opts.Target))
	if opts.Source != "" {
		form.Set("source_lang", strings.ToUpper(opts.Source))
	}
	if opts.Format == contract.FormatHTML || opts.Format == contract.FormatJSON {
		form.Set("tag_handling", "html")
	}
	if f := opts.Variables["formality"]; f != "" {
		form.Set("formality", f)
	}
	// 默认参数作为附加 form 字段（标量）
	for k, v := range cfg.Defaults {
		form.Set(k, fmt.Sprint(v))
	}
	return contract.Request{
		Method: http.MethodPost,
		URL:    cfg.Endpoint,
		Header: map[string]string{"Content-Type": "application/x-www-form-urlencoded"},
		Body:   []byte(form.Encode()),
		Form:   true,
	}, nil
}

type dlResp struct {
	Message      string `json:"message"`
	Translations []struct {
		Text json.RawMessage `json:"text"`
	} `json:"translations"`
}

// ParseResponse 解析 translations[0].text；护盾在此逆向还原。
func (d *Driver) ParseResponse(cfg contract.ModelConfig, rawBody []byte) (contract.Response, error) {
	var r dlResp
	if err := json.Unmarshal(rawBody, &r); err != nil {
		return contract.Response{}, fmt.Errorf("deepl decode: %w", contract.ErrResponseInvalid)
	}
	if len(r.Translations) == 0 {
		if r.Message != "" {
			return contract.Response{}, fmt.Errorf("deepl: %w: %s", contract.ErrVendor, r.Message)
		}
		return contract.Response{}, fmt.Errorf("deepl: %w: translations empty", contract.ErrResponseInvalid)
	}
	var text string
	if err := json.Unmarshal(r.Translations[0].Text, &text); err != nil {
		return contract.Response{}, fmt.Errorf("deepl: %w: text missing or not a string", contract.ErrResponseInvalid)
	}
	if d.shielded {
		text = unshield(text)
	}
	return contract.Response{Text: text}, nil
}
