package registry

import (
	"bytes"
	"encoding/json"

	"doctrans/pkg/contract"
	fdeepl "doctrans/plugins/driver/deepl"
	fgemini "doctrans/plugins/driver/gemini"
	foai "doctrans/plugins/driver/openai"
	ftag "doctrans/plugins/filter/tag"
	furl "doctrans/plugins/filter/url"
)

// strictUnmarshal: 使用 DisallowUnknownFields 严格解码，拒绝未知字段。
func strictUnmarshal(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		// 保持零值（默认选项）
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// NewFilter 工厂签名：接收原样 JSON Options；每次调用新建实例。
type NewFilter func(raw json.RawMessage) (contract.Filter, error)

// NewDriver 工厂签名：每次调用新建实例（允许 Build/Parse 间私有状态）。
type NewDriver func() contract.Driver

// tagFilter: 固定标签名的命名标签过滤器工厂。
func tagFilter(name, tag string) NewFilter {
	return func(raw json.RawMessage) (contract.Filter, error) {
		opts := ftag.Options{Name: name, Tag: tag}
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return ftag.New(&opts)
	}
}

// Filter 工厂注册表（显式、零反射）。
// 未登记的标识由 FilterPipeline 忽略（向前兼容）。
var Filter = map[string]NewFilter{
	// url: http(s)/ftp/mailto URI 遮蔽
	"url": func(raw json.RawMessage) (contract.Filter, error) {
		if err := strictUnmarshal(raw, &struct{}{}); err != nil {
			return nil, err
		}
		return furl.New(), nil
	},
	// html_*: 命名标签遮蔽（开标签到最近同名闭标签）
	"html_a":      tagFilter("html_a", "a"),
	"html_code":   tagFilter("html_code", "code"),
	"html_pre":    tagFilter("html_pre", "pre"),
	"html_script": tagFilter("html_script", "script"),
	"html_style":  tagFilter("html_style", "style"),
}

// Driver 工厂注册表：厂商标签 → 构造器。
var Driver = map[string]NewDriver{
	"openai": func() contract.Driver { return foai.New() },
	"gemini": func() contract.Driver { return fgemini.New() },
	"deepl":  func() contract.Driver { return fdeepl.New() },
}
