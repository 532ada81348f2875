package tag

import (
	"fmt"
	"regexp"
	"strings"

	"doctrans/pkg/contract"
)

// Options: 命名标签过滤器的最小配置。
type Options struct {
	// Name: 统计/注册表标识（如 "html_a"）。
	Name string `json:"name"`
	// Tag: 标签名（如 "a"）。
	Tag string `json:"tag"`
}

// Filter: 开标签到同名闭标签的遮蔽过滤器。
// 非贪婪、大小写不敏感、点号匹配换行。
// 已知边界：不处理同名嵌套标签（与厂商侧扁平保留假设一致，刻意不"修复"）。
type Filter struct {
	name    string
	pattern *regexp.Regexp
	issued  map[string]string
	count   int
}

// New 按标签名构造过滤器；标签名为空报 ErrConfig。
func New(opts *Options) (*Filter, error) {
	if opts == nil || strings.TrimSpace(opts.Tag) == "" {
		return nil, fmt.Errorf("tag filter: %w: tag not set", contract.ErrConfig)
	}
	t := regexp.QuoteMeta(strings.ToLower(strings.TrimSpace(opts.Tag)))
	name := opts.Name
	if name == "" {
		name = "html_" + strings.TrimSpace(opts.Tag)
	}
	// <tag ...> 到最近的 </tag>；属性段不允许越过 '>'。
	re, err := regexp.Compile(`(?is)<` + t + `(?:\s[^>]*)?>.*?</` + t + `\s*>`)
	if err != nil {
		return nil, fmt.Errorf("tag filter: %w: %v", contract.ErrConfig, err)
	}
	return &Filter{name: name, pattern: re, issued: make(map[string]string)}, nil
}

// Apply 以占位符替换每个非重叠匹配；不失败。
func (f *Filter) Apply(text string, c *contract.Counter) string {
	if c == nil {
		return text
	}
	return f.pattern.ReplaceAllStringFunc(text, func(m string) string {
		tok := c.Next()
		f.issued[tok] = m
		f.count++
		return tok
	})
}

// Restore 回填本实例发放的占位符。
func (f *Filter) Restore(text string) string {
	for tok, orig := range f.issued {
		text = strings.ReplaceAll(text, tok, orig)
	}
	return text
}

// Stats 返回统计（含零计数）。
func (f *Filter) Stats() contract.FilterStat {
	return contract.FilterStat{Filter: f.name, Count: f.count}
}

var _ contract.Filter = (*Filter)(nil)
