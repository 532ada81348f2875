package url

import (
	"regexp"
	"strings"

	"doctrans/pkg/contract"
)

// URI 匹配：http(s)/ftp/mailto，终止于空白或 "<>() 之一。
var pattern = regexp.MustCompile(`(?i)\b(?:https?|ftp|mailto):[^\s"<>()]+`)

// Filter: URL 遮蔽过滤器。
// 映射在 Apply 期间写入、Restore 期间只读；单次运行后丢弃。
type Filter struct {
	issued map[string]string // token → 原文
	count  int
}

// New 创建 URL 过滤器（每次流水线调用新建）。
func New() *Filter {
	return &Filter{issued: make(map[string]string)}
}

// Apply 以占位符替换每个非重叠匹配（从左到右）；不失败。
func (f *Filter) Apply(text string, c *contract.Counter) string {
	if c == nil {
		return text
	}
	return pattern.ReplaceAllStringFunc(text, func(m string) string {
		tok := c.Next()
		f.issued[tok] = m
		f.count++
		return tok
	})
}

// Restore 回填本实例发放的占位符；他人占位符原样放行。
func (f *Filter) Restore(text string) string {
	for tok, orig := range f.issued {
		text = strings.ReplaceAll(text, tok, orig)
	}
	return text
}

// Stats 返回统计（含零计数）。
func (f *Filter) Stats() contract.FilterStat {
	return contract.FilterStat{Filter: "url", Count: f.count}
}

var _ contract.Filter = (*Filter)(nil)
