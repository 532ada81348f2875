package validate

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"doctrans/pkg/contract"
)

// HTML 宽容解析片段：先包入中性容器再解析。
// 只有真正的结构性错误才判失败；未知标签名不构成失败。
func HTML(fragment string) contract.ValidationResult {
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	if _, err := html.ParseFragment(strings.NewReader(fragment), ctx); err != nil {
		return contract.ValidationResult{Valid: false, Errors: []string{"html: " + err.Error()}}
	}
	return contract.ValidationResult{Valid: true}
}
