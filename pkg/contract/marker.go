package contract

import (
	"regexp"
	"strings"
)

// 协议库函数（纯函数，无 I/O）：哨兵标记抽取。
// 非贪婪、点号匹配换行；只取第一个区间。
var markerRe = regexp.MustCompile(`(?s)` + regexp.QuoteMeta(MarkerStart) + `(.*?)` + regexp.QuoteMeta(MarkerEnd))

// WrapMarked 以哨兵标记包裹出站载荷。
func WrapMarked(payload string) string {
	return MarkerStart + "\n" + payload + "\n" + MarkerEnd
}

// ExtractMarked 抽取 START..END 间的内层区间并修剪两端空白。
// 缺失返回 ok=false；丢标记的后端是错误，绝不当裸文本返回。
func ExtractMarked(content string) (string, bool) {
	m := markerRe.FindStringSubmatch(content)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}
