package contract

import (
	"regexp"
	"strconv"
)

// 占位符语法：@@N@@，N 在单次流水线运行内自 0 严格递增。
const tokenPrefix = "@@"

// TokenPattern 匹配占位符语法本身；用于入口拒绝已含该语法的文档。
var TokenPattern = regexp.MustCompile(`@@\d+@@`)

// Token 构造第 n 号占位符。
func Token(n int) string {
	return tokenPrefix + strconv.Itoa(n) + tokenPrefix
}

// Counter: 单次运行内共享的占位符发号器。
// 非并发安全；生命周期与一次流水线调用一致。
type Counter struct {
	n int
}

// Next 发放下一枚占位符；序号每次恰好 +1，自 0 起。
func (c *Counter) Next() string {
	t := Token(c.n)
	c.n++
	return t
}

// Current 返回已发放数量。
func (c *Counter) Current() int { return c.n }

// Filter: 可逆文本遮蔽能力。
// 约束：
//   - Apply 不失败；内部匹配异常时原样返回输入；
//   - Restore 仅回填本实例发放的占位符，他人占位符原样放行（链式独立还原）；
//   - 实例内部映射在 Apply 期间写入、Restore 期间只读，随调用丢弃。
type Filter interface {
	Apply(text string, c *Counter) string
	Restore(text string) string
	Stats() FilterStat
}
