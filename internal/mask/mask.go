package mask

import (
	"doctrans/pkg/contract"
	"doctrans/pkg/registry"
)

// Pipeline: 有序过滤器组，共享一枚发号器。
// 不变量：对不含占位符语法的任意输入，Restore(Apply(x)) == x，
// 与配置给出的过滤器顺序无关（顺序只决定嵌套/重叠片段由谁消费）。
type Pipeline struct {
	filters []contract.Filter
	counter contract.Counter
}

// New 依标识列表构建；未登记标识忽略（向前兼容）。
// 每次流水线调用新建：过滤器实例与发号器均为私有。
func New(ids []string) *Pipeline {
	p := &Pipeline{}
	for _, id := range ids {
		ctor, ok := registry.Filter[id]
		if !ok {
			continue
		}
		f, err := ctor(nil)
		if err != nil {
			// 构造失败的标识按未登记处理
			continue
		}
		p.filters = append(p.filters, f)
	}
	return p
}

// Apply 按列表顺序串联遮蔽。
func (p *Pipeline) Apply(text string) string {
	for _, f := range p.filters {
		text = f.Apply(text, &p.counter)
	}
	return text
}

// Restore 按列表逆序串联还原。
// 外层过滤器先还原，重新暴露其捕获片段内的内层占位符。
func (p *Pipeline) Restore(text string) string {
	for i := len(p.filters) - 1; i >= 0; i-- {
		text = p.filters[i].Restore(text)
	}
	return text
}

// Stats 按 Apply 顺序返回逐过滤器统计（含零计数）。
func (p *Pipeline) Stats() []contract.FilterStat {
	out := make([]contract.FilterStat, 0, len(p.filters))
	for _, f := range p.filters {
		out = append(out, f.Stats())
	}
	return out
}

// Issued 返回已发放占位符数量。
func (p *Pipeline) Issued() int { return p.counter.Current() }
