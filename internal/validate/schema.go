package validate

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"doctrans/pkg/contract"
)

// Kind: 形状描述符的叶子/容器类别。
type Kind string

const (
	KindObject Kind = "object"
	KindArray  Kind = "array"
	KindString Kind = "string"
	KindNumber Kind = "number"
	KindBool   Kind = "bool"
	KindNull   Kind = "null"
)

// Node: 递归形状描述符。值一律丢弃，只比较结构。
// 数组为有序子描述符列表；对象为 键→描述符 映射。
type Node struct {
	Kind   Kind
	Items  []*Node
	Fields map[string]*Node
}

// 修复特性开关。
const RepairMissingNulls = "missing_nulls"

// Capture 将已解析 JSON 值归约为形状描述符。
func Capture(v any) *Node {
	switch x := v.(type) {
	case map[string]any:
		n := &Node{Kind: KindObject, Fields: make(map[string]*Node, len(x))}
		for k, cv := range x {
			n.Fields[k] = Capture(cv)
		}
		return n
	case []any:
		n := &Node{Kind: KindArray, Items: make([]*Node, 0, len(x))}
		for _, cv := range x {
			n.Items = append(n.Items, Capture(cv))
		}
		return n
	case string:
		return &Node{Kind: KindString}
	case json.Number, float64, int, int64:
		return &Node{Kind: KindNumber}
	case bool:
		return &Node{Kind: KindBool}
	case nil:
		return &Node{Kind: KindNull}
	default:
		// encoding/json 不会产出其他类型；兜底按字符串叶子
		return &Node{Kind: KindString}
	}
}

// Compare 结构相等校验；不匹配汇总为单条失败。
func Compare(before, after *Node) contract.ValidationResult {
	var diffs []string
	walkDiff(before, after, "$", &diffs)
	if len(diffs) == 0 {
		return contract.ValidationResult{Valid: true}
	}
	return contract.ValidationResult{
		Valid:  false,
		Errors: []string{"schema mismatch: " + strings.Join(diffs, "; ")},
	}
}

func walkDiff(b, a *Node, path string, diffs *[]string) {
	if b == nil || a == nil {
		if b != a {
			*diffs = append(*diffs, path+": node missing")
		}
		return
	}
	if b.Kind != a.Kind {
		*diffs = append(*diffs, fmt.Sprintf("%s: %s != %s", path, b.Kind, a.Kind))
		return
	}
	switch b.Kind {
	case KindArray:
		if len(b.Items) != len(a.Items) {
			*diffs = append(*diffs, fmt.Sprintf("%s: array length %d != %d", path, len(b.Items), len(a.Items)))
			return
		}
		for i := range b.Items {
			walkDiff(b.Items[i], a.Items[i], fmt.Sprintf("%s[%d]", path, i), diffs)
		}
	case KindObject:
		keys := make([]string, 0, len(b.Fields))
		for k := range b.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			av, ok := a.Fields[k]
			if !ok {
				*diffs = append(*diffs, fmt.Sprintf("%s.%s: key missing", path, k))
				continue
			}
			walkDiff(b.Fields[k], av, path+"."+k, diffs)
		}
		for k := range a.Fields {
			if _, ok := b.Fields[k]; !ok {
				*diffs = append(*diffs, fmt.Sprintf("%s.%s: key added", path, k))
			}
		}
	}
}

// Repair 按特性列表对 after 执行可选修复，返回修复后的值。
// 目前仅 missing_nulls：后端丢弃了原值为 null 的键/槽位时原位补回 null。
func Repair(before, after any, features []string) any {
	for _, f := range features {
		if f == RepairMissingNulls {
			after = repairMissingNulls(before, after)
		}
	}
	return after
}

// repairMissingNulls 递归走 before：
//   - before 中某位置值为 null 且 after 同位置缺失 → 在该处补 null；
//   - before 值非 null 而 after 缺失 → 保持缺失（绝不发明非 null 数据）；
//   - 两侧都在的位置递归；
//   - 数组修复保持 0 基连续下标（只补尾部连续 null 槽位）。
func repairMissingNulls(before, after any) any {
	switch b := before.(type) {
	case map[string]any:
		a, ok := after.(map[string]any)
		if !ok {
			return after
		}
		for k, bv := range b {
			av, present := a[k]
			if !present {
				if bv == nil {
					a[k] = nil
				}
				continue
			}
			a[k] = repairMissingNulls(bv, av)
		}
		return a
	case []any:
		a, ok := after.([]any)
		if !ok {
			return after
		}
		for i, bv := range b {
			if i < len(a) {
				a[i] = repairMissingNulls(bv, a[i])
				continue
			}
			if bv == nil && i == len(a) {
				a = append(a, nil)
				continue
			}
			break
		}
		return a
	}
	return after
}
