package registry

import (
	"encoding/json"
	"testing"
)

// TestStrictUnmarshal 验证严格解码逻辑。
func TestStrictUnmarshal(t *testing.T) {
	type opt struct {
		A int `json:"a"`
	}
	var o opt
	if err := strictUnmarshal(nil, &o); err != nil || o.A != 0 {
		t.Fatalf("nil 输入失败: %v", err)
	}
	if err := strictUnmarshal(json.RawMessage(`{"a":1}`), &o); err != nil || o.A != 1 {
		t.Fatalf("合法 JSON 解析失败: %v", err)
	}
	if err := strictUnmarshal(json.RawMessage(`{"a":1,"b":2}`), &o); err == nil {
		t.Fatalf("未知字段应报错")
	}
}

// TestFilterFactories 遍历过滤器注册表入口。
func TestFilterFactories(t *testing.T) {
	for id := range Filter {
		id := id
		t.Run(id, func(t *testing.T) {
			f, err := Filter[id](nil)
			if err != nil {
				t.Fatalf("filter %q: %v", id, err)
			}
			if got := f.Stats().Filter; got != id {
				t.Fatalf("统计名与注册名不一致: got=%q want=%q", got, id)
			}
			if _, err := Filter[id](json.RawMessage(`{"x":1}`)); err == nil {
				t.Fatalf("filter %q 未对未知字段报错", id)
			}
		})
	}
}

// TestDriverFactories 每次调用须产出新实例。
func TestDriverFactories(t *testing.T) {
	for tag := range Driver {
		tag := tag
		t.Run(tag, func(t *testing.T) {
			a, b := Driver[tag](), Driver[tag]()
			if a == nil || b == nil {
				t.Fatalf("driver %q: 构造失败", tag)
			}
		})
	}
}
