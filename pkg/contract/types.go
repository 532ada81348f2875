package contract

// Format: 文档容器格式。决定前后置校验与提示词模板的选择。
type Format string

const (
	FormatText Format = "text"
	FormatHTML Format = "html"
	FormatJSON Format = "json"
)

// Valid 判断格式是否受支持。
func (f Format) Valid() bool {
	switch f {
	case FormatText, FormatHTML, FormatJSON:
		return true
	}
	return false
}

// 哨兵标记：出站 user 内容包裹于 START/END 之间，后端须原样回显。
// 约束：与占位符语法 @@N@@ 不得冲突；正则字面量安全。
const (
	MarkerStart = "<<<TRANSLATION>>>"
	MarkerEnd   = "<<<END-TRANSLATION>>>"
)

// CallOptions: 单次调用的业务变量（纯值载体，不含凭证）。
type CallOptions struct {
	Source string
	Target string
	Format Format
	// Context: 可选的附加语境说明，随模板注入 system 提示。
	Context string
	// SystemPrompt: 编排层已渲染的 system 提示（field 型驱动可忽略）。
	SystemPrompt string
	// Variables: 按模型声明的逐调用变量（如 formality）。
	Variables map[string]string
}

// AuthPlacement: 凭证注入位置（由模型配置声明）。
type AuthPlacement string

const (
	AuthHeader AuthPlacement = "header"
	AuthQuery  AuthPlacement = "query"
	AuthForm   AuthPlacement = "form"
)

// Auth: 凭证需求描述。Secret 本身永不出现在此结构中。
type Auth struct {
	// Env: 凭证所在环境变量名；为空表示该模型无需凭证。
	Env       string        `json:"env" yaml:"env"`
	Placement AuthPlacement `json:"placement" yaml:"placement"`
	// Field: header 名 / query 参数名 / form 字段名。
	Field string `json:"field" yaml:"field"`
	// Prefix: 注入值前缀（如 "Bearer "）。
	Prefix string `json:"prefix" yaml:"prefix"`
}

// UsageSpec: 用量抽取声明——原始用量载荷上的点路径。
type UsageSpec struct {
	Total     string            `json:"total" yaml:"total"`
	Breakdown map[string]string `json:"breakdown" yaml:"breakdown"`
}

// ModelConfig: 模型/后端声明（构造后只读）。
// 全部厂商知识留在配置里，代码不感知具体模型。
type ModelConfig struct {
	Key      string `json:"-" yaml:"-"`
	Vendor   string `json:"vendor" yaml:"vendor"`
	Endpoint string `json:"endpoint" yaml:"endpoint"`
	Model    string `json:"model" yaml:"model"`
	Auth     Auth   `json:"auth" yaml:"auth"`
	// Defaults: 随请求体下发的默认参数（temperature 等），驱动原样合并。
	Defaults map[string]any       `json:"defaults" yaml:"defaults"`
	Usage    map[string]UsageSpec `json:"usage" yaml:"usage"`
	// CharLimit: 单文档字符上限；<=0 表示不限。
	CharLimit int `json:"char_limit" yaml:"char_limit"`
	// Variables: 逐调用必填变量名（缺失在任何网络活动前报错）。
	Variables []string `json:"variables" yaml:"variables"`
	HelpURL   string   `json:"help_url" yaml:"help_url"`
	// StructuredErrors: 厂商在 HTTP >=400 时仍返回结构化错误包络。
	StructuredErrors bool   `json:"structured_errors" yaml:"structured_errors"`
	Notes            string `json:"notes" yaml:"notes"`
}

// ValidationResult: 校验结果；Errors 保序。
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// UsageCategory: 归一化后的单类用量。
type UsageCategory struct {
	Total     int            `json:"total"`
	Breakdown map[string]int `json:"breakdown,omitempty"`
}

// UsageResult: 类别→用量 的归一化结果。
type UsageResult map[string]UsageCategory

// FilterStat: 单过滤器统计（含零计数）。
type FilterStat struct {
	Filter string `json:"filter"`
	Count  int    `json:"count"`
}

// Lengths: 各阶段文本长度（字节）。
type Lengths struct {
	Original   int `json:"original"`
	Prepared   int `json:"prepared"`
	Translated int `json:"translated"`
}

// Result: 单次调用产出的结果记录。错误路径下同样尽量回填已采集字段。
type Result struct {
	Original        string       `json:"original"`
	Prepared        string       `json:"prepared"`
	Output          string       `json:"result"`
	HTTPStatus      int          `json:"http_status"`
	DebugRequest    string       `json:"debug_request,omitempty"`
	DebugResponse   string       `json:"debug_response,omitempty"`
	RawResponseBody string       `json:"raw_response_body,omitempty"`
	Consumed        UsageResult  `json:"consumed,omitempty"`
	Lengths         Lengths      `json:"lengths"`
	FilterStats     []FilterStat `json:"filter_stats"`
}
