package config

// Config: 运行期只读配置（一次解析，运行期不变）。
// JSON 使用 snake_case；未知字段在解析期失败。
type Config struct {
	// Model: 模型注册表中的键（必填）。
	Model  string `json:"model"`
	Source string `json:"source"`
	Target string `json:"target"`
	// Format: text / html / json。
	Format string `json:"format"`
	// Filters: 掩蔽过滤器 id 列表（未注册的 id 忽略）。
	Filters []string `json:"filters"`
	// Repairs: 开启的 schema 修复特性名。
	Repairs []string `json:"repairs"`
	// Context: 附加语境说明，注入 system 提示。
	Context string `json:"context"`
	// Variables: 逐调用变量（如 formality）。
	Variables map[string]string `json:"variables"`

	DryRun  bool `json:"dry_run"`
	Verbose bool `json:"verbose"`

	// Proxy: HTTP 代理 URL；空则走环境代理。
	Proxy string `json:"proxy"`
	// TimeoutSeconds: 单次请求超时；<=0 取默认。
	TimeoutSeconds int     `json:"timeout_seconds"`
	Logging        Logging `json:"logging"`

	// ModelsPath / PromptsPath: 声明文档路径；空则使用编译期内置。
	ModelsPath  string `json:"models_path"`
	PromptsPath string `json:"prompts_path"`
}

// Logging: 仅保留日志等级可配置；输出到 stderr 为固定默认。
type Logging struct {
	Level string `json:"level"`
}
