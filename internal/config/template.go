package config

// DefaultTemplateConfig 返回一个"可运行"的默认配置模板：
// - openai 模型、干跑开启（本地/离线调试友好）；
// - 过滤器给出常用组合；
// - 其余选项为安全中性默认值。
func DefaultTemplateConfig() Config {
	cfg := Defaults()
	cfg.Model = "openai"
	cfg.Target = "zh"
	cfg.Filters = []string{"url", "html_code", "html_pre"}
	cfg.DryRun = true
	cfg.Variables = map[string]string{}
	return cfg
}
