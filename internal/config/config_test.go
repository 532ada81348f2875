package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"doctrans/pkg/contract"
)

// TestLoadJSON 解析完整 config JSON。
func TestLoadJSON(t *testing.T) {
	raw := []byte(`{
  "model": "openai",
  "source": "en",
  "target": "zh",
  "format": "html",
  "filters": ["url", "html_code"],
  "repairs": ["missing_nulls"],
  "variables": {"formality": "more"},
  "dry_run": true,
  "timeout_seconds": 30,
  "logging": {"level": "debug"}
}`)
	cfg, err := LoadJSON("", raw)
	if err != nil {
		t.Fatalf("加载失败: %v", err)
	}
	if cfg.Model != "openai" || cfg.Format != "html" || !cfg.DryRun {
		t.Fatalf("字段映射错误: %+v", cfg)
	}
	if len(cfg.Filters) != 2 || cfg.Variables["formality"] != "more" {
		t.Fatalf("列表/映射字段错误: %+v", cfg)
	}
	if err := Validate(cfg, DefaultModels()); err != nil {
		t.Fatalf("校验失败: %v", err)
	}
}

// TestLoadJSONUnknown 未知字段在解析期失败。
func TestLoadJSONUnknown(t *testing.T) {
	if _, err := LoadJSON("", []byte(`{"unknown":1}`)); err == nil {
		t.Fatalf("应当返回错误")
	}
}

// TestMergePriority 覆盖优先级：后者覆盖前者，空值不覆盖。
func TestMergePriority(t *testing.T) {
	base := Defaults()
	base.Model = "openai"
	base.Target = "zh"
	base.Filters = []string{"url"}

	over := Config{Target: "de", Filters: []string{"html_a"}, Verbose: true}
	out := Merge(base, over)
	if out.Model != "openai" || out.Target != "de" || !out.Verbose {
		t.Fatalf("合并结果错误: %+v", out)
	}
	if len(out.Filters) != 1 || out.Filters[0] != "html_a" {
		t.Fatalf("列表应整体替换: %v", out.Filters)
	}
	if out.Source != "auto" || out.TimeoutSeconds != 60 {
		t.Fatalf("默认值丢失: %+v", out)
	}
}

// TestEnvOverlay ENV 覆盖部分字段。
func TestEnvOverlay(t *testing.T) {
	env := []string{
		"DOCTRANS_MODEL=gemini",
		"DOCTRANS_TARGET=ja",
		"DOCTRANS_FILTERS=url, html_pre",
		"DOCTRANS_TIMEOUT_SECONDS=15",
		"DOCTRANS_DRY_RUN=true",
		"DOCTRANS_VAR__FORMALITY=less",
		"OTHER_KEY=ignored",
	}
	over := EnvOverlay(env)
	if over.Model != "gemini" || over.Target != "ja" || !over.DryRun {
		t.Fatalf("覆盖结果不正确: %+v", over)
	}
	if len(over.Filters) != 2 || over.TimeoutSeconds != 15 {
		t.Fatalf("列表/整数覆盖错误: %+v", over)
	}
	if over.Variables["formality"] != "less" {
		t.Fatalf("变量覆盖错误: %+v", over.Variables)
	}
}

// TestValidateErrors 校验错误分支均归于 ErrConfig。
func TestValidateErrors(t *testing.T) {
	models := DefaultModels()
	cases := []Config{
		{},
		{Model: "nope", Target: "zh", Format: "text"},
		{Model: "openai", Target: "zh", Format: "pdf"},
		{Model: "openai", Format: "text"},
		{Model: "openai", Target: "zh", Format: "text", Repairs: []string{"magic"}},
	}
	for i, cfg := range cases {
		err := Validate(cfg, models)
		if err == nil {
			t.Fatalf("case %d: 应当失败", i)
		}
		if !errors.Is(err, contract.ErrConfig) {
			t.Fatalf("case %d: 应归于 ErrConfig: %v", i, err)
		}
	}
	ok := Config{Model: "deepl", Target: "de", Format: "json", Repairs: []string{"missing_nulls"}}
	if err := Validate(ok, models); err != nil {
		t.Fatalf("合法配置不应失败: %v", err)
	}
}

// TestDefaultModels 内置注册表的关键声明。
func TestDefaultModels(t *testing.T) {
	m := DefaultModels()
	keys := m.Keys()
	if len(keys) != 3 || keys[0] != "deepl" || keys[1] != "gemini" || keys[2] != "openai" {
		t.Fatalf("内置模型键错误: %v", keys)
	}
	oa := m.Get("openai")
	if oa.Auth.Placement != contract.AuthHeader || oa.Auth.Prefix != "Bearer " {
		t.Fatalf("openai 凭证声明错误: %+v", oa.Auth)
	}
	if oa.Usage["tokens"].Total != "total_tokens" {
		t.Fatalf("openai 用量声明错误: %+v", oa.Usage)
	}
	ge := m.Get("gemini")
	if ge.Auth.Placement != contract.AuthQuery || ge.Auth.Field != "key" {
		t.Fatalf("gemini 凭证声明错误: %+v", ge.Auth)
	}
	if ge.Usage["tokens"].Breakdown["input"] != "promptTokenCount" {
		t.Fatalf("gemini 用量路径错误: %+v", ge.Usage)
	}
	if dl := m.Get("deepl"); dl.CharLimit != 120000 || !dl.StructuredErrors {
		t.Fatalf("deepl 声明错误: %+v", dl)
	}
}

// TestParseModelsStrict 未知字段与缺失必填项。
func TestParseModelsStrict(t *testing.T) {
	if _, err := ParseModels([]byte("models:\n  x:\n    bogus: 1\n")); err == nil {
		t.Fatalf("未知字段应失败")
	}
	if _, err := ParseModels([]byte("models:\n  x:\n    vendor: openai\n")); err == nil {
		t.Fatalf("缺失 endpoint 应失败")
	}
}

// TestLoadDotEnv .env 注入不覆盖既有变量。
func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nexport DOTENV_NEW=fresh\nDOTENV_OLD=\"stale\"\n\nBROKEN\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DOTENV_OLD", "kept")
	os.Unsetenv("DOTENV_NEW")
	t.Cleanup(func() { os.Unsetenv("DOTENV_NEW") })

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("DOTENV_NEW"); got != "fresh" {
		t.Fatalf("新变量应注入: %q", got)
	}
	if got := os.Getenv("DOTENV_OLD"); got != "kept" {
		t.Fatalf("既有变量不应覆盖: %q", got)
	}
	if err := LoadDotEnv(filepath.Join(dir, "absent")); err != nil {
		t.Fatalf("文件缺失不是错误: %v", err)
	}
}

// TestAssemble 端到端装配。
func TestAssemble(t *testing.T) {
	cfg := DefaultTemplateConfig()
	tr, opts, log, err := Assemble(cfg, "corr-1")
	if err != nil {
		t.Fatalf("装配失败: %v", err)
	}
	defer log.Sync()
	if tr.Models == nil || tr.Prompts == nil || tr.HTTP == nil {
		t.Fatalf("协作者缺位: %+v", tr)
	}
	if opts.Model != "openai" || !opts.DryRun || opts.Format != contract.FormatText {
		t.Fatalf("选项映射错误: %+v", opts)
	}
}
