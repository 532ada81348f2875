package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	cfgpkg "doctrans/internal/config"
	"doctrans/internal/diag"
	"doctrans/internal/prompt"
)

// 退出码约定：
// 0 成功；2 运行期失败（校验/协议/传输）；3 配置或装配失败；4 凭证缺失。
const (
	exitOK      = 0
	exitRuntime = 2
	exitConfig  = 3
	exitAuth    = 4
)

// 简化的 CLI：单文档翻译。
// 位置参数为输入文件（"-" 或缺省表示 STDIN）；结果 JSON 写 stdout。
func main() {
	os.Exit(run())
}

func run() int {
	corrID := uuid.NewString()
	// 在任何 ENV 读取前，尝试加载工作目录下的 .env（不覆盖已有 ENV）。
	_ = cfgpkg.LoadDotEnv(".env")

	var (
		flagConfig  string
		flagModel   string
		flagSource  string
		flagTarget  string
		flagFormat  string
		flagFilters string
		flagRepairs string
		flagContext string
		flagVars    string
		flagProxy   string
		flagTimeout int
		flagModels  string
		flagPrompts string
		flagLog     string
		flagDryRun  bool
		flagVerbose bool
		flagInitDir string
		flagListM   bool
		flagListP   bool
	)
	flag.StringVar(&flagConfig, "config", "", "配置文件路径（JSON）；缺省读取 ./doctrans.json（若存在）")
	flag.StringVar(&flagModel, "model", "", "模型键（覆盖配置）")
	flag.StringVar(&flagSource, "source", "", "源语言（覆盖配置；缺省 auto）")
	flag.StringVar(&flagTarget, "target", "", "目标语言（覆盖配置）")
	flag.StringVar(&flagFormat, "format", "", "文档格式 text|html|json（覆盖配置）")
	flag.StringVar(&flagFilters, "filters", "", "掩蔽过滤器 id，逗号分隔（覆盖配置）")
	flag.StringVar(&flagRepairs, "repairs", "", "schema 修复特性名，逗号分隔（覆盖配置）")
	flag.StringVar(&flagContext, "context", "", "附加语境说明（覆盖配置）")
	flag.StringVar(&flagVars, "vars", "", "逐调用变量 k=v，逗号分隔（覆盖配置）")
	flag.StringVar(&flagProxy, "proxy", "", "HTTP 代理 URL（覆盖配置）")
	flag.IntVar(&flagTimeout, "timeout", 0, "请求超时秒数（覆盖配置）")
	flag.StringVar(&flagModels, "models", "", "模型声明 YAML 路径（缺省内置）")
	flag.StringVar(&flagPrompts, "prompts", "", "提示词目录 YAML 路径（缺省内置）")
	flag.StringVar(&flagLog, "log-level", "", "日志级别 debug|info|warn|error（覆盖配置）")
	flag.BoolVar(&flagDryRun, "dry-run", false, "不触网；掩蔽文本充当译文走完全部周边逻辑")
	flag.BoolVar(&flagVerbose, "verbose", false, "结果中携带调试请求/响应串（已脱敏）")
	flag.StringVar(&flagInitDir, "init-config", "", "在指定目录生成默认配置 doctrans.json 和 .env 模板（不覆盖已存在文件）；不带值时默认当前目录")
	flag.BoolVar(&flagListM, "list-models", false, "列出登记的模型并退出")
	flag.BoolVar(&flagListP, "list-prompts", false, "列出提示词目录并退出")
	normalizeInitArg()
	flag.Parse()

	// --init-config: 生成模板并退出
	if dir := strings.TrimSpace(flagInitDir); dir != "" {
		if err := initConfig(dir); err != nil {
			fprintf(os.Stderr, "生成默认配置失败: %v\n", err)
			return exitConfig
		}
		return exitOK
	}

	// JSON 配置（文件或 ENV: DOCTRANS_CONFIG_JSON）
	var cfgJSON []byte
	if s := os.Getenv("DOCTRANS_CONFIG_JSON"); s != "" {
		cfgJSON = []byte(s)
	}
	if flagConfig == "" {
		if s := os.Getenv("DOCTRANS_CONFIG_FILE"); s != "" {
			flagConfig = s
		}
	}
	if flagConfig == "" {
		if _, err := os.Stat("doctrans.json"); err == nil {
			flagConfig = "doctrans.json"
		}
	}

	cfg := cfgpkg.Defaults()
	if flagConfig != "" || len(cfgJSON) > 0 {
		base, err := cfgpkg.LoadJSON(flagConfig, cfgJSON)
		if err != nil {
			fprintf(os.Stderr, "配置解析失败: %v\n", err)
			return exitConfig
		}
		cfg = cfgpkg.Merge(cfg, base)
	}

	// ENV 覆盖
	cfg = cfgpkg.Merge(cfg, cfgpkg.EnvOverlay(os.Environ()))

	// CLI 覆盖
	overCLI := cfgpkg.Config{
		Model:          flagModel,
		Source:         flagSource,
		Target:         flagTarget,
		Format:         flagFormat,
		Context:        flagContext,
		Proxy:          flagProxy,
		TimeoutSeconds: flagTimeout,
		ModelsPath:     flagModels,
		PromptsPath:    flagPrompts,
		DryRun:         flagDryRun,
		Verbose:        flagVerbose,
	}
	overCLI.Logging.Level = flagLog
	if flagFilters != "" {
		overCLI.Filters = splitComma(flagFilters)
	}
	if flagRepairs != "" {
		overCLI.Repairs = splitComma(flagRepairs)
	}
	if flagVars != "" {
		vars, err := parseVars(flagVars)
		if err != nil {
			fprintf(os.Stderr, "变量解析失败: %v\n", err)
			return exitConfig
		}
		overCLI.Variables = vars
	}
	cfg = cfgpkg.Merge(cfg, overCLI)

	// 清单命令不需要完整装配
	if flagListM || flagListP {
		if err := printListings(cfg, flagListM, flagListP); err != nil {
			fprintf(os.Stderr, "清单输出失败: %v\n", err)
			return exitConfig
		}
		return exitOK
	}

	tr, opts, logger, err := cfgpkg.Assemble(cfg, corrID)
	if err != nil {
		fprintf(os.Stderr, "装配失败: %v\n", err)
		return exitConfig
	}
	defer logger.Sync()

	doc, err := readDocument(flag.Arg(0))
	if err != nil {
		fprintf(os.Stderr, "输入读取失败: %v\n", err)
		return exitConfig
	}

	res, terr := tr.Translate(context.Background(), doc, opts)
	if !opts.Verbose {
		res.DebugRequest = ""
		res.DebugResponse = ""
		res.RawResponseBody = ""
	}
	if err := writeResult(os.Stdout, res); err != nil {
		fprintf(os.Stderr, "结果输出失败: %v\n", err)
		return exitRuntime
	}
	if terr != nil {
		if !errors.Is(terr, context.Canceled) {
			fprintf(os.Stderr, "翻译失败: %v\n", terr)
		}
		return exitCode(terr)
	}
	return exitOK
}

// exitCode 将运行期错误映射到退出码。
func exitCode(err error) int {
	switch diag.Classify(err) {
	case diag.CodeConfig:
		return exitConfig
	case diag.CodeAuth:
		return exitAuth
	default:
		return exitRuntime
	}
}

// readDocument 从文件或 STDIN 读取待译文档。
func readDocument(path string) (string, error) {
	if path == "" || path == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// writeResult 将结果记录以缩进 JSON 写出。
func writeResult(w io.Writer, res any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(res)
}

// printListings 输出模型/提示词清单（JSON）。
func printListings(cfg cfgpkg.Config, models, prompts bool) error {
	out := map[string]any{}
	if models {
		reg, err := cfgpkg.LoadModels(cfg.ModelsPath)
		if err != nil {
			return err
		}
		entries := map[string]any{}
		for _, k := range reg.Keys() {
			mc := reg.Get(k)
			entries[k] = map[string]any{
				"vendor":   mc.Vendor,
				"model":    mc.Model,
				"auth_env": mc.Auth.Env,
				"notes":    mc.Notes,
			}
		}
		out["models"] = entries
	}
	if prompts {
		cat, err := loadCatalog(cfg.PromptsPath)
		if err != nil {
			return err
		}
		out["prompts"] = cat.List()
	}
	return writeResult(os.Stdout, out)
}

// loadCatalog 装载提示词目录；path 为空时使用内置。
func loadCatalog(path string) (*prompt.Catalog, error) {
	if strings.TrimSpace(path) != "" {
		return prompt.Load(path)
	}
	return prompt.Default(), nil
}

// parseVars 解析 k=v 逗号列表。
func parseVars(s string) (map[string]string, error) {
	out := map[string]string{}
	for _, part := range splitComma(s) {
		eq := strings.IndexByte(part, '=')
		if eq <= 0 {
			return nil, fmt.Errorf("期望 k=v 形式: %q", part)
		}
		out[strings.TrimSpace(part[:eq])] = strings.TrimSpace(part[eq+1:])
	}
	return out, nil
}

func splitComma(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func fprintf(w *os.File, format string, a ...any) { _, _ = fmt.Fprintf(w, format, a...) }

// initConfig 生成 doctrans.json 与 .env 模板（均不覆盖已存在文件）。
func initConfig(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(cfgpkg.DefaultTemplateConfig(), "", "  ")
	if err != nil {
		return err
	}
	if err := writeOnce(filepath.Join(dir, "doctrans.json"), append(b, '\n')); err != nil {
		return err
	}
	return writeOnce(filepath.Join(dir, ".env"), []byte(dotEnvTemplate))
}

// writeOnce 仅创建文件；已存在则跳过。
func writeOnce(path string, content []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()
	_, err = f.Write(content)
	return err
}

// normalizeInitArg: 允许 --init-config 在未提供路径值时采用默认值当前目录 "."。
// 兼容 --init-config / --init-config=out / --init-config out 三种形式。
func normalizeInitArg() {
	args := os.Args
	if len(args) <= 1 {
		return
	}
	out := make([]string, 0, len(args)+1)
	out = append(out, args[0])
	for i := 1; i < len(args); i++ {
		a := args[i]
		out = append(out, a)
		if a == "--init-config" || a == "-init-config" {
			if i == len(args)-1 || strings.HasPrefix(args[i+1], "-") {
				out = append(out, ".")
			}
		}
	}
	os.Args = out
}

const dotEnvTemplate = `# doctrans .env 模板（由 --init-config 生成）
# 优先级：CLI > ENV(.env) > JSON
# 空值表示未设置；按需填写后移除本行注释。

# 配置来源（可二选一）
DOCTRANS_CONFIG_FILE=
DOCTRANS_CONFIG_JSON=

# 运行参数覆盖
DOCTRANS_MODEL=
DOCTRANS_SOURCE=
DOCTRANS_TARGET=
DOCTRANS_FORMAT=
DOCTRANS_FILTERS=
DOCTRANS_REPAIRS=
DOCTRANS_TIMEOUT_SECONDS=
DOCTRANS_PROXY=
DOCTRANS_LOG_LEVEL=

# 逐调用变量（如 DOCTRANS_VAR__FORMALITY=more）
DOCTRANS_VAR__FORMALITY=

# 供应商 API Key（由模型声明的 auth.env 读取）
OPENAI_API_KEY=
GEMINI_API_KEY=
DEEPL_API_KEY=
`
