package config

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// EnvOverlay 从环境变量构建一个 Config 覆盖（仅解析有限键集合）。
// 规则：前缀 DOCTRANS_；集合之外的键忽略。
// 支持：MODEL, SOURCE, TARGET, FORMAT, FILTERS, REPAIRS, CONTEXT,
// PROXY, TIMEOUT_SECONDS, LOG_LEVEL, MODELS_PATH, PROMPTS_PATH,
// DRY_RUN, VERBOSE, 以及 VAR__<name> 逐调用变量。
func EnvOverlay(environ []string) Config {
	var over Config
	for _, kv := range environ {
		if !strings.HasPrefix(kv, "DOCTRANS_") {
			continue
		}
		eq := strings.IndexByte(kv, '=')
		if eq <= len("DOCTRANS_") {
			continue
		}
		nk := strings.TrimPrefix(kv[:eq], "DOCTRANS_")
		val := kv[eq+1:]
		switch nk {
		case "MODEL":
			over.Model = strings.TrimSpace(val)
		case "SOURCE":
			over.Source = strings.TrimSpace(val)
		case "TARGET":
			over.Target = strings.TrimSpace(val)
		case "FORMAT":
			over.Format = strings.TrimSpace(val)
		case "FILTERS":
			if val != "" {
				over.Filters = splitComma(val)
			}
		case "REPAIRS":
			if val != "" {
				over.Repairs = splitComma(val)
			}
		case "CONTEXT":
			over.Context = val
		case "PROXY":
			over.Proxy = strings.TrimSpace(val)
		case "TIMEOUT_SECONDS":
			if v, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
				over.TimeoutSeconds = v
			}
		case "LOG_LEVEL":
			over.Logging.Level = strings.TrimSpace(val)
		case "MODELS_PATH":
			over.ModelsPath = strings.TrimSpace(val)
		case "PROMPTS_PATH":
			over.PromptsPath = strings.TrimSpace(val)
		case "DRY_RUN":
			over.DryRun = isTrue(val)
		case "VERBOSE":
			over.Verbose = isTrue(val)
		default:
			if name, ok := strings.CutPrefix(nk, "VAR__"); ok && name != "" {
				if over.Variables == nil {
					over.Variables = map[string]string{}
				}
				over.Variables[strings.ToLower(name)] = val
			}
		}
	}
	return over
}

func isTrue(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// LoadDotEnv 读取 .env 文件并注入进程环境（不覆盖已存在的变量）。
// 文件缺失不是错误；支持 #注释、空行与 KEY=VALUE 行，值两侧引号剥除。
func LoadDotEnv(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		eq := strings.IndexByte(line, '=')
		if eq <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		val := strings.TrimSpace(line[eq+1:])
		if len(val) >= 2 {
			if (val[0] == '"' && val[len(val)-1] == '"') || (val[0] == '\'' && val[len(val)-1] == '\'') {
				val = val[1 : len(val)-1]
			}
		}
		if key == "" {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, val); err != nil {
			return err
		}
	}
	return sc.Err()
}
