package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	"go.uber.org/zap"

	"doctrans/internal/diag"
	"doctrans/internal/mask"
	"doctrans/internal/usage"
	"doctrans/internal/validate"
	"doctrans/pkg/contract"
	"doctrans/pkg/registry"
)

// 线性状态机：
// Start → PreValidate → Mask → BuildRequest → Authenticate → Transmit →
// ParseResponse → Unmask → PostValidate → NormalizeUsage → Done；
// 任一阶段可进入 Errored。每步要么把产物交给下一步，要么以类型化
// 失败中止；失败时已采集的诊断（掩蔽预览、长度、调试串）全部回填。
// 同步、单文档；唯一悬挂点是 Transmit 的网络调用。

// Stage: 状态机阶段名（用于错误包装与日志）。
type Stage string

const (
	StageStart          Stage = "start"
	StagePreValidate    Stage = "pre_validate"
	StageMask           Stage = "mask"
	StageBuildRequest   Stage = "build_request"
	StageAuthenticate   Stage = "authenticate"
	StageTransmit       Stage = "transmit"
	StageParseResponse  Stage = "parse_response"
	StageUnmask         Stage = "unmask"
	StagePostValidate   Stage = "post_validate"
	StageNormalizeUsage Stage = "normalize_usage"
)

// ModelRegistry: 模型声明查询（构造后只读，可并发读）。
type ModelRegistry interface {
	Has(key string) bool
	Get(key string) *contract.ModelConfig
}

// PromptRenderer: 提示词渲染协作者。
type PromptRenderer interface {
	Render(kind, format string, vars map[string]string) (string, error)
}

// Translator: 编排器。跨调用不持状态：每次 Translate 自建
// 发号器/过滤器/上下文，并发调用无需内部协调。
type Translator struct {
	Models  ModelRegistry
	Prompts PromptRenderer
	HTTP    contract.HTTPClient
	Logger  *diag.Logger
}

// Options: 单次调用选项。
type Options struct {
	Model   string
	Source  string
	Target  string
	Format  contract.Format
	Filters []string
	// Repairs: 开启的 schema 修复特性（如 validate.RepairMissingNulls）。
	Repairs   []string
	Context   string
	Variables map[string]string
	// DryRun: 跳过 Transmit，以掩蔽文本充当"译文"走完全部周边逻辑。
	DryRun  bool
	Verbose bool
}

// Translate 执行一次完整流水线。
// 错误路径下返回的 Result 仍携带截至失败点已采集的字段。
func (t *Translator) Translate(ctx context.Context, original string, opts Options) (contract.Result, error) {
	log := t.Logger
	if log == nil {
		log = diag.Nop()
	}
	res := contract.Result{Original: original}
	res.Lengths.Original = len(original)

	fail := func(stage Stage, err error) (contract.Result, error) {
		log.Error("pipeline", diag.Classify(err), string(stage)+" failed",
			zap.Int("original_len", res.Lengths.Original),
			zap.Int("prepared_len", res.Lengths.Prepared),
			zap.Int("http_status", res.HTTPStatus),
		)
		return res, fmt.Errorf("%s: %w", stage, err)
	}

	// Start: 模型/厂商/格式解析
	tm := log.Start("pipeline", "translate")
	if !opts.Format.Valid() {
		return fail(StageStart, fmt.Errorf("%w: unknown format %q", contract.ErrConfig, opts.Format))
	}
	if t.Models == nil || !t.Models.Has(opts.Model) {
		return fail(StageStart, fmt.Errorf("%w: unknown model %q", contract.ErrConfig, opts.Model))
	}
	cfg := t.Models.Get(opts.Model)
	newDriver, ok := registry.Driver[cfg.Vendor]
	if !ok {
		return fail(StageStart, fmt.Errorf("%w: unknown vendor %q for model %q", contract.ErrConfig, cfg.Vendor, opts.Model))
	}
	drv := newDriver()

	// PreValidate: 上限、占位符语法拒绝、容器语法、JSON 形状捕获
	if cfg.CharLimit > 0 && len([]rune(original)) > cfg.CharLimit {
		return fail(StagePreValidate, fmt.Errorf("%w: document exceeds char limit %d", contract.ErrValidation, cfg.CharLimit))
	}
	if contract.TokenPattern.MatchString(original) {
		// 受保护内容自带占位符语法时无法保证还原不变量：拒绝而非转义
		return fail(StagePreValidate, fmt.Errorf("%w: input contains placeholder syntax @@N@@", contract.ErrValidation))
	}
	var beforeVal any
	switch opts.Format {
	case contract.FormatJSON:
		v, err := validate.ParseJSON(original)
		if err != nil {
			return fail(StagePreValidate, fmt.Errorf("%w: json: %v", contract.ErrValidation, err))
		}
		beforeVal = v
	case contract.FormatHTML:
		if r := validate.HTML(original); !r.Valid {
			return fail(StagePreValidate, fmt.Errorf("%w: %s", contract.ErrValidation, strings.Join(r.Errors, "; ")))
		}
	}

	// Mask
	mp := mask.New(opts.Filters)
	prepared := mp.Apply(original)
	res.Prepared = prepared
	res.Lengths.Prepared = len(prepared)
	res.FilterStats = mp.Stats()

	// BuildRequest: 模板渲染 + 驱动构造
	vars := map[string]string{
		"source":  opts.Source,
		"target":  opts.Target,
		"start":   contract.MarkerStart,
		"end":     contract.MarkerEnd,
		"context": opts.Context,
	}
	for k, v := range opts.Variables {
		vars[k] = v
	}
	sys, err := t.Prompts.Render("translate", string(opts.Format), vars)
	if err != nil {
		return fail(StageBuildRequest, err)
	}
	callOpts := contract.CallOptions{
		Source:       opts.Source,
		Target:       opts.Target,
		Format:       opts.Format,
		Context:      opts.Context,
		SystemPrompt: sys,
		Variables:    opts.Variables,
	}
	req, err := drv.BuildRequest(*cfg, prepared, callOpts)
	if err != nil {
		return fail(StageBuildRequest, err)
	}

	// Authenticate: 按声明位注入凭证；明文绝不进入诊断串
	var secret string
	if cfg.Auth.Env != "" {
		secret = os.Getenv(cfg.Auth.Env)
		if secret == "" {
			msg := fmt.Sprintf("%s not set", cfg.Auth.Env)
			if cfg.HelpURL != "" {
				msg += "; see " + cfg.HelpURL
			}
			return fail(StageAuthenticate, fmt.Errorf("%w: %s", contract.ErrAuth, msg))
		}
		injectCredential(&req, cfg.Auth, secret)
	}

	// Transmit: 唯一悬挂点；dry run 时协作者只构造调试串
	httpReq := contract.HTTPRequest{
		Method:  req.Method,
		URL:     req.URL,
		Header:  req.Header,
		Body:    req.Body,
		DryRun:  opts.DryRun,
		Verbose: opts.Verbose,
	}
	if secret != "" {
		httpReq.Secrets = []string{secret}
	}
	hres, err := t.HTTP.Do(ctx, httpReq)
	res.DebugRequest = hres.DebugRequest
	res.DebugResponse = hres.DebugResponse
	if err != nil {
		return fail(StageTransmit, fmt.Errorf("%w: %v", contract.ErrTransport, err))
	}
	res.HTTPStatus = hres.Status
	res.RawResponseBody = string(hres.Body)

	// ParseResponse / dry run 替身
	var translated string
	var vendorUsage map[string]any
	if opts.DryRun {
		translated = prepared
	} else {
		if hres.Status >= 400 && !cfg.StructuredErrors {
			return fail(StageTransmit, fmt.Errorf("%w: http %d", contract.ErrTransport, hres.Status))
		}
		resp, perr := drv.ParseResponse(*cfg, hres.Body)
		if perr != nil {
			return fail(StageParseResponse, perr)
		}
		if hres.Status >= 400 {
			// 声明了结构化错误但包络缺位：按传输失败收口
			return fail(StageTransmit, fmt.Errorf("%w: http %d without vendor error envelope", contract.ErrTransport, hres.Status))
		}
		translated = resp.Text
		vendorUsage = resp.Usage
	}

	// Unmask
	restored := mp.Restore(translated)

	// PostValidate: 语法 + 形状比对（可选修复先行）
	switch opts.Format {
	case contract.FormatJSON:
		afterVal, jerr := validate.ParseJSON(restored)
		if jerr != nil {
			return fail(StagePostValidate, fmt.Errorf("%w: json: %v", contract.ErrValidation, jerr))
		}
		if len(opts.Repairs) > 0 {
			afterVal = validate.Repair(beforeVal, afterVal, opts.Repairs)
			b, merr := json.Marshal(afterVal)
			if merr != nil {
				return fail(StagePostValidate, fmt.Errorf("%w: re-encode: %v", contract.ErrValidation, merr))
			}
			restored = string(b)
		}
		if r := validate.Compare(validate.Capture(beforeVal), validate.Capture(afterVal)); !r.Valid {
			return fail(StagePostValidate, fmt.Errorf("%w: %s", contract.ErrValidation, strings.Join(r.Errors, "; ")))
		}
	case contract.FormatHTML:
		if r := validate.HTML(restored); !r.Valid {
			return fail(StagePostValidate, fmt.Errorf("%w: %s", contract.ErrValidation, strings.Join(r.Errors, "; ")))
		}
	}

	// NormalizeUsage
	if len(cfg.Usage) > 0 {
		res.Consumed = usage.Normalize(vendorUsage, cfg.Usage)
	}

	// Done
	res.Output = restored
	res.Lengths.Translated = len(restored)
	tm.Finish("translate", int64(mp.Issued()))
	return res, nil
}

// injectCredential 将凭证注入厂商声明的位置。
func injectCredential(req *contract.Request, auth contract.Auth, secret string) {
	value := auth.Prefix + secret
	switch auth.Placement {
	case contract.AuthQuery:
		sep := "?"
		if strings.Contains(req.URL, "?") {
			sep = "&"
		}
		req.URL += sep + url.QueryEscape(auth.Field) + "=" + url.QueryEscape(value)
	case contract.AuthForm:
		form := url.Values{}
		form.Set(auth.Field, value)
		if len(req.Body) > 0 {
			req.Body = append(req.Body, '&')
		}
		req.Body = append(req.Body, form.Encode()...)
	default:
		// header 为缺省位
		if req.Header == nil {
			req.Header = map[string]string{}
		}
		field := auth.Field
		if field == "" {
			field = "Authorization"
		}
		req.Header[field] = value
	}
}
