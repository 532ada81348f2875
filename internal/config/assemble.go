package config

import (
	"fmt"
	"strings"
	"time"

	"doctrans/internal/diag"
	"doctrans/internal/httpx"
	"doctrans/internal/pipeline"
	"doctrans/internal/prompt"
	"doctrans/internal/validate"
	"doctrans/pkg/contract"
	"doctrans/pkg/registry"
)

// Validate 对最小必要边界做静态校验。
// 逐调用变量的存在性由驱动在任何网络活动前检查。
func Validate(cfg Config, models *Models) error {
	if strings.TrimSpace(cfg.Model) == "" {
		return fmt.Errorf("config: %w: model not set", contract.ErrConfig)
	}
	if !models.Has(cfg.Model) {
		return fmt.Errorf("config: %w: model %q not registered (known: %s)",
			contract.ErrConfig, cfg.Model, strings.Join(models.Keys(), ", "))
	}
	mc := models.Get(cfg.Model)
	if registry.Driver[mc.Vendor] == nil {
		return fmt.Errorf("config: %w: vendor %q not registered", contract.ErrConfig, mc.Vendor)
	}
	if !contract.Format(cfg.Format).Valid() {
		return fmt.Errorf("config: %w: unknown format %q", contract.ErrConfig, cfg.Format)
	}
	if strings.TrimSpace(cfg.Target) == "" {
		return fmt.Errorf("config: %w: target not set", contract.ErrConfig)
	}
	for _, r := range cfg.Repairs {
		if r != validate.RepairMissingNulls {
			return fmt.Errorf("config: %w: unknown repair %q", contract.ErrConfig, r)
		}
	}
	return nil
}

// Assemble 构造编排器与单次调用选项。
// 声明文档装载与 HTTP 客户端构造均在此处（构造期 I/O）。
func Assemble(cfg Config, corrID string) (*pipeline.Translator, pipeline.Options, *diag.Logger, error) {
	models, err := LoadModels(cfg.ModelsPath)
	if err != nil {
		return nil, pipeline.Options{}, nil, err
	}
	if err := Validate(cfg, models); err != nil {
		return nil, pipeline.Options{}, nil, err
	}

	var prompts *prompt.Catalog
	if strings.TrimSpace(cfg.PromptsPath) != "" {
		prompts, err = prompt.Load(cfg.PromptsPath)
		if err != nil {
			return nil, pipeline.Options{}, nil, err
		}
	} else {
		prompts = prompt.Default()
	}

	hc, err := httpx.New(time.Duration(cfg.TimeoutSeconds)*time.Second, cfg.Proxy)
	if err != nil {
		return nil, pipeline.Options{}, nil, err
	}

	log := diag.NewLogger(corrID, cfg.Logging.Level)
	tr := &pipeline.Translator{
		Models:  models,
		Prompts: prompts,
		HTTP:    hc,
		Logger:  log,
	}
	opts := pipeline.Options{
		Model:     cfg.Model,
		Source:    cfg.Source,
		Target:    cfg.Target,
		Format:    contract.Format(cfg.Format),
		Filters:   cloneStrings(cfg.Filters),
		Repairs:   cloneStrings(cfg.Repairs),
		Context:   cfg.Context,
		Variables: cfg.Variables,
		DryRun:    cfg.DryRun,
		Verbose:   cfg.Verbose,
	}
	return tr, opts, log, nil
}

var _ pipeline.ModelRegistry = (*Models)(nil)
