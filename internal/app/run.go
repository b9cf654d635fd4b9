package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"corpus-expand/internal/config"
	"corpus-expand/internal/corpus"
	"corpus-expand/internal/expand"
	"corpus-expand/internal/llm"
	"corpus-expand/internal/logging"
)

type Options struct {
	ConfigPath string
	Provider   string
	Model      string
	Target     *int
	PerCall    int
	Languages  []string
	ZHPath     string
	ENPath     string
	Delay      *time.Duration
	MaxRetries *int
	LogFile    string
	Verbose    bool
	CWD        string
	Stdout     io.Writer
	// LookupEnv and NewProvider default to os.LookupEnv and llm.New.
	LookupEnv   func(string) (string, bool)
	NewProvider func(context.Context, llm.Options) (llm.Provider, error)
}

type Result struct {
	Summary   Summary
	Balance   string
	ElapsedMS int64
	RunID     string
}

func Run(ctx context.Context, opts Options) (Result, error) {
	start := time.Now()
	cwd, err := resolveCWD(opts.CWD)
	if err != nil {
		return Result{}, err
	}
	cfg, paths, err := config.Load(opts.ConfigPath, cwd)
	if err != nil {
		return Result{}, err
	}
	overrideConfig(cfg, opts)
	paths.Reresolve(cfg, cwd)
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	langs, err := corpus.ParseLanguages(cfg.Languages)
	if err != nil {
		return Result{}, err
	}

	if err := config.LoadDotEnv(paths.EnvPath); err != nil {
		return Result{}, err
	}
	if !llm.IsSupported(cfg.Provider) {
		return Result{}, fmt.Errorf("%w：%s（可选 %s）", llm.ErrUnsupportedProvider, cfg.Provider, strings.Join(llm.Supported(), ", "))
	}
	providerCfg, err := cfg.ActiveProvider()
	if err != nil {
		return Result{}, err
	}
	apiKey, err := config.APIKey(cfg, opts.LookupEnv)
	if err != nil {
		return Result{}, err
	}

	newProvider := opts.NewProvider
	if newProvider == nil {
		newProvider = llm.New
	}
	provider, err := newProvider(ctx, llm.Options{
		Provider: cfg.Provider,
		APIKey:   apiKey,
		BaseURL:  providerCfg.BaseURL,
		Timeout:  time.Duration(cfg.RequestTimeoutSec) * time.Second,
	})
	if err != nil {
		return Result{}, err
	}

	logger, closer, err := logging.New(opts.Stdout, opts.LogFile, opts.Verbose)
	if err != nil {
		return Result{}, fmt.Errorf("初始化日志失败：%w", err)
	}
	if closer != nil {
		defer closer.Close()
	}
	defer logger.Sync()

	model := cfg.ResolvedModel()
	expander, err := expand.New(expand.Options{
		Provider:     provider,
		Model:        model,
		Temperature:  cfg.Temperature,
		PerCall:      cfg.PerCall,
		MinPerCall:   cfg.MinPerCall,
		GiveUpAfter:  cfg.GiveUpAfter,
		ForbiddenCap: cfg.ForbiddenCap,
		MaxRetries:   cfg.MaxRetries,
		Pacer:        expand.NewPacer(time.Duration(cfg.CallDelayMS) * time.Millisecond),
		Logger:       logger,
	})
	if err != nil {
		return Result{}, err
	}

	logger.Emit(logging.Event{Event: "startup", Provider: cfg.Provider, Model: model, Target: cfg.Target, BatchSize: cfg.PerCall})
	logger.Emit(logging.Event{Level: "debug", Event: "config_loaded", OutputFile: paths.ConfigSource})

	orch := &Orchestrator{Store: corpus.NewFileStore(paths.CorpusPaths), Expander: expander, Logger: logger}
	sum, runErr := orch.Run(ctx, Plan{Languages: langs, Target: cfg.Target})

	res := Result{Summary: sum, RunID: logger.RunID()}
	if runErr == nil {
		if bc, ok := provider.(llm.BalanceChecker); ok {
			if balance, err := bc.Balance(ctx); err == nil {
				res.Balance = balance
			} else {
				logger.Emit(logging.Event{Level: "warn", Event: "balance_failed", Provider: cfg.Provider, Error: err.Error()})
			}
		}
	}
	res.ElapsedMS = time.Since(start).Milliseconds()
	logger.Emit(logging.Event{Event: "finished", Count: len(sum.Languages), LatencyMS: res.ElapsedMS})
	return res, runErr
}

func overrideConfig(cfg *config.Config, opts Options) {
	if strings.TrimSpace(opts.Provider) != "" {
		cfg.Provider = strings.ToLower(strings.TrimSpace(opts.Provider))
	}
	if strings.TrimSpace(opts.Model) != "" {
		cfg.Model = strings.TrimSpace(opts.Model)
	}
	if opts.Target != nil {
		cfg.Target = *opts.Target
	}
	if opts.PerCall > 0 {
		cfg.PerCall = opts.PerCall
		if cfg.MinPerCall > cfg.PerCall {
			cfg.MinPerCall = cfg.PerCall
		}
	}
	if len(opts.Languages) > 0 {
		cfg.Languages = opts.Languages
	}
	if strings.TrimSpace(opts.ZHPath) != "" {
		cfg.Corpus.ZH = opts.ZHPath
	}
	if strings.TrimSpace(opts.ENPath) != "" {
		cfg.Corpus.EN = opts.ENPath
	}
	if opts.Delay != nil {
		cfg.CallDelayMS = int(max(*opts.Delay, 0).Milliseconds())
	}
	if opts.MaxRetries != nil {
		cfg.MaxRetries = max(*opts.MaxRetries, 0)
	}
}

func resolveCWD(cwd string) (string, error) {
	if strings.TrimSpace(cwd) != "" {
		return cwd, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("读取当前目录失败：%w", err)
	}
	return wd, nil
}
