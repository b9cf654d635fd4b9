package app

import (
	"fmt"
	"strings"

	"corpus-expand/internal/config"
	"corpus-expand/internal/corpus"
)

type StatusOptions struct {
	ConfigPath string
	Target     *int
	Languages  []string
	ZHPath     string
	ENPath     string
	CWD        string
}

type StatusRow struct {
	Language corpus.Language
	Tier     corpus.Tier
	Count    int
	Target   int
	Deficit  int
	Path     string
}

// Status reports count and deficit per language and tier without calling any provider.
func Status(opts StatusOptions) ([]StatusRow, error) {
	cwd, err := resolveCWD(opts.CWD)
	if err != nil {
		return nil, err
	}
	cfg, paths, err := config.Load(opts.ConfigPath, cwd)
	if err != nil {
		return nil, err
	}
	overrideConfig(cfg, Options{Target: opts.Target, Languages: opts.Languages, ZHPath: opts.ZHPath, ENPath: opts.ENPath})
	paths.Reresolve(cfg, cwd)
	langs, err := corpus.ParseLanguages(cfg.Languages)
	if err != nil {
		return nil, err
	}

	store := corpus.NewFileStore(paths.CorpusPaths)
	rows := make([]StatusRow, 0, len(langs)*len(corpus.Tiers))
	for _, lang := range langs {
		c, err := store.Load(lang)
		if err != nil {
			return nil, err
		}
		path, _ := store.Path(lang)
		for _, tier := range corpus.Tiers {
			rows = append(rows, StatusRow{
				Language: lang,
				Tier:     tier,
				Count:    c.Count(tier),
				Target:   cfg.Target,
				Deficit:  c.Deficit(tier, cfg.Target),
				Path:     path,
			})
		}
	}
	return rows, nil
}

type SetKeyOptions struct {
	ConfigPath string
	Provider   string
	Value      string
	CWD        string
}

// SetKey writes the provider credential into the configured .env file and returns
// the variable name and file path.
func SetKey(opts SetKeyOptions) (string, string, error) {
	if strings.TrimSpace(opts.Value) == "" {
		return "", "", fmt.Errorf("api key 为空")
	}
	cwd, err := resolveCWD(opts.CWD)
	if err != nil {
		return "", "", err
	}
	cfg, paths, err := config.Load(opts.ConfigPath, cwd)
	if err != nil {
		return "", "", err
	}
	cfg.Provider = strings.ToLower(strings.TrimSpace(opts.Provider))
	pc, err := cfg.ActiveProvider()
	if err != nil {
		return "", "", err
	}
	if err := config.UpsertEnvVar(paths.EnvPath, pc.APIKeyEnv, opts.Value); err != nil {
		return "", "", err
	}
	return pc.APIKeyEnv, paths.EnvPath, nil
}
