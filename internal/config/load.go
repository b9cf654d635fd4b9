package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"corpus-expand/internal/corpus"
)

// DefaultFileName is picked up from the working directory when no --config is given.
const DefaultFileName = "corpus-expand.yaml"

//go:embed default.yaml
var embeddedDefaultConfig []byte

func DefaultYAML() []byte {
	return append([]byte(nil), embeddedDefaultConfig...)
}

func Load(pathArg, cwd string) (*Config, *Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, nil, fmt.Errorf("读取用户目录失败：%w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(embeddedDefaultConfig, cfg); err != nil {
		return nil, nil, fmt.Errorf("内置配置格式错误：%w", err)
	}
	paths := &Paths{HomeDir: home, ConfigSource: "builtin"}

	configPath := ""
	if strings.TrimSpace(pathArg) != "" {
		configPath = expandPath(pathArg, home, cwd)
	} else if candidate := filepath.Join(cwd, DefaultFileName); fileExists(candidate) {
		configPath = candidate
	}
	if configPath != "" {
		raw, err := os.ReadFile(configPath)
		if err != nil {
			return nil, nil, fmt.Errorf("读取配置文件失败（%s）：%w", configPath, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, nil, fmt.Errorf("配置文件格式错误（%s）：%w", configPath, err)
		}
		paths.ConfigSource = configPath
	}
	cfg.applyDefaults()
	paths.resolve(cfg, cwd)
	return cfg, paths, nil
}

func (p *Paths) resolve(cfg *Config, cwd string) {
	p.EnvPath = expandPath(cfg.EnvFile, p.HomeDir, cwd)
	p.CorpusPaths = map[corpus.Language]string{
		corpus.Chinese: expandPath(cfg.Corpus.ZH, p.HomeDir, cwd),
		corpus.English: expandPath(cfg.Corpus.EN, p.HomeDir, cwd),
	}
}

// Reresolve recomputes file paths after CLI overrides touched cfg.
func (p *Paths) Reresolve(cfg *Config, cwd string) {
	p.resolve(cfg, cwd)
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !st.IsDir()
}

func expandPath(v, home, cwd string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return v
	}
	if strings.HasPrefix(v, "~/") {
		return filepath.Join(home, v[2:])
	}
	if filepath.IsAbs(v) {
		return v
	}
	if strings.TrimSpace(cwd) != "" {
		return filepath.Join(cwd, v)
	}
	return v
}
