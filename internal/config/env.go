package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"corpus-expand/internal/llm"
)

// LoadDotEnv exports the variables of path into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if strings.TrimSpace(path) == "" || !fileExists(path) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("读取 .env 失败（%s）：%w", path, err)
	}
	return nil
}

// APIKey resolves the credential of the active provider through lookup.
func APIKey(cfg *Config, lookup func(string) (string, bool)) (string, error) {
	pc, err := cfg.ActiveProvider()
	if err != nil {
		return "", err
	}
	name := strings.TrimSpace(pc.APIKeyEnv)
	if name == "" {
		return "", fmt.Errorf("%w：provider %s 未配置 api_key_env", llm.ErrAuth, cfg.Provider)
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}
	v, _ := lookup(name)
	v = strings.TrimSpace(v)
	if v == "" {
		return "", fmt.Errorf("%w：%s 未设置。执行：corpus-expand set key %s <api_key>，或导出环境变量 %s", llm.ErrAuth, name, cfg.Provider, name)
	}
	return v, nil
}

// UpsertEnvVar replaces the line that defines key, or appends one, and leaves every
// other line of the file as written.
func UpsertEnvVar(path, key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("env key 为空")
	}
	entry, err := godotenv.Marshal(map[string]string{key: strings.TrimSpace(value)})
	if err != nil {
		return fmt.Errorf("编码 env 失败：%w", err)
	}

	lines := make([]string, 0, 8)
	if raw, err := os.ReadFile(path); err == nil {
		text := strings.TrimRight(strings.ReplaceAll(string(raw), "\r\n", "\n"), "\n")
		if text != "" {
			lines = strings.Split(text, "\n")
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("读取 .env 失败：%w", err)
	}

	found := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		parsed, err := godotenv.Unmarshal(trimmed)
		if err != nil {
			continue
		}
		if _, ok := parsed[key]; !ok {
			continue
		}
		lines[i] = entry
		found = true
	}
	if !found {
		lines = append(lines, entry)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建 .env 目录失败：%w", err)
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		return fmt.Errorf("写入 .env 失败：%w", err)
	}
	return os.Chmod(path, 0o600)
}
