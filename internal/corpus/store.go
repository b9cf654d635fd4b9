package corpus

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store loads and persists one corpus per language.
type Store interface {
	Load(lang Language) (*Corpus, error)
	Save(lang Language, c *Corpus) error
}

// FileStore keeps each language in its own JSON file.
type FileStore struct {
	Paths map[Language]string
}

func NewFileStore(paths map[Language]string) *FileStore {
	return &FileStore{Paths: paths}
}

func (s *FileStore) Path(lang Language) (string, error) {
	p := strings.TrimSpace(s.Paths[lang])
	if p == "" {
		return "", fmt.Errorf("未配置 %s 语料路径", lang)
	}
	return p, nil
}

// Load returns an empty corpus when the file does not exist yet.
func (s *FileStore) Load(lang Language) (*Corpus, error) {
	path, err := s.Path(lang)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		c := &Corpus{}
		c.normalize()
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取语料失败（%s）：%w", path, err)
	}
	c, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("语料格式错误（%s）：%w", path, err)
	}
	return c, nil
}

// Save writes to a temp file in the target directory and renames it into place.
func (s *FileStore) Save(lang Language, c *Corpus) error {
	path, err := s.Path(lang)
	if err != nil {
		return err
	}
	data, err := Encode(c)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("创建语料目录失败（%s）：%w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("创建临时文件失败：%w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("写入语料失败（%s）：%w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("写入语料失败（%s）：%w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("写入语料失败（%s）：%w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("写入语料失败（%s）：%w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("替换语料文件失败（%s）：%w", path, err)
	}
	return nil
}

func Decode(raw []byte) (*Corpus, error) {
	c := &Corpus{}
	if err := json.Unmarshal(raw, c); err != nil {
		return nil, err
	}
	c.normalize()
	return c, nil
}

// Encode renders c with two-space indentation and non-ASCII text kept verbatim.
func Encode(c *Corpus) ([]byte, error) {
	out := Corpus{}
	if c != nil {
		out = *c
	}
	out.normalize()
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("编码语料失败：%w", err)
	}
	return buf.Bytes(), nil
}
