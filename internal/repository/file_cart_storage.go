package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/framestock/internal/models"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// FileCartStorage 本地文件存储，每个命名空间 key 一个 JSON 文件
type FileCartStorage struct {
	path string
}

// NewFileCartStorage 创建文件购物车存储
func NewFileCartStorage(dir, key string) *FileCartStorage {
	name := unsafeFileChars.ReplaceAllString(key, "_")
	if name == "" {
		name = "cart"
	}
	return &FileCartStorage{path: filepath.Join(dir, name+".json")}
}

// Path 返回存储文件路径
func (s *FileCartStorage) Path() string {
	return s.path
}

// Load 读取购物车，文件不存在视为空
func (s *FileCartStorage) Load(_ context.Context) ([]models.CartLineItem, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return DecodeCartRecord(raw)
}

// Save 原子写入购物车
func (s *FileCartStorage) Save(_ context.Context, items []models.CartLineItem) error {
	payload, err := EncodeCartRecord(items)
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cart dir failed: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".cart-*.tmp")
	if err != nil {
		return fmt.Errorf("create cart temp file failed: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write cart temp file failed: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close cart temp file failed: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace cart file failed: %w", err)
	}
	return nil
}
