package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/user/moviehub/internal/model"
)

var (
	unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
	dotRuns     = regexp.MustCompile(`\.{2,}`)
)

// PosterStore 海报文件存储（本地磁盘目录）
type PosterStore struct {
	root     string
	allowed  map[string]struct{}
	maxBytes int64
}

// NewPosterStore 创建海报存储，目录不存在则创建
func NewPosterStore(root string, allowedExts []string, maxBytes int64) (*PosterStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("创建上传目录失败: %w", err)
	}

	allowed := make(map[string]struct{}, len(allowedExts))
	for _, ext := range allowedExts {
		allowed[strings.ToLower(ext)] = struct{}{}
	}

	return &PosterStore{
		root:     root,
		allowed:  allowed,
		maxBytes: maxBytes,
	}, nil
}

// Save 保存上传内容，返回落盘文件名
// 文件名 = UTC 时间戳（到微秒）+ 净化后的原始文件名，避免冲突
func (s *PosterStore) Save(originalName string, r io.Reader) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(originalName), "."))
	if _, ok := s.allowed[ext]; ext == "" || !ok {
		return "", fmt.Errorf("%w: .%s", model.ErrUnsupportedType, ext)
	}

	now := time.Now().UTC()
	stored := fmt.Sprintf("%s%06d_%s",
		now.Format("20060102150405"), now.Nanosecond()/1000, sanitizeName(originalName))

	dst, err := os.Create(filepath.Join(s.root, stored))
	if err != nil {
		return "", fmt.Errorf("创建海报文件失败: %w", err)
	}

	// 多拷贝一个字节即可判断是否超限
	written, err := io.Copy(dst, io.LimitReader(r, s.maxBytes+1))
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(filepath.Join(s.root, stored))
		return "", fmt.Errorf("写入海报文件失败: %w", err)
	}
	if written > s.maxBytes {
		os.Remove(filepath.Join(s.root, stored))
		return "", fmt.Errorf("%w: 超过 %d 字节", model.ErrPayloadTooLarge, s.maxBytes)
	}

	return stored, nil
}

// Delete 尽力删除文件，文件不存在不算错误
func (s *PosterStore) Delete(stored string) error {
	path, err := s.Resolve(stored)
	if err != nil {
		return nil
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Resolve 返回文件在根目录内的路径，拒绝任何逃出根目录的名字
func (s *PosterStore) Resolve(stored string) (string, error) {
	if stored == "" ||
		strings.ContainsAny(stored, `/\`) ||
		strings.Contains(stored, "..") ||
		stored != filepath.Base(stored) {
		return "", fmt.Errorf("%w: %q", model.ErrNotFound, stored)
	}

	return filepath.Join(s.root, stored), nil
}

// ListFiles 列出目录下早于 olderThan 的文件名，供孤儿清理使用
// 跳过新文件，避免误删刚落盘、数据库还没写完的海报
func (s *PosterStore) ListFiles(olderThan time.Duration) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-olderThan)
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			names = append(names, entry.Name())
		}
	}

	return names, nil
}

// sanitizeName 去掉路径成分和不安全字符
func sanitizeName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	base = unsafeChars.ReplaceAllString(base, "_")
	// 连续的点会被 Resolve 当作路径穿越拒绝，这里直接压掉
	base = dotRuns.ReplaceAllString(base, ".")
	base = strings.Trim(base, "._")
	if base == "" {
		base = "poster"
	}
	return base
}
