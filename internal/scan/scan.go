package scan

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/John-Robertt/sitebot/internal/domain"
)

// ErrRootMissing 表示 gallery root 不存在或不是目录。
var ErrRootMissing = errors.New("gallery root 不存在")

// Folders 返回 root 下的直接子目录名（跳过以 '.' 开头的隐藏目录），按名字排序。
func Folders(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w：%q", ErrRootMissing, root)
		}
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if !isDir(root, e) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// ListFolder 列出 <root>/<folder> 下的图片与文本文件（只看直接子项，只 stat 不读内容）。
//
// 规则：
// - 目录缺失或读取失败：Outcome=degraded，Images/Texts 为空，Err 记录原因
// - 扩展名大小写不敏感；子目录与其它扩展名一律忽略
// - 输出按“忽略大小写的字典序”排序，相同时按原始字节序
func ListFolder(root, folder string) domain.FolderListing {
	dir := filepath.Join(root, folder)
	out := domain.FolderListing{
		Folder:  folder,
		Dir:     dir,
		Images:  []string{},
		Texts:   []string{},
		Outcome: domain.OutcomeSuccess,
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		out.Outcome = domain.OutcomeDegraded
		out.Err = err
		return out
	}

	for _, e := range entries {
		if isDir(dir, e) {
			continue
		}
		name := e.Name()
		switch ext := strings.ToLower(filepath.Ext(name)); {
		case IsImageExt(ext):
			out.Images = append(out.Images, name)
		case IsTextExt(ext):
			out.Texts = append(out.Texts, name)
		}
	}
	SortNames(out.Images)
	SortNames(out.Texts)
	return out
}

// IsImageExt 判断小写扩展名（含 '.'）是否为 gallery 图片。
func IsImageExt(ext string) bool {
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return true
	default:
		return false
	}
}

// IsTextExt 判断小写扩展名（含 '.'）是否为 gallery 链接页面。
func IsTextExt(ext string) bool {
	switch ext {
	case ".html", ".md":
		return true
	default:
		return false
	}
}

// SortNames 就地排序：忽略大小写的字典序，相同时按原始字节序（保证确定性）。
func SortNames(names []string) {
	sort.Slice(names, func(i, j int) bool {
		a, b := strings.ToLower(names[i]), strings.ToLower(names[j])
		if a != b {
			return a < b
		}
		return names[i] < names[j]
	})
}

// isDir 对符号链接做一次 Stat，按链接目标判断是否目录。
func isDir(parent string, e os.DirEntry) bool {
	if e.IsDir() {
		return true
	}
	if e.Type()&os.ModeSymlink == 0 {
		return false
	}
	fi, err := os.Stat(filepath.Join(parent, e.Name()))
	return err == nil && fi.IsDir()
}
