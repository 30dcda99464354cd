package fsx

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
)

// 通过可替换的函数指针，让测试能稳定模拟 rename/link 失败。
var (
	renameFunc = os.Rename
	linkFunc   = os.Link
)

// PathTypeConflictError 表示目标路径类型冲突（例如期望文件但实际是目录）。
// 上层把它映射为 error_code=target_conflict。
type PathTypeConflictError struct {
	Path string
	Want string
	Got  string
}

func (e *PathTypeConflictError) Error() string {
	return fmt.Sprintf("目标路径类型冲突：%q（期望 %s，实际 %s）", e.Path, e.Want, e.Got)
}

func IsPathTypeConflict(err error) bool {
	var e *PathTypeConflictError
	return errors.As(err, &e)
}

// EnsureDir 确保 dir 存在且是目录；存在但是文件时返回 PathTypeConflictError。
func EnsureDir(dir string) error {
	fi, err := os.Stat(dir)
	if err == nil {
		if fi.IsDir() {
			return nil
		}
		return &PathTypeConflictError{Path: dir, Want: "dir", Got: "file"}
	}
	if !os.IsNotExist(err) {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// DirExists 判断 dir 是否为已存在的目录；路径存在但不是目录时返回 PathTypeConflictError。
func DirExists(dir string) (bool, error) {
	fi, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if !fi.IsDir() {
		return false, &PathTypeConflictError{Path: dir, Want: "dir", Got: "file"}
	}
	return true, nil
}

// FileExists 判断 path 是否为已存在的普通文件。
// 路径存在但不是普通文件时返回 PathTypeConflictError。
func FileExists(path string) (bool, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if fi.IsDir() {
		return false, &PathTypeConflictError{Path: path, Want: "file", Got: "dir"}
	}
	if !fi.Mode().IsRegular() {
		return false, &PathTypeConflictError{Path: path, Want: "regular file", Got: fi.Mode().Type().String()}
	}
	return true, nil
}

// WriteFileAtomicNoOverwrite 在 dir 下创建 name（临时文件 + link）。
//
// - 目标已存在：返回 os.ErrExist（调用方据此判断“名字被别人抢先占用”）
// - link 是原子的“存在即失败”，两个进程抢同一个名字时只有一个能成功
// - 文件系统不支持硬链接时退化为 Lstat + rename（非原子，best-effort）
func WriteFileAtomicNoOverwrite(dir, name string, data []byte) error {
	dst := filepath.Join(filepath.Clean(dir), name)
	if ok, err := FileExists(dst); err != nil {
		return err
	} else if ok {
		return os.ErrExist
	}
	return writeFileAtomic(dir, name, data, 0o644, false)
}

// WriteFileAtomicReplace 写入并覆盖同名文件（尽量保持原子性；Windows 上为 best-effort）。
func WriteFileAtomicReplace(dir, name string, data []byte) error {
	return writeFileAtomic(dir, name, data, 0o644, true)
}

func writeFileAtomic(dir, name string, data []byte, perm os.FileMode, replace bool) error {
	if err := EnsureDir(dir); err != nil {
		return err
	}

	dst := filepath.Join(dir, name)

	// 同目录临时文件（前缀带 '.'，避免被 gallery 扫描或 git 误认为正式文件）。
	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if err := writeAll(tmp, data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if replace {
		if err := renameFunc(tmpName, dst); err != nil {
			return err
		}
	} else if err := createFrom(tmpName, dst); err != nil {
		return err
	}

	_ = syncDirBestEffort(dir)
	return nil
}

// createFrom 把 tmp 以“不覆盖”的语义放到 dst。
func createFrom(tmp, dst string) error {
	err := linkFunc(tmp, dst)
	if err == nil {
		return nil
	}
	if errors.Is(err, os.ErrExist) {
		return os.ErrExist
	}
	// 不支持硬链接（部分网络盘/FAT）：退化为 Lstat + rename。
	if ok, e := FileExists(dst); e != nil {
		return e
	} else if ok {
		return os.ErrExist
	}
	return renameFunc(tmp, dst)
}

func writeAll(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

func syncDirBestEffort(dir string) error {
	// Windows 上目录 Sync 的语义与支持情况不稳定，这里直接跳过。
	if runtime.GOOS == "windows" {
		return nil
	}
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
