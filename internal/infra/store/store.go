package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/John-Robertt/sitebot/internal/domain"
	"github.com/John-Robertt/sitebot/internal/infra/fsx"
	"github.com/John-Robertt/sitebot/internal/record"
)

// Store 提供目标目录（例如 web/Dinamico/Corrupcion）下投稿文件的读写。
//
// 约束：
// - dry-run：只允许读（ReadOnly=true）
// - apply：允许写（ReadOnly=false）
type Store struct {
	Dir      string
	ReadOnly bool
}

var (
	ErrReadOnly = errors.New("store: read-only")
	// ErrConflict 表示计划新建的 <stem>.md 在写入前已被占用（并发运行抢先写入）。
	ErrConflict = errors.New("store: 目标文件已存在")
)

func New(dir string, readOnly bool) Store {
	return Store{
		Dir:      filepath.Clean(strings.TrimSpace(dir)),
		ReadOnly: readOnly,
	}
}

// RecordPath 返回 <dir>/<stem>.md。
func (s Store) RecordPath(stem string) (string, error) {
	if err := checkStem(stem); err != nil {
		return "", err
	}
	return filepath.Join(s.Dir, stem+".md"), nil
}

// ImagePath 返回 <dir>/<stem>.jpg。
func (s Store) ImagePath(stem string) (string, error) {
	if err := checkStem(stem); err != nil {
		return "", err
	}
	return filepath.Join(s.Dir, stem+".jpg"), nil
}

// Exists 只看 <stem>.md；路径存在但不是普通文件时返回错误（上层映射为 target_conflict）。
func (s Store) Exists(stem string) (bool, error) {
	p, err := s.RecordPath(stem)
	if err != nil {
		return false, err
	}
	return fsx.FileExists(p)
}

// State 读取 <stem>.md 的现状。
//
// 文件存在但读取失败时不返回 error，而是写进 ReadErr（上层按“不是同一提交者”处理）。
func (s Store) State(stem string) (domain.RecordState, error) {
	st := domain.RecordState{Stem: stem}
	ok, err := s.Exists(stem)
	if err != nil {
		return domain.RecordState{}, err
	}
	if !ok {
		return st, nil
	}
	st.Exists = true

	p, _ := s.RecordPath(stem)
	b, err := os.ReadFile(p)
	if err != nil {
		st.ReadErr = err
		return st, nil
	}
	st.Owner = record.Owner(b)
	return st, nil
}

// WriteSubmission 按计划写入 <stem>.md 与 <stem>.jpg。
//
// 规则：
// - 先写 .md：new/suffixed 用“不覆盖”语义占住 stem，被抢先时返回 ErrConflict 且不碰 .jpg
// - replace 直接原子覆盖 .md
// - .jpg 总是原子覆盖（它跟随 .md 的归属）
func (s Store) WriteSubmission(plan domain.FilePlan, md, jpg []byte) error {
	if s.ReadOnly {
		return ErrReadOnly
	}
	if err := checkStem(plan.Stem); err != nil {
		return err
	}

	name := plan.Stem + ".md"
	if plan.Overwrites() {
		if err := fsx.WriteFileAtomicReplace(s.Dir, name, md); err != nil {
			return err
		}
	} else if err := fsx.WriteFileAtomicNoOverwrite(s.Dir, name, md); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w：%s", ErrConflict, name)
		}
		return err
	}

	return fsx.WriteFileAtomicReplace(s.Dir, plan.Stem+".jpg", jpg)
}

var stemRE = regexp.MustCompile(`^[^/\\\x00]+$`)

// checkStem 只防路径穿越；stem 的字符集由 planner.Sanitize 保证。
func checkStem(stem string) error {
	if stem == "" || stem == "." || stem == ".." || !stemRE.MatchString(stem) {
		return fmt.Errorf("非法 stem：%q", stem)
	}
	return nil
}
