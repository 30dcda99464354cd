package app

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/sitebot/internal/domain"
)

// PairByStem 把同一 folder 下同 stem 的图片与文本配成 gallery 条目。
//
// - 文本按 listing 顺序建立 stem -> 文件名 映射，stem 冲突时后出现的覆盖先出现的
// - 条目顺序跟随 listing.Images 的顺序
// - 没有文本的图片不产生条目，原样返回在 orphans 里（供上层打 debug 日志）
// - 路径一律用 '/' 拼接：<prefix>/<folder>/<file>（prefix 为空时省略）
func PairByStem(l domain.FolderListing, prefix string) (entries []domain.Entry, orphans []string) {
	texts := make(map[string]string, len(l.Texts))
	for _, name := range l.Texts {
		texts[stem(name)] = name
	}

	entries = make([]domain.Entry, 0, len(l.Images))
	for _, img := range l.Images {
		s := stem(img)
		link, ok := texts[s]
		if !ok {
			orphans = append(orphans, img)
			continue
		}
		entries = append(entries, domain.Entry{
			Image: webPath(prefix, l.Folder, img),
			Link:  webPath(prefix, l.Folder, link),
			Name:  s,
		})
	}
	return entries, orphans
}

func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func webPath(prefix, folder, file string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return path.Join(folder, file)
	}
	return path.Join(prefix, folder, file)
}
