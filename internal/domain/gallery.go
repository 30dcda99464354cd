package domain

// Manifest 是 gallery.json 的顶层结构：folder 名 -> 图片条目列表。
type Manifest struct {
	Galleries map[string]Gallery `json:"galleries"`
}

type Gallery struct {
	Images []Entry `json:"images"`
}

// Entry 是一对 image/link 文件（同 stem）。
//
// Name 在 folder 内的唯一性来自文件系统本身，这里不额外校验。
type Entry struct {
	Image string `json:"image"`
	Link  string `json:"link"`
	Name  string `json:"name"`
}

// FolderListing 是单个 gallery folder 的一次列目录结果。
//
// Outcome=degraded 表示列目录失败（或目录缺失），Images/Texts 为空但流程继续。
type FolderListing struct {
	Folder string
	Dir    string

	// Images/Texts 已按“忽略大小写的字典序”稳定排序，只存文件名（不含目录）。
	Images []string
	Texts  []string

	Outcome Outcome
	Err     error
}

// NewManifest 返回 Galleries 非 nil 的空 manifest（输出 {"galleries":{}} 而不是 null）。
func NewManifest() Manifest {
	return Manifest{Galleries: map[string]Gallery{}}
}
