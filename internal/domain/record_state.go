package domain

// RecordState 描述目标目录中 <stem>.md 的现状。
type RecordState struct {
	Stem   string
	Exists bool

	// Owner 来自记录内的 participant 标记；没有标记或读取失败时为空。
	Owner string
	// ReadErr 非空表示文件存在但读取失败（按“不是同一提交者”处理）。
	ReadErr error
}
