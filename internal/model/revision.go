package model

// RevisionRecord is the current-format value stored under pid:<pid>:revisionHistory, field = timestamp
// RevisionRecord 新格式历史记录，字段名为时间戳
type RevisionRecord struct {
	V        int     `json:"v"`
	Mode     string  `json:"mode"`
	Editor   int64   `json:"editor"`
	Topic    *string `json:"topic"`
	Content  *string `json:"content"`
	Edited   int64   `json:"edited,omitempty"`
	EditedBy int64   `json:"editedBy,omitempty"`
}

// LegacyPostBlob is the JSON of a whole post hash as archived by the old format
// LegacyPostBlob 旧格式中归档的整条帖子 JSON
type LegacyPostBlob struct {
	PID       FlexInt `json:"pid"`
	UID       FlexInt `json:"uid"`
	TID       FlexInt `json:"tid"`
	Content   *string `json:"content"`
	Editor    FlexInt `json:"editor"`
	Edited    FlexInt `json:"edited"`
	Timestamp FlexInt `json:"timestamp"`
}

// HeadRecord is stored under the "head" field of pid:<pid>:revisionHistory
// HeadRecord 存放于 revisionHistory 的 head 字段
type HeadRecord struct {
	V          int   `json:"v"`
	LiveEdited int64 `json:"liveEdited"`
	Edited     int64 `json:"edited"`
	EditedBy   int64 `json:"editedBy"`
}
