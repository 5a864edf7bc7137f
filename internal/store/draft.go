package store

import "github.com/google/uuid"

// RowID 表格行标识的带标签联合：已保存行持有服务端id，
// 草稿行持有客户端生成的draft id，取消时丢弃、保存后换成服务端id。
// 用类型区分而不是在字符串id上做前缀判断
type RowID struct {
	saved int
	draft string
}

// SavedID 服务端已确认行
func SavedID(id int) RowID {
	return RowID{saved: id}
}

// NewDraftID 未保存的草稿行
func NewDraftID() RowID {
	return RowID{draft: uuid.New().String()}
}

// Saved 返回服务端id；草稿行时ok为false
func (r RowID) Saved() (int, bool) {
	if r.draft != "" {
		return 0, false
	}
	return r.saved, true
}

// IsDraft 是否为草稿行
func (r RowID) IsDraft() bool {
	return r.draft != ""
}

// Draft 草稿id
func (r RowID) Draft() string {
	return r.draft
}
