package domain

// UserProfile 用户展示信息
type UserProfile struct {
	UID      int64
	Username string
	Userslug string
	Picture  string
}

// Exists 用户是否存在
func (u *UserProfile) Exists() bool {
	return u != nil && u.UID > 0
}

// UserSettings 与修订历史相关的用户设置
type UserSettings struct {
	// PostEditHistoryVisible 允许他人查看我的编辑历史
	PostEditHistoryVisible bool
}
