package service

import (
	"github.com/pkg/errors"
)

var (
	// ErrInvalidPostID pid 不是正整数
	ErrInvalidPostID = errors.New("invalid post id")
	// ErrNotAllowed is the single denial for both visibility and purge; it never reveals whether the post exists
	// ErrNotAllowed 查看或删除被拒绝，不暴露帖子是否存在
	ErrNotAllowed = errors.New("not allowed")
)
