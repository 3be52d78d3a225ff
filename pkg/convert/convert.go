// Package convert 提供字符串、布尔值与结构体之间的转换
package convert

import (
	"strconv"
	"strings"

	"github.com/jinzhu/copier"
)

type StrTo string

func (s StrTo) String() string {
	return strings.TrimSpace(string(s))
}

// Int64 parses a base-10 integer
func (s StrTo) Int64() (int64, error) {
	return strconv.ParseInt(s.String(), 10, 64)
}

func (s StrTo) MustInt64() int64 {
	v, _ := s.Int64()
	return v
}

// Bool2Int converts a boolean to an integer
// Bool2Int 将布尔值转换为整数
func Bool2Int(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// StructAssign copies same-named fields from src into dst
// StructAssign 把 src 与 dst 的同名字段复制到 dst 中
func StructAssign(src any, dst any) error {
	return copier.Copy(dst, src)
}
