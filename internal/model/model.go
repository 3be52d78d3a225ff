// Package model 定义持久化结构
package model

import (
	"bytes"
	"strconv"

	"github.com/pkg/errors"
)

// RecordVersion 当前格式版本号
const RecordVersion = 2

// FlexInt accepts a JSON number, a numeric string, an empty string or null.
// Legacy post hashes stored every value as a string.
//
// FlexInt 兼容数字、数字字符串、空字符串与 null
type FlexInt int64

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		s, err := strconv.Unquote(string(b))
		if err != nil {
			return errors.Wrap(err, "flexint")
		}
		if s == "" {
			*f = 0
			return nil
		}
		b = []byte(s)
	}
	// "1.5e12" style numbers appear when the host serialised through a float
	if n, err := strconv.ParseInt(string(b), 10, 64); err == nil {
		*f = FlexInt(n)
		return nil
	}
	fl, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return errors.Errorf("flexint: invalid value %s", b)
	}
	*f = FlexInt(int64(fl))
	return nil
}

func (f FlexInt) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, int64(f), 10), nil
}
