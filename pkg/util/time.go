package util

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	Day  = 24 * time.Hour
	Week = 7 * Day
)

// ParseDuration accepts everything time.ParseDuration does plus a leading
// day ("d") or week ("w") component, e.g. "7d", "2w", "1d12h". A bare
// integer is read as seconds.
//
// ParseDuration 在标准格式基础上支持 d / w 前缀，纯数字按秒处理
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty duration")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(n) * time.Second, nil
	}

	var total time.Duration
	for _, u := range []struct {
		suffix byte
		unit   time.Duration
	}{{'w', Week}, {'d', Day}} {
		i := strings.IndexByte(s, u.suffix)
		if i < 0 {
			continue
		}
		n, err := strconv.ParseInt(s[:i], 10, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "duration %q", s)
		}
		total += time.Duration(n) * u.unit
		s = s[i+1:]
	}
	if s == "" {
		return total, nil
	}

	rest, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return total + rest, nil
}
