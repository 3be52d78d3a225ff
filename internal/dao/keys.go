package dao

import (
	"strconv"
	"strings"
)

// objectPrefix is the key namespace the host uses for posts
const objectPrefix = "pid"

const (
	legacySuffix  = ":revisions"
	historySuffix = ":revisionHistory"

	administratorsKey = "group:administrators:members"

	// FieldPostEditHistoryVisible 用户设置中的可见性字段
	FieldPostEditHistoryVisible = "postEditHistoryVisible"
)

// LegacyPattern 匹配全部旧格式键
const LegacyPattern = objectPrefix + ":*" + legacySuffix

func objectKey(pid int64) string {
	return objectPrefix + ":" + strconv.FormatInt(pid, 10)
}

// LegacyKey pid:<pid>:revisions
func LegacyKey(pid int64) string { return objectKey(pid) + legacySuffix }

// HistoryKey pid:<pid>:revisionHistory
func HistoryKey(pid int64) string { return objectKey(pid) + historySuffix }

func PostKey(pid int64) string  { return "post:" + strconv.FormatInt(pid, 10) }
func TopicKey(tid int64) string { return "topic:" + strconv.FormatInt(tid, 10) }
func UserKey(uid int64) string  { return "user:" + strconv.FormatInt(uid, 10) }

func UserSettingsKey(uid int64) string {
	return UserKey(uid) + ":settings"
}

func ModeratorsKey(cid int64) string {
	return "cid:" + strconv.FormatInt(cid, 10) + ":moderators"
}

// AdministratorsKey 管理员集合
func AdministratorsKey() string { return administratorsKey }

// parseLegacyKey extracts pid from pid:<pid>:revisions
func parseLegacyKey(key string) (int64, bool) {
	rest, ok := strings.CutPrefix(key, objectPrefix+":")
	if !ok {
		return 0, false
	}
	rest, ok = strings.CutSuffix(rest, legacySuffix)
	if !ok {
		return 0, false
	}
	pid, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}
