package code

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClone_DoesNotLeakData(t *testing.T) {
	c := ErrorInvalidParams.Clone().WithDetails("pid").WithData(1)
	assert.True(t, c.HaveDetails())
	assert.False(t, ErrorInvalidParams.HaveDetails())
	assert.False(t, ErrorInvalidParams.HaveData())
	assert.Equal(t, ErrorInvalidParams.Code(), c.Code())
}

func TestStatusCodes(t *testing.T) {
	assert.Equal(t, http.StatusOK, Success.StatusCode())
	assert.True(t, Success.Status())
	assert.Equal(t, http.StatusForbidden, ErrorNotAllowed.StatusCode())
	assert.Equal(t, http.StatusBadRequest, ErrorInvalidPostID.StatusCode())
	assert.False(t, ErrorNotAllowed.Status())
}

func TestDuplicateCodePanics(t *testing.T) {
	assert.Panics(t, func() { NewError(1, http.StatusOK, lang{en: "dup"}) })
}

func TestLanguage(t *testing.T) {
	t.Cleanup(func() { _ = SetGlobalDefaultLang("en") })

	require.NoError(t, SetGlobalDefaultLang("zh_cn"))
	assert.Equal(t, "帖子 ID 无效", ErrorInvalidPostID.Msg())

	assert.Error(t, SetGlobalDefaultLang("fr"))
	assert.Equal(t, "en", GetGlobalDefaultLang())
	assert.Equal(t, "Invalid post id", ErrorInvalidPostID.Msg())

	// missing translation falls back to English
	l := lang{en: "only english"}
	require.NoError(t, SetGlobalDefaultLang("zh_cn"))
	assert.Equal(t, "only english", l.GetMessage())
}

func TestNormalizeLang(t *testing.T) {
	for in, want := range map[string]string{
		"zh-CN": LangZhCN,
		"zh":    LangZhCN,
		"EN_us": LangEN,
		" en ":  LangEN,
		"fr":    "",
		"":      "",
	} {
		assert.Equal(t, want, NormalizeLang(in), in)
	}
}
