package code

import (
	"strings"
	"sync/atomic"

	"github.com/pkg/errors"
)

const (
	LangEN   = "en"
	LangZhCN = "zh_cn"

	FallbackLang = LangEN
)

// lang holds the English and Chinese text of one response message
// lang 保存一条响应消息的中英文
type lang struct {
	en    string
	zh_cn string
}

// current is unset until the first SetGlobalDefaultLang; codes register before any init runs
var current atomic.Value

// lookup returns the text for language, empty when it has no translation
func (l lang) lookup(language string) string {
	switch language {
	case LangZhCN:
		return l.zh_cn
	case LangEN:
		return l.en
	}
	return ""
}

// GetMessage 按当前语言取消息，缺失翻译时回退英文
func (l lang) GetMessage() string {
	if msg := l.lookup(GetGlobalDefaultLang()); msg != "" {
		return msg
	}
	return l.en
}

// GetSupportedLanguages lists the languages a response message can carry
func GetSupportedLanguages() []string {
	return []string{LangEN, LangZhCN}
}

// NormalizeLang maps a client hint such as "zh-CN", "zh" or "EN_us" to a supported language.
// Unknown hints return "".
//
// NormalizeLang 把客户端传入的语言标识归一化，未知返回空串
func NormalizeLang(hint string) string {
	hint = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(hint), "-", "_"))
	switch {
	case hint == "":
		return ""
	case strings.HasPrefix(hint, "zh"):
		return LangZhCN
	case strings.HasPrefix(hint, "en"):
		return LangEN
	}
	return ""
}

// SetGlobalDefaultLang 设置全局语言；不支持的语言回退英文并返回错误
func SetGlobalDefaultLang(language string) error {
	for _, supported := range GetSupportedLanguages() {
		if supported == language {
			current.Store(language)
			return nil
		}
	}
	current.Store(FallbackLang)
	return errors.Errorf("unsupported language %q, falling back to %s", language, FallbackLang)
}

func GetGlobalDefaultLang() string {
	if l, ok := current.Load().(string); ok {
		return l
	}
	return FallbackLang
}
