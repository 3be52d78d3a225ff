package middleware

import (
	pkgapp "github.com/haierkeys/post-revisions-service/pkg/app"
	"github.com/haierkeys/post-revisions-service/pkg/code"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
)

// LangWithTranslator 创建带翻译器的语言中间件（支持依赖注入）
func LangWithTranslator(uni *ut.UniversalTranslator) gin.HandlerFunc {
	return func(c *gin.Context) {
		hint, ok := c.GetQuery("lang")
		if !ok {
			hint = c.GetHeader("lang")
		}

		lang := code.NormalizeLang(hint)
		if lang == "" {
			lang = code.FallbackLang
		}

		// validator translations are registered as "zh", response messages as "zh_cn"
		transLang := lang
		if lang == code.LangZhCN {
			transLang = "zh"
		}

		trans, found := uni.GetTranslator(transLang)
		if !found {
			trans, _ = uni.GetTranslator(code.LangEN)
		}
		c.Set(pkgapp.ContextTransKey, trans)

		_ = code.SetGlobalDefaultLang(lang)

		c.Next()
	}
}
