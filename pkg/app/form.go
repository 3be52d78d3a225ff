package app

import (
	"reflect"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
)

// ContextTransKey gin context key holding the ut.Translator for this request
const ContextTransKey = "trans"

type ValidError struct {
	Key     string
	Message string
}

type ValidErrors []*ValidError

func (v *ValidError) Error() string {
	return v.Message
}

func (v ValidErrors) Error() string {
	return strings.Join(v.Errors(), ",")
}

func (v ValidErrors) Errors() []string {
	var errs []string
	for _, err := range v {
		errs = append(errs, err.Error())
	}
	return errs
}

// ErrorsToString 以逗号拼接全部错误
func (v ValidErrors) ErrorsToString() string {
	return v.Error()
}

// MapsToString 字段名到错误消息
func (v ValidErrors) MapsToString() map[string]string {
	out := make(map[string]string, len(v))
	for _, err := range v {
		out[err.Key] = err.Message
	}
	return out
}

// InitValidator registers en/zh translations on gin's validator and reports fields by their json name
// InitValidator 为 gin 校验器注册中英文翻译，字段名使用 json 标签
func InitValidator() (*ut.UniversalTranslator, error) {
	validate, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return ut.New(en.New(), en.New()), nil
	}
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	uni := ut.New(en.New(), en.New(), zh.New())
	enTrans, _ := uni.GetTranslator("en")
	zhTrans, _ := uni.GetTranslator("zh")
	if err := en_translations.RegisterDefaultTranslations(validate, enTrans); err != nil {
		return nil, err
	}
	if err := zh_translations.RegisterDefaultTranslations(validate, zhTrans); err != nil {
		return nil, err
	}
	return uni, nil
}

func translate(c *gin.Context, err error) ValidErrors {
	var errs ValidErrors
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return append(errs, &ValidError{Key: "body", Message: err.Error()})
	}
	var trans ut.Translator
	if c != nil {
		if v, ok := c.Get(ContextTransKey); ok {
			trans, _ = v.(ut.Translator)
		}
	}
	for _, e := range verrs {
		msg := e.Error()
		if trans != nil {
			msg = e.Translate(trans)
		}
		errs = append(errs, &ValidError{Key: e.Field(), Message: msg})
	}
	return errs
}

// BindAndValid binds path params first, then query/body, and validates
// BindAndValid 先绑定路径参数，再绑定 query/body 并校验
func BindAndValid(c *gin.Context, v any) (bool, ValidErrors) {
	if len(c.Params) > 0 {
		if err := c.ShouldBindUri(v); err != nil {
			return false, translate(c, err)
		}
	}
	if err := c.ShouldBind(v); err != nil {
		return false, translate(c, err)
	}
	return true, nil
}

// BindAndValidJSON 解析 WebSocket 消息体并校验
func BindAndValidJSON(c *gin.Context, data []byte, v any) (bool, ValidErrors) {
	if err := sonic.Unmarshal(data, v); err != nil {
		return false, ValidErrors{{Key: "body", Message: "Invalid message format"}}
	}
	if err := binding.Validator.ValidateStruct(v); err != nil {
		return false, translate(c, err)
	}
	return true, nil
}

// ValidStruct validates a struct that was filled by hand
// ValidStruct 校验手动填充的结构体
func ValidStruct(c *gin.Context, v any) (bool, ValidErrors) {
	if err := binding.Validator.ValidateStruct(v); err != nil {
		return false, translate(c, err)
	}
	return true, nil
}
