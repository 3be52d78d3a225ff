// Package code 定义接口返回码与双语消息
package code

import (
	"fmt"
	"net/http"
)

// Code is a response code with its bilingual message; handlers Clone before attaching data
// Code 响应码及双语消息，处理器使用前先 Clone
type Code struct {
	code       int
	status     bool
	httpStatus int
	Lang       lang

	data     any
	haveData bool

	details     []string
	haveDetails bool
}

var codes = map[int]string{}

// NewError 注册错误码，重复注册直接 panic
func NewError(code int, httpStatus int, l lang) *Code {
	register(code, l)
	return &Code{code: code, status: false, httpStatus: httpStatus, Lang: l}
}

// NewSuss 注册成功码
func NewSuss(code int, l lang) *Code {
	register(code, l)
	return &Code{code: code, status: true, httpStatus: http.StatusOK, Lang: l}
}

func register(code int, l lang) {
	if _, ok := codes[code]; ok {
		panic(fmt.Sprintf("错误码 %d 已经存在，请更换一个", code))
	}
	codes[code] = l.GetMessage()
}

// Clone 创建一个不带 data / details 的副本
func (e *Code) Clone() *Code {
	return &Code{code: e.code, status: e.status, httpStatus: e.httpStatus, Lang: e.Lang}
}

func (e *Code) Error() string {
	return fmt.Sprintf("code %d: %s", e.code, e.Msg())
}

func (e *Code) Code() int         { return e.code }
func (e *Code) Status() bool      { return e.status }
func (e *Code) Msg() string       { return e.Lang.GetMessage() }
func (e *Code) Details() []string { return e.details }
func (e *Code) Data() any         { return e.data }
func (e *Code) HaveDetails() bool { return e.haveDetails }
func (e *Code) HaveData() bool    { return e.haveData }

func (e *Code) WithData(data any) *Code {
	e.haveData = true
	e.data = data
	return e
}

func (e *Code) WithDetails(details ...string) *Code {
	e.haveDetails = true
	e.details = append([]string{}, details...)
	return e
}

// StatusCode HTTP 状态码
func (e *Code) StatusCode() int {
	if e.httpStatus == 0 {
		return http.StatusOK
	}
	return e.httpStatus
}
