// Package app 提供 HTTP 响应封装与请求上下文工具
package app

import (
	"strings"

	"github.com/haierkeys/post-revisions-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// VersionInfo version information // 版本信息
type VersionInfo struct {
	Version   string `json:"version"`
	GitTag    string `json:"gitTag"`
	BuildTime string `json:"buildTime"`
}

type Response struct {
	Ctx *gin.Context
}

// Res is the unified response structure: Code/Status/Msg/Data
// Res 是统一的响应结构：Code/Status/Msg/Data，Details 为空时不输出
type Res struct {
	Code    int    `json:"code"`
	Status  bool   `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Details string `json:"details,omitempty"`
}

func NewResponse(ctx *gin.Context) *Response {
	return &Response{Ctx: ctx}
}

// NewRes builds the envelope for codeObj
// NewRes 根据 codeObj 构建响应体
func NewRes(codeObj *code.Code) Res {
	content := Res{
		Code:    codeObj.Code(),
		Status:  codeObj.Status(),
		Message: codeObj.Msg(),
		Data:    codeObj.Data(),
	}
	if codeObj.HaveDetails() {
		content.Details = strings.Join(codeObj.Details(), ",")
	}
	return content
}

// GetRequestIP 获取 ip
func GetRequestIP(c *gin.Context) string {
	reqIP := c.ClientIP()
	if reqIP == "::1" {
		reqIP = "127.0.0.1"
	}
	return reqIP
}

// ToResponse output to browser
// ToResponse 输出到浏览器
func (r *Response) ToResponse(codeObj *code.Code) {
	r.Ctx.Set("status_code", codeObj.StatusCode())
	r.Ctx.JSON(codeObj.StatusCode(), NewRes(codeObj))
}

// ToResponseData is ToResponse on a clone carrying data
// ToResponseData 复制 codeObj 后附带数据输出
func (r *Response) ToResponseData(codeObj *code.Code, data any) {
	r.ToResponse(codeObj.Clone().WithData(data))
}

// AbortWith 输出并中止后续处理器
func (r *Response) AbortWith(codeObj *code.Code) {
	r.ToResponse(codeObj)
	r.Ctx.Abort()
}
