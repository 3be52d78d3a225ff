// Package diff turns two texts into display spans
// Package diff 将两段文本转换为展示用的差异片段
package diff

import (
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// SpanType 片段类型
type SpanType string

const (
	Equal  SpanType = "equal"
	Insert SpanType = "insert"
	Delete SpanType = "delete"
)

// Span 一段差异
type Span struct {
	Type SpanType `json:"type"`
	Text string   `json:"text"`
}

func spanType(op diffmatchpatch.Operation) SpanType {
	switch op {
	case diffmatchpatch.DiffInsert:
		return Insert
	case diffmatchpatch.DiffDelete:
		return Delete
	}
	return Equal
}

// Spans computes the changes from older to newer, cleaned up for human reading.
// Invalid UTF-8 is replaced first since the underlying diff works on runes.
//
// Spans 计算 older 到 newer 的差异，并做语义化清理
func Spans(older, newer string) []Span {
	older = validUTF8(older)
	newer = validUTF8(newer)

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(older, newer, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	out := make([]Span, 0, len(diffs))
	for _, d := range diffs {
		if d.Text == "" {
			continue
		}
		t := spanType(d.Type)
		// 合并相邻的同类片段
		if n := len(out); n > 0 && out[n-1].Type == t {
			out[n-1].Text += d.Text
			continue
		}
		out = append(out, Span{Type: t, Text: d.Text})
	}
	return out
}

// Older reassembles the older text from spans
// Older 由片段还原旧文本
func Older(spans []Span) string {
	var s []byte
	for _, sp := range spans {
		if sp.Type != Insert {
			s = append(s, sp.Text...)
		}
	}
	return string(s)
}

// Newer reassembles the newer text from spans
// Newer 由片段还原新文本
func Newer(spans []Span) string {
	var s []byte
	for _, sp := range spans {
		if sp.Type != Delete {
			s = append(s, sp.Text...)
		}
	}
	return string(s)
}

func validUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return string([]rune(s))
}
