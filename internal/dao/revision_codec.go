package dao

import (
	"bytes"
	stderrors "errors"

	"github.com/haierkeys/post-revisions-service/internal/domain"
	"github.com/haierkeys/post-revisions-service/internal/model"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

// ErrCorruptRevision a stored entry cannot be parsed
// ErrCorruptRevision 存储条目无法解析
var ErrCorruptRevision = stderrors.New("corrupt revision")

// EncodeRevision serialises an archived entry; the timestamp lives in the field name, not the value
// EncodeRevision 序列化历史条目，时间戳作为字段名不写入值
func EncodeRevision(rev *domain.EditRevision) (string, error) {
	if rev == nil {
		return "", errors.New("encode nil revision")
	}
	content := rev.Content
	rec := model.RevisionRecord{
		V:        model.RecordVersion,
		Mode:     string(domain.ModeEdit),
		Editor:   rev.EditorUID,
		Topic:    rev.TopicTitle,
		Content:  &content,
		Edited:   rev.Marker.Edited,
		EditedBy: rev.Marker.EditedBy,
	}
	b, err := sonic.ConfigStd.Marshal(&rec)
	if err != nil {
		return "", errors.Wrap(err, "encode revision")
	}
	return string(b), nil
}

// DecodeRevision parses a current-format record stored at ts
// DecodeRevision 解析新格式记录
func DecodeRevision(ts int64, value string) (*domain.EditRevision, error) {
	var rec model.RevisionRecord
	if err := sonic.ConfigStd.UnmarshalFromString(value, &rec); err != nil {
		return nil, errors.Wrapf(ErrCorruptRevision, "ts %d: %v", ts, err)
	}
	if rec.V != model.RecordVersion || rec.Mode != string(domain.ModeEdit) || rec.Content == nil {
		return nil, errors.Wrapf(ErrCorruptRevision, "ts %d: unexpected record v=%d mode=%q", ts, rec.V, rec.Mode)
	}
	return &domain.EditRevision{
		Ts:         ts,
		EditorUID:  rec.Editor,
		TopicTitle: rec.Topic,
		Content:    *rec.Content,
		Marker:     domain.EditMarker{Edited: rec.Edited, EditedBy: rec.EditedBy},
	}, nil
}

// DecodeLegacyRevision converts a legacy blob scored at ts.
// The blob is normally the JSON of the whole prior post; a bare JSON string is taken as content.
// The editor falls back to the author when the blob has none.
//
// DecodeLegacyRevision 转换旧格式数据，编辑者缺失时取作者
func DecodeLegacyRevision(ts int64, blob string) (*domain.EditRevision, error) {
	trimmed := bytes.TrimSpace([]byte(blob))
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var content string
		if err := sonic.ConfigStd.Unmarshal(trimmed, &content); err != nil {
			return nil, errors.Wrapf(ErrCorruptRevision, "legacy ts %d: %v", ts, err)
		}
		return &domain.EditRevision{Ts: ts, Content: content}, nil
	}

	var post model.LegacyPostBlob
	if err := sonic.ConfigStd.Unmarshal(trimmed, &post); err != nil {
		return nil, errors.Wrapf(ErrCorruptRevision, "legacy ts %d: %v", ts, err)
	}
	if post.Content == nil {
		return nil, errors.Wrapf(ErrCorruptRevision, "legacy ts %d: no content", ts)
	}

	editor := int64(post.Editor)
	if editor <= 0 {
		editor = int64(post.UID)
	}
	return &domain.EditRevision{
		Ts:        ts,
		EditorUID: editor,
		Content:   *post.Content,
		Marker:    domain.EditMarker{Edited: int64(post.Edited), EditedBy: int64(post.Editor)},
	}, nil
}

// EncodeHead 序列化 head 标记
func EncodeHead(h *domain.MarkerOverride) (string, error) {
	b, err := sonic.ConfigStd.Marshal(&model.HeadRecord{
		V:          model.RecordVersion,
		LiveEdited: h.LiveEdited,
		Edited:     h.Marker.Edited,
		EditedBy:   h.Marker.EditedBy,
	})
	if err != nil {
		return "", errors.Wrap(err, "encode head")
	}
	return string(b), nil
}

// DecodeHead 解析 head 标记
func DecodeHead(value string) (*domain.MarkerOverride, error) {
	var rec model.HeadRecord
	if err := sonic.ConfigStd.UnmarshalFromString(value, &rec); err != nil || rec.V != model.RecordVersion {
		return nil, errors.Wrapf(ErrCorruptRevision, "head %q", value)
	}
	return &domain.MarkerOverride{
		LiveEdited: rec.LiveEdited,
		Marker:     domain.EditMarker{Edited: rec.Edited, EditedBy: rec.EditedBy},
	}, nil
}
