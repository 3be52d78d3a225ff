package service

import (
	"context"

	"github.com/haierkeys/post-revisions-service/internal/domain"
	"github.com/haierkeys/post-revisions-service/internal/dto"
	"github.com/haierkeys/post-revisions-service/pkg/convert"
	"github.com/haierkeys/post-revisions-service/pkg/diff"
)

// Assemble orders a post history for display: current, archived edits newest first, then an
// unknown placeholder when the oldest known state still carries an edit marker that no archived
// entry accounts for. The result always starts with the current entry.
//
// Assemble 按展示顺序组装历史：当前状态、由新到旧的历史，以及必要时的未知占位
func Assemble(post *domain.Post, topic *domain.Topic, history *domain.StoredHistory) []domain.Revision {
	var entries []*domain.EditRevision
	if history != nil {
		entries = history.Entries
	}

	title := ""
	if topic != nil {
		title = topic.Title
	}

	out := make([]domain.Revision, 0, len(entries)+2)
	out = append(out, &domain.CurrentRevision{
		EditorUID:  post.LastEditor(),
		TopicTitle: title,
		Content:    post.Content,
	})

	oldest := history.LiveMarker(post)
	for _, e := range entries {
		out = append(out, e)
		oldest = e.Marker
	}

	if oldest.IsSet() {
		out = append(out, &domain.UnknownRevision{Ts: oldest.Edited, EditorUID: oldest.EditedBy})
	}
	return out
}

// resolveDisplay looks up every editor in one batch, preserving order
// resolveDisplay 一次批量读取全部编辑者信息，保持顺序
func (s *revisionService) resolveDisplay(ctx context.Context, pid int64, revisions []domain.Revision) ([]*domain.RevisionView, error) {
	uids := make([]int64, len(revisions))
	for i, r := range revisions {
		uids[i] = r.Editor()
	}
	profiles, err := s.userRepo.GetProfiles(ctx, uids)
	if err != nil {
		return nil, s.storeFailure(err, "get.profiles", pid)
	}

	views := make([]*domain.RevisionView, len(revisions))
	for i, r := range revisions {
		v := &domain.RevisionView{Revision: r}
		if i < len(profiles) {
			v.Editor = profiles[i]
		}
		views[i] = v
	}
	return views, nil
}

func (s *revisionService) toDTOs(views []*domain.RevisionView) []*dto.RevisionDTO {
	out := make([]*dto.RevisionDTO, len(views))
	for i, v := range views {
		d := &dto.RevisionDTO{Mode: string(v.Revision.Mode())}

		switch r := v.Revision.(type) {
		case *domain.CurrentRevision:
			d.Post = &dto.RevisionPostDTO{Content: r.Content}
			d.Topic = &dto.RevisionTopicDTO{Title: r.TopicTitle}
			d.Editor = editorDTO(v.Editor)
		case *domain.EditRevision:
			ts := r.Ts
			d.Timestamp = &ts
			d.Post = &dto.RevisionPostDTO{Content: r.Content}
			if r.TopicTitle != nil {
				d.Topic = &dto.RevisionTopicDTO{Title: *r.TopicTitle}
			}
			d.Editor = editorDTO(v.Editor)
		case *domain.UnknownRevision:
			ts := r.Ts
			d.Timestamp = &ts
			if r.EditorUID > 0 {
				d.Editor = editorDTO(v.Editor)
			}
		}
		out[i] = d
	}

	if s.config.DiffEnabled {
		attachDiffs(out)
	}
	return out
}

// attachDiffs compares each entry with the next older one that has content
// attachDiffs 将每个条目与下一个有内容的旧条目对比
func attachDiffs(list []*dto.RevisionDTO) {
	for i := 0; i+1 < len(list); i++ {
		if list[i].Post == nil || list[i+1].Post == nil {
			continue
		}
		list[i].Diffs = diff.Spans(list[i+1].Post.Content, list[i].Post.Content)
	}
}

func editorDTO(p *domain.UserProfile) *dto.EditorDTO {
	if p == nil {
		return nil
	}
	var out dto.EditorDTO
	if err := convert.StructAssign(p, &out); err != nil {
		return &dto.EditorDTO{UID: p.UID, Username: p.Username}
	}
	return &out
}
