package service

import (
	"context"

	"github.com/haierkeys/post-revisions-service/internal/domain"
	"github.com/haierkeys/post-revisions-service/pkg/logger"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// CanPurge: administrators and category moderators always, the author only within SelfPurgeWindow
// of posting.
//
// CanPurge 管理员与版主始终可以，作者仅在发帖后 SelfPurgeWindow 内可以
func (s *revisionService) CanPurge(ctx context.Context, pid, uid int64) (bool, error) {
	if pid <= 0 {
		return false, ErrInvalidPostID
	}
	post, topic, err := s.loadTarget(ctx, pid, "canPurge")
	if errors.Is(err, ErrNotAllowed) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return s.canPurgePost(ctx, post, topic, uid)
}

func (s *revisionService) canPurgePost(ctx context.Context, post *domain.Post, topic *domain.Topic, uid int64) (bool, error) {
	if uid <= 0 {
		return false, nil
	}
	mod, err := s.isModerator(ctx, post, topic, uid)
	if err != nil {
		return false, s.storeFailure(err, "canPurge.privileges", post.PID)
	}
	if mod {
		return true, nil
	}
	if post.IsOrphaned() || uid != post.UID || s.config.SelfPurgeWindow <= 0 || post.Timestamp <= 0 {
		return false, nil
	}
	age := s.now().UnixMilli() - post.Timestamp
	return age <= s.config.SelfPurgeWindow.Milliseconds(), nil
}

// PurgeEntry deletes the entry at exactly ts after migrating, so it never needs a legacy score range.
// The marker chain is spliced so the gap does not surface as a new unknown placeholder; purging the
// unknown placeholder's timestamp clears the marker that produced it.
//
// PurgeEntry 迁移后按精确时间戳删除，并修补编辑标记链
func (s *revisionService) PurgeEntry(ctx context.Context, pid, uid, ts int64) error {
	if pid <= 0 {
		return ErrInvalidPostID
	}
	post, topic, err := s.loadTarget(ctx, pid, "purge")
	if err != nil {
		return err
	}
	ok, err := s.canPurgePost(ctx, post, topic, uid)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotAllowed
	}

	history, err := s.EnsureCurrentFormat(ctx, pid)
	if err != nil {
		return err
	}

	change := planPurge(post, history, ts)
	if change == nil {
		return nil
	}
	if err := s.revisionRepo.Apply(ctx, pid, change); err != nil {
		return s.storeFailure(err, "purge.entry", pid)
	}

	s.logger.Info("revision purged",
		zap.Int64(logger.FieldPID, pid),
		zap.Int64(logger.FieldUID, uid),
		zap.Int64(logger.FieldTimestamp, ts))
	return nil
}

// planPurge builds the change that removes ts from the history, nil when nothing matches.
// Entries are newest first, so the state that superseded entries[i] is entries[i-1] or the live post.
func planPurge(post *domain.Post, history *domain.StoredHistory, ts int64) *domain.HistoryChange {
	entries := history.Entries

	// relink points the state above index i at marker m
	relink := func(change *domain.HistoryChange, i int, m domain.EditMarker) {
		if i > 0 {
			newer := *entries[i-1]
			newer.Marker = m
			change.Put = append(change.Put, &newer)
			return
		}
		change.Head = &domain.MarkerOverride{LiveEdited: post.Marker.Edited, Marker: m}
	}

	if i, purged := history.Find(ts); purged != nil {
		change := &domain.HistoryChange{Delete: []int64{ts}}
		relink(change, i, purged.Marker)
		return change
	}

	// the unknown placeholder sits below the oldest state
	oldest := history.LiveMarker(post)
	if n := len(entries); n > 0 {
		oldest = entries[n-1].Marker
	}
	if oldest.IsSet() && oldest.Edited == ts {
		change := &domain.HistoryChange{}
		relink(change, len(entries), domain.EditMarker{})
		return change
	}
	return nil
}

func (s *revisionService) PurgeAll(ctx context.Context, pid int64) error {
	if pid <= 0 {
		return ErrInvalidPostID
	}
	if err := s.revisionRepo.DeleteAll(ctx, pid); err != nil {
		purges.WithLabelValues("all", "error").Inc()
		return s.storeFailure(err, "purge.all", pid)
	}
	purges.WithLabelValues("all", "ok").Inc()
	return nil
}
