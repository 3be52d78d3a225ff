package service

import (
	"context"

	"github.com/haierkeys/post-revisions-service/internal/domain"
	"github.com/haierkeys/post-revisions-service/pkg/logger"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CanView = isSelf OR isPublic OR isModerator.
// The pid check happens before any store access.
//
// CanView 自己 / 作者公开 / 版主，三者满足其一即可查看
func (s *revisionService) CanView(ctx context.Context, pid, viewerUID int64) (bool, error) {
	if pid <= 0 {
		return false, ErrInvalidPostID
	}
	post, err := s.postRepo.Get(ctx, pid)
	if errors.Is(err, domain.ErrPostNotFound) {
		return false, nil
	}
	if err != nil {
		return false, s.storeFailure(err, "canView.post", pid)
	}
	return s.canViewPost(ctx, post, nil, viewerUID)
}

// canViewPost runs the three checks concurrently; topic is loaded lazily when nil.
// A failed settings lookup counts as "not public"; a failed privilege lookup only matters
// when neither other check passed.
func (s *revisionService) canViewPost(ctx context.Context, post *domain.Post, topic *domain.Topic, viewerUID int64) (bool, error) {
	isSelf := viewerUID > 0 && !post.IsOrphaned() && viewerUID == post.UID

	var isPublic, isMod bool
	var modErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		isPublic = s.isPublic(gctx, post)
		return nil
	})
	g.Go(func() error {
		isMod, modErr = s.isModerator(gctx, post, topic, viewerUID)
		return nil
	})
	_ = g.Wait()

	if isSelf || isPublic || isMod {
		return true, nil
	}
	if modErr != nil {
		return false, s.storeFailure(modErr, "canView.privileges", post.PID)
	}
	return false, nil
}

func (s *revisionService) isPublic(ctx context.Context, post *domain.Post) bool {
	if post.IsOrphaned() {
		return false
	}
	settings, err := s.userRepo.GetSettings(ctx, post.UID)
	if err != nil {
		s.logger.Warn("author settings lookup failed, history treated as private",
			zap.Int64(logger.FieldPID, post.PID),
			zap.Int64(logger.FieldUID, post.UID),
			zap.Error(err))
		return false
	}
	return settings.PostEditHistoryVisible
}

// isModerator 管理员或帖子所在版块的版主
func (s *revisionService) isModerator(ctx context.Context, post *domain.Post, topic *domain.Topic, uid int64) (bool, error) {
	if uid <= 0 {
		return false, nil
	}
	admin, err := s.privilegeRepo.IsAdministrator(ctx, uid)
	if err != nil || admin {
		return admin, err
	}
	if topic == nil {
		if topic, err = s.topicRepo.Get(ctx, post.TID); err != nil {
			return false, err
		}
	}
	return s.privilegeRepo.IsModerator(ctx, topic.CID, uid)
}
