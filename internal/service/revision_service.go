// Package service implements the business logic layer
// Package service 实现业务逻辑层
package service

import (
	"context"
	"time"

	"github.com/haierkeys/post-revisions-service/internal/domain"
	"github.com/haierkeys/post-revisions-service/internal/dto"
	"github.com/haierkeys/post-revisions-service/pkg/logger"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// RevisionService defines the post revision business service interface
// RevisionService 定义帖子修订历史业务服务接口
type RevisionService interface {
	// GetHistory returns current → edits newest first → optional unknown marker
	// GetHistory 获取帖子历史：当前状态 → 由新到旧的历史 → 可选的未知占位
	GetHistory(ctx context.Context, pid, viewerUID int64) ([]*dto.RevisionDTO, error)

	// PurgeRevision removes one entry by exact timestamp
	// PurgeRevision 按时间戳删除一条历史
	PurgeRevision(ctx context.Context, pid, viewerUID, ts int64) error

	// OnEdit archives the live state before edit overwrites it, returns the new revision count
	// OnEdit 在编辑覆盖前归档当前状态，返回新的修订次数
	OnEdit(ctx context.Context, pid, editorUID int64, edit *domain.PostEdit) (int64, error)

	// OnPostDeleted removes all history; failures are logged, never returned
	// OnPostDeleted 删除全部历史，失败仅记录日志
	OnPostDeleted(ctx context.Context, pid int64)

	// OnUserSettingsSaved persists the visibility flag; failures are logged, never returned
	// OnUserSettingsSaved 保存可见性设置，失败仅记录日志
	OnUserSettingsSaved(ctx context.Context, uid int64, settings *domain.UserSettings)

	// ModifyUserInfo 返回附加到用户信息上的可见性标记
	ModifyUserInfo(ctx context.Context, uid int64) (*dto.UserRevisionInfoDTO, error)

	// GetUserSetting 返回用户的可见性设置
	GetUserSetting(ctx context.Context, uid int64) (*dto.RevisionSettingDTO, error)

	// EnsureCurrentFormat migrates legacy history on first touch and returns the stored history
	// EnsureCurrentFormat 首次访问时迁移旧格式并返回历史
	EnsureCurrentFormat(ctx context.Context, pid int64) (*domain.StoredHistory, error)

	// CanView 判断 viewer 是否可查看历史
	CanView(ctx context.Context, pid, viewerUID int64) (bool, error)

	// CanPurge 判断 uid 是否可删除历史条目
	CanPurge(ctx context.Context, pid, uid int64) (bool, error)

	// PurgeAll removes both formats unconditionally
	// PurgeAll 无条件删除两种格式的历史
	PurgeAll(ctx context.Context, pid int64) error

	// SweepLegacy migrates every post still in legacy format
	// SweepLegacy 迁移所有仍为旧格式的帖子
	SweepLegacy(ctx context.Context, submit SubmitFunc) (*dto.SweepResultDTO, error)
}

// revisionService implementation of RevisionService interface
// revisionService 实现 RevisionService 接口
type revisionService struct {
	revisionRepo  domain.RevisionRepository  // Revision repository // 修订仓库
	postRepo      domain.PostRepository      // Post repository // 帖子仓库
	topicRepo     domain.TopicRepository     // Topic repository // 主题仓库
	userRepo      domain.UserRepository      // User repository // 用户仓库
	privilegeRepo domain.PrivilegeRepository // Privilege repository // 权限仓库
	sf            *singleflight.Group        // Singleflight group // 并发请求合并组
	logger        *zap.Logger                // Logger // 日志对象
	config        *RevisionServiceConfig     // Service configuration // 服务配置
	now           func() time.Time
}

// NewRevisionService creates RevisionService instance
// NewRevisionService 创建 RevisionService 实例
func NewRevisionService(revisionRepo domain.RevisionRepository, postRepo domain.PostRepository, topicRepo domain.TopicRepository, userRepo domain.UserRepository, privilegeRepo domain.PrivilegeRepository, logger *zap.Logger, config *RevisionServiceConfig) RevisionService {
	if config == nil {
		config = &RevisionServiceConfig{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &revisionService{
		revisionRepo:  revisionRepo,
		postRepo:      postRepo,
		topicRepo:     topicRepo,
		userRepo:      userRepo,
		privilegeRepo: privilegeRepo,
		sf:            &singleflight.Group{},
		logger:        logger,
		config:        config,
		now:           time.Now,
	}
}

// storeFailure logs a store error with pid and operation name and returns it unchanged
// storeFailure 记录带 pid 与操作名的存储错误，原样返回
func (s *revisionService) storeFailure(err error, op string, pid int64) error {
	storeFailures.WithLabelValues(op).Inc()
	s.logger.Error("revision store failure",
		zap.String(logger.FieldOperation, op),
		zap.Int64(logger.FieldPID, pid),
		zap.Error(err))
	return err
}

// loadTarget reads the post and its topic, a missing post is reported as ErrNotAllowed
// loadTarget 读取帖子与主题，帖子不存在时返回 ErrNotAllowed
func (s *revisionService) loadTarget(ctx context.Context, pid int64, op string) (*domain.Post, *domain.Topic, error) {
	post, err := s.postRepo.Get(ctx, pid)
	if errors.Is(err, domain.ErrPostNotFound) {
		return nil, nil, ErrNotAllowed
	}
	if err != nil {
		return nil, nil, s.storeFailure(err, op+".post", pid)
	}
	topic, err := s.topicRepo.Get(ctx, post.TID)
	if err != nil {
		return nil, nil, s.storeFailure(err, op+".topic", pid)
	}
	return post, topic, nil
}

func (s *revisionService) GetHistory(ctx context.Context, pid, viewerUID int64) ([]*dto.RevisionDTO, error) {
	if pid <= 0 {
		historyRequests.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidPostID
	}

	list, err := s.getHistory(ctx, pid, viewerUID)
	switch {
	case err == nil:
		historyRequests.WithLabelValues("ok").Inc()
	case errors.Is(err, ErrNotAllowed):
		historyRequests.WithLabelValues("denied").Inc()
	default:
		historyRequests.WithLabelValues("error").Inc()
	}
	return list, err
}

func (s *revisionService) getHistory(ctx context.Context, pid, viewerUID int64) ([]*dto.RevisionDTO, error) {
	post, topic, err := s.loadTarget(ctx, pid, "get")
	if err != nil {
		return nil, err
	}

	ok, err := s.canViewPost(ctx, post, topic, viewerUID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotAllowed
	}

	history, err := s.EnsureCurrentFormat(ctx, pid)
	if err != nil {
		return nil, err
	}

	revisions := Assemble(post, topic, history)
	views, err := s.resolveDisplay(ctx, pid, revisions)
	if err != nil {
		return nil, err
	}
	return s.toDTOs(views), nil
}

func (s *revisionService) PurgeRevision(ctx context.Context, pid, viewerUID, ts int64) error {
	if pid <= 0 {
		purges.WithLabelValues("entry", "invalid").Inc()
		return ErrInvalidPostID
	}
	err := s.PurgeEntry(ctx, pid, viewerUID, ts)
	switch {
	case err == nil:
		purges.WithLabelValues("entry", "ok").Inc()
	case errors.Is(err, ErrNotAllowed):
		purges.WithLabelValues("entry", "denied").Inc()
	default:
		purges.WithLabelValues("entry", "error").Inc()
	}
	return err
}

// OnEdit migrates first so a fresh current-format write never hides unmigrated legacy entries.
// Two edits sharing a millisecond land on the same field and the later one wins on content;
// the overwritten entry's marker is kept so the chain below it stays intact.
//
// OnEdit 先迁移再追加，同一毫秒的两次编辑后写覆盖先写
func (s *revisionService) OnEdit(ctx context.Context, pid, editorUID int64, edit *domain.PostEdit) (int64, error) {
	if pid <= 0 {
		return 0, ErrInvalidPostID
	}
	if edit == nil {
		return 0, errors.New("nil post edit")
	}

	post, err := s.postRepo.Get(ctx, pid)
	if errors.Is(err, domain.ErrPostNotFound) {
		return 0, err
	}
	if err != nil {
		return 0, s.storeFailure(err, "edit.post", pid)
	}

	history, err := s.EnsureCurrentFormat(ctx, pid)
	if err != nil {
		return 0, err
	}

	ts := edit.Edited
	if ts <= 0 {
		ts = s.now().UnixMilli()
	}

	archived := &domain.EditRevision{
		Ts:        ts,
		EditorUID: post.LastEditor(),
		Content:   post.Content,
		Marker:    history.LiveMarker(post),
	}
	if _, dup := history.Find(ts); dup != nil {
		archived.Marker = dup.Marker
	}
	if edit.Title != nil {
		topic, err := s.topicRepo.Get(ctx, post.TID)
		if err != nil {
			return 0, s.storeFailure(err, "edit.topic", pid)
		}
		if topic.Title != *edit.Title {
			title := topic.Title
			archived.TopicTitle = &title
		}
	}

	// a head override describes the pre-edit post; its marker now lives on the archived entry
	if err := s.revisionRepo.Apply(ctx, pid, &domain.HistoryChange{
		Put:       []*domain.EditRevision{archived},
		ClearHead: true,
	}); err != nil {
		return 0, s.storeFailure(err, "edit.append", pid)
	}
	archivedEntries.Inc()

	count, err := s.revisionRepo.CountFields(ctx, pid)
	if err != nil {
		return 0, s.storeFailure(err, "edit.count", pid)
	}

	applied := *edit
	applied.Edited = ts
	if err := s.postRepo.ApplyEdit(ctx, pid, editorUID, &applied, count); err != nil {
		return 0, s.storeFailure(err, "edit.post.write", pid)
	}
	if count, err = s.settleRevisionCount(ctx, pid, count); err != nil {
		return 0, err
	}
	if edit.Title != nil {
		if err := s.topicRepo.UpdateTitle(ctx, post.TID, *edit.Title); err != nil {
			return 0, s.storeFailure(err, "edit.topic.write", pid)
		}
	}

	s.logger.Debug("revision archived",
		zap.Int64(logger.FieldPID, pid),
		zap.Int64(logger.FieldTimestamp, ts),
		zap.Int64("revisionCount", count))
	return count, nil
}

// maxCountRewrites bounds settleRevisionCount under sustained concurrent edits
const maxCountRewrites = 5

// settleRevisionCount re-reads the archived count after writing it and rewrites until the two agree.
// The last write of any edit is then made from a read taken after every append.
//
// settleRevisionCount 写入后重新统计，不一致则重写，保证并发编辑后计数正确
func (s *revisionService) settleRevisionCount(ctx context.Context, pid, written int64) (int64, error) {
	for range maxCountRewrites {
		count, err := s.revisionRepo.CountFields(ctx, pid)
		if err != nil {
			return 0, s.storeFailure(err, "edit.count", pid)
		}
		if count == written {
			return count, nil
		}
		if err := s.postRepo.SetRevisionCount(ctx, pid, count); err != nil {
			return 0, s.storeFailure(err, "edit.count.write", pid)
		}
		written = count
	}
	s.logger.Warn("revision count still moving, leaving last value",
		zap.Int64(logger.FieldPID, pid),
		zap.Int64("revisionCount", written))
	return written, nil
}

func (s *revisionService) OnPostDeleted(ctx context.Context, pid int64) {
	if pid <= 0 {
		return
	}
	_ = s.PurgeAll(ctx, pid)
}

func (s *revisionService) OnUserSettingsSaved(ctx context.Context, uid int64, settings *domain.UserSettings) {
	if uid <= 0 || settings == nil {
		return
	}
	if err := s.userRepo.SaveSettings(ctx, uid, settings); err != nil {
		storeFailures.WithLabelValues("settings.save").Inc()
		s.logger.Error("save revision visibility setting failed",
			zap.Int64(logger.FieldUID, uid),
			zap.String(logger.FieldOperation, "settings.save"),
			zap.Error(err))
	}
}

func (s *revisionService) ModifyUserInfo(ctx context.Context, uid int64) (*dto.UserRevisionInfoDTO, error) {
	settings, err := s.userRepo.GetSettings(ctx, uid)
	if err != nil {
		return nil, err
	}
	return &dto.UserRevisionInfoDTO{UID: uid, EditHistoryVisible: settings.PostEditHistoryVisible}, nil
}

func (s *revisionService) GetUserSetting(ctx context.Context, uid int64) (*dto.RevisionSettingDTO, error) {
	settings, err := s.userRepo.GetSettings(ctx, uid)
	if err != nil {
		return nil, err
	}
	return &dto.RevisionSettingDTO{UID: uid, PostEditHistoryVisible: settings.PostEditHistoryVisible}, nil
}
