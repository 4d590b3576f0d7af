package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/madrasa-api/internal/dto"
	"github.com/noah-isme/madrasa-api/internal/i18n"
	"github.com/noah-isme/madrasa-api/internal/models"
	"github.com/noah-isme/madrasa-api/internal/observability"
	"github.com/noah-isme/madrasa-api/internal/policy"
	"github.com/noah-isme/madrasa-api/internal/repository"
)

const contentTypeForumPost = "forum_post"

// ForumService implements the privileged manage-forum actions. Every action resolves the class
// behind its target, checks policy.CanPerformForum and only then writes. Reads are gated by
// policy.CanReadForum and hide what the caller may not see instead of refusing.
type ForumService interface {
	ListThreads(ctx context.Context, actor policy.Identity, classID string, limit, offset int) ([]dto.ForumThreadResponse, error)
	GetThread(ctx context.Context, actor policy.Identity, threadID string) (dto.ForumThreadDetailResponse, error)
	CreateThread(ctx context.Context, actor policy.Identity, req dto.CreateThreadRequest) (dto.ForumThreadResponse, error)
	CreatePost(ctx context.Context, actor policy.Identity, req dto.CreatePostRequest) (dto.ForumPostResponse, error)
	DeletePost(ctx context.Context, actor policy.Identity, req dto.PostActionRequest) error
	ToggleComments(ctx context.Context, actor policy.Identity, req dto.ThreadFlagRequest) (dto.ForumThreadResponse, error)
	PinThread(ctx context.Context, actor policy.Identity, req dto.ThreadFlagRequest) (dto.ForumThreadResponse, error)
	ApprovePost(ctx context.Context, actor policy.Identity, req dto.PostActionRequest) (dto.ForumPostResponse, error)
	ReportPost(ctx context.Context, actor policy.Identity, req dto.PostActionRequest) (dto.ForumPostResponse, error)
	LikePost(ctx context.Context, actor policy.Identity, req dto.LikePostRequest) (dto.LikeResponse, error)
}

type forumService struct {
	forum         repository.ForumRepository
	classes       repository.ClassRepository
	moderation    ModerationRecorder
	notifications NotificationPublisher
	messages      *i18n.Translator
	validator     *validator.Validate
	logger        zerolog.Logger
	tracer        trace.Tracer
	sanitizer     *bluemonday.Policy
	strict        *bluemonday.Policy
	now           func() time.Time
}

// NewForumService constructs the forum service. Notification texts are rendered in the
// translator's default locale.
func NewForumService(forum repository.ForumRepository, classes repository.ClassRepository, moderation ModerationRecorder, notifications NotificationPublisher, messages *i18n.Translator, validate *validator.Validate, logger zerolog.Logger) ForumService {
	ugc := bluemonday.UGCPolicy()
	ugc.AllowElements("br")

	return &forumService{
		forum:         forum,
		classes:       classes,
		moderation:    moderation,
		notifications: notifications,
		messages:      messages,
		validator:     validate,
		logger:        logger.With().Str("component", "forum_service").Logger(),
		tracer:        otel.Tracer("github.com/noah-isme/madrasa-api/internal/service/forum"),
		sanitizer:     ugc,
		strict:        bluemonday.StrictPolicy(),
		now:           time.Now,
	}
}

// ListThreads returns the class's threads, pinned first. Callers outside the class, and
// unknown classes, get an empty list.
func (s *forumService) ListThreads(ctx context.Context, actor policy.Identity, classID string, limit, offset int) ([]dto.ForumThreadResponse, error) {
	target, err := s.classTarget(ctx, actor, classID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []dto.ForumThreadResponse{}, nil
	}
	if err != nil {
		return nil, err
	}
	if !policy.CanReadForum(actor, target) {
		return []dto.ForumThreadResponse{}, nil
	}

	threads, err := s.forum.ListThreads(ctx, classID, limit, offset)
	if err != nil {
		return nil, storeErr("forum.list_threads", err)
	}

	resp := make([]dto.ForumThreadResponse, 0, len(threads))
	for _, thread := range threads {
		resp = append(resp, dto.NewForumThreadResponse(thread))
	}
	return resp, nil
}

// GetThread returns the thread with its posts nested by reply. A thread the caller may not
// read is reported as not found.
func (s *forumService) GetThread(ctx context.Context, actor policy.Identity, threadID string) (dto.ForumThreadDetailResponse, error) {
	thread, err := s.forum.GetThread(ctx, threadID)
	if err != nil {
		return dto.ForumThreadDetailResponse{}, storeErr("forum.get_thread", err)
	}
	target, err := s.classTarget(ctx, actor, thread.ClassID)
	if err != nil {
		return dto.ForumThreadDetailResponse{}, err
	}
	if !policy.CanReadForum(actor, target) {
		return dto.ForumThreadDetailResponse{}, gorm.ErrRecordNotFound
	}

	posts, err := s.forum.ListPosts(ctx, thread.ID)
	if err != nil {
		return dto.ForumThreadDetailResponse{}, storeErr("forum.list_posts", err)
	}

	return dto.ForumThreadDetailResponse{
		ForumThreadResponse: dto.NewForumThreadResponse(thread),
		Posts:               dto.NewForumReplyTree(posts),
	}, nil
}

func (s *forumService) CreateThread(ctx context.Context, actor policy.Identity, req dto.CreateThreadRequest) (resp dto.ForumThreadResponse, err error) {
	ctx, finish := s.begin(ctx, policy.ActionCreateThread, actor)
	defer func() { finish(err) }()

	if err = s.validator.Struct(req); err != nil {
		return resp, err
	}

	title := strings.TrimSpace(s.strict.Sanitize(req.Title))
	if title == "" {
		return resp, invalidRequest("thread title empty after sanitization")
	}

	target, err := s.classTarget(ctx, actor, req.ClassID)
	if err != nil {
		return resp, err
	}
	if err = s.authorize(policy.ActionCreateThread, actor, target); err != nil {
		return resp, err
	}

	thread := models.ForumThread{
		ClassID:         req.ClassID,
		AuthorID:        actor.UserID,
		Title:           title,
		Content:         strings.TrimSpace(s.sanitizer.Sanitize(req.Content)),
		CommentsEnabled: true,
	}
	if err = s.forum.CreateThread(ctx, &thread); err != nil {
		return resp, storeErr("forum.create_thread", err)
	}

	s.logger.Info().Str("thread_id", thread.ID).Str("class_id", thread.ClassID).Str("author_id", actor.UserID).Msg("forum thread created")
	return dto.NewForumThreadResponse(thread), nil
}

func (s *forumService) CreatePost(ctx context.Context, actor policy.Identity, req dto.CreatePostRequest) (resp dto.ForumPostResponse, err error) {
	ctx, finish := s.begin(ctx, policy.ActionCreatePost, actor)
	defer func() { finish(err) }()

	if err = s.validator.Struct(req); err != nil {
		return resp, err
	}

	content := strings.TrimSpace(s.sanitizer.Sanitize(req.Content))
	if content == "" {
		return resp, invalidRequest("post content empty after sanitization")
	}

	thread, err := s.forum.GetThread(ctx, req.ThreadID)
	if err != nil {
		return resp, storeErr("forum.get_thread", err)
	}

	target, err := s.classTarget(ctx, actor, thread.ClassID)
	if err != nil {
		return resp, err
	}
	target.CommentsEnabled = thread.CommentsEnabled
	if err = s.authorize(policy.ActionCreatePost, actor, target); err != nil {
		return resp, err
	}

	var parent *models.ForumPost
	if req.ParentPostID != nil && *req.ParentPostID != "" {
		found, err := s.forum.GetPost(ctx, *req.ParentPostID)
		if err != nil {
			return resp, storeErr("forum.get_parent", err)
		}
		if found.ThreadID != thread.ID {
			return resp, invalidRequest("parent post belongs to another thread")
		}
		parent = &found
	}

	post := models.ForumPost{
		ThreadID: thread.ID,
		AuthorID: actor.UserID,
		Content:  content,
	}
	if parent != nil {
		post.ParentPostID = &parent.ID
	}
	if err = s.forum.CreatePost(ctx, &post); err != nil {
		return resp, storeErr("forum.create_post", err)
	}

	recipients := map[string]string{thread.AuthorID: "forum_reply"}
	if parent != nil {
		recipients[parent.AuthorID] = "forum_reply"
	}
	delete(recipients, actor.UserID)
	for userID, kind := range recipients {
		s.notify(ctx, userID, kind, s.messages.Messagef("", i18n.KeyNotifyForumReply, thread.Title))
	}

	return dto.NewForumPostResponse(post), nil
}

func (s *forumService) DeletePost(ctx context.Context, actor policy.Identity, req dto.PostActionRequest) (err error) {
	ctx, finish := s.begin(ctx, policy.ActionDeletePost, actor)
	defer func() { finish(err) }()

	if err = s.validator.Struct(req); err != nil {
		return err
	}

	post, target, err := s.postTarget(ctx, actor, req.PostID)
	if err != nil {
		return err
	}
	if err = s.authorize(policy.ActionDeletePost, actor, target); err != nil {
		return err
	}

	if err = s.forum.DeletePost(ctx, post.ID); err != nil {
		return storeErr("forum.delete_post", err)
	}

	s.recordModeration(ctx, actor, post.ID, models.ModerationDeleted, s.reason(req.Reason), map[string]interface{}{
		"thread_id":         post.ThreadID,
		"author_id":         post.AuthorID,
		"removed_by_author": post.AuthorID == actor.UserID,
	})
	return nil
}

func (s *forumService) ToggleComments(ctx context.Context, actor policy.Identity, req dto.ThreadFlagRequest) (resp dto.ForumThreadResponse, err error) {
	ctx, finish := s.begin(ctx, policy.ActionToggleComments, actor)
	defer func() { finish(err) }()

	if err = s.validator.Struct(req); err != nil {
		return resp, err
	}

	thread, err := s.forum.GetThread(ctx, req.ThreadID)
	if err != nil {
		return resp, storeErr("forum.get_thread", err)
	}
	target, err := s.classTarget(ctx, actor, thread.ClassID)
	if err != nil {
		return resp, err
	}
	if err = s.authorize(policy.ActionToggleComments, actor, target); err != nil {
		return resp, err
	}

	updated, err := s.forum.SetCommentsEnabled(ctx, thread.ID, *req.Value)
	if err != nil {
		return resp, storeErr("forum.toggle_comments", err)
	}
	return dto.NewForumThreadResponse(updated), nil
}

func (s *forumService) PinThread(ctx context.Context, actor policy.Identity, req dto.ThreadFlagRequest) (resp dto.ForumThreadResponse, err error) {
	ctx, finish := s.begin(ctx, policy.ActionPinThread, actor)
	defer func() { finish(err) }()

	if err = s.validator.Struct(req); err != nil {
		return resp, err
	}

	thread, err := s.forum.GetThread(ctx, req.ThreadID)
	if err != nil {
		return resp, storeErr("forum.get_thread", err)
	}
	target, err := s.classTarget(ctx, actor, thread.ClassID)
	if err != nil {
		return resp, err
	}
	if err = s.authorize(policy.ActionPinThread, actor, target); err != nil {
		return resp, err
	}

	updated, err := s.forum.SetThreadPinned(ctx, thread.ID, *req.Value)
	if err != nil {
		return resp, storeErr("forum.pin_thread", err)
	}
	return dto.NewForumThreadResponse(updated), nil
}

// ApprovePost clears the report flag and records the approval.
func (s *forumService) ApprovePost(ctx context.Context, actor policy.Identity, req dto.PostActionRequest) (resp dto.ForumPostResponse, err error) {
	ctx, finish := s.begin(ctx, policy.ActionApprovePost, actor)
	defer func() { finish(err) }()

	if err = s.validator.Struct(req); err != nil {
		return resp, err
	}

	post, target, err := s.postTarget(ctx, actor, req.PostID)
	if err != nil {
		return resp, err
	}
	if err = s.authorize(policy.ActionApprovePost, actor, target); err != nil {
		return resp, err
	}

	updated, err := s.forum.SetPostReported(ctx, post.ID, false)
	if err != nil {
		return resp, storeErr("forum.approve_post", err)
	}

	s.recordModeration(ctx, actor, post.ID, models.ModerationApproved, s.reason(req.Reason), map[string]interface{}{
		"thread_id":    post.ThreadID,
		"was_reported": post.IsReported,
	})
	return dto.NewForumPostResponse(updated), nil
}

// ReportPost flags the post for review. Reporting an already reported post is a no-op flag
// write; it never clears the flag.
func (s *forumService) ReportPost(ctx context.Context, actor policy.Identity, req dto.PostActionRequest) (resp dto.ForumPostResponse, err error) {
	ctx, finish := s.begin(ctx, policy.ActionReportPost, actor)
	defer func() { finish(err) }()

	if err = s.validator.Struct(req); err != nil {
		return resp, err
	}

	post, target, err := s.postTarget(ctx, actor, req.PostID)
	if err != nil {
		return resp, err
	}
	if err = s.authorize(policy.ActionReportPost, actor, target); err != nil {
		return resp, err
	}

	updated, err := s.forum.SetPostReported(ctx, post.ID, true)
	if err != nil {
		return resp, storeErr("forum.report_post", err)
	}

	s.recordModeration(ctx, actor, post.ID, models.ModerationFlagged, s.reason(req.Reason), map[string]interface{}{
		"thread_id": post.ThreadID,
	})
	if target.ClassTeacherID != "" && target.ClassTeacherID != actor.UserID {
		s.notify(ctx, target.ClassTeacherID, "forum_report", s.messages.Messagef("", i18n.KeyNotifyForumReport))
	}
	return dto.NewForumPostResponse(updated), nil
}

// LikePost toggles the caller's reaction and recomputes the aggregate from the like records.
// A failed recount is logged and leaves the toggle in place.
func (s *forumService) LikePost(ctx context.Context, actor policy.Identity, req dto.LikePostRequest) (resp dto.LikeResponse, err error) {
	ctx, finish := s.begin(ctx, policy.ActionLikePost, actor)
	defer func() { finish(err) }()

	if err = s.validator.Struct(req); err != nil {
		return resp, err
	}
	if req.UserID != "" && req.UserID != actor.UserID {
		return resp, forumDenied(policy.ActionLikePost)
	}

	post, target, err := s.postTarget(ctx, actor, req.PostID)
	if err != nil {
		return resp, err
	}
	if err = s.authorize(policy.ActionLikePost, actor, target); err != nil {
		return resp, err
	}

	status, err := s.forum.ToggleLike(ctx, actor.UserID, post.ID, *req.IsLike)
	if err != nil {
		return resp, storeErr("forum.toggle_like", err)
	}

	resp = dto.LikeResponse{PostID: post.ID, Status: string(status)}
	counts, recountErr := s.forum.RecountLikes(ctx, post.ID)
	if recountErr != nil {
		s.logger.Warn().Err(recountErr).Str("post_id", post.ID).Msg("failed to recount likes")
		resp.LikesCount = post.LikesCount
		resp.DislikesCount = post.DislikesCount
		return resp, nil
	}

	resp.LikesCount = counts.Likes
	resp.DislikesCount = counts.Dislikes
	resp.Recounted = true
	return resp, nil
}

// begin opens the action span; the returned func closes it and records the outcome metric.
func (s *forumService) begin(ctx context.Context, action policy.ForumAction, actor policy.Identity) (context.Context, func(error)) {
	spanCtx, span := s.tracer.Start(ctx, "forum."+string(action), trace.WithAttributes(
		attribute.String("forum.action", string(action)),
		attribute.String("forum.user_id", actor.UserID),
		attribute.String("forum.role", actor.Role.String()),
	))

	return spanCtx, func(err error) {
		outcome := "ok"
		switch {
		case err == nil:
		case errors.Is(err, ErrForumForbidden):
			outcome = "denied"
		default:
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		observability.ForumActions().WithLabelValues(string(action), outcome).Inc()
		span.End()
	}
}

func (s *forumService) authorize(action policy.ForumAction, actor policy.Identity, target policy.ForumTarget) error {
	if policy.CanPerformForum(action, actor, target) {
		return nil
	}
	s.logger.Info().Str("action", string(action)).Str("user_id", actor.UserID).Str("role", actor.Role.String()).Msg("forum action denied")
	return forumDenied(action)
}

// classTarget loads the class and the caller's relationship to it.
func (s *forumService) classTarget(ctx context.Context, actor policy.Identity, classID string) (policy.ForumTarget, error) {
	class, err := s.classes.GetClass(ctx, classID)
	if err != nil {
		return policy.ForumTarget{}, storeErr("forum.get_class", err)
	}

	target := policy.ForumTarget{ClassTeacherID: class.TeacherID, CommentsEnabled: true}
	if actor.Role == policy.RoleStudent {
		paid, err := s.classes.HasPaidEnrollment(ctx, class.ID, actor.UserID)
		if err != nil {
			return policy.ForumTarget{}, storeErr("forum.enrollment", err)
		}
		target.PaidEnrollment = paid
	}
	return target, nil
}

// postTarget resolves post → thread → class.
func (s *forumService) postTarget(ctx context.Context, actor policy.Identity, postID string) (models.ForumPost, policy.ForumTarget, error) {
	post, err := s.forum.GetPost(ctx, postID)
	if err != nil {
		return models.ForumPost{}, policy.ForumTarget{}, storeErr("forum.get_post", err)
	}
	thread, err := s.forum.GetThread(ctx, post.ThreadID)
	if err != nil {
		return models.ForumPost{}, policy.ForumTarget{}, storeErr("forum.get_thread", err)
	}

	target, err := s.classTarget(ctx, actor, thread.ClassID)
	if err != nil {
		return models.ForumPost{}, policy.ForumTarget{}, err
	}
	target.AuthorID = post.AuthorID
	target.CommentsEnabled = thread.CommentsEnabled
	return post, target, nil
}

// reason strips markup from a moderator-supplied reason before it is stored.
func (s *forumService) reason(raw string) string {
	return strings.TrimSpace(s.strict.Sanitize(raw))
}

func (s *forumService) recordModeration(ctx context.Context, actor policy.Identity, postID, action, reason string, metadata map[string]interface{}) {
	if s.moderation == nil {
		return
	}
	metadata["actor_role"] = actor.Role.String()
	metadata["recorded_at"] = s.now().UTC().Format(time.RFC3339)
	if err := s.moderation.Record(ctx, actor, contentTypeForumPost, postID, action, reason, metadata); err != nil {
		s.logger.Error().Err(err).Str("post_id", postID).Str("action", action).Msg("moderation record not written")
	}
}

func (s *forumService) notify(ctx context.Context, userID, kind, message string) {
	if s.notifications == nil || userID == "" {
		return
	}
	if _, err := s.notifications.Publish(ctx, dto.NotificationCreateRequest{UserID: userID, Type: kind, Message: message}); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Str("type", kind).Msg("failed to send forum notification")
	}
}
