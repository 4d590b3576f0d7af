package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/madrasa-api/internal/dto"
	"github.com/noah-isme/madrasa-api/internal/i18n"
	"github.com/noah-isme/madrasa-api/internal/middleware"
	"github.com/noah-isme/madrasa-api/internal/policy"
	"github.com/noah-isme/madrasa-api/internal/service"
	"github.com/noah-isme/madrasa-api/internal/utils"
)

var forumDenyKeys = map[policy.ForumAction]string{
	policy.ActionCreateThread:   i18n.KeyDenyCreateThread,
	policy.ActionCreatePost:     i18n.KeyDenyCreatePost,
	policy.ActionDeletePost:     i18n.KeyDenyDeletePost,
	policy.ActionToggleComments: i18n.KeyDenyToggleComments,
	policy.ActionPinThread:      i18n.KeyDenyPinThread,
	policy.ActionApprovePost:    i18n.KeyDenyApprovePost,
	policy.ActionReportPost:     i18n.KeyDenyReportPost,
	policy.ActionLikePost:       i18n.KeyDenyLikePost,
}

// ForumHandler serves the manage-forum endpoint and the class-scoped forum reads.
type ForumHandler struct {
	service service.ForumService
	errors  errorResponder
}

// NewForumHandler constructs a forum handler.
func NewForumHandler(service service.ForumService, translator *i18n.Translator, logger zerolog.Logger) *ForumHandler {
	componentLogger := logger.With().Str("component", "forum_handler").Logger()
	return &ForumHandler{
		service: service,
		errors:  errorResponder{translator: translator, logger: componentLogger},
	}
}

// Register binds the forum routes. Guards run before the manage action, e.g. the per-user
// rate limit.
func (h *ForumHandler) Register(router fiber.Router, guards ...fiber.Handler) {
	router.Get("/forum/classes/:classId/threads", h.listThreads)
	router.Get("/forum/threads/:id", h.getThread)

	handlers := append(guards, h.manage)
	router.Post("/manage-forum", handlers...)
}

func (h *ForumHandler) listThreads(c *fiber.Ctx) error {
	actor, ok := middleware.IdentityFromContext(c)
	if !ok {
		return h.errors.unauthorized(c)
	}

	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return h.errors.badRequest(c)
	}
	offset, err := parseQueryInt(c, "offset")
	if err != nil {
		return h.errors.badRequest(c)
	}

	threads, err := h.service.ListThreads(withRequestContext(c), actor, c.Params("classId"), limit, offset)
	if err != nil {
		return h.errors.respond(c, err, "")
	}
	return utils.OK(c, threads, "threads", fiber.Map{"limit": limit, "offset": offset})
}

func (h *ForumHandler) getThread(c *fiber.Ctx) error {
	actor, ok := middleware.IdentityFromContext(c)
	if !ok {
		return h.errors.unauthorized(c)
	}

	thread, err := h.service.GetThread(withRequestContext(c), actor, c.Params("id"))
	if err != nil {
		return h.errors.respond(c, err, "")
	}
	return utils.SendSuccess(c, "thread", thread)
}

func (h *ForumHandler) manage(c *fiber.Ctx) error {
	actor, ok := middleware.IdentityFromContext(c)
	if !ok {
		return h.errors.unauthorized(c)
	}

	var req dto.ManageForumRequest
	if err := c.BodyParser(&req); err != nil {
		return h.errors.badRequest(c)
	}

	action := policy.ForumAction(req.Action)
	if !action.Valid() {
		return utils.SendError(c, fiber.StatusBadRequest, h.errors.message(c, i18n.KeyUnknownAction))
	}

	ctx := withRequestContext(c)

	var (
		data interface{}
		err  error
	)
	switch action {
	case policy.ActionCreateThread:
		data, err = h.service.CreateThread(ctx, actor, dto.CreateThreadRequest{
			ClassID: req.ClassID,
			Title:   req.Title,
			Content: req.Content,
		})
	case policy.ActionCreatePost:
		data, err = h.service.CreatePost(ctx, actor, dto.CreatePostRequest{
			ThreadID:     req.ThreadID,
			ParentPostID: req.ParentPostID,
			Content:      req.Content,
		})
	case policy.ActionDeletePost:
		err = h.service.DeletePost(ctx, actor, dto.PostActionRequest{PostID: req.PostID, Reason: req.Reason})
		data = fiber.Map{"post_id": req.PostID, "deleted": true}
	case policy.ActionToggleComments:
		data, err = h.service.ToggleComments(ctx, actor, dto.ThreadFlagRequest{ThreadID: req.ThreadID, Value: req.CommentsEnabled})
	case policy.ActionPinThread:
		data, err = h.service.PinThread(ctx, actor, dto.ThreadFlagRequest{ThreadID: req.ThreadID, Value: req.IsPinned})
	case policy.ActionApprovePost:
		data, err = h.service.ApprovePost(ctx, actor, dto.PostActionRequest{PostID: req.PostID, Reason: req.Reason})
	case policy.ActionReportPost:
		data, err = h.service.ReportPost(ctx, actor, dto.PostActionRequest{PostID: req.PostID, Reason: req.Reason})
	case policy.ActionLikePost:
		data, err = h.service.LikePost(ctx, actor, likeRequest(req))
	}
	if err != nil {
		return h.errors.respond(c, err, forumDenyKeys[action])
	}

	status := fiber.StatusOK
	if action == policy.ActionCreateThread || action == policy.ActionCreatePost {
		status = fiber.StatusCreated
	}
	return utils.SendSuccessWithStatus(c, status, string(action), data)
}

// likeRequest accepts the like fields either nested under likeData or at the top level.
func likeRequest(req dto.ManageForumRequest) dto.LikePostRequest {
	like := dto.LikePostRequest{PostID: req.PostID, UserID: req.UserID}
	if req.LikeData != nil {
		if req.LikeData.PostID != "" {
			like.PostID = req.LikeData.PostID
		}
		if req.LikeData.UserID != "" {
			like.UserID = req.LikeData.UserID
		}
		like.IsLike = req.LikeData.IsLike
	}
	return like
}
