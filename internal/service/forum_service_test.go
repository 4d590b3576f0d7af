package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/madrasa-api/internal/dto"
	"github.com/noah-isme/madrasa-api/internal/i18n"
	"github.com/noah-isme/madrasa-api/internal/models"
	"github.com/noah-isme/madrasa-api/internal/policy"
	"github.com/noah-isme/madrasa-api/internal/repository"
)

type forumFixture struct {
	db            *gorm.DB
	world         classWorld
	service       ForumService
	notifications *recordingPublisher
}

func newForumFixture(t *testing.T) forumFixture {
	t.Helper()
	db := setupTestDB(t)
	world := seedClassWorld(t, db)

	classes := repository.NewClassRepository(db)
	moderation := NewModerationRecorder(repository.NewScopedRepository[models.ContentModeration](db, classes), zerolog.Nop())
	notifications := &recordingPublisher{}
	svc := NewForumService(repository.NewForumRepository(db), classes, moderation, notifications, i18n.New("ar"), newValidator(), zerolog.Nop())

	return forumFixture{db: db, world: world, service: svc, notifications: notifications}
}

func (f forumFixture) post(t *testing.T, authorID string) models.ForumPost {
	t.Helper()
	post := models.ForumPost{ThreadID: f.world.thread.ID, AuthorID: authorID, Content: "salam"}
	require.NoError(t, f.db.Create(&post).Error)
	return post
}

func boolPtr(v bool) *bool { return &v }

func TestForumServiceCreatePostRequiresPaidEnrollment(t *testing.T) {
	f := newForumFixture(t)
	ctx := context.Background()

	post, err := f.service.CreatePost(ctx, f.world.paid, dto.CreatePostRequest{ThreadID: f.world.thread.ID, Content: "hi"})
	require.NoError(t, err)
	require.Equal(t, f.world.paid.UserID, post.AuthorID)
	require.Equal(t, "hi", post.Content)

	_, err = f.service.CreatePost(ctx, f.world.unpaid, dto.CreatePostRequest{ThreadID: f.world.thread.ID, Content: "hi"})
	require.ErrorIs(t, err, ErrForumForbidden)

	_, err = f.service.CreatePost(ctx, f.world.support, dto.CreatePostRequest{ThreadID: f.world.thread.ID, Content: "hi"})
	require.ErrorIs(t, err, ErrForumForbidden)

	var count int64
	require.NoError(t, f.db.Model(&models.ForumPost{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestForumServiceCreatePostSanitizesAndNotifies(t *testing.T) {
	f := newForumFixture(t)
	ctx := context.Background()

	parent := f.post(t, f.world.admin.UserID)
	post, err := f.service.CreatePost(ctx, f.world.paid, dto.CreatePostRequest{
		ThreadID:     f.world.thread.ID,
		ParentPostID: &parent.ID,
		Content:      "<script>alert(1)</script>Assalamu alaikum",
	})
	require.NoError(t, err)
	require.Equal(t, "Assalamu alaikum", post.Content)
	require.NotNil(t, post.ParentPostID)

	recipients := make([]string, 0, len(f.notifications.calls))
	for _, call := range f.notifications.calls {
		recipients = append(recipients, call.UserID)
		require.Equal(t, "forum_reply", call.Type)
		require.Equal(t, "رد جديد في Week 1", call.Message)
	}
	require.ElementsMatch(t, []string{f.world.teacher.UserID, f.world.admin.UserID}, recipients)

	_, err = f.service.CreatePost(ctx, f.world.paid, dto.CreatePostRequest{ThreadID: f.world.thread.ID, Content: "<script></script>"})
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestForumServiceCreatePostRespectsDisabledComments(t *testing.T) {
	f := newForumFixture(t)
	ctx := context.Background()

	_, err := f.service.ToggleComments(ctx, f.world.teacher, dto.ThreadFlagRequest{ThreadID: f.world.thread.ID, Value: boolPtr(false)})
	require.ErrorIs(t, err, ErrForumForbidden)

	thread, err := f.service.ToggleComments(ctx, f.world.admin, dto.ThreadFlagRequest{ThreadID: f.world.thread.ID, Value: boolPtr(false)})
	require.NoError(t, err)
	require.False(t, thread.CommentsEnabled)

	_, err = f.service.CreatePost(ctx, f.world.paid, dto.CreatePostRequest{ThreadID: f.world.thread.ID, Content: "hi"})
	require.ErrorIs(t, err, ErrForumForbidden)

	_, err = f.service.CreatePost(ctx, f.world.teacher, dto.CreatePostRequest{ThreadID: f.world.thread.ID, Content: "announcement"})
	require.NoError(t, err)
}

func TestForumServiceDeletePost(t *testing.T) {
	f := newForumFixture(t)
	ctx := context.Background()

	err := f.service.DeletePost(ctx, f.world.teacher, dto.PostActionRequest{PostID: "missing"})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	post := f.post(t, f.world.paid.UserID)
	err = f.service.DeletePost(ctx, f.world.unpaid, dto.PostActionRequest{PostID: post.ID})
	require.ErrorIs(t, err, ErrForumForbidden)
	err = f.service.DeletePost(ctx, f.world.otherTeacher, dto.PostActionRequest{PostID: post.ID})
	require.ErrorIs(t, err, ErrForumForbidden)

	require.NoError(t, f.service.DeletePost(ctx, f.world.admin, dto.PostActionRequest{PostID: post.ID, Reason: "spam"}))
	require.ErrorIs(t, f.db.First(&models.ForumPost{}, "id = ?", post.ID).Error, gorm.ErrRecordNotFound)

	var record models.ContentModeration
	require.NoError(t, f.db.Where("content_id = ?", post.ID).First(&record).Error)
	require.Equal(t, models.ModerationDeleted, record.Action)
	require.Equal(t, f.world.admin.UserID, record.ActorID)
	require.Equal(t, "spam", record.Reason)

	own := f.post(t, f.world.paid.UserID)
	require.NoError(t, f.service.DeletePost(ctx, f.world.paid, dto.PostActionRequest{PostID: own.ID}))
}

func TestForumServiceDeletePostByOwningTeacher(t *testing.T) {
	f := newForumFixture(t)
	ctx := context.Background()
	post := f.post(t, f.world.paid.UserID)

	require.NoError(t, f.service.DeletePost(ctx, f.world.teacher, dto.PostActionRequest{
		PostID: post.ID,
		Reason: `<img src=x onerror="alert(1)">Off <b>topic</b>`,
	}))
	require.ErrorIs(t, f.db.First(&models.ForumPost{}, "id = ?", post.ID).Error, gorm.ErrRecordNotFound)

	var record models.ContentModeration
	require.NoError(t, f.db.Where("content_id = ?", post.ID).First(&record).Error)
	require.Equal(t, f.world.teacher.UserID, record.ActorID)
	require.Equal(t, "Off topic", record.Reason)
	require.Equal(t, false, record.Metadata["removed_by_author"])
}

func TestForumServicePinThreadOwningTeacherOnly(t *testing.T) {
	f := newForumFixture(t)
	ctx := context.Background()

	_, err := f.service.PinThread(ctx, f.world.otherTeacher, dto.ThreadFlagRequest{ThreadID: f.world.thread.ID, Value: boolPtr(true)})
	require.ErrorIs(t, err, ErrForumForbidden)
	_, err = f.service.PinThread(ctx, f.world.paid, dto.ThreadFlagRequest{ThreadID: f.world.thread.ID, Value: boolPtr(true)})
	require.ErrorIs(t, err, ErrForumForbidden)

	thread, err := f.service.PinThread(ctx, f.world.teacher, dto.ThreadFlagRequest{ThreadID: f.world.thread.ID, Value: boolPtr(true)})
	require.NoError(t, err)
	require.True(t, thread.IsPinned)

	_, err = f.service.PinThread(ctx, f.world.teacher, dto.ThreadFlagRequest{ThreadID: f.world.thread.ID})
	var validationErrs validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrs)
}

func TestForumServiceReportThenApprove(t *testing.T) {
	f := newForumFixture(t)
	ctx := context.Background()
	post := f.post(t, f.world.admin.UserID)

	_, err := f.service.ReportPost(ctx, f.world.unpaid, dto.PostActionRequest{PostID: post.ID})
	require.ErrorIs(t, err, ErrForumForbidden)

	reported, err := f.service.ReportPost(ctx, f.world.paid, dto.PostActionRequest{PostID: post.ID, Reason: "off-topic"})
	require.NoError(t, err)
	require.True(t, reported.IsReported)
	require.Len(t, f.notifications.calls, 1)
	require.Equal(t, f.world.teacher.UserID, f.notifications.calls[0].UserID)
	require.Equal(t, "تم الإبلاغ عن مشاركة في فصلك للمراجعة", f.notifications.calls[0].Message)

	again, err := f.service.ReportPost(ctx, f.world.paid, dto.PostActionRequest{PostID: post.ID})
	require.NoError(t, err)
	require.True(t, again.IsReported)

	_, err = f.service.ApprovePost(ctx, f.world.paid, dto.PostActionRequest{PostID: post.ID})
	require.ErrorIs(t, err, ErrForumForbidden)

	approved, err := f.service.ApprovePost(ctx, f.world.teacher, dto.PostActionRequest{PostID: post.ID, Reason: "<script>x()</script>reviewed"})
	require.NoError(t, err)
	require.False(t, approved.IsReported)

	var approval models.ContentModeration
	require.NoError(t, f.db.Where("content_id = ? AND action = ?", post.ID, models.ModerationApproved).First(&approval).Error)
	require.Equal(t, "reviewed", approval.Reason)

	var actions []string
	require.NoError(t, f.db.Model(&models.ContentModeration{}).Where("content_id = ?", post.ID).Order("created_at").Pluck("action", &actions).Error)
	require.ElementsMatch(t, []string{models.ModerationFlagged, models.ModerationFlagged, models.ModerationApproved}, actions)
}

func TestForumServiceLikePost(t *testing.T) {
	f := newForumFixture(t)
	ctx := context.Background()
	post := f.post(t, f.world.teacher.UserID)

	_, err := f.service.LikePost(ctx, f.world.paid, dto.LikePostRequest{PostID: post.ID, UserID: f.world.unpaid.UserID, IsLike: boolPtr(true)})
	require.ErrorIs(t, err, ErrForumForbidden)

	_, err = f.service.LikePost(ctx, f.world.unpaid, dto.LikePostRequest{PostID: post.ID, IsLike: boolPtr(true)})
	require.ErrorIs(t, err, ErrForumForbidden)

	resp, err := f.service.LikePost(ctx, f.world.paid, dto.LikePostRequest{PostID: post.ID, UserID: f.world.paid.UserID, IsLike: boolPtr(true)})
	require.NoError(t, err)
	require.Equal(t, string(repository.LikeAdded), resp.Status)
	require.Equal(t, 1, resp.LikesCount)
	require.True(t, resp.Recounted)

	resp, err = f.service.LikePost(ctx, f.world.paid, dto.LikePostRequest{PostID: post.ID, IsLike: boolPtr(false)})
	require.NoError(t, err)
	require.Equal(t, string(repository.LikeFlipped), resp.Status)
	require.Equal(t, 0, resp.LikesCount)
	require.Equal(t, 1, resp.DislikesCount)

	resp, err = f.service.LikePost(ctx, f.world.paid, dto.LikePostRequest{PostID: post.ID, IsLike: boolPtr(false)})
	require.NoError(t, err)
	require.Equal(t, string(repository.LikeRemoved), resp.Status)
	require.Zero(t, resp.DislikesCount)
}

func TestForumServiceCreateThread(t *testing.T) {
	f := newForumFixture(t)
	ctx := context.Background()

	_, err := f.service.CreateThread(ctx, f.world.otherTeacher, dto.CreateThreadRequest{ClassID: f.world.class.ID, Title: "Hello class"})
	require.ErrorIs(t, err, ErrForumForbidden)

	_, err = f.service.CreateThread(ctx, f.world.unpaid, dto.CreateThreadRequest{ClassID: f.world.class.ID, Title: "Hello class"})
	require.ErrorIs(t, err, ErrForumForbidden)

	_, err = f.service.CreateThread(ctx, f.world.paid, dto.CreateThreadRequest{ClassID: "missing", Title: "Hello class"})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	thread, err := f.service.CreateThread(ctx, f.world.paid, dto.CreateThreadRequest{ClassID: f.world.class.ID, Title: "<b>Question</b> about madd", Content: "<p>text</p>"})
	require.NoError(t, err)
	require.Equal(t, "Question about madd", thread.Title)
	require.True(t, thread.CommentsEnabled)
	require.Equal(t, f.world.paid.UserID, thread.AuthorID)
}

func TestForumServiceListThreadsForParticipantsOnly(t *testing.T) {
	f := newForumFixture(t)
	ctx := context.Background()

	pinned := models.ForumThread{ClassID: f.world.class.ID, AuthorID: f.world.teacher.UserID, Title: "Class rules", IsPinned: true, CommentsEnabled: true}
	require.NoError(t, f.db.Create(&pinned).Error)

	for _, reader := range []policy.Identity{f.world.admin, f.world.teacher, f.world.paid} {
		threads, err := f.service.ListThreads(ctx, reader, f.world.class.ID, 0, 0)
		require.NoError(t, err)
		require.Len(t, threads, 2, reader.Role)
		require.Equal(t, pinned.ID, threads[0].ID)
		require.Equal(t, f.world.thread.ID, threads[1].ID)
	}

	for _, outsider := range []policy.Identity{f.world.unpaid, f.world.otherTeacher, f.world.support} {
		threads, err := f.service.ListThreads(ctx, outsider, f.world.class.ID, 0, 0)
		require.NoError(t, err)
		require.NotNil(t, threads)
		require.Empty(t, threads, outsider.Role)
	}

	threads, err := f.service.ListThreads(ctx, f.world.paid, "missing", 0, 0)
	require.NoError(t, err)
	require.Empty(t, threads)
}

func TestForumServiceGetThreadNestsReplies(t *testing.T) {
	f := newForumFixture(t)
	ctx := context.Background()

	root := f.post(t, f.world.teacher.UserID)
	reply := models.ForumPost{ThreadID: f.world.thread.ID, AuthorID: f.world.paid.UserID, ParentPostID: &root.ID, Content: "shukran"}
	require.NoError(t, f.db.Create(&reply).Error)
	nested := models.ForumPost{ThreadID: f.world.thread.ID, AuthorID: f.world.teacher.UserID, ParentPostID: &reply.ID, Content: "afwan"}
	require.NoError(t, f.db.Create(&nested).Error)

	detail, err := f.service.GetThread(ctx, f.world.paid, f.world.thread.ID)
	require.NoError(t, err)
	require.Equal(t, f.world.thread.ID, detail.ID)
	require.Len(t, detail.Posts, 1)
	require.Equal(t, root.ID, detail.Posts[0].ID)
	require.Len(t, detail.Posts[0].Replies, 1)
	require.Equal(t, reply.ID, detail.Posts[0].Replies[0].ID)
	require.Len(t, detail.Posts[0].Replies[0].Replies, 1)
	require.Equal(t, nested.ID, detail.Posts[0].Replies[0].Replies[0].ID)

	_, err = f.service.GetThread(ctx, f.world.unpaid, f.world.thread.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = f.service.GetThread(ctx, f.world.otherTeacher, f.world.thread.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = f.service.GetThread(ctx, f.world.admin, "missing")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
