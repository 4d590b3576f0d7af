package dto

import (
	"time"

	"github.com/noah-isme/madrasa-api/internal/models"
)

// LikeData is the nested like payload of a like-post request.
type LikeData struct {
	PostID string `json:"postId"`
	UserID string `json:"userId"`
	IsLike *bool  `json:"isLike"`
}

// ManageForumRequest is the single request body accepted by the manage-forum endpoint.
type ManageForumRequest struct {
	Action          string    `json:"action"`
	ClassID         string    `json:"classId"`
	ThreadID        string    `json:"threadId"`
	PostID          string    `json:"postId"`
	ParentPostID    *string   `json:"parentPostId"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	CommentsEnabled *bool     `json:"commentsEnabled"`
	IsPinned        *bool     `json:"isPinned"`
	UserID          string    `json:"userId"`
	Reason          string    `json:"reason"`
	LikeData        *LikeData `json:"likeData"`
}

// CreateThreadRequest opens a thread in a class.
type CreateThreadRequest struct {
	ClassID string `validate:"required,max=36"`
	Title   string `validate:"required,min=3,max=255"`
	Content string `validate:"max=20000"`
}

// CreatePostRequest adds a post or reply to a thread.
type CreatePostRequest struct {
	ThreadID     string  `validate:"required,max=36"`
	ParentPostID *string `validate:"omitempty,max=36"`
	Content      string  `validate:"required,min=1,max=10000"`
}

// PostActionRequest targets a single post.
type PostActionRequest struct {
	PostID string `validate:"required,max=36"`
	Reason string `validate:"max=1000"`
}

// ThreadFlagRequest sets a boolean flag on a thread.
type ThreadFlagRequest struct {
	ThreadID string `validate:"required,max=36"`
	Value    *bool  `validate:"required"`
}

// LikePostRequest toggles the caller's like or dislike on a post.
type LikePostRequest struct {
	PostID string `validate:"required,max=36"`
	UserID string `validate:"omitempty,max=36"`
	IsLike *bool  `validate:"required"`
}

// ForumThreadResponse describes a thread returned by the API.
type ForumThreadResponse struct {
	ID              string    `json:"id"`
	ClassID         string    `json:"class_id"`
	AuthorID        string    `json:"author_id"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	IsPinned        bool      `json:"is_pinned"`
	CommentsEnabled bool      `json:"comments_enabled"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewForumThreadResponse converts a model into a DTO.
func NewForumThreadResponse(model models.ForumThread) ForumThreadResponse {
	return ForumThreadResponse{
		ID:              model.ID,
		ClassID:         model.ClassID,
		AuthorID:        model.AuthorID,
		Title:           model.Title,
		Content:         model.Content,
		IsPinned:        model.IsPinned,
		CommentsEnabled: model.CommentsEnabled,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

// ForumPostResponse describes a serialized post.
type ForumPostResponse struct {
	ID            string    `json:"id"`
	ThreadID      string    `json:"thread_id"`
	AuthorID      string    `json:"author_id"`
	ParentPostID  *string   `json:"parent_post_id,omitempty"`
	Content       string    `json:"content"`
	IsReported    bool      `json:"is_gerapporteerd"`
	LikesCount    int       `json:"likes_count"`
	DislikesCount int       `json:"dislikes_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewForumPostResponse converts a post model to DTO.
func NewForumPostResponse(model models.ForumPost) ForumPostResponse {
	return ForumPostResponse{
		ID:            model.ID,
		ThreadID:      model.ThreadID,
		AuthorID:      model.AuthorID,
		ParentPostID:  model.ParentPostID,
		Content:       model.Content,
		IsReported:    model.IsReported,
		LikesCount:    model.LikesCount,
		DislikesCount: model.DislikesCount,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}

// LikeResponse reports the toggle outcome and the recomputed aggregate.
type LikeResponse struct {
	PostID        string `json:"post_id"`
	Status        string `json:"status"`
	LikesCount    int    `json:"likes_count"`
	DislikesCount int    `json:"dislikes_count"`
	Recounted     bool   `json:"recounted"`
}

// ForumReply is a post together with the replies made to it.
type ForumReply struct {
	ForumPostResponse
	Replies []ForumReply `json:"replies"`
}

// ForumThreadDetailResponse is a thread with its posts nested by parent.
type ForumThreadDetailResponse struct {
	ForumThreadResponse
	Posts []ForumReply `json:"posts"`
}

// NewForumReplyTree nests posts under their parents. Posts whose parent is not in the slice
// are treated as top-level; input order is kept at every level.
func NewForumReplyTree(posts []models.ForumPost) []ForumReply {
	known := make(map[string]bool, len(posts))
	for _, post := range posts {
		known[post.ID] = true
	}

	children := make(map[string][]models.ForumPost, len(posts))
	roots := make([]models.ForumPost, 0, len(posts))
	for _, post := range posts {
		if post.ParentPostID != nil && known[*post.ParentPostID] && *post.ParentPostID != post.ID {
			children[*post.ParentPostID] = append(children[*post.ParentPostID], post)
			continue
		}
		roots = append(roots, post)
	}

	var build func(level []models.ForumPost) []ForumReply
	build = func(level []models.ForumPost) []ForumReply {
		out := make([]ForumReply, 0, len(level))
		for _, post := range level {
			out = append(out, ForumReply{
				ForumPostResponse: NewForumPostResponse(post),
				Replies:           build(children[post.ID]),
			})
		}
		return out
	}
	return build(roots)
}
