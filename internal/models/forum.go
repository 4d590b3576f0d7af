package models

// ForumThread is a discussion topic scoped to a class.
type ForumThread struct {
	Model
	ClassID         string `gorm:"size:36;not null;index" json:"class_id"`
	AuthorID        string `gorm:"size:36;not null;index" json:"author_id"`
	Title           string `gorm:"size:255;not null" json:"title"`
	Content         string `gorm:"type:text" json:"content"`
	IsPinned        bool   `gorm:"not null" json:"is_pinned"`
	CommentsEnabled bool   `gorm:"not null" json:"comments_enabled"`
}

// ForumPost is a message within a thread, optionally replying to another post.
type ForumPost struct {
	Model
	ThreadID      string  `gorm:"size:36;not null;index" json:"thread_id"`
	AuthorID      string  `gorm:"size:36;not null;index" json:"author_id"`
	ParentPostID  *string `gorm:"size:36;index" json:"parent_post_id,omitempty"`
	Content       string  `gorm:"type:text;not null" json:"content"`
	IsReported    bool    `gorm:"column:is_gerapporteerd;not null" json:"is_gerapporteerd"`
	LikesCount    int     `gorm:"not null" json:"likes_count"`
	DislikesCount int     `gorm:"not null" json:"dislikes_count"`
}

// ForumPostLike records one user's like or dislike of a post.
type ForumPostLike struct {
	Model
	PostID string `gorm:"size:36;not null;uniqueIndex:idx_post_like_user_post;index" json:"post_id"`
	UserID string `gorm:"size:36;not null;uniqueIndex:idx_post_like_user_post" json:"user_id"`
	IsLike bool   `gorm:"not null" json:"is_like"`
}
