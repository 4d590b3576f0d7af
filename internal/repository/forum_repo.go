package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/madrasa-api/internal/models"
)

// LikeStatus describes what a like toggle did to the caller's record.
type LikeStatus string

const (
	LikeAdded   LikeStatus = "added"
	LikeRemoved LikeStatus = "removed"
	LikeFlipped LikeStatus = "flipped"
)

// LikeCounts is the aggregate persisted on a post.
type LikeCounts struct {
	Likes    int `json:"likes_count"`
	Dislikes int `json:"dislikes_count"`
}

// ForumRepository persists forum threads, posts and like records.
type ForumRepository interface {
	CreateThread(ctx context.Context, thread *models.ForumThread) error
	GetThread(ctx context.Context, id string) (models.ForumThread, error)
	ListThreads(ctx context.Context, classID string, limit, offset int) ([]models.ForumThread, error)
	SetThreadPinned(ctx context.Context, id string, pinned bool) (models.ForumThread, error)
	SetCommentsEnabled(ctx context.Context, id string, enabled bool) (models.ForumThread, error)
	CreatePost(ctx context.Context, post *models.ForumPost) error
	GetPost(ctx context.Context, id string) (models.ForumPost, error)
	ListPosts(ctx context.Context, threadID string) ([]models.ForumPost, error)
	DeletePost(ctx context.Context, id string) error
	SetPostReported(ctx context.Context, id string, reported bool) (models.ForumPost, error)
	ToggleLike(ctx context.Context, userID, postID string, isLike bool) (LikeStatus, error)
	RecountLikes(ctx context.Context, postID string) (LikeCounts, error)
}

type forumRepository struct {
	db *gorm.DB
}

// NewForumRepository constructs a GORM-backed repository.
func NewForumRepository(db *gorm.DB) ForumRepository {
	return &forumRepository{db: db}
}

func (r *forumRepository) CreateThread(ctx context.Context, thread *models.ForumThread) error {
	return r.db.WithContext(ctx).Create(thread).Error
}

func (r *forumRepository) GetThread(ctx context.Context, id string) (models.ForumThread, error) {
	var thread models.ForumThread
	if err := r.db.WithContext(ctx).First(&thread, "id = ?", id).Error; err != nil {
		return models.ForumThread{}, err
	}
	return thread, nil
}

// ListThreads returns a class's threads, pinned first and then most recently active.
func (r *forumRepository) ListThreads(ctx context.Context, classID string, limit, offset int) ([]models.ForumThread, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var threads []models.ForumThread
	if err := r.db.WithContext(ctx).
		Where("class_id = ?", classID).
		Order("is_pinned DESC").
		Order("updated_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&threads).Error; err != nil {
		return nil, err
	}
	return threads, nil
}

func (r *forumRepository) SetThreadPinned(ctx context.Context, id string, pinned bool) (models.ForumThread, error) {
	if err := r.updateColumn(ctx, &models.ForumThread{}, id, "is_pinned", pinned); err != nil {
		return models.ForumThread{}, err
	}
	return r.GetThread(ctx, id)
}

func (r *forumRepository) SetCommentsEnabled(ctx context.Context, id string, enabled bool) (models.ForumThread, error) {
	if err := r.updateColumn(ctx, &models.ForumThread{}, id, "comments_enabled", enabled); err != nil {
		return models.ForumThread{}, err
	}
	return r.GetThread(ctx, id)
}

func (r *forumRepository) CreatePost(ctx context.Context, post *models.ForumPost) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}

		return tx.Model(&models.ForumThread{}).
			Where("id = ?", post.ThreadID).
			UpdateColumn("updated_at", post.CreatedAt).
			Error
	})
}

func (r *forumRepository) GetPost(ctx context.Context, id string) (models.ForumPost, error) {
	var post models.ForumPost
	if err := r.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		return models.ForumPost{}, err
	}
	return post, nil
}

// ListPosts returns every post of a thread in posting order.
func (r *forumRepository) ListPosts(ctx context.Context, threadID string) ([]models.ForumPost, error) {
	var posts []models.ForumPost
	if err := r.db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("created_at ASC").
		Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// DeletePost hard-deletes the post together with its like records. Direct replies are kept
// and become top-level posts.
func (r *forumRepository) DeletePost(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.ForumPostLike{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.ForumPost{}).
			Where("parent_post_id = ?", id).
			UpdateColumn("parent_post_id", nil).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&models.ForumPost{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *forumRepository) SetPostReported(ctx context.Context, id string, reported bool) (models.ForumPost, error) {
	if err := r.updateColumn(ctx, &models.ForumPost{}, id, "is_gerapporteerd", reported); err != nil {
		return models.ForumPost{}, err
	}
	return r.GetPost(ctx, id)
}

// ToggleLike applies the tri-state toggle on the (user, post) record: insert when absent,
// delete when the polarity matches, flip otherwise.
func (r *forumRepository) ToggleLike(ctx context.Context, userID, postID string, isLike bool) (LikeStatus, error) {
	var status LikeStatus
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.ForumPostLike
		err := tx.Where("user_id = ? AND post_id = ?", userID, postID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			status = LikeAdded
			return tx.Create(&models.ForumPostLike{PostID: postID, UserID: userID, IsLike: isLike}).Error
		case err != nil:
			return err
		case existing.IsLike == isLike:
			status = LikeRemoved
			return tx.Delete(&existing).Error
		default:
			status = LikeFlipped
			return tx.Model(&existing).Update("is_like", isLike).Error
		}
	})
	if err != nil {
		return "", err
	}
	return status, nil
}

// RecountLikes derives the aggregate from the like records and persists it on the post.
func (r *forumRepository) RecountLikes(ctx context.Context, postID string) (LikeCounts, error) {
	var likes, dislikes int64
	base := r.db.WithContext(ctx).Model(&models.ForumPostLike{}).Where("post_id = ?", postID)

	if err := base.Session(&gorm.Session{}).Where("is_like = ?", true).Count(&likes).Error; err != nil {
		return LikeCounts{}, err
	}
	if err := base.Session(&gorm.Session{}).Where("is_like = ?", false).Count(&dislikes).Error; err != nil {
		return LikeCounts{}, err
	}

	counts := LikeCounts{Likes: int(likes), Dislikes: int(dislikes)}
	if err := r.db.WithContext(ctx).Model(&models.ForumPost{}).
		Where("id = ?", postID).
		UpdateColumns(map[string]interface{}{
			"likes_count":    counts.Likes,
			"dislikes_count": counts.Dislikes,
		}).Error; err != nil {
		return LikeCounts{}, err
	}

	return counts, nil
}

func (r *forumRepository) updateColumn(ctx context.Context, model interface{}, id, column string, value interface{}) error {
	result := r.db.WithContext(ctx).Model(model).Where("id = ?", id).Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
