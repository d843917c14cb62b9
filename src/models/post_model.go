package models

import "time"

type Post struct {
	ID        string    `json:"_id" bson:"_id" gorm:"primaryKey;size:24"`
	UserID    string    `json:"userId" bson:"userId" gorm:"index;size:24;not null"`
	Body      string    `json:"body" bson:"body" gorm:"type:text;not null"`
	Media     string    `json:"media" bson:"media"`
	FileType  string    `json:"fileType" bson:"fileType"`
	Likes     int64     `json:"likes" bson:"likes" gorm:"not null;default:0"`
	Active    bool      `json:"active" bson:"active"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// PostView is a post with its owner resolved
type PostView struct {
	ID        string     `json:"_id"`
	User      PublicUser `json:"userId"`
	Body      string     `json:"body"`
	Media     string     `json:"media"`
	FileType  string     `json:"fileType"`
	Likes     int64      `json:"likes"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func NewPostView(p *Post, owner PublicUser) PostView {
	return PostView{
		ID:        p.ID,
		User:      owner,
		Body:      p.Body,
		Media:     p.Media,
		FileType:  p.FileType,
		Likes:     p.Likes,
		Active:    p.Active,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

type Comment struct {
	ID        string    `json:"_id" bson:"_id" gorm:"primaryKey;size:24"`
	PostID    string    `json:"postId" bson:"postId" gorm:"index;size:24;not null"`
	UserID    string    `json:"userId" bson:"userId" gorm:"index;size:24;not null"`
	Body      string    `json:"body" bson:"body" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// CommentView is a comment with its author resolved
type CommentView struct {
	ID        string     `json:"_id"`
	PostID    string     `json:"postId"`
	User      PublicUser `json:"userId"`
	Body      string     `json:"body"`
	CreatedAt time.Time  `json:"createdAt"`
}

func NewCommentView(c *Comment, author PublicUser) CommentView {
	return CommentView{
		ID:        c.ID,
		PostID:    c.PostID,
		User:      author,
		Body:      c.Body,
		CreatedAt: c.CreatedAt,
	}
}
