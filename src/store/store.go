// Package store persists users, profiles, connection requests, posts and
// comments. Two drivers implement Store: MongoDB for deployments and SQLite
// (through gorm) for single-node setups and tests.
package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/proconnect/backend/src/lib"
	"github.com/proconnect/backend/src/models"
)

var (
	// ErrNotFound is returned when no record matches
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned when a unique index rejects a write
	ErrDuplicate = errors.New("store: duplicate key")
)

// Store is the persistence boundary of the application. Every method honours
// ctx cancellation.
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	SaveUser(ctx context.Context, user *models.User) error
	SetUserToken(ctx context.Context, userID, token string) error
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByToken(ctx context.Context, token string) (*models.User, error)
	FindUserByEmailOrGoogleID(ctx context.Context, email, googleID string) (*models.User, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
	DeleteUser(ctx context.Context, id string) error

	CreateProfile(ctx context.Context, profile *models.Profile) error
	SaveProfile(ctx context.Context, profile *models.Profile) error
	FindProfileByUserID(ctx context.Context, userID string) (*models.Profile, error)
	SearchProfiles(ctx context.Context, keyword string, page lib.PageRequest) ([]models.ProfileView, int64, error)

	// CreateConnection fails with ErrDuplicate when the ordered pair exists
	CreateConnection(ctx context.Context, req *models.ConnectionRequest) error
	FindConnectionByID(ctx context.Context, id string) (*models.ConnectionRequest, error)
	// RespondToConnection sets the status of a pending request. It fails with
	// ErrNotFound when the request is missing or no longer pending.
	RespondToConnection(ctx context.Context, id string, accepted bool) error
	ListOutgoingConnections(ctx context.Context, userID string) ([]models.ConnectionView, error)
	ListIncomingConnections(ctx context.Context, userID string) ([]models.ConnectionView, error)

	CreatePost(ctx context.Context, post *models.Post) error
	FindPostByID(ctx context.Context, id string) (*models.Post, error)
	// ListPosts returns posts newest first, only those of ownerID when it is set
	ListPosts(ctx context.Context, ownerID string) ([]models.PostView, error)
	// DeletePost removes the post and its comments
	DeletePost(ctx context.Context, id string) error
	// AddLikes atomically adds delta to the like counter, never going below zero
	AddLikes(ctx context.Context, id string, delta int64) (*models.Post, error)

	CreateComment(ctx context.Context, comment *models.Comment) error
	FindCommentByID(ctx context.Context, id string) (*models.Comment, error)
	ListComments(ctx context.Context, postID string) ([]models.CommentView, error)
	DeleteComment(ctx context.Context, id string) error

	Close(ctx context.Context) error
}

// NewID returns a new record identifier. Both drivers use ObjectID hex
// strings so data can move between them.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// ValidID reports whether id has the shape of an identifier produced by NewID
func ValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}
