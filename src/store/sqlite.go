package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/proconnect/backend/src/lib"
	"github.com/proconnect/backend/src/models"
)

// sqliteDriver is go-sqlite3 with ulower registered on every connection.
// The built-in LOWER only folds ASCII.
const sqliteDriver = "sqlite3_proconnect"

func init() {
	sql.Register(sqliteDriver, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("ulower", strings.ToLower, true)
		},
	})
}

type SQLiteStore struct {
	db  *gorm.DB
	log zerolog.Logger
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLite opens (or creates) the database at path and migrates the schema
func NewSQLite(path string, log zerolog.Logger) (*SQLiteStore, error) {
	dsn := path + "?_busy_timeout=5000&_journal_mode=WAL"
	db, err := gorm.Open(sqlite.Dialector{DriverName: sqliteDriver, DSN: dsn}, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	// sqlite allows a single writer
	sqlDB.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, log: log.With().Str("component", "sqlite").Logger()}
	if err := s.migrate(); err != nil {
		_ = s.Close(context.Background())
		return nil, err
	}

	s.log.Info().Str("path", path).Msg("Connected to SQLite")
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	err := s.db.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.ConnectionRequest{},
		&models.Post{},
		&models.Comment{},
	)
	if err != nil {
		return fmt.Errorf("migrate sqlite schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func gormErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}

func first[T any](tx *gorm.DB) (*T, error) {
	var out T
	if err := tx.First(&out).Error; err != nil {
		return nil, gormErr(err)
	}
	return &out, nil
}

func affected(tx *gorm.DB) error {
	if tx.Error != nil {
		return gormErr(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// escapeLike escapes the LIKE wildcards so the keyword matches literally
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Users

func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	return gormErr(s.db.WithContext(ctx).Create(user).Error)
}

func (s *SQLiteStore) SaveUser(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	tx := s.db.WithContext(ctx).Model(user).Select("*").Omit("created_at").Updates(user)
	return affected(tx)
}

func (s *SQLiteStore) SetUserToken(ctx context.Context, userID, token string) error {
	tx := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		Updates(map[string]any{"token": token, "updated_at": time.Now().UTC()})
	return affected(tx)
}

func (s *SQLiteStore) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	return first[models.User](s.db.WithContext(ctx).Where("id = ?", id))
}

func (s *SQLiteStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return first[models.User](s.db.WithContext(ctx).Where("email = ?", email))
}

func (s *SQLiteStore) FindUserByToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	return first[models.User](s.db.WithContext(ctx).Where("token = ?", token))
}

func (s *SQLiteStore) FindUserByEmailOrGoogleID(ctx context.Context, email, googleID string) (*models.User, error) {
	tx := s.db.WithContext(ctx).Where("email = ?", email)
	if googleID != "" {
		tx = tx.Or("google_id = ?", googleID)
	}
	return first[models.User](tx)
}

func (s *SQLiteStore) DeleteUser(ctx context.Context, id string) error {
	return affected(s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.User{}))
}

func (s *SQLiteStore) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) publicUsers(ctx context.Context, ids []string) (map[string]models.PublicUser, error) {
	out := make(map[string]models.PublicUser, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var users []models.User
	err := s.db.WithContext(ctx).
		Select("id", "name", "username", "email", "profile_picture").
		Where("id IN ?", ids).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	for i := range users {
		out[users[i].ID] = users[i].Public()
	}
	return out, nil
}

// Profiles

func (s *SQLiteStore) CreateProfile(ctx context.Context, profile *models.Profile) error {
	profile.Normalize()
	return gormErr(s.db.WithContext(ctx).Create(profile).Error)
}

func (s *SQLiteStore) SaveProfile(ctx context.Context, profile *models.Profile) error {
	profile.UpdatedAt = time.Now().UTC()
	tx := s.db.WithContext(ctx).Model(profile).Select("*").Omit("created_at").Updates(profile)
	return affected(tx)
}

func (s *SQLiteStore) FindProfileByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := first[models.Profile](s.db.WithContext(ctx).Where("user_id = ?", userID))
	if err != nil {
		return nil, err
	}
	profile.Normalize()
	return profile, nil
}

func (s *SQLiteStore) SearchProfiles(ctx context.Context, keyword string, page lib.PageRequest) ([]models.ProfileView, int64, error) {
	base := func() *gorm.DB {
		tx := s.db.WithContext(ctx).Model(&models.Profile{}).
			Joins("JOIN users ON users.id = profiles.user_id")
		if kw := strings.TrimSpace(keyword); kw != "" {
			pattern := "%" + escapeLike(strings.ToLower(kw)) + "%"
			tx = tx.Where(
				`ulower(COALESCE(users.name, '')) LIKE ? ESCAPE '\' OR `+
					`ulower(COALESCE(users.username, '')) LIKE ? ESCAPE '\' OR `+
					`ulower(COALESCE(users.email, '')) LIKE ? ESCAPE '\' OR `+
					`ulower(COALESCE(profiles.bio, '')) LIKE ? ESCAPE '\' OR `+
					`ulower(COALESCE(profiles.current_position, '')) LIKE ? ESCAPE '\'`,
				pattern, pattern, pattern, pattern, pattern)
		}
		return tx
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count profiles: %w", err)
	}

	var profiles []models.Profile
	err := base().
		Select("profiles.*").
		Order("profiles.created_at ASC, profiles.id ASC").
		Offset(int(page.Offset())).
		Limit(page.PageSize).
		Find(&profiles).Error
	if err != nil {
		return nil, 0, fmt.Errorf("search profiles: %w", err)
	}

	ids := make([]string, 0, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.UserID)
	}
	users, err := s.publicUsers(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	views := make([]models.ProfileView, 0, len(profiles))
	for i := range profiles {
		views = append(views, models.NewProfileView(&profiles[i], resolve(users, profiles[i].UserID)))
	}
	return views, total, nil
}

// Connections

func (s *SQLiteStore) CreateConnection(ctx context.Context, req *models.ConnectionRequest) error {
	return gormErr(s.db.WithContext(ctx).Create(req).Error)
}

func (s *SQLiteStore) FindConnectionByID(ctx context.Context, id string) (*models.ConnectionRequest, error) {
	return first[models.ConnectionRequest](s.db.WithContext(ctx).Where("id = ?", id))
}

func (s *SQLiteStore) RespondToConnection(ctx context.Context, id string, accepted bool) error {
	tx := s.db.WithContext(ctx).Model(&models.ConnectionRequest{}).
		Where("id = ? AND status IS NULL", id).
		Updates(map[string]any{"status": accepted, "updated_at": time.Now().UTC()})
	return affected(tx)
}

func (s *SQLiteStore) listConnections(ctx context.Context, column, userID string) ([]models.ConnectionView, error) {
	var reqs []models.ConnectionRequest
	err := s.db.WithContext(ctx).
		Where(column+" = ?", userID).
		Order("created_at DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}
	return connectionViews(ctx, s.publicUsers, reqs)
}

func (s *SQLiteStore) ListOutgoingConnections(ctx context.Context, userID string) ([]models.ConnectionView, error) {
	return s.listConnections(ctx, "user_id", userID)
}

func (s *SQLiteStore) ListIncomingConnections(ctx context.Context, userID string) ([]models.ConnectionView, error) {
	return s.listConnections(ctx, "connection_id", userID)
}

// Posts

func (s *SQLiteStore) CreatePost(ctx context.Context, post *models.Post) error {
	return gormErr(s.db.WithContext(ctx).Create(post).Error)
}

func (s *SQLiteStore) FindPostByID(ctx context.Context, id string) (*models.Post, error) {
	return first[models.Post](s.db.WithContext(ctx).Where("id = ?", id))
}

func (s *SQLiteStore) ListPosts(ctx context.Context, ownerID string) ([]models.PostView, error) {
	tx := s.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if ownerID != "" {
		tx = tx.Where("user_id = ?", ownerID)
	}

	var posts []models.Post
	if err := tx.Find(&posts).Error; err != nil {
		return nil, err
	}
	return postViews(ctx, s.publicUsers, posts)
}

func (s *SQLiteStore) DeletePost(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := affected(tx.Where("id = ?", id).Delete(&models.Post{})); err != nil {
			return err
		}
		return tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error
	})
}

func (s *SQLiteStore) AddLikes(ctx context.Context, id string, delta int64) (*models.Post, error) {
	expr := gorm.Expr("likes + ?", delta)
	if delta < 0 {
		expr = gorm.Expr("MAX(likes + ?, 0)", delta)
	}

	tx := s.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).
		Updates(map[string]any{"likes": expr, "updated_at": time.Now().UTC()})
	if err := affected(tx); err != nil {
		return nil, err
	}
	return s.FindPostByID(ctx, id)
}

// Comments

func (s *SQLiteStore) CreateComment(ctx context.Context, comment *models.Comment) error {
	return gormErr(s.db.WithContext(ctx).Create(comment).Error)
}

func (s *SQLiteStore) FindCommentByID(ctx context.Context, id string) (*models.Comment, error) {
	return first[models.Comment](s.db.WithContext(ctx).Where("id = ?", id))
}

func (s *SQLiteStore) ListComments(ctx context.Context, postID string) ([]models.CommentView, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return commentViews(ctx, s.publicUsers, comments)
}

func (s *SQLiteStore) DeleteComment(ctx context.Context, id string) error {
	return affected(s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Comment{}))
}
