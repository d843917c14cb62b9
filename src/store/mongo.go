package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/proconnect/backend/src/lib"
	"github.com/proconnect/backend/src/models"
)

// Collection names follow mongoose's pluralized model names
const (
	usersCollection       = "users"
	profilesCollection    = "profiles"
	connectionsCollection = "connectionrequests"
	postsCollection       = "posts"
	commentsCollection    = "comments"
)

type MongoStore struct {
	client      *mongo.Client
	users       *mongo.Collection
	profiles    *mongo.Collection
	connections *mongo.Collection
	posts       *mongo.Collection
	comments    *mongo.Collection
	log         zerolog.Logger
}

var _ Store = (*MongoStore)(nil)

// NewMongo connects to uri, pings the primary and makes sure the indexes the
// store relies on exist
func NewMongo(ctx context.Context, uri, dbName string, log zerolog.Logger) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(dbName)
	s := &MongoStore{
		client:      client,
		users:       db.Collection(usersCollection),
		profiles:    db.Collection(profilesCollection),
		connections: db.Collection(connectionsCollection),
		posts:       db.Collection(postsCollection),
		comments:    db.Collection(commentsCollection),
		log:         log.With().Str("component", "mongo").Logger(),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	s.log.Info().Str("database", dbName).Msg("Connected to MongoDB")
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	indexes := map[*mongo.Collection][]mongo.IndexModel{
		s.users: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "googleId", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
			{Keys: bson.D{{Key: "token", Value: 1}}},
		},
		s.profiles: {
			{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		s.connections: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "connectionId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "connectionId", Value: 1}}},
		},
		s.posts: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		s.comments: {
			{Keys: bson.D{{Key: "postId", Value: 1}}},
		},
	}

	for coll, idx := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func mongoErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...*options.FindOneOptions) (*T, error) {
	var out T
	if err := coll.FindOne(ctx, filter, opts...).Decode(&out); err != nil {
		return nil, mongoErr(err)
	}
	return &out, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := make([]T, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func stamp(created, updated *time.Time) {
	now := time.Now().UTC()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

// Users

func (s *MongoStore) CreateUser(ctx context.Context, user *models.User) error {
	stamp(&user.CreatedAt, &user.UpdatedAt)
	_, err := s.users.InsertOne(ctx, user)
	return mongoErr(err)
}

func (s *MongoStore) SaveUser(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	res, err := s.users.ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if err != nil {
		return mongoErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) SetUserToken(ctx context.Context, userID, token string) error {
	update := bson.M{"$set": bson.M{"token": token, "updatedAt": time.Now().UTC()}}
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return mongoErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	return findOne[models.User](ctx, s.users, bson.M{"_id": id})
}

func (s *MongoStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return findOne[models.User](ctx, s.users, bson.M{"email": email})
}

func (s *MongoStore) FindUserByToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	return findOne[models.User](ctx, s.users, bson.M{"token": token})
}

func (s *MongoStore) FindUserByEmailOrGoogleID(ctx context.Context, email, googleID string) (*models.User, error) {
	or := bson.A{bson.M{"email": email}}
	if googleID != "" {
		or = append(or, bson.M{"googleId": googleID})
	}
	return findOne[models.User](ctx, s.users, bson.M{"$or": or})
}

func (s *MongoStore) DeleteUser(ctx context.Context, id string) error {
	res, err := s.users.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) UsernameTaken(ctx context.Context, username string) (bool, error) {
	n, err := s.users.CountDocuments(ctx, bson.M{"username": username}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *MongoStore) publicUsers(ctx context.Context, ids []string) (map[string]models.PublicUser, error) {
	out := make(map[string]models.PublicUser, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	opts := options.Find().SetProjection(bson.M{
		"name":           1,
		"username":       1,
		"email":          1,
		"profilePicture": 1,
	})
	users, err := findAll[models.PublicUser](ctx, s.users, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// Profiles

func (s *MongoStore) CreateProfile(ctx context.Context, profile *models.Profile) error {
	stamp(&profile.CreatedAt, &profile.UpdatedAt)
	profile.Normalize()
	_, err := s.profiles.InsertOne(ctx, profile)
	return mongoErr(err)
}

func (s *MongoStore) SaveProfile(ctx context.Context, profile *models.Profile) error {
	profile.UpdatedAt = time.Now().UTC()
	res, err := s.profiles.ReplaceOne(ctx, bson.M{"_id": profile.ID}, profile)
	if err != nil {
		return mongoErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) FindProfileByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := findOne[models.Profile](ctx, s.profiles, bson.M{"userId": userID})
	if err != nil {
		return nil, err
	}
	profile.Normalize()
	return profile, nil
}

type searchFacet struct {
	Metadata []struct {
		TotalCount int64 `bson:"totalCount"`
	} `bson:"metadata"`
	Data []models.ProfileView `bson:"data"`
}

// SearchProfiles joins profiles with their users, filters on the keyword and
// counts and pages the result in a single aggregation
func (s *MongoStore) SearchProfiles(ctx context.Context, keyword string, page lib.PageRequest) ([]models.ProfileView, int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$lookup", Value: bson.M{
			"from":         usersCollection,
			"localField":   "userId",
			"foreignField": "_id",
			"as":           "userId",
		}}},
		{{Key: "$unwind", Value: "$userId"}},
	}

	if keyword = strings.TrimSpace(keyword); keyword != "" {
		search := bson.M{"$regex": regexp.QuoteMeta(keyword), "$options": "i"}
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{
			"$or": bson.A{
				bson.M{"userId.name": search},
				bson.M{"userId.username": search},
				bson.M{"userId.email": search},
				bson.M{"bio": search},
				bson.M{"currentPosition": search},
			},
		}}})
	}

	pipeline = append(pipeline,
		bson.D{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}}},
		bson.D{{Key: "$facet", Value: bson.M{
			"metadata": bson.A{bson.M{"$count": "totalCount"}},
			"data": bson.A{
				bson.M{"$skip": page.Offset()},
				bson.M{"$limit": page.PageSize},
				bson.M{"$project": bson.M{
					"bio":                   1,
					"currentPosition":       1,
					"pastWork":              1,
					"education":             1,
					"userId._id":            1,
					"userId.name":           1,
					"userId.email":          1,
					"userId.username":       1,
					"userId.profilePicture": 1,
				}},
			},
		}}},
	)

	cursor, err := s.profiles.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, fmt.Errorf("search profiles: %w", err)
	}
	defer cursor.Close(ctx)

	var facets []searchFacet
	if err := cursor.All(ctx, &facets); err != nil {
		return nil, 0, fmt.Errorf("decode profile search: %w", err)
	}

	if len(facets) == 0 {
		return []models.ProfileView{}, 0, nil
	}

	var total int64
	if len(facets[0].Metadata) > 0 {
		total = facets[0].Metadata[0].TotalCount
	}

	data := facets[0].Data
	if data == nil {
		data = []models.ProfileView{}
	}
	for i := range data {
		data[i].Normalize()
	}
	return data, total, nil
}

// Connections

func (s *MongoStore) CreateConnection(ctx context.Context, req *models.ConnectionRequest) error {
	stamp(&req.CreatedAt, &req.UpdatedAt)
	_, err := s.connections.InsertOne(ctx, req)
	return mongoErr(err)
}

func (s *MongoStore) FindConnectionByID(ctx context.Context, id string) (*models.ConnectionRequest, error) {
	return findOne[models.ConnectionRequest](ctx, s.connections, bson.M{"_id": id})
}

func (s *MongoStore) RespondToConnection(ctx context.Context, id string, accepted bool) error {
	// a null filter matches both a stored null and a missing field
	filter := bson.M{"_id": id, "status": nil}
	update := bson.M{"$set": bson.M{"status": accepted, "updatedAt": time.Now().UTC()}}

	res, err := s.connections.UpdateOne(ctx, filter, update)
	if err != nil {
		return mongoErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) listConnections(ctx context.Context, filter bson.M) ([]models.ConnectionView, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	reqs, err := findAll[models.ConnectionRequest](ctx, s.connections, filter, opts)
	if err != nil {
		return nil, err
	}
	return connectionViews(ctx, s.publicUsers, reqs)
}

func (s *MongoStore) ListOutgoingConnections(ctx context.Context, userID string) ([]models.ConnectionView, error) {
	return s.listConnections(ctx, bson.M{"userId": userID})
}

func (s *MongoStore) ListIncomingConnections(ctx context.Context, userID string) ([]models.ConnectionView, error) {
	return s.listConnections(ctx, bson.M{"connectionId": userID})
}

// Posts

func (s *MongoStore) CreatePost(ctx context.Context, post *models.Post) error {
	stamp(&post.CreatedAt, &post.UpdatedAt)
	_, err := s.posts.InsertOne(ctx, post)
	return mongoErr(err)
}

func (s *MongoStore) FindPostByID(ctx context.Context, id string) (*models.Post, error) {
	return findOne[models.Post](ctx, s.posts, bson.M{"_id": id})
}

func (s *MongoStore) ListPosts(ctx context.Context, ownerID string) ([]models.PostView, error) {
	filter := bson.M{}
	if ownerID != "" {
		filter["userId"] = ownerID
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	posts, err := findAll[models.Post](ctx, s.posts, filter, opts)
	if err != nil {
		return nil, err
	}
	return postViews(ctx, s.publicUsers, posts)
}

func (s *MongoStore) DeletePost(ctx context.Context, id string) error {
	res, err := s.posts.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}

	if _, err := s.comments.DeleteMany(ctx, bson.M{"postId": id}); err != nil {
		s.log.Warn().Err(err).Str("post_id", id).Msg("Failed to delete comments of removed post")
	}
	return nil
}

func (s *MongoStore) AddLikes(ctx context.Context, id string, delta int64) (*models.Post, error) {
	now := time.Now().UTC()

	var update any
	if delta >= 0 {
		update = bson.M{
			"$inc": bson.M{"likes": delta},
			"$set": bson.M{"updatedAt": now},
		}
	} else {
		// pipeline update so the clamp is evaluated against the stored value
		update = mongo.Pipeline{
			{{Key: "$set", Value: bson.M{
				"likes":     bson.M{"$max": bson.A{0, bson.M{"$add": bson.A{"$likes", delta}}}},
				"updatedAt": now,
			}}},
		}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var post models.Post
	if err := s.posts.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&post); err != nil {
		return nil, mongoErr(err)
	}
	return &post, nil
}

// Comments

func (s *MongoStore) CreateComment(ctx context.Context, comment *models.Comment) error {
	stamp(&comment.CreatedAt, &comment.UpdatedAt)
	_, err := s.comments.InsertOne(ctx, comment)
	return mongoErr(err)
}

func (s *MongoStore) FindCommentByID(ctx context.Context, id string) (*models.Comment, error) {
	return findOne[models.Comment](ctx, s.comments, bson.M{"_id": id})
}

func (s *MongoStore) ListComments(ctx context.Context, postID string) ([]models.CommentView, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	comments, err := findAll[models.Comment](ctx, s.comments, bson.M{"postId": postID}, opts)
	if err != nil {
		return nil, err
	}
	return commentViews(ctx, s.publicUsers, comments)
}

func (s *MongoStore) DeleteComment(ctx context.Context, id string) error {
	res, err := s.comments.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
