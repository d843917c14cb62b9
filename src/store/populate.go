package store

import (
	"context"

	"github.com/proconnect/backend/src/models"
)

// userLookup resolves user ids to their public fields. Unknown ids are left
// out of the result.
type userLookup func(ctx context.Context, ids []string) (map[string]models.PublicUser, error)

func uniqueIDs(ids ...[]string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, group := range ids {
		for _, id := range group {
			if _, ok := seen[id]; ok || id == "" {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

func resolve(users map[string]models.PublicUser, id string) models.PublicUser {
	if u, ok := users[id]; ok {
		return u
	}
	return models.PublicUser{ID: id}
}

func connectionViews(ctx context.Context, lookup userLookup, reqs []models.ConnectionRequest) ([]models.ConnectionView, error) {
	ids := make([]string, 0, len(reqs)*2)
	for _, r := range reqs {
		ids = append(ids, r.UserID, r.ConnectionID)
	}

	users, err := lookup(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, err
	}

	views := make([]models.ConnectionView, 0, len(reqs))
	for i := range reqs {
		r := &reqs[i]
		views = append(views, models.NewConnectionView(r, resolve(users, r.UserID), resolve(users, r.ConnectionID)))
	}
	return views, nil
}

func postViews(ctx context.Context, lookup userLookup, posts []models.Post) ([]models.PostView, error) {
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.UserID)
	}

	users, err := lookup(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, err
	}

	views := make([]models.PostView, 0, len(posts))
	for i := range posts {
		views = append(views, models.NewPostView(&posts[i], resolve(users, posts[i].UserID)))
	}
	return views, nil
}

func commentViews(ctx context.Context, lookup userLookup, comments []models.Comment) ([]models.CommentView, error) {
	ids := make([]string, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.UserID)
	}

	users, err := lookup(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, err
	}

	views := make([]models.CommentView, 0, len(comments))
	for i := range comments {
		views = append(views, models.NewCommentView(&comments[i], resolve(users, comments[i].UserID)))
	}
	return views, nil
}
