package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proconnect/backend/src/lib"
	"github.com/proconnect/backend/src/models"
)

// runStoreSuite exercises a Store implementation. Both drivers must pass it.
func runStoreSuite(t *testing.T, open func(t *testing.T) Store) {
	t.Run("users", func(t *testing.T) { testUsers(t, open(t)) })
	t.Run("delete user", func(t *testing.T) { testDeleteUser(t, open(t)) })
	t.Run("search", func(t *testing.T) { testSearch(t, open(t)) })
	t.Run("search folds non-ascii case", func(t *testing.T) { testSearchUnicode(t, open(t)) })
	t.Run("connections", func(t *testing.T) { testConnections(t, open(t)) })
	t.Run("concurrent duplicate connections", func(t *testing.T) { testConcurrentConnections(t, open(t)) })
	t.Run("posts", func(t *testing.T) { testPosts(t, open(t)) })
	t.Run("likes", func(t *testing.T) { testLikes(t, open(t)) })
}

func newUser(name string) *models.User {
	return &models.User{
		ID:             NewID(),
		Name:           name,
		Username:       name,
		Email:          name + "@example.com",
		Password:       "hash",
		AuthProvider:   models.AuthProviderLocal,
		ProfilePicture: models.DefaultProfilePicture,
		Active:         true,
	}
}

func seedUser(t *testing.T, s Store, name, bio, position string) *models.User {
	t.Helper()
	ctx := context.Background()

	user := newUser(name)
	require.NoError(t, s.CreateUser(ctx, user))
	require.NoError(t, s.CreateProfile(ctx, &models.Profile{
		ID:              NewID(),
		UserID:          user.ID,
		Bio:             bio,
		CurrentPosition: position,
	}))
	return user
}

func testUsers(t *testing.T, s Store) {
	ctx := context.Background()
	alice := seedUser(t, s, "alice", "", "")

	dup := newUser("alice2")
	dup.Email = alice.Email
	assert.ErrorIs(t, s.CreateUser(ctx, dup), ErrDuplicate)

	dup = newUser("alice3")
	dup.Username = alice.Username
	assert.ErrorIs(t, s.CreateUser(ctx, dup), ErrDuplicate)

	taken, err := s.UsernameTaken(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, taken)

	require.NoError(t, s.SetUserToken(ctx, alice.ID, "tok-1"))
	got, err := s.FindUserByToken(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)
	assert.Equal(t, "hash", got.Password)

	_, err = s.FindUserByToken(ctx, "")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.FindUserByToken(ctx, "tok-2")
	assert.ErrorIs(t, err, ErrNotFound)

	googleID := "g-123"
	got.GoogleID = &googleID
	got.Name = "Alice A."
	require.NoError(t, s.SaveUser(ctx, got))

	byGoogle, err := s.FindUserByEmailOrGoogleID(ctx, "other@example.com", googleID)
	require.NoError(t, err)
	assert.Equal(t, "Alice A.", byGoogle.Name)
	assert.Equal(t, "tok-1", byGoogle.Token)

	_, err = s.FindUserByEmailOrGoogleID(ctx, "nobody@example.com", "g-999")
	assert.ErrorIs(t, err, ErrNotFound)

	// two accounts without a google id must not collide on the unique index
	seedUser(t, s, "bob", "", "")
	seedUser(t, s, "carol", "", "")

	profile, err := s.FindProfileByUserID(ctx, alice.ID)
	require.NoError(t, err)
	assert.NotNil(t, profile.PastWork)
	assert.NotNil(t, profile.Education)

	profile.Bio = "Go developer"
	profile.PastWork = []models.Work{{Company: "Acme", Position: "Engineer", Years: "2"}}
	require.NoError(t, s.SaveProfile(ctx, profile))

	profile, err = s.FindProfileByUserID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Go developer", profile.Bio)
	assert.Equal(t, []models.Work{{Company: "Acme", Position: "Engineer", Years: "2"}}, profile.PastWork)

	_, err = s.FindProfileByUserID(ctx, NewID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func testDeleteUser(t *testing.T, s Store) {
	ctx := context.Background()
	user := newUser("dave")
	require.NoError(t, s.CreateUser(ctx, user))

	require.NoError(t, s.DeleteUser(ctx, user.ID))
	_, err := s.FindUserByEmail(ctx, user.Email)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteUser(ctx, user.ID), ErrNotFound)

	// the email is free again
	require.NoError(t, s.CreateUser(ctx, newUser("dave")))
}

func testSearchUnicode(t *testing.T, s Store) {
	ctx := context.Background()
	seedUser(t, s, "emile", "Professeur à l'École Polytechnique", "ÉTUDIANT")
	seedUser(t, s, "frank", "Plain ascii bio", "")

	for _, keyword := range []string{"école", "ÉCOLE", "étudiant"} {
		views, total, err := s.SearchProfiles(ctx, keyword, lib.PageRequest{Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total, keyword)
		require.Len(t, views, 1, keyword)
		assert.Equal(t, "emile", views[0].User.Username)
	}
}

func testSearch(t *testing.T, s Store) {
	ctx := context.Background()
	seedUser(t, s, "alice", "Backend engineer", "Engineer at Acme")
	seedUser(t, s, "bob", "Designer", "Product designer")
	seedUser(t, s, "carol", "Loves a.b+c patterns", "Staff ENGINEER")
	for i := 0; i < 7; i++ {
		seedUser(t, s, fmt.Sprintf("user%d", i), "", "")
		time.Sleep(time.Millisecond)
	}

	search := func(keyword string, page, size int) ([]models.ProfileView, int64) {
		t.Helper()
		views, total, err := s.SearchProfiles(ctx, keyword, lib.PageRequest{Page: page, PageSize: size})
		require.NoError(t, err)
		return views, total
	}

	views, total := search("", 1, 50)
	assert.Equal(t, int64(10), total)
	assert.Len(t, views, 10)

	views, total = search("eng", 1, 50)
	assert.Equal(t, int64(2), total)
	for _, v := range views {
		assert.Contains(t, []string{"alice", "carol"}, v.User.Username)
		assert.NotEmpty(t, v.User.Email)
		assert.Equal(t, models.DefaultProfilePicture, v.User.ProfilePicture)
	}

	// metacharacters match literally
	_, total = search("a.b+c", 1, 50)
	assert.Equal(t, int64(1), total)
	_, total = search("a.c", 1, 50)
	assert.Equal(t, int64(0), total)
	_, total = search("%", 1, 50)
	assert.Equal(t, int64(0), total)

	// matches on email
	_, total = search("BOB@EXAMPLE", 1, 50)
	assert.Equal(t, int64(1), total)

	first, total := search("user", 1, 3)
	assert.Equal(t, int64(7), total)
	assert.Len(t, first, 3)
	second, _ := search("user", 2, 3)
	assert.Len(t, second, 3)
	last, _ := search("user", 3, 3)
	assert.Len(t, last, 1)
	assert.NotEqual(t, first[0].ID, second[0].ID)

	beyond, total := search("user", 9, 3)
	assert.Equal(t, int64(7), total)
	assert.NotNil(t, beyond)
	assert.Empty(t, beyond)
}

func testConnections(t *testing.T, s Store) {
	ctx := context.Background()
	alice := seedUser(t, s, "alice", "", "")
	bob := seedUser(t, s, "bob", "", "")

	req := &models.ConnectionRequest{ID: NewID(), UserID: alice.ID, ConnectionID: bob.ID}
	require.NoError(t, s.CreateConnection(ctx, req))

	dup := &models.ConnectionRequest{ID: NewID(), UserID: alice.ID, ConnectionID: bob.ID}
	assert.ErrorIs(t, s.CreateConnection(ctx, dup), ErrDuplicate)

	// the reverse direction is a different edge
	reverse := &models.ConnectionRequest{ID: NewID(), UserID: bob.ID, ConnectionID: alice.ID}
	require.NoError(t, s.CreateConnection(ctx, reverse))

	got, err := s.FindConnectionByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ConnectionStatusPending, got.State())

	outgoing, err := s.ListOutgoingConnections(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, outgoing, 1)
	assert.Equal(t, "bob", outgoing[0].Target.Username)
	assert.Equal(t, "alice", outgoing[0].Requester.Username)

	incoming, err := s.ListIncomingConnections(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	assert.Equal(t, "alice", incoming[0].Requester.Username)
	assert.Equal(t, "alice@example.com", incoming[0].Requester.Email)

	require.NoError(t, s.RespondToConnection(ctx, req.ID, true))
	assert.ErrorIs(t, s.RespondToConnection(ctx, req.ID, false), ErrNotFound)

	got, err = s.FindConnectionByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ConnectionStatusAccepted, got.State())

	require.NoError(t, s.RespondToConnection(ctx, reverse.ID, false))
	got, err = s.FindConnectionByID(ctx, reverse.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ConnectionStatusRejected, got.State())

	assert.ErrorIs(t, s.RespondToConnection(ctx, NewID(), true), ErrNotFound)

	carol := seedUser(t, s, "carol", "", "")
	empty, err := s.ListIncomingConnections(ctx, carol.ID)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func testConcurrentConnections(t *testing.T, s Store) {
	ctx := context.Background()
	alice := seedUser(t, s, "alice", "", "")
	bob := seedUser(t, s, "bob", "", "")

	const callers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.CreateConnection(ctx, &models.ConnectionRequest{ID: NewID(), UserID: alice.ID, ConnectionID: bob.ID})
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	outgoing, err := s.ListOutgoingConnections(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, outgoing, 1)
}

func testPosts(t *testing.T, s Store) {
	ctx := context.Background()
	alice := seedUser(t, s, "alice", "", "")
	bob := seedUser(t, s, "bob", "", "")

	older := &models.Post{ID: NewID(), UserID: alice.ID, Body: "first", Active: true}
	require.NoError(t, s.CreatePost(ctx, older))
	time.Sleep(5 * time.Millisecond)
	newer := &models.Post{ID: NewID(), UserID: bob.ID, Body: "second", Active: true}
	require.NoError(t, s.CreatePost(ctx, newer))

	all, err := s.ListPosts(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, newer.ID, all[0].ID)
	assert.Equal(t, "bob", all[0].User.Username)
	assert.Equal(t, older.ID, all[1].ID)

	mine, err := s.ListPosts(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "first", mine[0].Body)

	comment := &models.Comment{ID: NewID(), PostID: older.ID, UserID: bob.ID, Body: "nice"}
	require.NoError(t, s.CreateComment(ctx, comment))
	require.NoError(t, s.CreateComment(ctx, &models.Comment{ID: NewID(), PostID: newer.ID, UserID: alice.ID, Body: "hi"}))

	comments, err := s.ListComments(ctx, older.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "bob", comments[0].User.Username)

	require.NoError(t, s.DeletePost(ctx, older.ID))
	_, err = s.FindPostByID(ctx, older.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.FindCommentByID(ctx, comment.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeletePost(ctx, older.ID), ErrNotFound)

	comments, err = s.ListComments(ctx, newer.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	require.NoError(t, s.DeleteComment(ctx, comments[0].ID))
	assert.ErrorIs(t, s.DeleteComment(ctx, comments[0].ID), ErrNotFound)

	empty, err := s.ListComments(ctx, newer.ID)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func testLikes(t *testing.T, s Store) {
	ctx := context.Background()
	alice := seedUser(t, s, "alice", "", "")
	post := &models.Post{ID: NewID(), UserID: alice.ID, Body: "hello", Active: true}
	require.NoError(t, s.CreatePost(ctx, post))

	got, err := s.AddLikes(ctx, post.ID, -1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Likes)

	got, err = s.AddLikes(ctx, post.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Likes)

	got, err = s.AddLikes(ctx, post.ID, -1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Likes)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AddLikes(ctx, post.ID, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err = s.FindPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.Likes)

	_, err = s.AddLikes(ctx, NewID(), 1)
	assert.ErrorIs(t, err, ErrNotFound)
}
