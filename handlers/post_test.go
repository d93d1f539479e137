package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"aiinspire/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type postBody struct {
	Post models.Post `json:"post"`
}

func createPost(t *testing.T, e *testEnv, token string, body obj) models.Post {
	t.Helper()
	w := e.do(http.MethodPost, "/api/posts", token, body)
	requireStatus(t, w, http.StatusCreated)
	var out postBody
	decode(t, w, &out)
	return out.Post
}

func TestCreatePost(t *testing.T) {
	e := newEnv(t)
	_, tok := e.user("alice", models.RoleUser)

	requireStatus(t, e.do(http.MethodPost, "/api/posts", "", obj{"title": "x"}), http.StatusUnauthorized)
	requireStatus(t, e.do(http.MethodPost, "/api/posts", tok, obj{"content": "no title"}), http.StatusBadRequest)
	requireStatus(t, e.do(http.MethodPost, "/api/posts", tok, obj{"title": "<b></b>"}), http.StatusBadRequest)
	requireStatus(t, e.do(http.MethodPost, "/api/posts", tok, obj{"title": "x", "platformId": "zzz"}), http.StatusBadRequest)
	requireStatus(t, e.do(http.MethodPost, "/api/posts", tok, obj{"title": "x", "platformId": "65f000000000000000000000"}), http.StatusBadRequest)
	requireStatus(t, e.do(http.MethodPost, "/api/posts", tok, obj{"title": "x", "media": []obj{{"url": "nope", "type": "image"}}}), http.StatusBadRequest)

	p := createPost(t, e, tok, obj{
		"title":   "<i>Neon</i> city",
		"content": "**bold** <script>alert(1)</script>",
		"media":   []obj{{"url": "https://cdn.test/a.png", "type": "image"}},
		"tags":    []string{"city", "city", "neon"},
	})
	assert.Equal(t, "Neon city", p.Title)
	assert.Contains(t, p.ContentHTML, "<strong>bold</strong>")
	assert.NotContains(t, p.ContentHTML, "<script")
	assert.Equal(t, []string{"city", "neon"}, p.Tags)
	assert.Equal(t, models.PostPublished, p.Status)
	require.NotNil(t, p.Author)
	assert.Equal(t, "alice", p.Author.Username)
}

func TestListAndGetPosts(t *testing.T) {
	e := newEnv(t)
	aliceUser, alice := e.user("alice", models.RoleUser)
	bobUser, bob := e.user("bob", models.RoleUser)
	_, admin := e.user("root", models.RoleAdmin)

	public := createPost(t, e, alice, obj{"title": "public image", "media": []obj{{"url": "https://cdn.test/a.png", "type": "image"}}, "tags": []string{"art"}})
	e.advance(time.Second)
	createPost(t, e, alice, obj{"title": "clip", "media": []obj{{"url": "https://cdn.test/a.mp4", "type": "video"}}})
	e.advance(time.Second)
	hidden := createPost(t, e, alice, obj{"title": "draft", "status": "hidden"})

	var list listBody[models.Post]
	w := e.do(http.MethodGet, "/api/posts", "", nil)
	requireStatus(t, w, http.StatusOK)
	decode(t, w, &list)
	assert.Equal(t, int64(2), list.Total)
	assert.Equal(t, 1, list.Page)
	assert.Equal(t, 20, list.PageSize)
	assert.Equal(t, "clip", list.Items[0].Title)

	decode(t, e.do(http.MethodGet, "/api/posts", alice, nil), &list)
	assert.Equal(t, int64(3), list.Total)
	decode(t, e.do(http.MethodGet, "/api/posts", bob, nil), &list)
	assert.Equal(t, int64(2), list.Total)
	decode(t, e.do(http.MethodGet, "/api/posts", admin, nil), &list)
	assert.Equal(t, int64(3), list.Total)

	decode(t, e.do(http.MethodGet, "/api/posts?mediaType=video", "", nil), &list)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "clip", list.Items[0].Title)
	decode(t, e.do(http.MethodGet, "/api/posts?tag=art", "", nil), &list)
	require.Len(t, list.Items, 1)
	decode(t, e.do(http.MethodGet, "/api/posts?q=IMAGE", "", nil), &list)
	require.Len(t, list.Items, 1)
	decode(t, e.do(http.MethodGet, "/api/posts?page=2&pageSize=1", "", nil), &list)
	require.Len(t, list.Items, 1)
	assert.Equal(t, public.ID, list.Items[0].ID)

	decode(t, e.do(http.MethodGet, "/api/users/"+aliceUser.ID.Hex()+"/posts", "", nil), &list)
	assert.Equal(t, int64(2), list.Total)
	decode(t, e.do(http.MethodGet, "/api/users/"+aliceUser.ID.Hex()+"/posts", alice, nil), &list)
	assert.Equal(t, int64(3), list.Total)
	decode(t, e.do(http.MethodGet, "/api/users/"+bobUser.ID.Hex()+"/posts", "", nil), &list)
	assert.Equal(t, int64(0), list.Total)
	assert.NotNil(t, list.Items)

	requireStatus(t, e.do(http.MethodGet, "/api/posts?sort=random", "", nil), http.StatusBadRequest)
	requireStatus(t, e.do(http.MethodGet, "/api/posts?mediaType=gif", "", nil), http.StatusBadRequest)
	requireStatus(t, e.do(http.MethodGet, "/api/posts?userId=bad", "", nil), http.StatusBadRequest)

	requireStatus(t, e.do(http.MethodGet, "/api/posts/"+hidden.ID.Hex(), "", nil), http.StatusNotFound)
	requireStatus(t, e.do(http.MethodGet, "/api/posts/"+hidden.ID.Hex(), bob, nil), http.StatusNotFound)
	requireStatus(t, e.do(http.MethodGet, "/api/posts/"+hidden.ID.Hex(), alice, nil), http.StatusOK)
	requireStatus(t, e.do(http.MethodGet, "/api/posts/not-an-id", "", nil), http.StatusBadRequest)

	var got postBody
	decode(t, e.do(http.MethodGet, "/api/posts/"+public.ID.Hex(), "", nil), &got)
	assert.Equal(t, int64(1), got.Post.Views)
	decode(t, e.do(http.MethodGet, "/api/posts/"+public.ID.Hex(), "", nil), &got)
	assert.Equal(t, int64(2), got.Post.Views)
}

func TestMembersOnlyPost(t *testing.T) {
	e := newEnv(t)
	_, author := e.user("alice", models.RoleUser)
	member, memberTok := e.user("vip", models.RoleUser)
	_, plain := e.user("bob", models.RoleUser)
	_, admin := e.user("root", models.RoleAdmin)

	expires := e.now + 86400
	requireStatus(t, e.do(http.MethodPut, "/api/admin/users/"+member.ID.Hex(), admin, obj{"membershipLevel": "vip", "membershipExpiresAt": expires}), http.StatusOK)

	p := createPost(t, e, author, obj{
		"title":       "secret sauce",
		"prompt":      "a cat, 8k",
		"membersOnly": true,
		"media":       []obj{{"url": "https://cdn.test/a.png", "type": "image"}},
	})

	tests := []struct {
		name   string
		token  string
		locked bool
	}{
		{"anonymous", "", true},
		{"non member", plain, true},
		{"member", memberTok, false},
		{"owner", author, false},
		{"admin", admin, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got postBody
			decode(t, e.do(http.MethodGet, "/api/posts/"+p.ID.Hex(), tt.token, nil), &got)
			assert.Equal(t, tt.locked, got.Post.Locked)
			if tt.locked {
				assert.Empty(t, got.Post.Media)
				assert.Empty(t, got.Post.Prompt)
				assert.Equal(t, "secret sauce", got.Post.Title)
			} else {
				assert.Len(t, got.Post.Media, 1)
				assert.Equal(t, "a cat, 8k", got.Post.Prompt)
			}
		})
	}

	// Lapsed membership locks again.
	e.advance(48 * time.Hour)
	var got postBody
	decode(t, e.do(http.MethodGet, "/api/posts/"+p.ID.Hex(), memberTok, nil), &got)
	assert.True(t, got.Post.Locked)
}

func TestUpdateDeletePost(t *testing.T) {
	e := newEnv(t)
	_, alice := e.user("alice", models.RoleUser)
	_, bob := e.user("bob", models.RoleUser)
	_, admin := e.user("root", models.RoleAdmin)

	p := createPost(t, e, alice, obj{"title": "first"})
	path := "/api/posts/" + p.ID.Hex()

	requireStatus(t, e.do(http.MethodPut, path, bob, obj{"title": "hijack"}), http.StatusForbidden)
	requireStatus(t, e.do(http.MethodDelete, path, bob, nil), http.StatusForbidden)

	w := e.do(http.MethodPut, path, alice, obj{"title": "second", "content": "# heading"})
	requireStatus(t, w, http.StatusOK)
	var got postBody
	decode(t, w, &got)
	assert.Equal(t, "second", got.Post.Title)
	assert.Contains(t, got.Post.ContentHTML, "<h1")

	requireStatus(t, e.do(http.MethodPut, path, admin, obj{"title": "moderated", "status": "hidden"}), http.StatusOK)
	requireStatus(t, e.do(http.MethodGet, path, bob, nil), http.StatusNotFound)

	// Editing a hidden post without a status leaves it hidden.
	w = e.do(http.MethodPut, path, alice, obj{"title": "reworded"})
	requireStatus(t, w, http.StatusOK)
	decode(t, w, &got)
	assert.Equal(t, models.PostHidden, got.Post.Status)
	requireStatus(t, e.do(http.MethodGet, path, bob, nil), http.StatusNotFound)

	requireStatus(t, e.do(http.MethodDelete, path, admin, nil), http.StatusOK)
	requireStatus(t, e.do(http.MethodGet, path, alice, nil), http.StatusNotFound)
}

func TestLikes(t *testing.T) {
	e := newEnv(t)
	_, alice := e.user("alice", models.RoleUser)
	_, bob := e.user("bob", models.RoleUser)
	p := createPost(t, e, alice, obj{"title": "likeable"})
	path := "/api/posts/" + p.ID.Hex() + "/like"

	requireStatus(t, e.do(http.MethodPost, path, "", nil), http.StatusUnauthorized)

	var res struct {
		Liked   bool  `json:"liked"`
		Changed bool  `json:"changed"`
		Likes   int64 `json:"likes"`
	}
	decode(t, e.do(http.MethodPost, path, bob, nil), &res)
	assert.True(t, res.Changed)
	assert.Equal(t, int64(1), res.Likes)

	decode(t, e.do(http.MethodPost, path, bob, nil), &res)
	assert.False(t, res.Changed)
	assert.Equal(t, int64(1), res.Likes)

	var got postBody
	decode(t, e.do(http.MethodGet, "/api/posts/"+p.ID.Hex(), bob, nil), &got)
	assert.True(t, got.Post.Liked)

	decode(t, e.do(http.MethodDelete, path, bob, nil), &res)
	assert.True(t, res.Changed)
	assert.Equal(t, int64(0), res.Likes)
	decode(t, e.do(http.MethodDelete, path, bob, nil), &res)
	assert.False(t, res.Changed)
	assert.Equal(t, int64(0), res.Likes)

	requireStatus(t, e.do(http.MethodPost, "/api/posts/65f000000000000000000000/like", bob, nil), http.StatusNotFound)
}
