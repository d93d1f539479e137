package handlers_test

import (
	"net/http"
	"testing"

	"aiinspire/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type platformBody struct {
	Platform models.AIPlatform `json:"platform"`
}

type itemsBody[T any] struct {
	Items []T `json:"items"`
}

func TestAIPlatforms(t *testing.T) {
	e := newEnv(t)
	_, admin := e.user("root", models.RoleAdmin)
	_, user := e.user("alice", models.RoleUser)

	requireStatus(t, e.do(http.MethodPost, "/api/admin/ai-platforms", user, obj{"name": "MJ", "slug": "mj"}), http.StatusForbidden)
	requireStatus(t, e.do(http.MethodPost, "/api/admin/ai-platforms", admin, obj{"name": "MJ", "slug": "Not A Slug"}), http.StatusBadRequest)

	w := e.do(http.MethodPost, "/api/admin/ai-platforms", admin, obj{"name": "Midjourney", "slug": "midjourney", "website": "https://midjourney.com", "sortOrder": 1})
	requireStatus(t, w, http.StatusCreated)
	var mj platformBody
	decode(t, w, &mj)
	assert.True(t, mj.Platform.Enabled)

	requireStatus(t, e.do(http.MethodPost, "/api/admin/ai-platforms", admin, obj{"name": "Copy", "slug": "midjourney"}), http.StatusConflict)

	w = e.do(http.MethodPost, "/api/admin/ai-platforms", admin, obj{"name": "Retired", "slug": "retired", "enabled": false, "sortOrder": 2})
	requireStatus(t, w, http.StatusCreated)
	var retired platformBody
	decode(t, w, &retired)

	var list itemsBody[models.AIPlatform]
	decode(t, e.do(http.MethodGet, "/api/ai-platforms", "", nil), &list)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "midjourney", list.Items[0].Slug)
	decode(t, e.do(http.MethodGet, "/api/ai-platforms?all=true", user, nil), &list)
	assert.Len(t, list.Items, 1)
	decode(t, e.do(http.MethodGet, "/api/ai-platforms?all=true", admin, nil), &list)
	assert.Len(t, list.Items, 2)

	var got platformBody
	decode(t, e.do(http.MethodGet, "/api/ai-platforms/midjourney", "", nil), &got)
	assert.Equal(t, mj.Platform.ID, got.Platform.ID)
	requireStatus(t, e.do(http.MethodGet, "/api/ai-platforms/"+retired.Platform.ID.Hex(), "", nil), http.StatusNotFound)
	requireStatus(t, e.do(http.MethodGet, "/api/ai-platforms/"+retired.Platform.ID.Hex(), admin, nil), http.StatusOK)

	createPost(t, e, user, obj{"title": "made with mj", "platformId": mj.Platform.ID.Hex()})
	var posts listBody[models.Post]
	decode(t, e.do(http.MethodGet, "/api/posts?platformId="+mj.Platform.ID.Hex(), "", nil), &posts)
	assert.Equal(t, int64(1), posts.Total)

	requireStatus(t, e.do(http.MethodDelete, "/api/admin/ai-platforms/"+mj.Platform.ID.Hex(), admin, nil), http.StatusConflict)

	// Screenings must point at a platform that exists and keep it from being deleted.
	requireStatus(t, e.do(http.MethodPost, "/api/admin/screenings", admin,
		obj{"title": "Ghost", "videoUrl": "https://cdn.test/g.mp4", "platformId": primitive.NewObjectID().Hex()}), http.StatusBadRequest)
	w = e.do(http.MethodPost, "/api/admin/screenings", admin,
		obj{"title": "Archive reel", "videoUrl": "https://cdn.test/a.mp4", "platformId": retired.Platform.ID.Hex()})
	requireStatus(t, w, http.StatusCreated)
	var reel struct {
		Screening models.Screening `json:"screening"`
	}
	decode(t, w, &reel)
	reelPath := "/api/admin/screenings/" + reel.Screening.ID.Hex()
	requireStatus(t, e.do(http.MethodPut, reelPath, admin,
		obj{"title": "Archive reel", "videoUrl": "https://cdn.test/a.mp4", "platformId": primitive.NewObjectID().Hex()}), http.StatusBadRequest)

	w = e.do(http.MethodDelete, "/api/admin/ai-platforms/"+retired.Platform.ID.Hex(), admin, nil)
	requireStatus(t, w, http.StatusConflict)
	var refs struct {
		Posts      int64 `json:"posts"`
		Screenings int64 `json:"screenings"`
	}
	decode(t, w, &refs)
	assert.Equal(t, int64(0), refs.Posts)
	assert.Equal(t, int64(1), refs.Screenings)

	requireStatus(t, e.do(http.MethodDelete, reelPath, admin, nil), http.StatusOK)
	requireStatus(t, e.do(http.MethodDelete, "/api/admin/ai-platforms/"+retired.Platform.ID.Hex(), admin, nil), http.StatusOK)

	requireStatus(t, e.do(http.MethodPut, "/api/admin/ai-platforms/"+mj.Platform.ID.Hex(), admin, obj{"name": "MJ v6", "slug": "midjourney"}), http.StatusOK)
	decode(t, e.do(http.MethodGet, "/api/ai-platforms/midjourney", "", nil), &got)
	assert.Equal(t, "MJ v6", got.Platform.Name)
}

func TestScreeningsAndComments(t *testing.T) {
	e := newEnv(t)
	_, admin := e.user("root", models.RoleAdmin)
	_, alice := e.user("alice", models.RoleUser)
	_, bob := e.user("bob", models.RoleUser)

	requireStatus(t, e.do(http.MethodPost, "/api/admin/screenings", admin, obj{"title": "no video"}), http.StatusBadRequest)

	var draft, live struct {
		Screening models.Screening `json:"screening"`
	}
	w := e.do(http.MethodPost, "/api/admin/screenings", admin, obj{"title": "Draft cut", "videoUrl": "https://cdn.test/d.mp4"})
	requireStatus(t, w, http.StatusCreated)
	decode(t, w, &draft)
	w = e.do(http.MethodPost, "/api/admin/screenings", admin, obj{"title": "Premiere", "videoUrl": "https://cdn.test/p.mp4", "published": true})
	requireStatus(t, w, http.StatusCreated)
	decode(t, w, &live)

	var list listBody[models.Screening]
	decode(t, e.do(http.MethodGet, "/api/screenings", "", nil), &list)
	assert.Equal(t, int64(1), list.Total)
	decode(t, e.do(http.MethodGet, "/api/screenings?all=true", admin, nil), &list)
	assert.Equal(t, int64(2), list.Total)

	draftPath := "/api/screenings/" + draft.Screening.ID.Hex()
	livePath := "/api/screenings/" + live.Screening.ID.Hex()
	requireStatus(t, e.do(http.MethodGet, draftPath, alice, nil), http.StatusNotFound)
	requireStatus(t, e.do(http.MethodGet, draftPath, admin, nil), http.StatusOK)
	requireStatus(t, e.do(http.MethodPost, draftPath+"/comments", admin, obj{"content": "early"}), http.StatusConflict)

	var got struct {
		Screening models.Screening `json:"screening"`
	}
	decode(t, e.do(http.MethodGet, livePath, "", nil), &got)
	assert.Equal(t, int64(1), got.Screening.Views)

	requireStatus(t, e.do(http.MethodPost, livePath+"/comments", "", obj{"content": "hi"}), http.StatusUnauthorized)
	requireStatus(t, e.do(http.MethodPost, livePath+"/comments", alice, obj{"content": "  "}), http.StatusBadRequest)

	w = e.do(http.MethodPost, livePath+"/comments", alice, obj{"content": "<em>great</em> film"})
	requireStatus(t, w, http.StatusCreated)
	var comment struct {
		Comment models.ScreeningComment `json:"comment"`
	}
	decode(t, w, &comment)
	assert.Equal(t, "great film", comment.Comment.Content)

	var comments listBody[models.ScreeningComment]
	decode(t, e.do(http.MethodGet, livePath+"/comments", "", nil), &comments)
	require.Len(t, comments.Items, 1)
	require.NotNil(t, comments.Items[0].Author)
	assert.Equal(t, "alice", comments.Items[0].Author.Username)

	commentPath := "/api/screening-comments/" + comment.Comment.ID.Hex()
	requireStatus(t, e.do(http.MethodDelete, commentPath, bob, nil), http.StatusForbidden)
	requireStatus(t, e.do(http.MethodDelete, commentPath, alice, nil), http.StatusOK)
	requireStatus(t, e.do(http.MethodDelete, commentPath, admin, nil), http.StatusNotFound)

	requireStatus(t, e.do(http.MethodPut, "/api/admin/screenings/"+live.Screening.ID.Hex(), admin, obj{"title": "Premiere", "videoUrl": "https://cdn.test/p.mp4", "published": false}), http.StatusOK)
	requireStatus(t, e.do(http.MethodGet, livePath, alice, nil), http.StatusNotFound)
	requireStatus(t, e.do(http.MethodDelete, "/api/admin/screenings/"+live.Screening.ID.Hex(), admin, nil), http.StatusOK)
}

func TestSocialMedia(t *testing.T) {
	e := newEnv(t)
	_, admin := e.user("root", models.RoleAdmin)

	requireStatus(t, e.do(http.MethodPost, "/api/admin/social-media", admin, obj{"name": "Weibo"}), http.StatusBadRequest)

	w := e.do(http.MethodPost, "/api/admin/social-media", admin, obj{"name": "WeChat", "qrCode": "/uploads/qr.png"})
	requireStatus(t, w, http.StatusCreated)
	var wechat struct {
		SocialMedia models.SocialMedia `json:"socialMedia"`
	}
	decode(t, w, &wechat)
	requireStatus(t, e.do(http.MethodPost, "/api/admin/social-media", admin, obj{"name": "Bilibili", "url": "https://bilibili.com", "enabled": false}), http.StatusCreated)

	var list itemsBody[models.SocialMedia]
	decode(t, e.do(http.MethodGet, "/api/social-media", "", nil), &list)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "WeChat", list.Items[0].Name)
	decode(t, e.do(http.MethodGet, "/api/social-media?all=true", admin, nil), &list)
	assert.Len(t, list.Items, 2)

	path := "/api/admin/social-media/" + wechat.SocialMedia.ID.Hex()
	requireStatus(t, e.do(http.MethodPut, path, admin, obj{"name": "WeChat", "url": "https://weixin.qq.com"}), http.StatusOK)
	requireStatus(t, e.do(http.MethodDelete, path, admin, nil), http.StatusOK)
	requireStatus(t, e.do(http.MethodDelete, path, admin, nil), http.StatusNotFound)
}
