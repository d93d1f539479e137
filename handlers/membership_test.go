package handlers_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"aiinspire/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type codesBody struct {
	BatchID string                  `json:"batchId"`
	Codes   []models.RedemptionCode `json:"codes"`
}

type redeemBody struct {
	Membership   models.MembershipStatus `json:"membership"`
	DurationDays int                     `json:"durationDays"`
}

func createProduct(t *testing.T, e *testEnv, admin string, body obj) models.MembershipProduct {
	t.Helper()
	w := e.do(http.MethodPost, "/api/admin/membership/products", admin, body)
	requireStatus(t, w, http.StatusCreated)
	var out struct {
		Product models.MembershipProduct `json:"product"`
	}
	decode(t, w, &out)
	return out.Product
}

func generate(t *testing.T, e *testEnv, admin string, body obj) codesBody {
	t.Helper()
	w := e.do(http.MethodPost, "/api/admin/membership/codes", admin, body)
	requireStatus(t, w, http.StatusCreated)
	var out codesBody
	decode(t, w, &out)
	return out
}

func TestProducts(t *testing.T) {
	e := newEnv(t)
	_, admin := e.user("root", models.RoleAdmin)
	_, user := e.user("alice", models.RoleUser)

	requireStatus(t, e.do(http.MethodPost, "/api/admin/membership/products", user, obj{"name": "x", "level": "vip", "durationDays": 30}), http.StatusForbidden)
	requireStatus(t, e.do(http.MethodPost, "/api/admin/membership/products", admin, obj{"name": "x", "level": "vip"}), http.StatusBadRequest)

	monthly := createProduct(t, e, admin, obj{"name": "Monthly", "level": "vip", "durationDays": 30, "priceCents": 990, "sortOrder": 1})
	assert.True(t, monthly.Enabled)
	createProduct(t, e, admin, obj{"name": "Legacy", "level": "vip", "durationDays": 7, "enabled": false, "sortOrder": 2})

	var public struct {
		Items []models.MembershipProduct `json:"items"`
	}
	decode(t, e.do(http.MethodGet, "/api/membership/products", "", nil), &public)
	require.Len(t, public.Items, 1)
	assert.Equal(t, "Monthly", public.Items[0].Name)

	decode(t, e.do(http.MethodGet, "/api/admin/membership/products", admin, nil), &public)
	assert.Len(t, public.Items, 2)

	path := "/api/admin/membership/products/" + monthly.ID.Hex()
	requireStatus(t, e.do(http.MethodPut, path, admin, obj{"name": "Monthly+", "level": "vip", "durationDays": 31}), http.StatusOK)
	requireStatus(t, e.do(http.MethodDelete, path, admin, nil), http.StatusOK)
	requireStatus(t, e.do(http.MethodDelete, path, admin, nil), http.StatusNotFound)
}

func TestGenerateCodes(t *testing.T) {
	e := newEnv(t)
	_, admin := e.user("root", models.RoleAdmin)
	product := createProduct(t, e, admin, obj{"name": "Monthly", "level": "vip", "durationDays": 30})

	requireStatus(t, e.do(http.MethodPost, "/api/admin/membership/codes", admin, obj{"productId": product.ID.Hex(), "count": 0}), http.StatusBadRequest)
	requireStatus(t, e.do(http.MethodPost, "/api/admin/membership/codes", admin, obj{"productId": product.ID.Hex(), "count": 1001}), http.StatusBadRequest)
	requireStatus(t, e.do(http.MethodPost, "/api/admin/membership/codes", admin, obj{"productId": "65f000000000000000000000", "count": 1}), http.StatusNotFound)

	batch := generate(t, e, admin, obj{"productId": product.ID.Hex(), "count": 5, "expiresInDays": 7})
	require.Len(t, batch.Codes, 5)
	for _, c := range batch.Codes {
		assert.Len(t, c.Code, 16)
		assert.Equal(t, batch.BatchID, c.BatchID)
		assert.Equal(t, "vip", c.Level)
		assert.Equal(t, 30, c.DurationDays)
		assert.Equal(t, e.now+7*86400, c.ExpiresAt)
	}
	generate(t, e, admin, obj{"productId": product.ID.Hex(), "count": 2})

	var list listBody[models.RedemptionCode]
	decode(t, e.do(http.MethodGet, "/api/admin/membership/codes", admin, nil), &list)
	assert.Equal(t, int64(7), list.Total)
	decode(t, e.do(http.MethodGet, "/api/admin/membership/codes?batchId="+batch.BatchID, admin, nil), &list)
	assert.Equal(t, int64(5), list.Total)
	decode(t, e.do(http.MethodGet, "/api/admin/membership/codes?used=true", admin, nil), &list)
	assert.Equal(t, int64(0), list.Total)
	requireStatus(t, e.do(http.MethodGet, "/api/admin/membership/codes?used=maybe", admin, nil), http.StatusBadRequest)
}

func TestRedeem(t *testing.T) {
	e := newEnv(t)
	_, admin := e.user("root", models.RoleAdmin)
	alice, aliceTok := e.user("alice", models.RoleUser)
	_, bobTok := e.user("bob", models.RoleUser)
	product := createProduct(t, e, admin, obj{"name": "Monthly", "level": "vip", "durationDays": 30})
	batch := generate(t, e, admin, obj{"productId": product.ID.Hex(), "count": 3, "expiresInDays": 1})
	first, second, third := batch.Codes[0], batch.Codes[1], batch.Codes[2]

	requireStatus(t, e.do(http.MethodPost, "/api/membership/redeem", "", obj{"code": first.Code}), http.StatusUnauthorized)
	requireStatus(t, e.do(http.MethodPost, "/api/membership/redeem", aliceTok, obj{"code": " - "}), http.StatusBadRequest)
	requireStatus(t, e.do(http.MethodPost, "/api/membership/redeem", aliceTok, obj{"code": "0000000000000000"}), http.StatusNotFound)

	// Users type codes in any case with separators.
	typed := strings.ToLower(first.Code[:4] + "-" + first.Code[4:8] + " " + first.Code[8:])
	w := e.do(http.MethodPost, "/api/membership/redeem", aliceTok, obj{"code": typed})
	requireStatus(t, w, http.StatusOK)
	var res redeemBody
	decode(t, w, &res)
	assert.Equal(t, 30, res.DurationDays)
	assert.True(t, res.Membership.Active)
	assert.Equal(t, "vip", res.Membership.Level)
	assert.Equal(t, e.now+30*86400, res.Membership.ExpiresAt)

	requireStatus(t, e.do(http.MethodPost, "/api/membership/redeem", bobTok, obj{"code": first.Code}), http.StatusConflict)

	// A second code stacks on the running membership.
	decode(t, e.do(http.MethodPost, "/api/membership/redeem", aliceTok, obj{"code": second.Code}), &res)
	assert.Equal(t, e.now+60*86400, res.Membership.ExpiresAt)

	var me models.MembershipStatus
	decode(t, e.do(http.MethodGet, "/api/membership/me", aliceTok, nil), &me)
	assert.Equal(t, res.Membership, me)

	e.advance(48 * time.Hour)
	requireStatus(t, e.do(http.MethodPost, "/api/membership/redeem", bobTok, obj{"code": third.Code}), http.StatusConflict)

	var used listBody[models.RedemptionCode]
	decode(t, e.do(http.MethodGet, "/api/admin/membership/codes?used=true", admin, nil), &used)
	require.Equal(t, int64(2), used.Total)
	for _, c := range used.Items {
		require.NotNil(t, c.UsedBy)
		assert.Equal(t, alice.ID, *c.UsedBy)
	}

	requireStatus(t, e.do(http.MethodDelete, "/api/admin/membership/codes/"+first.ID.Hex(), admin, nil), http.StatusConflict)
	requireStatus(t, e.do(http.MethodDelete, "/api/admin/membership/codes/"+third.ID.Hex(), admin, nil), http.StatusOK)
}
