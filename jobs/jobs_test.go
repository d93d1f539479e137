package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"aiinspire/models"
	"aiinspire/store/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMembershipSweep(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	expired := &models.User{Email: "a@x.test", Username: "a", MembershipLevel: "vip", MembershipExpiresAt: 100}
	active := &models.User{Email: "b@x.test", Username: "b", MembershipLevel: "vip", MembershipExpiresAt: 10_000}
	require.NoError(t, st.CreateUser(ctx, expired))
	require.NoError(t, st.CreateUser(ctx, active))

	MembershipSweep(st, zap.NewNop(), func() time.Time { return time.Unix(1000, 0) })()

	got, err := st.GetUser(ctx, expired.ID)
	require.NoError(t, err)
	assert.Empty(t, got.MembershipLevel)

	got, err = st.GetUser(ctx, active.ID)
	require.NoError(t, err)
	assert.Equal(t, "vip", got.MembershipLevel)

	st.FailNext = errors.New("db down")
	MembershipSweep(st, zap.NewNop(), time.Now)()
}

type countingSweeper struct{ n int }

func (s *countingSweeper) Sweep() int { s.n++; return 0 }

func TestStart(t *testing.T) {
	c, err := Start("@every 1h", memstore.New(), &countingSweeper{}, zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 2)
	<-c.Stop().Done()

	_, err = Start("not a spec", memstore.New(), nil, zap.NewNop())
	assert.Error(t, err)
}
