// Package memstore is an in-memory store.Store used by handler tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"aiinspire/models"
	"aiinspire/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store keeps every collection in maps guarded by one mutex.
type Store struct {
	mu sync.Mutex

	users      map[primitive.ObjectID]*models.User
	posts      map[primitive.ObjectID]*models.Post
	likes      map[[2]primitive.ObjectID]models.PostLike
	platforms  map[primitive.ObjectID]*models.AIPlatform
	products   map[primitive.ObjectID]*models.MembershipProduct
	codes      map[primitive.ObjectID]*models.RedemptionCode
	spirits    map[primitive.ObjectID]*models.SpiritPost
	messages   []*models.SpiritMessage
	screenings map[primitive.ObjectID]*models.Screening
	comments   map[primitive.ObjectID]*models.ScreeningComment
	social     map[primitive.ObjectID]*models.SocialMedia
	settings   map[string][]byte
	pushSubs   map[string]*models.PushSubscription

	// FailNext, when set, is returned (once) by the next store call.
	FailNext error
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:      map[primitive.ObjectID]*models.User{},
		posts:      map[primitive.ObjectID]*models.Post{},
		likes:      map[[2]primitive.ObjectID]models.PostLike{},
		platforms:  map[primitive.ObjectID]*models.AIPlatform{},
		products:   map[primitive.ObjectID]*models.MembershipProduct{},
		codes:      map[primitive.ObjectID]*models.RedemptionCode{},
		spirits:    map[primitive.ObjectID]*models.SpiritPost{},
		screenings: map[primitive.ObjectID]*models.Screening{},
		comments:   map[primitive.ObjectID]*models.ScreeningComment{},
		social:     map[primitive.ObjectID]*models.SocialMedia{},
		settings:   map[string][]byte{},
		pushSubs:   map[string]*models.PushSubscription{},
	}
}

// checkError returns and clears an injected error. Callers hold mu.
func (s *Store) checkError() error {
	if s.FailNext != nil {
		err := s.FailNext
		s.FailNext = nil
		return err
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkError()
}

func ensureID(id *primitive.ObjectID) {
	if id.IsZero() {
		*id = primitive.NewObjectID()
	}
}

func pageOf[T any](items []T, p store.Page) []T {
	skip := int(p.Skip())
	if skip >= len(items) {
		return []T{}
	}
	end := skip + int(p.Limit())
	if end > len(items) {
		end = len(items)
	}
	return items[skip:end]
}

func newestFirst[T any](items []T, createdAt func(T) int64) {
	sort.SliceStable(items, func(i, j int) bool { return createdAt(items[i]) > createdAt(items[j]) })
}

func bySortOrder[T any](items []T, order func(T) (int, int64)) {
	sort.SliceStable(items, func(i, j int) bool {
		oi, ci := order(items[i])
		oj, cj := order(items[j])
		if oi != oj {
			return oi < oj
		}
		return ci < cj
	})
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ---- users ----

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return err
	}
	u.Email = strings.ToLower(u.Email)
	for _, existing := range s.users {
		if existing.Email == u.Email || existing.Username == u.Username {
			return store.ErrDuplicate
		}
	}
	ensureID(&u.ID)
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *Store) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return nil, err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return nil, err
	}
	out := map[primitive.ObjectID]*models.User{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			cp := *u
			out[id] = &cp
		}
	}
	return out, nil
}

func (s *Store) FindUserByAccount(ctx context.Context, account string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return nil, err
	}
	for _, u := range s.users {
		if u.Email == strings.ToLower(account) || u.Username == account {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) UpdateUser(ctx context.Context, id primitive.ObjectID, upd store.UserUpdate, now int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return nil, err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if upd.Nickname != nil {
		u.Nickname = *upd.Nickname
	}
	if upd.Avatar != nil {
		u.Avatar = *upd.Avatar
	}
	if upd.Bio != nil {
		u.Bio = *upd.Bio
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	if upd.Disabled != nil {
		u.Disabled = *upd.Disabled
	}
	if upd.MembershipLevel != nil {
		u.MembershipLevel = *upd.MembershipLevel
	}
	if upd.MembershipExpiresAt != nil {
		u.MembershipExpiresAt = *upd.MembershipExpiresAt
	}
	if upd.LastLoginAt != nil {
		u.LastLoginAt = *upd.LastLoginAt
	}
	u.UpdatedAt = now
	cp := *u
	return &cp, nil
}

func (s *Store) ListUsers(ctx context.Context, query string, p store.Page) ([]models.User, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return nil, 0, err
	}
	q := strings.TrimSpace(query)
	var out []models.User
	for _, u := range s.users {
		if q == "" || containsFold(u.Email, q) || containsFold(u.Username, q) || containsFold(u.Nickname, q) {
			out = append(out, *u)
		}
	}
	newestFirst(out, func(u models.User) int64 { return u.CreatedAt })
	return pageOf(out, p), int64(len(out)), nil
}

func (s *Store) ExtendMembership(ctx context.Context, id primitive.ObjectID, level string, days int, now int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return nil, err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	u.MembershipExpiresAt = models.ExtendExpiry(u.MembershipExpiresAt, now, days)
	u.MembershipLevel = level
	u.UpdatedAt = now
	cp := *u
	return &cp, nil
}

func (s *Store) ClearExpiredMemberships(ctx context.Context, now int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return 0, err
	}
	var n int64
	for _, u := range s.users {
		if u.MembershipLevel != "" && u.MembershipExpiresAt <= now {
			u.MembershipLevel = ""
			u.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

// ---- settings ----

type settingEnvelope struct {
	Value interface{} `bson:"value"`
}

func (s *Store) GetSetting(ctx context.Context, key string, out interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return err
	}
	raw, ok := s.settings[key]
	if !ok {
		return store.ErrNotFound
	}
	var env struct {
		Value bson.Raw `bson:"value"`
	}
	if err := bson.Unmarshal(raw, &env); err != nil {
		return err
	}
	return bson.Unmarshal(env.Value, out)
}

// PutSetting round-trips through BSON so tests see the same encoding rules as Mongo.
func (s *Store) PutSetting(ctx context.Context, key string, value interface{}, now int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return err
	}
	raw, err := bson.Marshal(settingEnvelope{Value: value})
	if err != nil {
		return err
	}
	s.settings[key] = raw
	return nil
}

// ---- push subscriptions ----

func (s *Store) SavePushSubscription(ctx context.Context, sub *models.PushSubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return err
	}
	if existing, ok := s.pushSubs[sub.Endpoint]; ok {
		sub.ID = existing.ID
		sub.CreatedAt = existing.CreatedAt
	}
	ensureID(&sub.ID)
	cp := *sub
	s.pushSubs[sub.Endpoint] = &cp
	return nil
}

func (s *Store) ListPushSubscriptions(ctx context.Context, userID primitive.ObjectID) ([]models.PushSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return nil, err
	}
	out := []models.PushSubscription{}
	for _, sub := range s.pushSubs {
		if sub.UserID == userID {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (s *Store) DeletePushSubscription(ctx context.Context, endpoint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return err
	}
	delete(s.pushSubs, endpoint)
	return nil
}

// ---- stats ----

func (s *Store) Stats(ctx context.Context, now int64) (*models.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return nil, err
	}
	st := &models.Stats{
		Users:       int64(len(s.users)),
		Posts:       int64(len(s.posts)),
		Screenings:  int64(len(s.screenings)),
		SpiritPosts: map[models.SpiritStatus]int64{},
	}
	for _, u := range s.users {
		if u.IsMember(now) {
			st.Members++
		}
	}
	for _, status := range models.SpiritStatuses {
		st.SpiritPosts[status] = 0
	}
	for _, p := range s.spirits {
		st.SpiritPosts[p.Status]++
	}
	return st, nil
}
