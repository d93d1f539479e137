package memstore

import (
	"context"

	"aiinspire/models"
	"aiinspire/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ---- ai platforms ----

func (s *Store) CreateAIPlatform(ctx context.Context, p *models.AIPlatform) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return err
	}
	for _, existing := range s.platforms {
		if existing.Slug == p.Slug {
			return store.ErrDuplicate
		}
	}
	ensureID(&p.ID)
	cp := *p
	s.platforms[p.ID] = &cp
	return nil
}

func (s *Store) GetAIPlatform(ctx context.Context, id primitive.ObjectID) (*models.AIPlatform, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return nil, err
	}
	p, ok := s.platforms[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) FindAIPlatformBySlug(ctx context.Context, slug string) (*models.AIPlatform, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return nil, err
	}
	for _, p := range s.platforms {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) SaveAIPlatform(ctx context.Context, p *models.AIPlatform) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return err
	}
	if _, ok := s.platforms[p.ID]; !ok {
		return store.ErrNotFound
	}
	for id, existing := range s.platforms {
		if id != p.ID && existing.Slug == p.Slug {
			return store.ErrDuplicate
		}
	}
	cp := *p
	s.platforms[p.ID] = &cp
	return nil
}

func (s *Store) DeleteAIPlatform(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return err
	}
	if _, ok := s.platforms[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.platforms, id)
	return nil
}

func (s *Store) ListAIPlatforms(ctx context.Context, enabledOnly bool) ([]models.AIPlatform, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return nil, err
	}
	out := []models.AIPlatform{}
	for _, p := range s.platforms {
		if !enabledOnly || p.Enabled {
			out = append(out, *p)
		}
	}
	bySortOrder(out, func(p models.AIPlatform) (int, int64) { return p.SortOrder, p.CreatedAt })
	return out, nil
}

// ---- social media ----

func (s *Store) CreateSocialMedia(ctx context.Context, m *models.SocialMedia) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return err
	}
	ensureID(&m.ID)
	cp := *m
	s.social[m.ID] = &cp
	return nil
}

func (s *Store) GetSocialMedia(ctx context.Context, id primitive.ObjectID) (*models.SocialMedia, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return nil, err
	}
	m, ok := s.social[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *Store) FindSocialMediaByName(ctx context.Context, name string) (*models.SocialMedia, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return nil, err
	}
	for _, m := range s.social {
		if m.Name == name {
			cp := *m
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) SaveSocialMedia(ctx context.Context, m *models.SocialMedia) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return err
	}
	if _, ok := s.social[m.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *m
	s.social[m.ID] = &cp
	return nil
}

func (s *Store) DeleteSocialMedia(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return err
	}
	if _, ok := s.social[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.social, id)
	return nil
}

func (s *Store) ListSocialMedia(ctx context.Context, enabledOnly bool) ([]models.SocialMedia, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return nil, err
	}
	out := []models.SocialMedia{}
	for _, m := range s.social {
		if !enabledOnly || m.Enabled {
			out = append(out, *m)
		}
	}
	bySortOrder(out, func(m models.SocialMedia) (int, int64) { return m.SortOrder, m.CreatedAt })
	return out, nil
}

// ---- screenings ----

func (s *Store) CreateScreening(ctx context.Context, sc *models.Screening) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return err
	}
	ensureID(&sc.ID)
	cp := *sc
	s.screenings[sc.ID] = &cp
	return nil
}

func (s *Store) GetScreening(ctx context.Context, id primitive.ObjectID) (*models.Screening, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return nil, err
	}
	sc, ok := s.screenings[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *sc
	return &cp, nil
}

func (s *Store) SaveScreening(ctx context.Context, sc *models.Screening) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return err
	}
	if _, ok := s.screenings[sc.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *sc
	s.screenings[sc.ID] = &cp
	return nil
}

func (s *Store) DeleteScreening(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return err
	}
	if _, ok := s.screenings[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.screenings, id)
	for cid, c := range s.comments {
		if c.ScreeningID == id {
			delete(s.comments, cid)
		}
	}
	return nil
}

func (s *Store) ListScreenings(ctx context.Context, publishedOnly bool, p store.Page) ([]models.Screening, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return nil, 0, err
	}
	var out []models.Screening
	for _, sc := range s.screenings {
		if !publishedOnly || sc.Published {
			out = append(out, *sc)
		}
	}
	newestFirst(out, func(sc models.Screening) int64 { return sc.CreatedAt })
	bySortOrder(out, func(sc models.Screening) (int, int64) { return sc.SortOrder, 0 })
	return pageOf(out, p), int64(len(out)), nil
}

func (s *Store) IncScreeningViews(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return err
	}
	if sc, ok := s.screenings[id]; ok {
		sc.Views++
	}
	return nil
}

func (s *Store) CountScreeningsByPlatform(ctx context.Context, platformID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return 0, err
	}
	var n int64
	for _, sc := range s.screenings {
		if sc.PlatformID != nil && *sc.PlatformID == platformID {
			n++
		}
	}
	return n, nil
}

func (s *Store) CreateComment(ctx context.Context, c *models.ScreeningComment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return err
	}
	ensureID(&c.ID)
	cp := *c
	s.comments[c.ID] = &cp
	return nil
}

func (s *Store) GetComment(ctx context.Context, id primitive.ObjectID) (*models.ScreeningComment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return nil, err
	}
	c, ok := s.comments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Store) DeleteComment(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return err
	}
	if _, ok := s.comments[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

func (s *Store) ListComments(ctx context.Context, screeningID primitive.ObjectID, p store.Page) ([]models.ScreeningComment, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return nil, 0, err
	}
	var out []models.ScreeningComment
	for _, c := range s.comments {
		if c.ScreeningID == screeningID {
			out = append(out, *c)
		}
	}
	newestFirst(out, func(c models.ScreeningComment) int64 { return c.CreatedAt })
	return pageOf(out, p), int64(len(out)), nil
}
