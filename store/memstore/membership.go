package memstore

import (
	"context"

	"aiinspire/models"
	"aiinspire/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (s *Store) CreateProduct(ctx context.Context, p *models.MembershipProduct) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return err
	}
	ensureID(&p.ID)
	cp := *p
	s.products[p.ID] = &cp
	return nil
}

func (s *Store) GetProduct(ctx context.Context, id primitive.ObjectID) (*models.MembershipProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return nil, err
	}
	p, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) FindProductByName(ctx context.Context, name string) (*models.MembershipProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return nil, err
	}
	for _, p := range s.products {
		if p.Name == name {
			cp := *p
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) SaveProduct(ctx context.Context, p *models.MembershipProduct) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return err
	}
	if _, ok := s.products[p.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *p
	s.products[p.ID] = &cp
	return nil
}

func (s *Store) DeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return err
	}
	if _, ok := s.products[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *Store) ListProducts(ctx context.Context, enabledOnly bool) ([]models.MembershipProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return nil, err
	}
	out := []models.MembershipProduct{}
	for _, p := range s.products {
		if !enabledOnly || p.Enabled {
			out = append(out, *p)
		}
	}
	bySortOrder(out, func(p models.MembershipProduct) (int, int64) { return p.SortOrder, p.CreatedAt })
	return out, nil
}

func (s *Store) InsertCodes(ctx context.Context, codes []models.RedemptionCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return err
	}
	seen := map[string]bool{}
	for _, c := range s.codes {
		seen[c.Code] = true
	}
	for _, c := range codes {
		if seen[c.Code] {
			return store.ErrDuplicate
		}
		seen[c.Code] = true
	}
	for i := range codes {
		ensureID(&codes[i].ID)
		cp := codes[i]
		s.codes[cp.ID] = &cp
	}
	return nil
}

func (s *Store) findCode(code string) *models.RedemptionCode {
	for _, c := range s.codes {
		if c.Code == code {
			return c
		}
	}
	return nil
}

func (s *Store) GetCode(ctx context.Context, code string) (*models.RedemptionCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return nil, err
	}
	c := s.findCode(code)
	if c == nil {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Store) ListCodes(ctx context.Context, f store.CodeFilter, p store.Page) ([]models.RedemptionCode, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return nil, 0, err
	}
	var out []models.RedemptionCode
	for _, c := range s.codes {
		if f.BatchID != "" && c.BatchID != f.BatchID {
			continue
		}
		if f.ProductID != nil && c.ProductID != *f.ProductID {
			continue
		}
		if f.Used != nil && c.Used != *f.Used {
			continue
		}
		out = append(out, *c)
	}
	newestFirst(out, func(c models.RedemptionCode) int64 { return c.CreatedAt })
	return pageOf(out, p), int64(len(out)), nil
}

func (s *Store) DeleteCode(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return err
	}
	c, ok := s.codes[id]
	if !ok {
		return store.ErrNotFound
	}
	if c.Used {
		return store.ErrConflict
	}
	delete(s.codes, id)
	return nil
}

func (s *Store) ConsumeCode(ctx context.Context, code string, userID primitive.ObjectID, now int64) (*models.RedemptionCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return nil, err
	}
	c := s.findCode(code)
	if c == nil {
		return nil, store.ErrNotFound
	}
	if !c.Redeemable(now) {
		return nil, store.ErrConflict
	}
	uid := userID
	c.Used = true
	c.UsedBy = &uid
	c.UsedAt = now
	cp := *c
	return &cp, nil
}
