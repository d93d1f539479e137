package memstore

import (
	"context"
	"sort"

	"aiinspire/models"
	"aiinspire/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func cloneSpirit(p *models.SpiritPost) *models.SpiritPost {
	cp := *p
	if p.ClaimerID != nil {
		id := *p.ClaimerID
		cp.ClaimerID = &id
	}
	return &cp
}

func (s *Store) CreateSpiritPost(ctx context.Context, p *models.SpiritPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return err
	}
	ensureID(&p.ID)
	p.Version = 1
	s.spirits[p.ID] = cloneSpirit(p)
	return nil
}

func (s *Store) GetSpiritPost(ctx context.Context, id primitive.ObjectID) (*models.SpiritPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return nil, err
	}
	p, ok := s.spirits[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneSpirit(p), nil
}

func (s *Store) UpdateSpiritPost(ctx context.Context, p *models.SpiritPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return err
	}
	existing, ok := s.spirits[p.ID]
	if !ok {
		return store.ErrNotFound
	}
	if existing.Version != p.Version {
		return store.ErrConflict
	}
	p.Version++
	s.spirits[p.ID] = cloneSpirit(p)
	return nil
}

func (s *Store) DeleteSpiritPost(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return err
	}
	p, ok := s.spirits[id]
	if !ok {
		return store.ErrNotFound
	}
	if p.Status == models.SpiritClaimed {
		return store.ErrConflict
	}
	delete(s.spirits, id)
	kept := s.messages[:0]
	for _, m := range s.messages {
		if m.SpiritPostID != id {
			kept = append(kept, m)
		}
	}
	s.messages = kept
	return nil
}

func (s *Store) ListSpiritPosts(ctx context.Context, f store.SpiritFilter, p store.Page) ([]models.SpiritPost, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return nil, 0, err
	}
	var out []models.SpiritPost
	for _, sp := range s.spirits {
		if f.Status != "" && sp.Status != f.Status {
			continue
		}
		if f.AuthorID != nil && sp.AuthorID != *f.AuthorID {
			continue
		}
		if f.ClaimerID != nil && !sp.IsClaimer(*f.ClaimerID) {
			continue
		}
		if f.Tag != "" && !hasTag(sp.Tags, f.Tag) {
			continue
		}
		out = append(out, *cloneSpirit(sp))
	}
	newestFirst(out, func(sp models.SpiritPost) int64 { return sp.CreatedAt })
	return pageOf(out, p), int64(len(out)), nil
}

func (s *Store) CreateSpiritMessage(ctx context.Context, m *models.SpiritMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return err
	}
	ensureID(&m.ID)
	cp := *m
	s.messages = append(s.messages, &cp)
	return nil
}

func (s *Store) ListSpiritMessages(ctx context.Context, postID primitive.ObjectID, p store.Page) ([]models.SpiritMessage, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return nil, 0, err
	}
	var out []models.SpiritMessage
	for _, m := range s.messages {
		if m.SpiritPostID == postID {
			out = append(out, *m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return pageOf(out, p), int64(len(out)), nil
}

func (s *Store) MarkSpiritMessagesRead(ctx context.Context, postID, fromID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return 0, err
	}
	var n int64
	for _, m := range s.messages {
		if m.SpiritPostID == postID && m.SenderID == fromID && !m.Read {
			m.Read = true
			n++
		}
	}
	return n, nil
}
