package memstore

import (
	"context"
	"sort"

	"aiinspire/models"
	"aiinspire/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (s *Store) CreatePost(ctx context.Context, p *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return err
	}
	ensureID(&p.ID)
	cp := *p
	s.posts[p.ID] = &cp
	return nil
}

func (s *Store) GetPost(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return nil, err
	}
	p, ok := s.posts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) SavePost(ctx context.Context, p *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return err
	}
	existing, ok := s.posts[p.ID]
	if !ok {
		return store.ErrNotFound
	}
	cp := *p
	cp.Views = existing.Views
	cp.Likes = existing.Likes
	s.posts[p.ID] = &cp
	return nil
}

func (s *Store) DeletePost(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return err
	}
	if _, ok := s.posts[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.posts, id)
	for k := range s.likes {
		if k[0] == id {
			delete(s.likes, k)
		}
	}
	return nil
}

func matchPost(p *models.Post, f store.PostFilter) bool {
	if f.PlatformID != nil && (p.PlatformID == nil || *p.PlatformID != *f.PlatformID) {
		return false
	}
	if f.UserID != nil && p.UserID != *f.UserID {
		return false
	}
	if f.Tag != "" && !hasTag(p.Tags, f.Tag) {
		return false
	}
	if f.MediaType != "" && p.PrimaryMediaType() != f.MediaType {
		return false
	}
	if f.Query != "" && !containsFold(p.Title, f.Query) && !containsFold(p.Content, f.Query) && !containsFold(p.Prompt, f.Query) {
		return false
	}
	if !f.All && p.Status != models.PostPublished {
		return f.Viewer != nil && p.UserID == *f.Viewer
	}
	return true
}

func (s *Store) ListPosts(ctx context.Context, f store.PostFilter, p store.Page) ([]models.Post, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return nil, 0, err
	}
	var out []models.Post
	for _, post := range s.posts {
		if matchPost(post, f) {
			out = append(out, *post)
		}
	}
	if f.Sort == "popular" {
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Likes != out[j].Likes {
				return out[i].Likes > out[j].Likes
			}
			if out[i].Views != out[j].Views {
				return out[i].Views > out[j].Views
			}
			return out[i].CreatedAt > out[j].CreatedAt
		})
	} else {
		newestFirst(out, func(p models.Post) int64 { return p.CreatedAt })
	}
	return pageOf(out, p), int64(len(out)), nil
}

func (s *Store) IncPostViews(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return err
	}
	if p, ok := s.posts[id]; ok {
		p.Views++
	}
	return nil
}

func (s *Store) CountPostsByPlatform(ctx context.Context, platformID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return 0, err
	}
	var n int64
	for _, p := range s.posts {
		if p.PlatformID != nil && *p.PlatformID == platformID {
			n++
		}
	}
	return n, nil
}

func (s *Store) LikePost(ctx context.Context, postID, userID primitive.ObjectID, now int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return false, err
	}
	key := [2]primitive.ObjectID{postID, userID}
	if _, ok := s.likes[key]; ok {
		return false, nil
	}
	s.likes[key] = models.PostLike{ID: primitive.NewObjectID(), PostID: postID, UserID: userID, CreatedAt: now}
	if p, ok := s.posts[postID]; ok {
		p.Likes++
	}
	return true, nil
}

func (s *Store) UnlikePost(ctx context.Context, postID, userID primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return false, err
	}
	key := [2]primitive.ObjectID{postID, userID}
	if _, ok := s.likes[key]; !ok {
		return false, nil
	}
	delete(s.likes, key)
	if p, ok := s.posts[postID]; ok && p.Likes > 0 {
		p.Likes--
	}
	return true, nil
}

func (s *Store) LikedPostIDs(ctx context.Context, userID primitive.ObjectID, postIDs []primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return nil, err
	}
	out := map[primitive.ObjectID]bool{}
	for _, id := range postIDs {
		if _, ok := s.likes[[2]primitive.ObjectID{id, userID}]; ok {
			out[id] = true
		}
	}
	return out, nil
}
