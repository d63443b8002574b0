package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/anonto42/faith-connect/functions/internal/models"
)

// MemoryStore keeps notifications and profiles in process memory.
// It implements both NotificationRepository and UserRepository and backs local runs and tests.
type MemoryStore struct {
	mu            sync.RWMutex
	notifications map[string]*models.PushNotification
	users         map[string]*models.UserProfile
	now           func() time.Time
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		notifications: make(map[string]*models.PushNotification),
		users:         make(map[string]*models.UserProfile),
		now:           time.Now,
	}
}

// PutNotification stores a copy of n under n.ID
func (s *MemoryStore) PutNotification(n *models.PushNotification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *n
	s.notifications[n.ID] = &stored
}

// PutUser stores a copy of u under u.ID
func (s *MemoryStore) PutUser(u *models.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := models.UserProfile{ID: u.ID, FCMTokens: append([]string(nil), u.FCMTokens...)}
	s.users[u.ID] = &stored
}

// NotificationCount returns how many notification requests are stored
func (s *MemoryStore) NotificationCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notifications)
}

func (s *MemoryStore) GetNotificationByID(_ context.Context, id string) (*models.PushNotification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notifications[id]
	if !ok {
		return nil, ErrNotFound
	}
	found := *n
	return &found, nil
}

func (s *MemoryStore) UpdateDeliveryStatus(_ context.Context, id string, status models.DeliveryStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok {
		return ErrNotFound
	}

	now := s.now()
	n.Sent = status.Sent
	if status.Sent {
		n.SentAt = &now
		if status.Counts != nil {
			success, total, removed := status.Counts.SuccessCount, status.Counts.TotalTokens, status.Counts.InvalidTokensRemoved
			n.SuccessCount, n.TotalTokens, n.InvalidTokensRemoved = &success, &total, &removed
		}
		return nil
	}

	n.Error = status.Error
	if status.StampError {
		n.ErrorAt = &now
	}
	return nil
}

// ListCreatedBefore returns the oldest matching ids first
func (s *MemoryStore) ListCreatedBefore(_ context.Context, cutoff time.Time, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]*models.PushNotification, 0)
	for _, n := range s.notifications {
		if n.CreatedAt.Before(cutoff) {
			matches = append(matches, n)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].CreatedAt.Before(matches[j].CreatedAt)
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	ids := make([]string, len(matches))
	for i, n := range matches {
		ids[i] = n.ID
	}
	return ids, nil
}

func (s *MemoryStore) DeleteNotifications(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.notifications, id)
	}
	return nil
}

func (s *MemoryStore) GetUserByID(_ context.Context, id string) (*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &models.UserProfile{ID: u.ID, FCMTokens: append([]string(nil), u.FCMTokens...)}, nil
}

// RemoveFCMTokens keeps every token not listed, in its original order
func (s *MemoryStore) RemoveFCMTokens(_ context.Context, userID string, tokens []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}

	drop := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		drop[token] = struct{}{}
	}
	kept := u.FCMTokens[:0]
	for _, token := range u.FCMTokens {
		if _, ok := drop[token]; !ok {
			kept = append(kept, token)
		}
	}
	u.FCMTokens = kept
	return nil
}
