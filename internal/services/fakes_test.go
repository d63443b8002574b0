package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/anonto42/faith-connect/functions/internal/models"
	"github.com/anonto42/faith-connect/functions/internal/repositories"
)

var (
	errUnregistered = errors.New("requested entity was not found")
	errMalformed    = errors.New("invalid registration token")
	errUnavailable  = errors.New("service unavailable")
)

// fakeClassifier treats errUnregistered and errMalformed as dead tokens
type fakeClassifier struct{}

func (fakeClassifier) IsInvalidToken(err error) bool {
	return errors.Is(err, errUnregistered) || errors.Is(err, errMalformed)
}

// fakeSender records every message and answers per token from failures
type fakeSender struct {
	mu       sync.Mutex
	sent     []*messaging.Message
	failures map[string]error
	delay    time.Duration
	inFlight int
	peak     int
}

func (s *fakeSender) Send(_ context.Context, msg *messaging.Message) (string, error) {
	s.mu.Lock()
	s.sent = append(s.sent, msg)
	s.inFlight++
	if s.inFlight > s.peak {
		s.peak = s.inFlight
	}
	s.mu.Unlock()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight--
	target := msg.Token
	if target == "" {
		target = msg.Topic
	}
	if err, ok := s.failures[target]; ok {
		return "", err
	}
	return "projects/faith/messages/" + target, nil
}

func (s *fakeSender) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

// flakyStore wraps a MemoryStore with injectable failures and call counters
type flakyStore struct {
	*repositories.MemoryStore
	getUserErr   error
	removeErr    error
	listErr      error
	deleteErr    error
	updateErr    error
	deleteCalls  int
	removeCalls  int
	statusWrites []models.DeliveryStatus
}

func newFlakyStore() *flakyStore {
	return &flakyStore{MemoryStore: repositories.NewMemoryStore()}
}

func (s *flakyStore) GetUserByID(ctx context.Context, id string) (*models.UserProfile, error) {
	if s.getUserErr != nil {
		return nil, s.getUserErr
	}
	return s.MemoryStore.GetUserByID(ctx, id)
}

func (s *flakyStore) RemoveFCMTokens(ctx context.Context, userID string, tokens []string) error {
	s.removeCalls++
	if s.removeErr != nil {
		return s.removeErr
	}
	return s.MemoryStore.RemoveFCMTokens(ctx, userID, tokens)
}

func (s *flakyStore) UpdateDeliveryStatus(ctx context.Context, id string, status models.DeliveryStatus) error {
	s.statusWrites = append(s.statusWrites, status)
	if s.updateErr != nil {
		err := s.updateErr
		s.updateErr = nil
		return err
	}
	return s.MemoryStore.UpdateDeliveryStatus(ctx, id, status)
}

func (s *flakyStore) ListCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.MemoryStore.ListCreatedBefore(ctx, cutoff, limit)
}

func (s *flakyStore) DeleteNotifications(ctx context.Context, ids []string) error {
	s.deleteCalls++
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.MemoryStore.DeleteNotifications(ctx, ids)
}

// memoryGuard claims each id once
type memoryGuard struct {
	mu      sync.Mutex
	claimed map[string]bool
	err     error
}

func (g *memoryGuard) Claim(_ context.Context, id string) (bool, error) {
	if g.err != nil {
		return false, g.err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.claimed == nil {
		g.claimed = make(map[string]bool)
	}
	if g.claimed[id] {
		return false, nil
	}
	g.claimed[id] = true
	return true, nil
}
