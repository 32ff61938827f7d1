package tracking

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	ErrNotFound     = errors.New("session not found")
	ErrExpired      = errors.New("session expired")
	ErrStopped      = errors.New("session stopped")
	ErrInvalidInput = errors.New("valid latitude and longitude required")
)

const (
	sessionIDBytes  = 16
	defaultUserName = "User"
	idGenerateTries = 4
)

// Store holds live tracking sessions in memory. All mutations take the write
// lock; events are published after it is released.
type Store struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	publisher Publisher
	now       func() time.Time
	newID     func() (string, error)
}

func NewStore(publisher Publisher) *Store {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &Store{
		sessions:  map[string]*Session{},
		publisher: publisher,
		now:       time.Now,
		newID:     newSessionID,
	}
}

// newSessionID returns 16 bytes of crypto/rand as unpadded URL-safe base64.
func newSessionID() (string, error) {
	buf := make([]byte, sessionIDBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Create opens a session seeded with its first location. A non-positive
// duration means the session runs until stopped.
func (s *Store) Create(_ context.Context, in CreateInput) (Session, error) {
	if !in.Location.Valid() {
		return Session{}, ErrInvalidInput
	}
	if in.DisplayName == "" {
		in.DisplayName = defaultUserName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.uniqueIDLocked()
	if err != nil {
		return Session{}, err
	}

	now := s.now()
	sess := &Session{
		ID:          id,
		OwnerUserID: in.OwnerUserID,
		DisplayName: in.DisplayName,
		Locations: []LocationSample{{
			Lat:       in.Location.Lat,
			Lng:       in.Location.Lng,
			Timestamp: now,
		}},
		CreatedAt:       now,
		LastUpdated:     now,
		IsActive:        true,
		TotalUpdates:    1,
		DurationMinutes: in.DurationMinutes,
	}
	if in.DurationMinutes > 0 {
		expires := now.Add(time.Duration(in.DurationMinutes) * time.Minute)
		sess.ExpiresAt = &expires
	}
	s.sessions[id] = sess
	return sess.clone(), nil
}

func (s *Store) uniqueIDLocked() (string, error) {
	for i := 0; i < idGenerateTries; i++ {
		id, err := s.newID()
		if err != nil {
			return "", fmt.Errorf("generate session id: %w", err)
		}
		if _, taken := s.sessions[id]; !taken {
			return id, nil
		}
	}
	return "", errors.New("generate session id: collisions exhausted")
}

// AppendLocation records a sample and returns the session's new update count.
func (s *Store) AppendLocation(ctx context.Context, id string, sample LocationSample) (int, error) {
	if !sample.Coordinate().Valid() {
		return 0, ErrInvalidInput
	}

	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return 0, ErrNotFound
	}

	now := s.now()
	if sess.expiredAt(now) {
		wasActive := sess.IsActive
		sess.IsActive = false
		s.mu.Unlock()
		if wasActive {
			s.publisher.Publish(ctx, Event{Type: EventSessionEnded, SessionID: id, Reason: reasonExpired})
		}
		return 0, ErrExpired
	}
	if !sess.IsActive {
		s.mu.Unlock()
		return 0, ErrStopped
	}

	if sample.Timestamp.IsZero() {
		sample.Timestamp = now
	}
	sess.Locations = append(sess.Locations, sample)
	if over := len(sess.Locations) - MaxHistory; over > 0 {
		sess.Locations = append([]LocationSample(nil), sess.Locations[over:]...)
	}
	sess.LastUpdated = now
	sess.TotalUpdates++
	total := sess.TotalUpdates
	s.mu.Unlock()

	s.publisher.Publish(ctx, Event{Type: EventLocationUpdate, SessionID: id, Location: &sample, TotalUpdates: total})
	return total, nil
}

// Stop deactivates a session. Stopping an inactive session is not an error.
func (s *Store) Stop(ctx context.Context, id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	sess.IsActive = false
	sess.LastUpdated = s.now()
	s.mu.Unlock()

	s.publisher.Publish(ctx, Event{Type: EventSessionEnded, SessionID: id, Reason: reasonStopped})
	return nil
}

// Get returns a deep copy of the session.
func (s *Store) Get(_ context.Context, id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return sess.clone(), nil
}

func (s *Store) Latest(_ context.Context, id string) (LatestLocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return LatestLocation{}, ErrNotFound
	}
	return LatestLocation{
		SessionID:      id,
		LatestLocation: sess.Latest(),
		TotalUpdates:   sess.TotalUpdates,
		IsActive:       sess.IsActive,
	}, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.sessions[id]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.sessions, id)
	s.mu.Unlock()

	s.publisher.Publish(ctx, Event{Type: EventSessionEnded, SessionID: id, Reason: reasonDeleted})
	return nil
}

// SweepExpired evicts every session whose expiry is before now and returns
// how many were removed.
func (s *Store) SweepExpired(ctx context.Context, now time.Time) int {
	s.mu.Lock()
	var expired []string
	for id, sess := range s.sessions {
		if sess.expiredAt(now) {
			expired = append(expired, id)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, id := range expired {
		s.publisher.Publish(ctx, Event{Type: EventSessionEnded, SessionID: id, Reason: reasonExpired})
	}
	return len(expired)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
