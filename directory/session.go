//go:generate go run go.uber.org/mock/mockgen -source=session.go -destination=../mocks/mock_session.go -package=mocks
package directory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"

	"im-core/domain"
)

// Handle is the directory's grip on a live connection: enough to
// identify it and to force it closed.
type Handle interface {
	ID() string
	Terminate(reason domain.CloseReason)
}

// SessionDirectory maps an authenticated (user, device) pair to its
// live connection. Binding replaces any prior connection for the same
// pair; unbinding a handle that was already replaced or removed is a
// no-op.
type SessionDirectory interface {
	Bind(ctx context.Context, userID, deviceID string, handle Handle) error
	Unbind(ctx context.Context, handle Handle) error
}

const (
	locationPrefix = "im:location:"
	sessionTTL     = 2 * time.Hour
)

type sessionKey struct {
	userID   string
	deviceID string
}

// Sessions keeps the local (user, device) -> connection map for this
// gateway node and registers the global location in Redis so other
// nodes can route pushes here.
type Sessions struct {
	mu       sync.Mutex
	byKey    map[sessionKey]Handle
	byHandle map[string]sessionKey

	client   *redis.Client
	nodeAddr string
	log      *slog.Logger
}

var _ SessionDirectory = (*Sessions)(nil)

func NewSessions(client *redis.Client, nodeAddr string, log *slog.Logger) *Sessions {
	return &Sessions{
		byKey:    make(map[sessionKey]Handle),
		byHandle: make(map[string]sessionKey),
		client:   client,
		nodeAddr: nodeAddr,
		log:      log,
	}
}

// Bind registers the handle for the pair and terminates whatever was
// bound before. The previous connection is closed outside the lock so a
// slow transport never stalls other binds.
func (s *Sessions) Bind(ctx context.Context, userID, deviceID string, handle Handle) error {
	key := sessionKey{userID: userID, deviceID: deviceID}

	s.mu.Lock()
	previous := s.byKey[key]
	if previous != nil {
		delete(s.byHandle, previous.ID())
	}
	s.byKey[key] = handle
	s.byHandle[handle.ID()] = key
	s.mu.Unlock()

	if previous != nil && previous.ID() != handle.ID() {
		previous.Terminate(domain.CloseReplaced)
	}

	locationKey := locationPrefix + userID + ":" + deviceID
	if err := s.client.Set(ctx, locationKey, s.nodeAddr, sessionTTL).Err(); err != nil {
		// The local binding stands; routing just degrades until the key
		// is written again.
		s.log.Error("Failed to register session location", "key", locationKey, "err", err)
	}

	s.log.Info("Session bound", "user_id", userID, "device_id", deviceID, "conn_id", handle.ID())
	return nil
}

// Unbind removes the handle if it is still the bound one. Stale handles
// (already replaced by a newer bind) are ignored, which makes racing
// close paths idempotent.
func (s *Sessions) Unbind(ctx context.Context, handle Handle) error {
	s.mu.Lock()
	key, ok := s.byHandle[handle.ID()]
	if ok {
		delete(s.byHandle, handle.ID())
		delete(s.byKey, key)
	}
	s.mu.Unlock()

	if !ok {
		return nil
	}

	locationKey := locationPrefix + key.userID + ":" + key.deviceID
	if err := s.client.Del(ctx, locationKey).Err(); err != nil {
		s.log.Error("Failed to delete session location", "key", locationKey, "err", err)
	}

	s.log.Info("Session unbound", "user_id", key.userID, "device_id", key.deviceID, "conn_id", handle.ID())
	return nil
}

// Find returns the live handle for the pair, nil when offline.
func (s *Sessions) Find(userID, deviceID string) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byKey[sessionKey{userID: userID, deviceID: deviceID}]
}

// FindUser returns every live handle bound for the user.
func (s *Sessions) FindUser(userID string) []Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	var handles []Handle
	for key, handle := range s.byKey {
		if key.userID == userID {
			handles = append(handles, handle)
		}
	}
	return handles
}

// OnlineCount reports the number of bound connections on this node.
func (s *Sessions) OnlineCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byKey)
}

func (s *Sessions) String() string {
	return fmt.Sprintf("Sessions(node=%s, online=%d)", s.nodeAddr, s.OnlineCount())
}
