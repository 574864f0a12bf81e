// Package memstore is an in-process implementation of the repository
// interfaces. It backs tests and the "memory" database driver.
package memstore

import (
	"sort"
	"sync"
	"time"

	"github.com/yigit/campusmesh/internal/app/models"
	"github.com/yigit/campusmesh/internal/app/repositories"
)

// Clock returns the store time used for server-assigned timestamps.
type Clock func() time.Time

// Store holds every collection behind one lock
type Store struct {
	mu    sync.RWMutex
	clock Clock
	seq   int64

	users         map[string]*models.User
	notices       map[string]*models.Notice
	messages      map[string]*models.Message
	notifications map[string]*models.Notification
	approvals     map[string]*models.ApprovalRequest
	activities    map[string]*models.UserActivity
	groups        map[string]*models.Group
	members       map[string]map[string]*models.GroupMember

	// insertion order, used to break created_at ties deterministically
	order map[string]int64
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the store clock.
func WithClock(clock Clock) Option {
	return func(s *Store) { s.clock = clock }
}

// New creates an empty store
func New(opts ...Option) *Store {
	s := &Store{
		clock:         func() time.Time { return time.Now().UTC() },
		users:         make(map[string]*models.User),
		notices:       make(map[string]*models.Notice),
		messages:      make(map[string]*models.Message),
		notifications: make(map[string]*models.Notification),
		approvals:     make(map[string]*models.ApprovalRequest),
		activities:    make(map[string]*models.UserActivity),
		groups:        make(map[string]*models.Group),
		members:       make(map[string]map[string]*models.GroupMember),
		order:         make(map[string]int64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Repositories exposes the store through the repository container
func (s *Store) Repositories() *repositories.Repositories {
	return &repositories.Repositories{
		UserRepository:         &UserRepository{s},
		NoticeRepository:       &NoticeRepository{s},
		MessageRepository:      &MessageRepository{s},
		NotificationRepository: &NotificationRepository{s},
		ApprovalRepository:     &ApprovalRepository{s},
		ActivityRepository:     &ActivityRepository{s},
		GroupRepository:        &GroupRepository{s},
	}
}

// NewRepositories creates a fresh store and returns its repositories
func NewRepositories(opts ...Option) *repositories.Repositories {
	return New(opts...).Repositories()
}

// now must be called with the lock held
func (s *Store) now() time.Time {
	return s.clock()
}

// track must be called with the lock held
func (s *Store) track(id string) {
	s.seq++
	s.order[id] = s.seq
}

func (s *Store) before(aID string, aAt time.Time, bID string, bAt time.Time) bool {
	if !aAt.Equal(bAt) {
		return aAt.Before(bAt)
	}
	return s.order[aID] < s.order[bID]
}

func sortByCreated[T any](s *Store, items []T, id func(T) string, at func(T) time.Time, desc bool) {
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return s.before(id(items[j]), at(items[j]), id(items[i]), at(items[i]))
		}
		return s.before(id(items[i]), at(items[i]), id(items[j]), at(items[j]))
	})
}

func limitSlice[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneMap(in models.JSONMap) models.JSONMap {
	out := make(models.JSONMap, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
