package services

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/campusmesh/internal/app/auth"
	"github.com/yigit/campusmesh/internal/app/models"
	"github.com/yigit/campusmesh/internal/app/repositories"
	"github.com/yigit/campusmesh/internal/app/repositories/memstore"
	"github.com/yigit/campusmesh/internal/pkg/apperrors"
	"github.com/yigit/campusmesh/internal/pkg/filestorage"
	"github.com/yigit/campusmesh/internal/pkg/push"
)

var (
	errStoreDown    = errors.New("store unavailable")
	anonymousCaller = auth.Caller{}
)

// flakyNotifications fails the CreateBatch calls whose 1-based index is listed
type flakyNotifications struct {
	repositories.NotificationRepository
	mu      sync.Mutex
	calls   int
	failOn  map[int]bool
	batches []int
}

func (f *flakyNotifications) CreateBatch(ctx context.Context, notifications []*models.Notification) error {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.batches = append(f.batches, len(notifications))
	f.mu.Unlock()

	if f.failOn[call] {
		return errStoreDown
	}
	return f.NotificationRepository.CreateBatch(ctx, notifications)
}

type recordedEvent struct {
	userID    string
	eventType string
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recordingNotifier) NotifyUser(userID, eventType string, _ interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{userID: userID, eventType: eventType})
}

func (r *recordingNotifier) count(eventType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.eventType == eventType {
			n++
		}
	}
	return n
}

type fakePusher struct {
	mu       sync.Mutex
	payloads []push.Payload
	err      error
}

func (f *fakePusher) Send(_ context.Context, p push.Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, p)
	return f.err
}

type harness struct {
	repos    *repositories.Repositories
	svc      *Services
	notifier *recordingNotifier
	pusher   *fakePusher
	flaky    *flakyNotifications
	storage  filestorage.FileStorage
}

type harnessOption func(*Config, *harness)

func withBatchSize(n int) harnessOption {
	return func(c *Config, _ *harness) { c.FanoutBatchSize = n }
}

func withCascade(p CascadePolicy) harnessOption {
	return func(c *Config, _ *harness) { c.CascadePolicy = p }
}

// withStorage stores uploads under a per-test temp dir
func withStorage(t *testing.T) harnessOption {
	return func(_ *Config, h *harness) {
		ls, err := filestorage.NewLocalStorage(t.TempDir(), "https://files.college.test", zerolog.Nop())
		require.NoError(t, err)
		h.storage = ls
	}
}

func withFailingBatches(calls ...int) harnessOption {
	return func(_ *Config, h *harness) {
		for _, c := range calls {
			h.flaky.failOn[c] = true
		}
	}
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()

	t0 := time.Date(2024, 5, 6, 8, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t0 = t0.Add(time.Second)
		return t0
	}

	repos := memstore.NewRepositories(memstore.WithClock(clock))
	h := &harness{
		repos:    repos,
		notifier: &recordingNotifier{},
		pusher:   &fakePusher{},
		flaky:    &flakyNotifications{NotificationRepository: repos.NotificationRepository, failOn: map[int]bool{}},
	}
	repos.NotificationRepository = h.flaky

	cfg := Config{}
	for _, opt := range opts {
		opt(&cfg, h)
	}

	svc, err := NewServices(cfg, Deps{
		Repos:    repos,
		Storage:  h.storage,
		Push:     h.pusher,
		Notifier: h.notifier,
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)
	h.svc = svc
	return h
}

func (h *harness) user(t *testing.T, id string, role models.RoleType) auth.Caller {
	t.Helper()
	require.NoError(t, h.repos.UserRepository.Create(context.Background(), &models.User{
		ID:          id,
		Email:       id + "@college.test",
		DisplayName: "User " + id,
		Role:        role,
		IsActive:    true,
	}))
	return auth.Caller{ID: id, Role: role}
}

func (h *harness) inactiveUser(t *testing.T, id string, role models.RoleType) {
	t.Helper()
	require.NoError(t, h.repos.UserRepository.Create(context.Background(), &models.User{
		ID:       id,
		Email:    id + "@college.test",
		Role:     role,
		IsActive: false,
	}))
}

// upload builds a multipart file header the way gin hands it to controllers
func upload(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/upload", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))
	return req.MultipartForm.File["file"][0]
}

func (h *harness) inbox(t *testing.T, userID string) []*models.Notification {
	t.Helper()
	list, err := h.flaky.NotificationRepository.ListByUser(context.Background(), userID, false, 100)
	require.NoError(t, err)
	return list
}

func TestNewServicesValidatesConfig(t *testing.T) {
	deps := Deps{Repos: memstore.NewRepositories(), Logger: zerolog.Nop()}

	t.Run("defaults", func(t *testing.T) {
		svc, err := NewServices(Config{}, deps)
		require.NoError(t, err)
		assert.NotNil(t, svc.NoticeService)
		assert.NotNil(t, svc.GroupService)
	})

	t.Run("batch size above store limit", func(t *testing.T) {
		_, err := NewServices(Config{FanoutBatchSize: repositories.MaxBatchSize + 1}, deps)
		assert.Error(t, err)
	})

	t.Run("unknown cascade policy", func(t *testing.T) {
		_, err := NewServices(Config{CascadePolicy: "everything"}, deps)
		assert.Error(t, err)
	})
}

func TestInternalErrorKeepsTypedErrors(t *testing.T) {
	wrapped := internalError("loading", errStoreDown)
	assert.ErrorIs(t, wrapped, errStoreDown)
	assert.Equal(t, "loading: store unavailable", wrapped.Error())
	assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(wrapped))

	notFound := internalError("loading", apperrors.ErrNoticeNotFound)
	assert.Equal(t, apperrors.ErrNoticeNotFound, notFound)
}
