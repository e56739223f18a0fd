package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	model "classroom_backend/internals/features/school/assignments/model"
	"classroom_backend/internals/features/school/assignments/repository"
	batchService "classroom_backend/internals/features/school/batches/service"
	helperOSS "classroom_backend/internals/helpers/oss"
	"classroom_backend/internals/testutil"
)

var errStoreDown = errors.New("object store down")

// flakyStore wraps a MemoryStore and fails on demand.
type flakyStore struct {
	*helperOSS.MemoryStore

	mu              sync.Mutex
	failDeletes     int // DeleteObjects fails this many times, -1 = always
	failGet         map[string]bool
	failDeleteOne   bool
	deleteCalls     [][]string
	deleteOneCalls  []string
	presign         bool
	brokenMidStream map[string]bool
}

func newFlakyStore() *flakyStore {
	return &flakyStore{
		MemoryStore:     helperOSS.NewMemoryStore(),
		failGet:         map[string]bool{},
		brokenMidStream: map[string]bool{},
	}
}

func (f *flakyStore) DeleteObjects(ctx context.Context, keys []string) error {
	f.mu.Lock()
	f.deleteCalls = append(f.deleteCalls, append([]string(nil), keys...))
	fail := f.failDeletes != 0
	if f.failDeletes > 0 {
		f.failDeletes--
	}
	f.mu.Unlock()
	if fail {
		return errStoreDown
	}
	return f.MemoryStore.DeleteObjects(ctx, keys)
}

func (f *flakyStore) DeleteObject(ctx context.Context, key string) error {
	f.mu.Lock()
	f.deleteOneCalls = append(f.deleteOneCalls, key)
	fail := f.failDeleteOne
	f.mu.Unlock()
	if fail {
		return errStoreDown
	}
	return f.MemoryStore.DeleteObject(ctx, key)
}

func (f *flakyStore) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	fail, broken := f.failGet[key], f.brokenMidStream[key]
	f.mu.Unlock()
	if fail {
		return nil, errStoreDown
	}
	rc, err := f.MemoryStore.GetObject(ctx, key)
	if err != nil || !broken {
		return rc, err
	}
	return io.NopCloser(io.MultiReader(strings.NewReader("partial"), errReader{})), nil
}

func (f *flakyStore) calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.deleteCalls...)
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errStoreDown }

// presignStore adds upload signing to flakyStore.
type presignStore struct {
	*flakyStore
}

func (p presignStore) SignUploadURL(key, contentType string, ttl time.Duration) (string, error) {
	return "https://bucket.example/" + key + "?expires=" + ttl.String(), nil
}

// failingRoster returns err from StudentsOf.
type failingRoster struct {
	batchService.RosterProvider
	err error
}

func (f failingRoster) StudentsOf(context.Context, uuid.UUID) ([]uuid.UUID, error) {
	return nil, f.err
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type fixture struct {
	db      *gorm.DB
	store   *repository.Store
	objects *flakyStore
	clock   *clock
	svc     *Service
	sleeps  []time.Duration
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	fx := &fixture{
		db:      db,
		store:   repository.NewStore(db),
		objects: newFlakyStore(),
		clock:   &clock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
	}
	policy := DefaultRetryPolicy()
	policy.Sleep = func(ctx context.Context, d time.Duration) error {
		fx.sleeps = append(fx.sleeps, d)
		return nil
	}
	base := []Option{WithClock(fx.clock.Now), WithRetryPolicy(policy)}
	fx.svc = New(fx.store, batchService.NewRoster(db), fx.objects, zaptest.NewLogger(t), append(base, opts...)...)
	return fx
}

// put stores an object under the student's prefix and returns its reference.
func (fx *fixture) put(t *testing.T, aid, sid uuid.UUID, name, body string) model.AttachmentFile {
	t.Helper()
	key, err := fx.svc.StoreUpload(context.Background(), aid, sid, name, "application/pdf", strings.NewReader(body))
	require.NoError(t, err)
	return model.AttachmentFile{Name: name, Key: key, MediaType: "application/pdf"}
}

// submissionsOf loads every submission row of an assignment.
func submissionsOf(t *testing.T, fx *fixture, aid uuid.UUID) []model.SubmissionModel {
	t.Helper()
	var rows []model.SubmissionModel
	require.NoError(t, fx.db.Where("submission_assignment_id = ?", aid).Find(&rows).Error)
	return rows
}
