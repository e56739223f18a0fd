package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "classroom_backend/internals/features/school/assignments/model"
	"classroom_backend/internals/testutil"
)

func TestRetryPolicyRun(t *testing.T) {
	var waits []time.Duration
	p := RetryPolicy{
		MaxAttempts: 3,
		Backoff:     LinearBackoff(time.Second),
		Sleep: func(_ context.Context, d time.Duration) error {
			waits = append(waits, d)
			return nil
		},
	}

	calls := 0
	n, err := p.Run(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errStoreDown
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, waits)

	waits = nil
	n, err = p.Run(context.Background(), func(context.Context) error { return errStoreDown })
	assert.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, 3, n)
	assert.Len(t, waits, 2)

	// cancelled while waiting: stop early, keep the op's error
	p.Sleep = sleepCtx
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n, err = p.Run(ctx, func(context.Context) error { return errStoreDown })
	assert.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, 1, n)
}

type deletionSetup struct {
	fx       *fixture
	aid      uuid.UUID
	teacher  uuid.UUID
	students []uuid.UUID
	keys     []string
}

// setupDeletion creates an assignment with one attachment and two submitted files
// out of three students.
func setupDeletion(t *testing.T) deletionSetup {
	fx := newFixture(t)
	ctx := context.Background()
	teacher := uuid.New()
	batchID, students := testutil.SeedBatch(t, fx.db, "batch", 3)

	brief, err := fx.svc.StoreAttachment(ctx, teacher, "brief.pdf", "application/pdf", strings.NewReader("brief"))
	require.NoError(t, err)
	in := createInput(batchID, fx.clock.Now().Add(time.Hour), nil)
	in.Attachments = []model.AttachmentFile{brief}
	a, err := fx.svc.Create(ctx, teacher, in)
	require.NoError(t, err)

	keys := []string{brief.Key}
	for _, sid := range students[:2] {
		f := fx.put(t, a.AssignmentID, sid, "work.pdf", "x")
		_, err := fx.svc.Submit(ctx, a.AssignmentID, sid, f)
		require.NoError(t, err)
		keys = append(keys, f.Key)
	}
	return deletionSetup{fx: fx, aid: a.AssignmentID, teacher: teacher, students: students, keys: keys}
}

func assertGone(t *testing.T, d deletionSetup) {
	t.Helper()
	ctx := context.Background()
	_, err := d.fx.store.Assignments.FindByID(ctx, d.aid)
	assert.ErrorIs(t, err, model.ErrAssignmentNotFound)
	for _, sid := range d.students {
		_, err := d.fx.store.Submissions.Find(ctx, d.aid, sid)
		assert.ErrorIs(t, err, model.ErrSubmissionRecordNotFound)
	}
}

func TestDeleteCleansUpEveryKeyOnce(t *testing.T) {
	d := setupDeletion(t)

	out, err := d.fx.svc.Delete(context.Background(), d.aid, d.teacher)
	require.NoError(t, err)
	assert.EqualValues(t, 3, out.SubmissionsDeleted)
	assert.ElementsMatch(t, d.keys, out.ObjectKeys)
	assert.True(t, out.CleanupComplete)
	assert.Empty(t, out.Warning)
	assert.Equal(t, 1, out.CleanupAttempts)

	calls := d.fx.objects.calls()
	require.Len(t, calls, 1)
	assert.ElementsMatch(t, d.keys, calls[0])
	assertGone(t, d)
}

func TestDeleteSucceedsOnThirdAttempt(t *testing.T) {
	d := setupDeletion(t)
	d.fx.objects.failDeletes = 2

	out, err := d.fx.svc.Delete(context.Background(), d.aid, d.teacher)
	require.NoError(t, err)
	assert.True(t, out.CleanupComplete)
	assert.Empty(t, out.Warning)
	assert.Equal(t, 3, out.CleanupAttempts)
	assert.Len(t, d.fx.objects.calls(), 3)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, d.fx.sleeps)

	n, err := d.fx.store.Backlog.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assertGone(t, d)
}

func TestDeleteWarnsWhenCleanupGivesUp(t *testing.T) {
	d := setupDeletion(t)
	d.fx.objects.failDeletes = -1

	out, err := d.fx.svc.Delete(context.Background(), d.aid, d.teacher)
	require.NoError(t, err)
	assert.False(t, out.CleanupComplete)
	assert.NotEmpty(t, out.Warning)
	assert.Equal(t, 3, out.CleanupAttempts)
	assert.Len(t, d.fx.objects.calls(), 3)
	assertGone(t, d)

	rows, err := d.fx.store.Backlog.Oldest(context.Background(), 10)
	require.NoError(t, err)
	got := make([]string, 0, len(rows))
	for _, r := range rows {
		got = append(got, r.ObjectCleanupKey)
		assert.Equal(t, reasonAssignmentDelete, r.ObjectCleanupReason)
	}
	assert.ElementsMatch(t, d.keys, got)
}

func TestDeleteRequiresCreator(t *testing.T) {
	d := setupDeletion(t)
	ctx := context.Background()

	_, err := d.fx.svc.Delete(ctx, d.aid, uuid.New())
	assert.ErrorIs(t, err, model.ErrNotAuthorized)
	_, err = d.fx.store.Assignments.FindByID(ctx, d.aid)
	require.NoError(t, err)
	assert.Empty(t, d.fx.objects.calls())

	_, err = d.fx.svc.Delete(ctx, uuid.New(), d.teacher)
	assert.ErrorIs(t, err, model.ErrAssignmentNotFound)
}

func TestDeleteLeavesOtherOwnersObjectsAlone(t *testing.T) {
	d := setupDeletion(t)
	ctx := context.Background()
	victimKey := d.keys[1]
	intruder := uuid.New()
	batchID, _ := testutil.SeedBatch(t, d.fx.db, "other batch", 1)

	in := createInput(batchID, d.fx.clock.Now().Add(time.Hour), nil)
	in.Attachments = []model.AttachmentFile{{Name: "work.pdf", Key: victimKey, MediaType: "application/pdf"}}
	_, err := d.fx.svc.Create(ctx, intruder, in)
	require.ErrorIs(t, err, model.ErrInvalidAttachment)

	// a row written before keys were checked still must not reach other objects
	legacy := &model.AssignmentModel{
		AssignmentID:          uuid.New(),
		AssignmentCreatedBy:   intruder,
		AssignmentPostedTo:    batchID,
		AssignmentTitle:       "legacy",
		AssignmentDeadline:    d.fx.clock.Now().Add(time.Hour),
		AssignmentAttachments: []model.AttachmentFile{{Name: "work.pdf", Key: victimKey, MediaType: "application/pdf"}},
	}
	require.NoError(t, d.fx.store.Assignments.Create(ctx, legacy))

	out, err := d.fx.svc.Delete(ctx, legacy.AssignmentID, intruder)
	require.NoError(t, err)
	assert.Empty(t, out.ObjectKeys)
	assert.Empty(t, d.fx.objects.calls())
	assert.True(t, d.fx.objects.Has(victimKey))

	sub, err := d.fx.store.Submissions.Find(ctx, d.aid, d.students[0])
	require.NoError(t, err)
	assert.Equal(t, victimKey, *sub.SubmissionFileKey)
}

func TestDeleteKeepsAttachmentSharedWithAnotherAssignment(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	teacher := uuid.New()
	batchID, _ := testutil.SeedBatch(t, fx.db, "batch", 1)

	brief, err := fx.svc.StoreAttachment(ctx, teacher, "brief.pdf", "application/pdf", strings.NewReader("brief"))
	require.NoError(t, err)
	in := createInput(batchID, fx.clock.Now().Add(time.Hour), nil)
	in.Attachments = []model.AttachmentFile{brief}
	first, err := fx.svc.Create(ctx, teacher, in)
	require.NoError(t, err)
	second, err := fx.svc.Create(ctx, teacher, in)
	require.NoError(t, err)

	out, err := fx.svc.Delete(ctx, first.AssignmentID, teacher)
	require.NoError(t, err)
	assert.Empty(t, out.ObjectKeys)
	assert.True(t, fx.objects.Has(brief.Key))

	out, err = fx.svc.Delete(ctx, second.AssignmentID, teacher)
	require.NoError(t, err)
	assert.Equal(t, []string{brief.Key}, out.ObjectKeys)
	assert.False(t, fx.objects.Has(brief.Key))
}

func TestCleanupKeys(t *testing.T) {
	teacher := uuid.New()
	a := &model.AssignmentModel{
		AssignmentID:        uuid.New(),
		AssignmentCreatedBy: teacher,
		AssignmentAttachments: []model.AttachmentFile{
			{Key: AttachmentKeyPrefix(teacher) + "mine.pdf"},
			{Key: AttachmentKeyPrefix(teacher) + "shared.pdf"},
			{Key: AttachmentKeyPrefix(uuid.New()) + "theirs.pdf"},
		},
	}
	own := SubmissionKeyPrefix(a.AssignmentID, uuid.New()) + "work.pdf"
	other := SubmissionKeyPrefix(uuid.New(), uuid.New()) + "work.pdf"

	keys, foreign := cleanupKeys(a, []string{own, other, own}, []string{AttachmentKeyPrefix(teacher) + "shared.pdf"})
	assert.Equal(t, []string{AttachmentKeyPrefix(teacher) + "mine.pdf", own}, keys)
	assert.ElementsMatch(t, []string{a.AssignmentAttachments[2].Key, other}, foreign)
}

func TestDedupeKeys(t *testing.T) {
	got := dedupeKeys([]string{"a", "", "b"}, []string{"b", "c", "a"})
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Empty(t, dedupeKeys(nil, []string{""}))
}

// Deadline T, grace until T+2h, three students: A on time, B late, C never.
func TestLifecycleScenario(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	teacher := uuid.New()
	batchID, students := testutil.SeedBatch(t, fx.db, "batch", 3)
	A, B := students[0], students[1]

	T := fx.clock.Now().Add(2 * time.Hour)
	late := T.Add(2 * time.Hour)
	a, err := fx.svc.Create(ctx, teacher, createInput(batchID, T, &late))
	require.NoError(t, err)
	aid := a.AssignmentID

	fx.clock.Set(T.Add(-time.Hour))
	subA, err := fx.svc.Submit(ctx, aid, A, fx.put(t, aid, A, "a.pdf", "A"))
	require.NoError(t, err)
	assert.Equal(t, model.StatusSubmitted, subA.SubmissionStatus)

	fx.clock.Set(T.Add(30 * time.Minute))
	subB, err := fx.svc.Submit(ctx, aid, B, fx.put(t, aid, B, "b.pdf", "B"))
	require.NoError(t, err)
	assert.Equal(t, model.StatusLate, subB.SubmissionStatus)

	fx.clock.Set(T.Add(3 * time.Hour))
	out, err := fx.svc.Delete(ctx, aid, teacher)
	require.NoError(t, err)
	assert.EqualValues(t, 3, out.SubmissionsDeleted)
	assert.Len(t, out.ObjectKeys, 2)
	assert.ElementsMatch(t, []string{*subA.SubmissionFileKey, *subB.SubmissionFileKey}, out.ObjectKeys)
	assert.Empty(t, fx.objects.Keys())
}

func TestPersistErr(t *testing.T) {
	assert.NoError(t, persistErr(nil))
	assert.ErrorIs(t, persistErr(model.ErrNotAuthorized), model.ErrNotAuthorized)
	assert.ErrorIs(t, persistErr(context.Canceled), context.Canceled)

	raw := errors.New("connection reset")
	err := persistErr(raw)
	assert.ErrorIs(t, err, model.ErrPersistenceFailure)
	assert.ErrorIs(t, err, raw)
}
