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
	"go.uber.org/zap"

	"classroom_backend/internals/constants"
	model "classroom_backend/internals/features/school/assignments/model"
	batchService "classroom_backend/internals/features/school/batches/service"
	"classroom_backend/internals/helpers/apperr"
	helperAuth "classroom_backend/internals/helpers/auth"
	"classroom_backend/internals/testutil"
)

func createInput(batchID uuid.UUID, deadline time.Time, late *time.Time) CreateAssignmentInput {
	return CreateAssignmentInput{
		Title:        "Lab report",
		Deadline:     deadline,
		LateDeadline: late,
		PostedTo:     batchID,
	}
}

func TestCreateFansOutOnePlaceholderPerStudent(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	teacher := uuid.New()

	for _, n := range []int{0, 1, 7} {
		batchID, students := testutil.SeedBatch(t, fx.db, "batch", n)
		a, err := fx.svc.Create(ctx, teacher, createInput(batchID, fx.clock.Now().Add(time.Hour), nil))
		require.NoError(t, err)

		rows := submissionsOf(t, fx, a.AssignmentID)
		require.Len(t, rows, n)

		got := map[uuid.UUID]bool{}
		for _, r := range rows {
			assert.Equal(t, model.StatusNotSubmitted, r.SubmissionStatus)
			assert.False(t, r.HasFile())
			got[r.SubmissionStudentID] = true
		}
		for _, sid := range students {
			assert.True(t, got[sid], "missing placeholder for %s", sid)
		}
	}
}

func TestCreateUnknownBatch(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	teacher := uuid.New()

	_, err := fx.svc.Create(ctx, teacher, createInput(uuid.New(), fx.clock.Now().Add(time.Hour), nil))
	assert.ErrorIs(t, err, batchService.ErrBatchNotFound)

	rows, total, err := fx.svc.List(ctx, helperAuth.Caller{ID: teacher, Role: constants.RoleTeacher}, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, rows)
}

func TestCreateRollsBackWhenRosterFails(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	teacher := uuid.New()
	batchID, _ := testutil.SeedBatch(t, fx.db, "batch", 3)

	svc := New(fx.store, failingRoster{RosterProvider: batchService.NewRoster(fx.db), err: errors.New("roster timeout")},
		fx.objects, zap.NewNop(), WithClock(fx.clock.Now))

	_, err := svc.Create(ctx, teacher, createInput(batchID, fx.clock.Now().Add(time.Hour), nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrPersistenceFailure)

	var n int64
	require.NoError(t, fx.db.Model(&model.AssignmentModel{}).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, fx.db.Model(&model.SubmissionModel{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestCreateValidation(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	batchID, _ := testutil.SeedBatch(t, fx.db, "batch", 2)
	now := fx.clock.Now()
	past := now.Add(-time.Hour)
	soon := now.Add(time.Hour)
	later := now.Add(2 * time.Hour)
	teacher := uuid.New()

	file := model.AttachmentFile{Name: "a.pdf", Key: AttachmentKeyPrefix(teacher) + "a.pdf", MediaType: "application/pdf"}

	cases := []struct {
		name string
		mut  func(in *CreateAssignmentInput)
	}{
		{"empty title", func(in *CreateAssignmentInput) { in.Title = "  " }},
		{"past deadline", func(in *CreateAssignmentInput) { in.Deadline = past }},
		{"late before deadline", func(in *CreateAssignmentInput) { in.Deadline = later; in.LateDeadline = &soon }},
		{"late equals deadline", func(in *CreateAssignmentInput) { in.LateDeadline = &soon }},
		{"late deadline in the past", func(in *CreateAssignmentInput) {
			d := now.Add(-2 * time.Hour)
			in.Deadline = d
			in.LateDeadline = &past
		}},
		{"too many attachments", func(in *CreateAssignmentInput) { in.Attachments = []model.AttachmentFile{file, file, file} }},
		{"incomplete attachment", func(in *CreateAssignmentInput) {
			in.Attachments = []model.AttachmentFile{{Name: "x.pdf", Key: "k"}}
		}},
		{"missing batch", func(in *CreateAssignmentInput) { in.PostedTo = uuid.Nil }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := createInput(batchID, soon, nil)
			tc.mut(&in)
			_, err := fx.svc.Create(ctx, teacher, in)
			assert.ErrorIs(t, err, model.ErrInvalidAssignmentFields)
			assert.Equal(t, apperr.Validation, apperr.KindOf(err))
		})
	}

	// past deadline is fine while the grace period is still ahead
	in := createInput(batchID, past, &soon)
	in.Attachments = []model.AttachmentFile{file, file}
	_, err := fx.svc.Create(ctx, teacher, in)
	assert.NoError(t, err)
}

func TestCreateRejectsAttachmentOutsideTeacherArea(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	batchID, _ := testutil.SeedBatch(t, fx.db, "batch", 1)
	teacher := uuid.New()

	for _, key := range []string{
		"submissions/" + uuid.NewString() + "/" + uuid.NewString() + "/work.pdf",
		AttachmentKeyPrefix(uuid.New()) + "brief.pdf",
		AttachmentKeyPrefix(teacher) + "../other/brief.pdf",
		AttachmentKeyPrefix(teacher),
	} {
		in := createInput(batchID, fx.clock.Now().Add(time.Hour), nil)
		in.Attachments = []model.AttachmentFile{{Name: "brief.pdf", Key: key, MediaType: "application/pdf"}}
		_, err := fx.svc.Create(ctx, teacher, in)
		assert.ErrorIs(t, err, model.ErrInvalidAttachment, key)
	}
}

func TestTeacherAttachmentUploads(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	batchID, _ := testutil.SeedBatch(t, fx.db, "batch", 1)
	teacher := uuid.New()

	f, err := fx.svc.StoreAttachment(ctx, teacher, "Brief.pdf", "application/pdf", strings.NewReader("read me"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(f.Key, AttachmentKeyPrefix(teacher)))
	assert.True(t, fx.objects.Has(f.Key))

	in := createInput(batchID, fx.clock.Now().Add(time.Hour), nil)
	in.Attachments = []model.AttachmentFile{f}
	_, err = fx.svc.Create(ctx, teacher, in)
	require.NoError(t, err)

	_, err = fx.svc.StoreAttachment(ctx, teacher, " ", "application/pdf", strings.NewReader("x"))
	assert.ErrorIs(t, err, model.ErrInvalidAttachment)

	// the plain store cannot sign
	_, err = fx.svc.AttachmentUploadURL(ctx, teacher, "brief.pdf", "application/pdf")
	assert.ErrorIs(t, err, model.ErrObjectStoreUnavailable)

	svc := New(fx.store, batchService.NewRoster(fx.db), presignStore{fx.objects}, zap.NewNop(), WithClock(fx.clock.Now))
	ticket, err := svc.AttachmentUploadURL(ctx, teacher, "brief.pdf", "application/pdf")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ticket.Key, AttachmentKeyPrefix(teacher)))
	assert.Equal(t, "PUT", ticket.Method)
}

func TestListAndGetByRole(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	teacher, other := uuid.New(), uuid.New()
	batchID, students := testutil.SeedBatch(t, fx.db, "batch", 2)
	otherBatch, _ := testutil.SeedBatch(t, fx.db, "other", 1)

	a, err := fx.svc.Create(ctx, teacher, createInput(batchID, fx.clock.Now().Add(time.Hour), nil))
	require.NoError(t, err)
	_, err = fx.svc.Create(ctx, other, createInput(otherBatch, fx.clock.Now().Add(time.Hour), nil))
	require.NoError(t, err)

	asTeacher := helperAuth.Caller{ID: teacher, Role: constants.RoleTeacher}
	asOther := helperAuth.Caller{ID: other, Role: constants.RoleTeacher}
	asStudent := helperAuth.Caller{ID: students[0], Role: constants.RoleStudent}
	asStranger := helperAuth.Caller{ID: uuid.New(), Role: constants.RoleStudent}
	asAdmin := helperAuth.Caller{ID: uuid.New(), Role: constants.RoleAdmin}

	rows, total, err := fx.svc.List(ctx, asTeacher, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, a.AssignmentID, rows[0].AssignmentID)

	rows, _, err = fx.svc.List(ctx, asStudent, 0, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, a.AssignmentID, rows[0].AssignmentID)

	_, total, err = fx.svc.List(ctx, asStranger, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)

	_, total, err = fx.svc.List(ctx, asAdmin, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	d, err := fx.svc.Get(ctx, asTeacher, a.AssignmentID)
	require.NoError(t, err)
	require.NotNil(t, d.Rollup)
	assert.Equal(t, StatusRollup{NotSubmitted: 2, Total: 2}, *d.Rollup)

	d, err = fx.svc.Get(ctx, asStudent, a.AssignmentID)
	require.NoError(t, err)
	require.NotNil(t, d.Submission)
	assert.Equal(t, students[0], d.Submission.SubmissionStudentID)
	assert.Nil(t, d.Rollup)

	_, err = fx.svc.Get(ctx, asStranger, a.AssignmentID)
	assert.ErrorIs(t, err, model.ErrAssignmentNotFound)

	_, err = fx.svc.Get(ctx, asOther, a.AssignmentID)
	assert.ErrorIs(t, err, model.ErrNotAuthorized)

	_, err = fx.svc.Get(ctx, asTeacher, uuid.New())
	assert.ErrorIs(t, err, model.ErrAssignmentNotFound)
}

func TestUpdate(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	teacher := uuid.New()
	batchID, _ := testutil.SeedBatch(t, fx.db, "batch", 1)
	now := fx.clock.Now()

	a, err := fx.svc.Create(ctx, teacher, createInput(batchID, now.Add(time.Hour), nil))
	require.NoError(t, err)

	_, err = fx.svc.Update(ctx, uuid.New(), a.AssignmentID, UpdateAssignmentInput{})
	assert.ErrorIs(t, err, model.ErrNotAuthorized)

	title := "Lab report (revised)"
	late := now.Add(3 * time.Hour)
	got, err := fx.svc.Update(ctx, teacher, a.AssignmentID, UpdateAssignmentInput{Title: &title, LateDeadline: &late})
	require.NoError(t, err)
	assert.Equal(t, title, got.AssignmentTitle)
	require.NotNil(t, got.AssignmentLateDeadline)
	assert.True(t, got.AssignmentLateDeadline.Equal(late))

	// deadline moved past the late deadline
	bad := now.Add(4 * time.Hour)
	_, err = fx.svc.Update(ctx, teacher, a.AssignmentID, UpdateAssignmentInput{Deadline: &bad})
	assert.ErrorIs(t, err, model.ErrInvalidAssignmentFields)

	// closing the window retroactively
	past := now.Add(-time.Hour)
	_, err = fx.svc.Update(ctx, teacher, a.AssignmentID, UpdateAssignmentInput{Deadline: &past, ClearLateDeadline: true})
	assert.ErrorIs(t, err, model.ErrInvalidAssignmentFields)

	empty := " "
	_, err = fx.svc.Update(ctx, teacher, a.AssignmentID, UpdateAssignmentInput{Title: &empty})
	assert.ErrorIs(t, err, model.ErrInvalidAssignmentFields)

	got, err = fx.svc.Update(ctx, teacher, a.AssignmentID, UpdateAssignmentInput{ClearLateDeadline: true})
	require.NoError(t, err)
	assert.Nil(t, got.AssignmentLateDeadline)
}
