package submission_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartclassroom/backend/core"
	"github.com/smartclassroom/backend/core/assignment"
	"github.com/smartclassroom/backend/core/roster"
	"github.com/smartclassroom/backend/core/submission"
	"github.com/smartclassroom/backend/core/user"
	"github.com/smartclassroom/backend/testutil"
)

type fixture struct {
	svc    *submission.Service
	repos  testutil.Repos
	school testutil.School
	blobs  *testutil.MemBlobStore
	asgmt  assignment.Assignment
	qs     []assignment.Question
}

func setup(t *testing.T) fixture {
	_, db, repos := testutil.Setup(t)
	school := testutil.NewSchool(t, repos)
	blobs := &testutil.MemBlobStore{}
	asgmt, qs := testutil.CreateAssignment(t, repos.Assignments, school.Teacher.ID, school.Class.ID, assignment.TypeFile,
		assignment.Question{Text: "Upload your essay", Marks: 10},
		assignment.Question{Text: "Upload your drawing", Marks: 5},
	)
	return fixture{
		svc:    submission.NewService(db, repos.Submissions, repos.Assignments, repos.Roster, blobs, core.NewValidator()),
		repos:  repos,
		school: school,
		blobs:  blobs,
		asgmt:  asgmt,
		qs:     qs,
	}
}

func TestService_Submit(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	responses, err := f.svc.Submit(ctx, submission.NewSubmission{
		AssignmentID: f.asgmt.ID,
		StudentID:    f.school.Student.ID,
		Entries: []submission.Entry{
			{QuestionID: f.qs[0].ID, Response: testutil.StrPtr("see attachment"), FileName: "essay.pdf"},
			{QuestionID: f.qs[1].ID, FileName: "missing.png"},
		},
	}, []submission.File{{Name: "essay.pdf", Content: strings.NewReader("%PDF")}})
	require.NoError(t, err)
	require.Len(t, responses, 2)

	first := responses[0]
	assert.NotZero(t, first.ID)
	assert.Equal(t, submission.StatusUngraded, first.Status)
	assert.Equal(t, "see attachment", *first.Response)
	require.NotNil(t, first.FileURL)
	key := fmt.Sprintf("%d/%d/essay.pdf", f.asgmt.ID, f.school.Student.ID)
	assert.Equal(t, "mem://"+key, *first.FileURL)
	assert.Equal(t, []byte("%PDF"), f.blobs.Blobs[key])

	// unknown file names resolve to no file
	assert.Nil(t, responses[1].FileURL)
	assert.Nil(t, responses[1].Response)

	// submitting again appends
	_, err = f.svc.Submit(ctx, submission.NewSubmission{
		AssignmentID: f.asgmt.ID,
		StudentID:    f.school.Student.ID,
		Entries:      []submission.Entry{{QuestionID: f.qs[0].ID}},
	}, nil)
	require.NoError(t, err)
	all, err := f.svc.QueryByAssignment(ctx, f.asgmt.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestService_SubmitInvalid(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	intruder := testutil.CreateClass(t, f.repos.Roster, "12", "C")
	other := testutil.CreateUser(t, f.repos.Users, "mark", "mark@example.com", "", user.RoleStudent)
	otherStudent := testutil.CreateProfile(t, f.repos.Roster, roster.StudentProfile{UserID: other.ID, ClassID: intruder.ID}).(roster.StudentProfile)
	_, foreign := testutil.CreateAssignment(t, f.repos.Assignments, f.school.Teacher.ID, f.school.Class.ID, assignment.TypeFile,
		assignment.Question{Text: "Unrelated"})

	entries := []submission.Entry{{QuestionID: f.qs[0].ID}}
	tests := []struct {
		name    string
		ns      submission.NewSubmission
		files   []submission.File
		wantErr error
	}{
		{
			name:    "unknown assignment",
			ns:      submission.NewSubmission{AssignmentID: 999, StudentID: f.school.Student.ID, Entries: entries},
			wantErr: assignment.ErrNotFound,
		},
		{
			name:    "unknown student",
			ns:      submission.NewSubmission{AssignmentID: f.asgmt.ID, StudentID: 999, Entries: entries},
			wantErr: roster.ErrStudentNotFound,
		},
		{
			name:    "student of another class",
			ns:      submission.NewSubmission{AssignmentID: f.asgmt.ID, StudentID: otherStudent.ID, Entries: entries},
			wantErr: submission.ErrNotInClass,
		},
		{
			name: "question of another assignment",
			ns: submission.NewSubmission{
				AssignmentID: f.asgmt.ID,
				StudentID:    f.school.Student.ID,
				Entries:      []submission.Entry{{QuestionID: foreign[0].ID}},
			},
			wantErr: submission.ErrForeignQuestion,
		},
		{
			name:    "duplicate upload",
			ns:      submission.NewSubmission{AssignmentID: f.asgmt.ID, StudentID: f.school.Student.ID, Entries: entries},
			files:   []submission.File{{Name: "a.txt", Content: strings.NewReader("1")}, {Name: "a.txt", Content: strings.NewReader("2")}},
			wantErr: submission.ErrDuplicateUpload,
		},
		{
			name: "same name in different folders",
			ns:   submission.NewSubmission{AssignmentID: f.asgmt.ID, StudentID: f.school.Student.ID, Entries: entries},
			files: []submission.File{
				{Name: "essay/answer.pdf", Content: strings.NewReader("ESSAY")},
				{Name: "drawing/answer.pdf", Content: strings.NewReader("DRAWING")},
			},
			wantErr: submission.ErrDuplicateUpload,
		},
		{
			name:    "invalid file name",
			ns:      submission.NewSubmission{AssignmentID: f.asgmt.ID, StudentID: f.school.Student.ID, Entries: entries},
			files:   []submission.File{{Name: "/", Content: strings.NewReader("1")}},
			wantErr: submission.ErrInvalidFileName,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Submit(ctx, tt.ns, tt.files)
			assert.Equal(t, tt.wantErr, err)
		})
	}
	// the first of two same-named uploads is never overwritten
	assert.Equal(t, []byte("ESSAY"), f.blobs.Blobs[fmt.Sprintf("%d/%d/answer.pdf", f.asgmt.ID, f.school.Student.ID)])

	_, err := f.svc.Submit(ctx, submission.NewSubmission{AssignmentID: f.asgmt.ID, StudentID: f.school.Student.ID}, nil)
	var vErr *core.ValidationError
	assert.True(t, errors.As(err, &vErr))

	f.blobs.Err = errors.New("disk full")
	_, err = f.svc.Submit(ctx, submission.NewSubmission{AssignmentID: f.asgmt.ID, StudentID: f.school.Student.ID, Entries: entries},
		[]submission.File{{Name: "a.txt", Content: strings.NewReader("1")}})
	assert.Error(t, err)

	responses, err := f.repos.Submissions.QueryResponses(ctx, submission.QueryFilter{AssignmentID: f.asgmt.ID})
	require.NoError(t, err)
	assert.Empty(t, responses)
}

func TestService_Grade(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	responses, err := f.svc.Submit(ctx, submission.NewSubmission{
		AssignmentID: f.asgmt.ID,
		StudentID:    f.school.Student.ID,
		Entries:      []submission.Entry{{QuestionID: f.qs[1].ID}},
	}, nil)
	require.NoError(t, err)
	resp := responses[0]

	tests := []struct {
		name    string
		mg      submission.ManualGrade
		wantErr bool
	}{
		{name: "missing marks", mg: submission.ManualGrade{}, wantErr: true},
		{name: "negative", mg: submission.ManualGrade{ObtainedMarks: testutil.IntPtr(-1)}, wantErr: true},
		{name: "above max", mg: submission.ManualGrade{ObtainedMarks: testutil.IntPtr(6)}, wantErr: true},
		{name: "zero", mg: submission.ManualGrade{ObtainedMarks: testutil.IntPtr(0)}},
		{name: "max", mg: submission.ManualGrade{ObtainedMarks: testutil.IntPtr(5), Feedback: " Neat work "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.svc.Grade(ctx, resp.ID, tt.mg)
			if tt.wantErr {
				assert.True(t, errors.Is(err, core.ErrBadRequest), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, *tt.mg.ObtainedMarks, *got.ObtainedMarks)
			assert.Equal(t, submission.StatusManuallyGraded, got.Status)
			assert.False(t, got.ReviewedByAI)
			assert.NotNil(t, got.GradedAt)
		})
	}

	stored, err := f.svc.Get(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, *stored.ObtainedMarks)
	assert.Equal(t, "Neat work", stored.Feedback)

	_, err = f.svc.Grade(ctx, 999, submission.ManualGrade{ObtainedMarks: testutil.IntPtr(1)})
	assert.Equal(t, submission.ErrNotFound, err)
}

func TestService_QueryByAssignment(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	responses, err := f.svc.Submit(ctx, submission.NewSubmission{
		AssignmentID: f.asgmt.ID,
		StudentID:    f.school.Student.ID,
		Entries:      []submission.Entry{{QuestionID: f.qs[0].ID}, {QuestionID: f.qs[1].ID}},
	}, nil)
	require.NoError(t, err)
	_, err = f.svc.Grade(ctx, responses[0].ID, submission.ManualGrade{ObtainedMarks: testutil.IntPtr(7)})
	require.NoError(t, err)

	graded, err := f.svc.QueryByAssignment(ctx, f.asgmt.ID, submission.StatusManuallyGraded)
	require.NoError(t, err)
	require.Len(t, graded, 1)
	assert.Equal(t, responses[0].ID, graded[0].ID)

	ungraded, err := f.svc.QueryByAssignment(ctx, f.asgmt.ID, submission.StatusUngraded)
	require.NoError(t, err)
	require.Len(t, ungraded, 1)
	assert.Equal(t, responses[1].ID, ungraded[0].ID)

	_, err = f.svc.QueryByAssignment(ctx, f.asgmt.ID, "done")
	assert.Equal(t, submission.ErrInvalidStatus, err)
	_, err = f.svc.QueryByAssignment(ctx, 999, "")
	assert.Equal(t, assignment.ErrNotFound, err)
}
