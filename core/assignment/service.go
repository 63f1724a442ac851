package assignment

import (
	"context"
	"fmt"
	"time"

	"github.com/smartclassroom/backend/core"
	"github.com/smartclassroom/backend/core/genai"
	"github.com/smartclassroom/backend/core/roster"
)

var (
	// errors
	ErrNotFound         = core.NewError(core.ErrNotFound, "assignment not found")
	ErrQuestionNotFound = core.NewError(core.ErrNotFound, "question not found")
	ErrInvalidType      = core.NewError(core.ErrBadRequest, "invalid assignment type")
	ErrTopicRequired    = core.NewError(core.ErrBadRequest, "topic is required")

	defaultQuestionCount = 5
	nowFunc              = time.Now // mockable
)

type (
	Repository interface {
		CreateAssignment(ctx context.Context, a Assignment, exec ...core.DBExecutor) (Assignment, error)
		CreateQuestion(ctx context.Context, q Question, exec ...core.DBExecutor) (Question, error)
		GetAssignmentByID(ctx context.Context, id int, exec ...core.DBExecutor) (Assignment, error)
		QueryAssignments(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]Assignment, error)
		GetQuestionByID(ctx context.Context, id int, exec ...core.DBExecutor) (Question, error)
		// QueryQuestions returns the questions of the assignment in insertion order.
		QueryQuestions(ctx context.Context, assignmentID int, exec ...core.DBExecutor) ([]Question, error)
	}

	Service struct {
		db             core.DB
		repo           Repository
		roster         roster.Repository
		gateway        genai.Gateway
		validator      *core.Validator
		dueDateLayouts []string
	}
)

func NewService(
	conf *core.Config,
	db core.DB,
	repo Repository,
	rosterRepo roster.Repository,
	gateway genai.Gateway,
	validator *core.Validator,
) *Service {
	return &Service{
		db:             db,
		repo:           repo,
		roster:         rosterRepo,
		gateway:        gateway,
		validator:      validator,
		dueDateLayouts: conf.Assignment.DueDateLayouts,
	}
}

// Create persists the assignment and all its questions atomically.
func (svc *Service) Create(ctx context.Context, na NewAssignment) (Assignment, error) {
	na.Clean()
	if err := svc.validator.Struct(&na); err != nil {
		return Assignment{}, err
	}

	typ, err := ParseType(na.Type)
	if err != nil {
		return Assignment{}, core.NewValidationError(err, core.FieldError{Field: "assignment_type", Error: err.Error()})
	}
	if flds := validateQuestions(typ, na.Questions); len(flds) > 0 {
		return Assignment{}, core.NewValidationError(nil, flds...)
	}
	dueDate, err := svc.parseDueDate(na.DueDate)
	if err != nil {
		return Assignment{}, err
	}

	var asgmt Assignment
	err = core.RunInTx(ctx, svc.db, func(exec core.DBExecutor) error {
		if _, err := svc.roster.GetTeacherByID(ctx, na.TeacherID, exec); err != nil {
			return err
		}
		if _, err := svc.roster.GetClassByID(ctx, na.ClassID, exec); err != nil {
			return err
		}

		var err error
		asgmt, err = svc.repo.CreateAssignment(ctx, Assignment{
			Title:     na.Title,
			Subject:   na.Subject,
			TeacherID: na.TeacherID,
			ClassID:   na.ClassID,
			DueDate:   dueDate,
			Type:      typ,
			CreatedAt: nowFunc().UTC(),
		}, exec)
		if err != nil {
			return core.WrapError(core.ErrRollback, err, "assignment failed")
		}

		for i, nq := range na.Questions {
			q := Question{
				AssignmentID:  asgmt.ID,
				Position:      i + 1,
				Text:          nq.Text,
				Options:       nq.Options,
				CorrectAnswer: nq.CorrectAnswer,
				Marks:         nq.Marks,
			}
			if _, err := svc.repo.CreateQuestion(ctx, q, exec); err != nil {
				return core.WrapError(core.ErrRollback, err, "assignment failed")
			}
		}
		return nil
	})
	if err != nil {
		return Assignment{}, err
	}
	return asgmt, nil
}

// validateQuestions checks that options and a correct answer are given iff typ is TypeMCQ.
func validateQuestions(typ Type, questions []NewQuestion) []core.FieldError {
	var flds []core.FieldError
	for i, q := range questions {
		prefix := fmt.Sprintf("questions[%d].", i)
		hasAnswer := q.CorrectAnswer != nil && core.CleanString(*q.CorrectAnswer) != ""
		if typ == TypeMCQ {
			if len(q.Options) == 0 {
				flds = append(flds, core.FieldError{Field: prefix + "options", Error: "options are required for mcq questions"})
			}
			if !hasAnswer {
				flds = append(flds, core.FieldError{Field: prefix + "correct_answer", Error: "a correct answer is required for mcq questions"})
			}
			continue
		}
		if len(q.Options) > 0 {
			flds = append(flds, core.FieldError{Field: prefix + "options", Error: "options are only allowed on mcq questions"})
		}
		if q.CorrectAnswer != nil {
			flds = append(flds, core.FieldError{Field: prefix + "correct_answer", Error: "a correct answer is only allowed on mcq questions"})
		}
	}
	return flds
}

// parseDueDate parses s with the configured layouts. Layouts without a zone are read as UTC.
func (svc *Service) parseDueDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range svc.dueDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, core.NewValidationError(nil, core.FieldError{Field: "due_date", Error: "invalid date format, use ISO 8601"})
}

// GenerateQuestions asks the gateway to draft questions and returns its text as is.
func (svc *Service) GenerateQuestions(ctx context.Context, req GenerateRequest) (string, error) {
	topic := core.CleanString(req.Topic)
	if topic == "" {
		return "", ErrTopicRequired
	}
	grade := core.CleanString(req.Grade)
	if grade == "" {
		grade = "general"
	}
	count := req.Count
	if count <= 0 {
		count = defaultQuestionCount
	}

	kind := genai.DescriptiveQuestions
	if typ, err := ParseType(req.Type); err == nil {
		switch typ {
		case TypeMCQ:
			kind = genai.MCQQuestions
		case TypeProblem:
			kind = genai.ProblemQuestions
		}
	}

	prompt := genai.QuestionsPrompt(kind, count, topic, grade, core.CleanString(req.Description))
	out, err := svc.gateway.Generate(ctx, prompt)
	if err != nil {
		return "", core.WrapError(core.ErrService, err, "AI model error")
	}
	return out, nil
}

func (svc *Service) Get(ctx context.Context, id int) (Assignment, error) {
	return svc.repo.GetAssignmentByID(ctx, id)
}

// QueryForStudent returns the assignments of the class the student belongs to.
func (svc *Service) QueryForStudent(ctx context.Context, userID int) ([]Assignment, error) {
	p, err := svc.roster.GetProfile(ctx, userID)
	if err != nil {
		if err == roster.ErrProfileNotFound {
			return nil, roster.ErrStudentNotFound
		}
		return nil, err
	}
	sp, ok := p.(roster.StudentProfile)
	if !ok {
		return nil, roster.ErrStudentNotFound
	}
	return svc.repo.QueryAssignments(ctx, QueryFilter{ClassID: sp.ClassID})
}

func (svc *Service) QueryForTeacher(ctx context.Context, teacherID int) ([]Assignment, error) {
	if _, err := svc.roster.GetTeacherByID(ctx, teacherID); err != nil {
		return nil, err
	}
	return svc.repo.QueryAssignments(ctx, QueryFilter{TeacherID: teacherID})
}

// Questions returns the questions of the assignment in insertion order.
func (svc *Service) Questions(ctx context.Context, assignmentID int) ([]Question, error) {
	questions, err := svc.repo.QueryQuestions(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, ErrNotFound
	}
	for i := range questions {
		questions[i].Options = DecodeOptions(questions[i].RawOptions)
	}
	return questions, nil
}
