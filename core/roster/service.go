package roster

import (
	"context"
	"fmt"
	"strings"

	"github.com/smartclassroom/backend/core"
	"github.com/smartclassroom/backend/core/user"
)

var (
	// errors
	ErrClassNotFound    = core.NewError(core.ErrNotFound, "class not found")
	ErrClassExists      = core.NewError(core.ErrConflict, "a class with this grade and section already exists")
	ErrProfileNotFound  = core.NewError(core.ErrNotFound, "profile not found")
	ErrStudentNotFound  = core.NewError(core.ErrNotFound, "student not found")
	ErrTeacherNotFound  = core.NewError(core.ErrNotFound, "teacher not found")
	ErrAlreadyAssigned  = core.NewError(core.ErrConflict, "user already has a role assigned")
	ErrInvalidRole      = core.NewError(core.ErrBadRequest, "invalid role")
	ErrClassIDRequired  = core.NewError(core.ErrBadRequest, "class_id is required for students")
	ErrTeacherFieldsReq = core.NewError(core.ErrBadRequest, "department and subject are required for teachers")
)

type (
	Repository interface {
		CreateClass(ctx context.Context, class Class, exec ...core.DBExecutor) (Class, error)
		QueryClasses(ctx context.Context, exec ...core.DBExecutor) ([]Class, error)
		GetClassByID(ctx context.Context, id int, exec ...core.DBExecutor) (Class, error)
		GetClassByGradeAndSection(ctx context.Context, grade, section string, exec ...core.DBExecutor) (Class, error)

		// CreateProfile inserts p and returns it with its ID set.
		CreateProfile(ctx context.Context, p Profile, exec ...core.DBExecutor) (Profile, error)
		// GetProfile returns the profile of the user or ErrProfileNotFound if it is unassigned.
		GetProfile(ctx context.Context, userID int, exec ...core.DBExecutor) (Profile, error)
		GetStudentByID(ctx context.Context, id int, exec ...core.DBExecutor) (StudentProfile, error)
		GetTeacherByID(ctx context.Context, id int, exec ...core.DBExecutor) (TeacherProfile, error)
		QueryUnassignedUsers(ctx context.Context, exec ...core.DBExecutor) ([]user.User, error)
	}

	Service struct {
		db        core.DB
		repo      Repository
		users     user.Repository
		validator *core.Validator
	}
)

func NewService(db core.DB, repo Repository, users user.Repository, validator *core.Validator) *Service {
	return &Service{db: db, repo: repo, users: users, validator: validator}
}

func (svc *Service) CreateClass(ctx context.Context, nc NewClass) (Class, error) {
	nc.Clean()
	if err := svc.validator.Struct(&nc); err != nil {
		return Class{}, err
	}

	var class Class
	err := core.RunInTx(ctx, svc.db, func(exec core.DBExecutor) error {
		if _, err := svc.repo.GetClassByGradeAndSection(ctx, nc.Grade, nc.Section, exec); err == nil {
			return ErrClassExists
		} else if err != ErrClassNotFound {
			return err
		}

		var err error
		class, err = svc.repo.CreateClass(ctx, Class{Grade: nc.Grade, Section: nc.Section, Capacity: nc.Capacity}, exec)
		return err
	})
	return class, err
}

func (svc *Service) QueryClasses(ctx context.Context) ([]Class, error) {
	return svc.repo.QueryClasses(ctx)
}

// GetClassID looks up a class by grade and section.
func (svc *Service) GetClassID(ctx context.Context, grade, section string) (int, error) {
	class, err := svc.repo.GetClassByGradeAndSection(ctx, core.CleanString(grade), core.CleanString(section))
	if err != nil {
		return 0, err
	}
	return class.ID, nil
}

// AssignRole attaches a student or teacher profile to an unassigned user.
func (svc *Service) AssignRole(ctx context.Context, ar AssignRole) (Profile, error) {
	ar.Clean()
	if err := svc.validator.Struct(&ar); err != nil {
		return nil, err
	}

	var profile Profile
	err := core.RunInTx(ctx, svc.db, func(exec core.DBExecutor) error {
		if _, err := svc.users.GetUserByID(ctx, ar.UserID, exec); err != nil {
			return err
		}

		switch ar.Role {
		case user.RoleStudent:
			if ar.ClassID == nil {
				return ErrClassIDRequired
			}
			profile = StudentProfile{UserID: ar.UserID, ClassID: *ar.ClassID}
		case user.RoleTeacher:
			if ar.Subject == "" || ar.Department == "" {
				return ErrTeacherFieldsReq
			}
			profile = TeacherProfile{UserID: ar.UserID, Subject: ar.Subject, Department: ar.Department}
		default:
			return ErrInvalidRole
		}

		if err := svc.ensureUnassigned(ctx, ar.UserID, exec); err != nil {
			return err
		}
		if sp, ok := profile.(StudentProfile); ok {
			if _, err := svc.repo.GetClassByID(ctx, sp.ClassID, exec); err != nil {
				return err
			}
		}

		var err error
		profile, err = svc.repo.CreateProfile(ctx, profile, exec)
		return err
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// CreateAdmin attaches an admin profile to the user.
func (svc *Service) CreateAdmin(ctx context.Context, userID int) (AdminProfile, error) {
	var profile Profile
	err := core.RunInTx(ctx, svc.db, func(exec core.DBExecutor) error {
		if _, err := svc.users.GetUserByID(ctx, userID, exec); err != nil {
			return err
		}
		if err := svc.ensureUnassigned(ctx, userID, exec); err != nil {
			return err
		}

		var err error
		profile, err = svc.repo.CreateProfile(ctx, AdminProfile{UserID: userID}, exec)
		return err
	})
	if err != nil {
		return AdminProfile{}, err
	}
	return profile.(AdminProfile), nil
}

func (svc *Service) ensureUnassigned(ctx context.Context, userID int, exec core.DBExecutor) error {
	_, err := svc.repo.GetProfile(ctx, userID, exec)
	switch err {
	case nil:
		return ErrAlreadyAssigned
	case ErrProfileNotFound:
		return nil
	default:
		return err
	}
}

// Profile returns the profile of the user, or ErrProfileNotFound if it has none yet.
func (svc *Service) Profile(ctx context.Context, userID int) (Profile, error) {
	return svc.repo.GetProfile(ctx, userID)
}

func (svc *Service) StudentMeta(ctx context.Context, userID int) (StudentMeta, error) {
	sp, err := svc.StudentByUser(ctx, userID)
	if err != nil {
		return StudentMeta{}, err
	}
	class, err := svc.repo.GetClassByID(ctx, sp.ClassID)
	if err != nil {
		return StudentMeta{}, err
	}
	return StudentMeta{
		StudentID: sp.ID,
		UserID:    sp.UserID,
		ClassID:   class.ID,
		Grade:     class.Grade,
		Section:   class.Section,
	}, nil
}

func (svc *Service) TeacherMeta(ctx context.Context, userID int) (TeacherProfile, error) {
	p, err := svc.repo.GetProfile(ctx, userID)
	if err != nil {
		if err == ErrProfileNotFound {
			return TeacherProfile{}, ErrTeacherNotFound
		}
		return TeacherProfile{}, err
	}
	tp, ok := p.(TeacherProfile)
	if !ok {
		return TeacherProfile{}, ErrTeacherNotFound
	}
	return tp, nil
}

// StudentByUser returns the student profile of the user.
func (svc *Service) StudentByUser(ctx context.Context, userID int) (StudentProfile, error) {
	p, err := svc.repo.GetProfile(ctx, userID)
	if err != nil {
		if err == ErrProfileNotFound {
			return StudentProfile{}, ErrStudentNotFound
		}
		return StudentProfile{}, err
	}
	sp, ok := p.(StudentProfile)
	if !ok {
		return StudentProfile{}, ErrStudentNotFound
	}
	return sp, nil
}

func (svc *Service) QueryUnassignedUsers(ctx context.Context) ([]user.User, error) {
	return svc.repo.QueryUnassignedUsers(ctx)
}

// RoleAssignedMessage is the confirmation returned once a profile has been attached.
func RoleAssignedMessage(p Profile) string {
	role := string(p.Role())
	return fmt.Sprintf("%s%s assigned successfully", strings.ToUpper(role[:1]), role[1:])
}
