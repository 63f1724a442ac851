package sqlxrepos

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/smartclassroom/backend/core"
	"github.com/smartclassroom/backend/core/roster"
	"github.com/smartclassroom/backend/core/user"
)

type (
	classRow struct {
		ID       int    `db:"id"`
		Grade    string `db:"grade"`
		Section  string `db:"section"`
		Capacity int    `db:"capacity"`
	}

	studentRow struct {
		ID      int `db:"id"`
		UserID  int `db:"user_id"`
		ClassID int `db:"class_id"`
	}

	teacherRow struct {
		ID         int    `db:"id"`
		UserID     int    `db:"user_id"`
		Subject    string `db:"subject"`
		Department string `db:"department"`
	}

	parentRow struct {
		ID          int      `db:"id"`
		UserID      int      `db:"user_id"`
		ChildUserID null.Int `db:"child_user_id"`
	}

	adminRow struct {
		ID     int `db:"id"`
		UserID int `db:"user_id"`
	}
)

type rosterRepository struct {
	repository
}

var _ roster.Repository = (*rosterRepository)(nil) // interface compliance check

func NewRosterRepository(exec core.DBExecutor) *rosterRepository {
	return &rosterRepository{repository{exec: exec}}
}

func (repo rosterRepository) unboilClass(row classRow) roster.Class {
	return roster.Class{ID: row.ID, Grade: row.Grade, Section: row.Section, Capacity: row.Capacity}
}

func (repo rosterRepository) CreateClass(ctx context.Context, class roster.Class, exec ...core.DBExecutor) (roster.Class, error) {
	id, err := repo.insert(ctx, exec,
		"INSERT INTO classes (grade, section, capacity) VALUES (?, ?, ?)",
		class.Grade, class.Section, class.Capacity)
	if err != nil {
		if isUniqueViolation(err) {
			return roster.Class{}, roster.ErrClassExists
		}
		return roster.Class{}, errors.Wrap(err, "inserting class")
	}
	class.ID = id
	return class, nil
}

func (repo rosterRepository) QueryClasses(ctx context.Context, exec ...core.DBExecutor) ([]roster.Class, error) {
	var rows []classRow
	if err := repo.selectAll(ctx, exec, &rows, "SELECT id, grade, section, capacity FROM classes ORDER BY grade, section"); err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	classes := make([]roster.Class, 0, len(rows))
	for _, row := range rows {
		classes = append(classes, repo.unboilClass(row))
	}
	return classes, nil
}

func (repo rosterRepository) GetClassByID(ctx context.Context, id int, exec ...core.DBExecutor) (roster.Class, error) {
	var row classRow
	if err := repo.get(ctx, exec, &row, "SELECT id, grade, section, capacity FROM classes WHERE id = ?", id); err != nil {
		return roster.Class{}, trapNoRowsErr(err, roster.ErrClassNotFound, "finding class by ID")
	}
	return repo.unboilClass(row), nil
}

func (repo rosterRepository) GetClassByGradeAndSection(ctx context.Context, grade, section string, exec ...core.DBExecutor) (roster.Class, error) {
	var row classRow
	q := "SELECT id, grade, section, capacity FROM classes WHERE grade = ? AND section = ?"
	if err := repo.get(ctx, exec, &row, q, grade, section); err != nil {
		return roster.Class{}, trapNoRowsErr(err, roster.ErrClassNotFound, "finding class by grade and section")
	}
	return repo.unboilClass(row), nil
}

func (repo rosterRepository) CreateProfile(ctx context.Context, p roster.Profile, exec ...core.DBExecutor) (roster.Profile, error) {
	var (
		id  int
		err error
	)
	switch prof := p.(type) {
	case roster.StudentProfile:
		id, err = repo.insert(ctx, exec, "INSERT INTO students (user_id, class_id) VALUES (?, ?)", prof.UserID, prof.ClassID)
		prof.ID = id
		p = prof
	case roster.TeacherProfile:
		id, err = repo.insert(ctx, exec,
			"INSERT INTO teachers (user_id, subject, department) VALUES (?, ?, ?)",
			prof.UserID, prof.Subject, prof.Department)
		prof.ID = id
		p = prof
	case roster.ParentProfile:
		child := null.NewInt(prof.ChildUserID, prof.ChildUserID != 0)
		id, err = repo.insert(ctx, exec, "INSERT INTO parents (user_id, child_user_id) VALUES (?, ?)", prof.UserID, child)
		prof.ID = id
		p = prof
	case roster.AdminProfile:
		id, err = repo.insert(ctx, exec, "INSERT INTO admins (user_id) VALUES (?)", prof.UserID)
		prof.ID = id
		p = prof
	default:
		return nil, fmt.Errorf("unknown profile type %T", p)
	}

	if err != nil {
		if isUniqueViolation(err) {
			return nil, roster.ErrAlreadyAssigned
		}
		return nil, errors.Wrapf(err, "inserting %s profile", p.Role())
	}
	return p, nil
}

func (repo rosterRepository) GetProfile(ctx context.Context, userID int, exec ...core.DBExecutor) (roster.Profile, error) {
	var srow studentRow
	err := repo.get(ctx, exec, &srow, "SELECT id, user_id, class_id FROM students WHERE user_id = ?", userID)
	if err == nil {
		return roster.StudentProfile{ID: srow.ID, UserID: srow.UserID, ClassID: srow.ClassID}, nil
	} else if err = trapNoRowsErr(err, roster.ErrProfileNotFound, "finding student profile"); err != roster.ErrProfileNotFound {
		return nil, err
	}

	var trow teacherRow
	err = repo.get(ctx, exec, &trow, "SELECT id, user_id, subject, department FROM teachers WHERE user_id = ?", userID)
	if err == nil {
		return roster.TeacherProfile{ID: trow.ID, UserID: trow.UserID, Subject: trow.Subject, Department: trow.Department}, nil
	} else if err = trapNoRowsErr(err, roster.ErrProfileNotFound, "finding teacher profile"); err != roster.ErrProfileNotFound {
		return nil, err
	}

	var prow parentRow
	err = repo.get(ctx, exec, &prow, "SELECT id, user_id, child_user_id FROM parents WHERE user_id = ?", userID)
	if err == nil {
		return roster.ParentProfile{ID: prow.ID, UserID: prow.UserID, ChildUserID: prow.ChildUserID.Int}, nil
	} else if err = trapNoRowsErr(err, roster.ErrProfileNotFound, "finding parent profile"); err != roster.ErrProfileNotFound {
		return nil, err
	}

	var arow adminRow
	err = repo.get(ctx, exec, &arow, "SELECT id, user_id FROM admins WHERE user_id = ?", userID)
	if err == nil {
		return roster.AdminProfile{ID: arow.ID, UserID: arow.UserID}, nil
	}
	return nil, trapNoRowsErr(err, roster.ErrProfileNotFound, "finding admin profile")
}

func (repo rosterRepository) GetStudentByID(ctx context.Context, id int, exec ...core.DBExecutor) (roster.StudentProfile, error) {
	var row studentRow
	if err := repo.get(ctx, exec, &row, "SELECT id, user_id, class_id FROM students WHERE id = ?", id); err != nil {
		return roster.StudentProfile{}, trapNoRowsErr(err, roster.ErrStudentNotFound, "finding student by ID")
	}
	return roster.StudentProfile{ID: row.ID, UserID: row.UserID, ClassID: row.ClassID}, nil
}

func (repo rosterRepository) GetTeacherByID(ctx context.Context, id int, exec ...core.DBExecutor) (roster.TeacherProfile, error) {
	var row teacherRow
	if err := repo.get(ctx, exec, &row, "SELECT id, user_id, subject, department FROM teachers WHERE id = ?", id); err != nil {
		return roster.TeacherProfile{}, trapNoRowsErr(err, roster.ErrTeacherNotFound, "finding teacher by ID")
	}
	return roster.TeacherProfile{ID: row.ID, UserID: row.UserID, Subject: row.Subject, Department: row.Department}, nil
}

func (repo rosterRepository) QueryUnassignedUsers(ctx context.Context, exec ...core.DBExecutor) ([]user.User, error) {
	var rows []userRow
	q := "SELECT " + userColumns + ` FROM users u
		WHERE NOT EXISTS (SELECT 1 FROM students WHERE user_id = u.id)
		AND NOT EXISTS (SELECT 1 FROM teachers WHERE user_id = u.id)
		AND NOT EXISTS (SELECT 1 FROM parents WHERE user_id = u.id)
		AND NOT EXISTS (SELECT 1 FROM admins WHERE user_id = u.id)
		ORDER BY u.id`
	if err := repo.selectAll(ctx, exec, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying unassigned users")
	}
	return userRepository{}.unboilSlice(rows), nil
}
