package roster

import (
	"github.com/smartclassroom/backend/core"
	"github.com/smartclassroom/backend/core/user"
)

type Class struct {
	ID       int    `json:"id"`
	Grade    string `json:"grade"`
	Section  string `json:"section"`
	Capacity int    `json:"capacity"`
}

type NewClass struct {
	Grade    string `json:"grade" validate:"notblank"`
	Section  string `json:"section" validate:"notblank"`
	Capacity int    `json:"capacity" validate:"gte=0"`
}

func (nc *NewClass) Clean() {
	nc.Grade = core.CleanString(nc.Grade)
	nc.Section = core.CleanString(nc.Section)
}

// Profile is the role-specific record attached to a user once an admin assigns a role.
// It is implemented by StudentProfile, TeacherProfile, ParentProfile and AdminProfile only.
type Profile interface {
	Role() user.Role
	OwnerID() int
	isProfile()
}

type (
	StudentProfile struct {
		ID      int `json:"id"`
		UserID  int `json:"user_id"`
		ClassID int `json:"class_id"`
	}

	TeacherProfile struct {
		ID         int    `json:"id"`
		UserID     int    `json:"user_id"`
		Subject    string `json:"subject"`
		Department string `json:"department"`
	}

	ParentProfile struct {
		ID          int `json:"id"`
		UserID      int `json:"user_id"`
		ChildUserID int `json:"child_user_id,omitempty"`
	}

	AdminProfile struct {
		ID     int `json:"id"`
		UserID int `json:"user_id"`
	}
)

func (StudentProfile) Role() user.Role { return user.RoleStudent }
func (TeacherProfile) Role() user.Role { return user.RoleTeacher }
func (ParentProfile) Role() user.Role  { return user.RoleParent }
func (AdminProfile) Role() user.Role   { return user.RoleAdmin }

func (p StudentProfile) OwnerID() int { return p.UserID }
func (p TeacherProfile) OwnerID() int { return p.UserID }
func (p ParentProfile) OwnerID() int  { return p.UserID }
func (p AdminProfile) OwnerID() int   { return p.UserID }

func (StudentProfile) isProfile() {}
func (TeacherProfile) isProfile() {}
func (ParentProfile) isProfile()  {}
func (AdminProfile) isProfile()   {}

// AssignRole contains the information needed to attach a profile to a user.
// ClassID is required for students; Subject and Department for teachers.
type AssignRole struct {
	UserID     int       `json:"user_id" validate:"required"`
	Role       user.Role `json:"role" validate:"required"`
	ClassID    *int      `json:"class_id"`
	Subject    string    `json:"subject"`
	Department string    `json:"department"`
}

func (ar *AssignRole) Clean() {
	ar.Role = user.Role(core.CleanString(string(ar.Role), true /* lower */))
	ar.Subject = core.CleanString(ar.Subject)
	ar.Department = core.CleanString(ar.Department)
}

// StudentMeta describes a student along with the class it belongs to.
type StudentMeta struct {
	StudentID int    `json:"student_id"`
	UserID    int    `json:"user_id"`
	ClassID   int    `json:"class_id"`
	Grade     string `json:"grade"`
	Section   string `json:"section"`
}
