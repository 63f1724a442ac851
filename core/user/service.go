package user

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/smartclassroom/backend/core"
)

var (
	// errors
	ErrNotFound           = core.NewError(core.ErrNotFound, "user not found")
	ErrEmailExists        = core.NewError(core.ErrConflict, "a user with this email already exists")
	ErrUsernameExists     = core.NewError(core.ErrConflict, "a user with this username already exists")
	ErrInvalidCredentials = core.NewError(core.ErrUnauthorized, "invalid credentials")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		// CheckUniqueness returns ErrUsernameExists or ErrEmailExists if any user already has username or email.
		CheckUniqueness(ctx context.Context, username, email string, exec ...core.DBExecutor) error
		CreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		QueryUsers(ctx context.Context, exec ...core.DBExecutor) ([]User, error)
		GetUserByID(ctx context.Context, id int, exec ...core.DBExecutor) (User, error)
		GetUserByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (User, error)
		SetLastLogin(ctx context.Context, id int, at time.Time, exec ...core.DBExecutor) error
		SetPassword(ctx context.Context, id int, hash []byte, exec ...core.DBExecutor) error
	}

	Service struct {
		appName   string
		repo      Repository
		validator *core.Validator
		mailSvc   core.EmailService
	}
)

func NewService(conf *core.Config, repo Repository, validator *core.Validator, mailSvc core.EmailService) *Service {
	RegisterValidators(validator)
	return &Service{
		appName:   conf.AppName,
		repo:      repo,
		validator: validator,
		mailSvc:   mailSvc,
	}
}

// Register validates nu and creates the user it describes.
func (svc *Service) Register(ctx context.Context, nu NewUser) (User, error) {
	nu.Clean()
	if err := svc.validator.Struct(&nu); err != nil {
		return User{}, err
	}
	if err := svc.repo.CheckUniqueness(ctx, nu.Username, nu.Email); err != nil {
		return User{}, err
	}

	usr := User{
		Username:  nu.Username,
		Email:     nu.Email,
		Role:      nu.Role,
		CreatedAt: nowFunc().UTC(),
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}

	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, err
	}
	svc.sendMail(usr, "Welcome to "+svc.appName, "welcome")
	return usr, nil
}

// Authenticate checks the credentials and records the login.
func (svc *Service) Authenticate(ctx context.Context, creds Credentials) (User, error) {
	creds.Clean()
	if err := svc.validator.Struct(&creds); err != nil {
		return User{}, err
	}

	usr, err := svc.repo.GetUserByEmail(ctx, creds.Email)
	if err != nil {
		return User{}, err
	}
	if err = usr.CheckPassword(creds.Password); err != nil {
		return User{}, ErrInvalidCredentials
	}

	usr.LastLogin = nowFunc().UTC()
	if err = svc.repo.SetLastLogin(ctx, usr.ID, usr.LastLogin); err != nil {
		return User{}, errors.Wrap(err, "setting lastLogin")
	}
	return usr, nil
}

func (svc *Service) QueryAll(ctx context.Context) ([]User, error) {
	return svc.repo.QueryUsers(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

// ResetPassword sets a new password for usr after applying the password policy.
func (svc *Service) ResetPassword(ctx context.Context, usr User, pwd string) error {
	if err := ValidatePassword(pwd, usr.Username, usr.Email); err != nil {
		return err
	}
	if err := usr.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	if err := svc.repo.SetPassword(ctx, usr.ID, usr.PasswordHash); err != nil {
		return err
	}
	svc.sendMail(usr, "Your password has been reset", "password_reset")
	return nil
}

func (svc *Service) sendMail(usr User, subject, tmpl string) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Username, Address: usr.Email}},
		Subject:      subject,
		TemplateName: tmpl,
		TemplateData: map[string]interface{}{
			"AppName":  svc.appName,
			"Username": usr.Username,
			"Role":     usr.Role,
		},
	})
}
