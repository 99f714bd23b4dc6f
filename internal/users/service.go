package users

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"

	"github.com/worktrack/worktrack/internal/authz"
)

// TokenStore issues and redeems one-time email verification tokens.
type TokenStore interface {
	Issue(ctx context.Context, userID int64) (string, error)
	Consume(ctx context.Context, token string) (int64, error)
}

// EmailEnqueuer schedules a verification email for background delivery.
type EmailEnqueuer interface {
	EnqueueVerificationEmail(ctx context.Context, to, token string) error
}

// RegisterParams carries the fields common to both registration flows.
type RegisterParams struct {
	Email    string
	Name     string
	Password string
}

// Service handles account business logic.
type Service struct {
	repo   Repository
	tokens TokenStore
	emails EmailEnqueuer
	logger *slog.Logger
	issuer string
}

// NewService builds a Service instance. The issuer names the TOTP key issuer
// shown in authenticator apps.
func NewService(repo Repository, tokens TokenStore, emails EmailEnqueuer, logger *slog.Logger, issuer string) *Service {
	if issuer == "" {
		issuer = "worktrack"
	}
	return &Service{repo: repo, tokens: tokens, emails: emails, logger: logger, issuer: issuer}
}

// RegisterStudent creates a student account and kicks off email verification.
func (s *Service) RegisterStudent(ctx context.Context, params RegisterParams) (User, error) {
	return s.register(ctx, params, authz.RoleStudent)
}

// RegisterCompany creates a company account with a fresh TOTP secret and
// kicks off email verification.
func (s *Service) RegisterCompany(ctx context.Context, params RegisterParams) (User, error) {
	return s.register(ctx, params, authz.RoleCompany)
}

func (s *Service) register(ctx context.Context, params RegisterParams, role authz.Role) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("users: hash password: %w", err)
	}

	user := User{
		Email:        strings.ToLower(strings.TrimSpace(params.Email)),
		Name:         strings.TrimSpace(params.Name),
		PasswordHash: string(hash),
		Role:         role,
	}
	if role == authz.RoleCompany {
		key, err := totp.Generate(totp.GenerateOpts{
			Issuer:      s.issuer,
			AccountName: user.Email,
		})
		if err != nil {
			return User{}, fmt.Errorf("users: generate totp secret: %w", err)
		}
		user.TOTPSecret = key.Secret()
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return User{}, err
	}
	s.sendVerification(ctx, created)
	return created, nil
}

// VerifyEmail redeems a verification token and flips the flag.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	userID, err := s.tokens.Consume(ctx, token)
	if err != nil {
		return err
	}
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return ErrAlreadyVerified
	}
	return s.repo.MarkEmailVerified(ctx, userID)
}

// ResendVerification issues a new token for an unverified account.
func (s *Service) ResendVerification(ctx context.Context, userID int64) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return ErrAlreadyVerified
	}
	s.sendVerification(ctx, user)
	return nil
}

// TOTPCode returns the company's current six-digit code. The connect flow
// uses it as an out-of-band handshake: the company reads its code and hands
// it to the student it wants to take on.
func (s *Service) TOTPCode(ctx context.Context, companyID int64) (string, error) {
	company, err := s.repo.GetByID(ctx, companyID)
	if err != nil {
		return "", err
	}
	if company.Role != authz.RoleCompany || company.TOTPSecret == "" {
		return "", ErrWrongRole
	}
	code, err := totp.GenerateCode(company.TOTPSecret, time.Now())
	if err != nil {
		return "", fmt.Errorf("users: generate totp code: %w", err)
	}
	return code, nil
}

// ConnectStudentToCompany affiliates a student with a company after checking
// the company's current TOTP code. An existing affiliation is replaced
// silently, matching the connect flow's historical behavior.
func (s *Service) ConnectStudentToCompany(ctx context.Context, studentID, companyID int64, code string) error {
	student, err := s.repo.GetByID(ctx, studentID)
	if err != nil {
		return err
	}
	if student.Role != authz.RoleStudent {
		return ErrWrongRole
	}
	company, err := s.repo.GetByID(ctx, companyID)
	if err != nil {
		return err
	}
	if company.Role != authz.RoleCompany || company.TOTPSecret == "" {
		return ErrWrongRole
	}
	if !totp.Validate(code, company.TOTPSecret) {
		return ErrInvalidTOTP
	}
	return s.repo.SetStudentCompany(ctx, studentID, companyID)
}

// CompanyWithStudents returns a company's roster.
func (s *Service) CompanyWithStudents(ctx context.Context, companyID int64) (CompanyRoster, error) {
	company, err := s.repo.GetByID(ctx, companyID)
	if err != nil {
		return CompanyRoster{}, err
	}
	if company.Role != authz.RoleCompany {
		return CompanyRoster{}, ErrWrongRole
	}
	students, err := s.repo.ListStudentsForCompany(ctx, companyID)
	if err != nil {
		return CompanyRoster{}, err
	}
	return CompanyRoster{Company: company, Students: students}, nil
}

// GetByID exposes account lookup for handlers.
func (s *Service) GetByID(ctx context.Context, id int64) (User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) sendVerification(ctx context.Context, user User) {
	if s.tokens == nil || s.emails == nil {
		return
	}
	token, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		s.logger.Warn("issue verification token", slog.Int64("user_id", user.ID), slog.Any("error", err))
		return
	}
	if err := s.emails.EnqueueVerificationEmail(ctx, user.Email, token); err != nil {
		s.logger.Warn("enqueue verification email", slog.Int64("user_id", user.ID), slog.Any("error", err))
	}
}
