package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"aurora-agent/internal/verification"
)

// CodeStore holds outstanding email verification codes.
type CodeStore interface {
	Issue(ctx context.Context, email, name string) (string, error)
	Consume(ctx context.Context, email, code string) (string, error)
}

// VerificationService runs email sign-up: a code is mailed, then exchanged for
// a profile.
type VerificationService struct {
	codes  CodeStore
	mailer verification.Mailer
	users  *UserService
	logger *slog.Logger
}

type VerifyOutput struct {
	UserID   string
	Email    string
	Name     string
	Existing bool
}

func NewVerificationService(codes CodeStore, mailer verification.Mailer, users *UserService, logger *slog.Logger) (*VerificationService, error) {
	if codes == nil {
		return nil, errors.New("usecase: code store must not be nil")
	}
	if mailer == nil {
		return nil, errors.New("usecase: mailer must not be nil")
	}
	if users == nil {
		return nil, errors.New("usecase: user service must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &VerificationService{codes: codes, mailer: mailer, users: users, logger: logger}, nil
}

// RequestCode issues a fresh code for email and hands it to the mailer.
func (s *VerificationService) RequestCode(ctx context.Context, email, name string) error {
	addr, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	if addr == "" {
		return invalid("missing_email")
	}
	name = strings.TrimSpace(name)
	if len(name) > maxNameLen {
		return invalid("name_too_long")
	}
	code, err := s.codes.Issue(ctx, addr, name)
	if err != nil {
		return newError(ErrorInternal, "code_issue_error", err)
	}
	if err := s.mailer.SendCode(ctx, addr, name, code); err != nil {
		return newError(ErrorUpstream, "mail_delivery_error", err)
	}
	return nil
}

// Verify consumes the code and returns the profile for the address, creating
// it on first verification.
func (s *VerificationService) Verify(ctx context.Context, email, code string) (VerifyOutput, error) {
	addr, err := normalizeEmail(email)
	if err != nil {
		return VerifyOutput{}, err
	}
	if addr == "" || strings.TrimSpace(code) == "" {
		return VerifyOutput{}, invalid("missing_email_or_code")
	}
	name, err := s.codes.Consume(ctx, addr, code)
	switch {
	case errors.Is(err, verification.ErrNoCode):
		return VerifyOutput{}, newError(ErrorInvalidInput, "no_verification_code", err)
	case errors.Is(err, verification.ErrExpired):
		return VerifyOutput{}, newError(ErrorInvalidInput, "verification_code_expired", err)
	case errors.Is(err, verification.ErrMismatch):
		return VerifyOutput{}, newError(ErrorInvalidInput, "invalid_verification_code", err)
	case err != nil:
		return VerifyOutput{}, newError(ErrorInternal, "code_check_error", err)
	}

	first, last, _ := strings.Cut(name, " ")
	created, err := s.users.Create(ctx, CreateUserInput{
		Email:        addr,
		FirstName:    first,
		LastName:     strings.TrimSpace(last),
		ConsentGiven: true,
	})
	if err != nil {
		return VerifyOutput{}, err
	}
	s.logger.InfoContext(ctx, "email verified", slog.Bool("existing", created.Existing))
	return VerifyOutput{UserID: created.UserID, Email: addr, Name: name, Existing: created.Existing}, nil
}
