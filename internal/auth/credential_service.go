package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jcastel/authbase/internal/models"
	"github.com/jcastel/authbase/pkg/crypto"
	apperrors "github.com/jcastel/authbase/pkg/errors"
	"github.com/jcastel/authbase/pkg/logger"
	"github.com/jcastel/authbase/pkg/mail"
)

// Human-readable acknowledgements returned by the credential operations.
const (
	MsgSignupSuccess = "Signup successful. Please verify your email."
	MsgEmailVerified = "Email verified successfully."
	MsgSignedIn      = "Sign in successful"
	MsgSignedOut     = "Signed out successfully"
	MsgResetLinkSent = "Password reset link sent to your email."
	MsgPasswordReset = "Password has been reset successfully."
)

// Token errors carry distinct messages but share one error kind: the caller
// cannot tell a malformed token from an expired or already-consumed one.
var (
	ErrVerificationTokenInvalid = apperrors.New("TOKEN_INVALID", "Invalid or expired verification token", http.StatusUnauthorized)
	ErrAlreadyVerified          = apperrors.New("TOKEN_INVALID", "User not found or already verified", http.StatusUnauthorized)
)

// CredentialConfig carries the optional knobs of the credential service.
type CredentialConfig struct {
	// VerifyURL and ResetURL are the link bases embedded in outbound emails;
	// the token is appended as a query parameter.
	VerifyURL string
	ResetURL  string

	// ReturnResetToken exposes the raw reset token in the ForgotPassword
	// result, for deployments without a configured mailer.
	ReturnResetToken bool

	Clock func() time.Time
}

// CredentialService owns the signup, verification, signin and password-reset
// workflows. It coordinates the user store, the token service and an optional
// mailer; it keeps no state of its own and performs no retries or rollbacks.
type CredentialService struct {
	db               *gorm.DB
	tokens           *TokenService
	mailer           mail.Mailer
	verifyURL        string
	resetURL         string
	returnResetToken bool
	now              func() time.Time
	log              *zap.Logger
}

// SignUpInput describes the fields accepted when registering a user.
type SignUpInput struct {
	Email    string
	Password string
	Name     string
}

// SignInResult bundles the session token with the safe user projection.
type SignInResult struct {
	Token string
	User  models.PublicUser
}

// ForgotPasswordResult acknowledges a reset request. Token is populated only
// when the service is configured to return it.
type ForgotPasswordResult struct {
	Message string
	Token   string
}

// NewCredentialService constructs a credential service with the provided dependencies.
// The mailer may be nil, in which case no emails are sent.
func NewCredentialService(db *gorm.DB, tokens *TokenService, mailer mail.Mailer, cfg CredentialConfig) (*CredentialService, error) {
	if db == nil {
		return nil, errors.New("credential service: db is required")
	}
	if tokens == nil {
		return nil, errors.New("credential service: token service is required")
	}

	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock
	}

	return &CredentialService{
		db:               db,
		tokens:           tokens,
		mailer:           mailer,
		verifyURL:        strings.TrimRight(cfg.VerifyURL, "/"),
		resetURL:         strings.TrimRight(cfg.ResetURL, "/"),
		returnResetToken: cfg.ReturnResetToken,
		now:              now,
		log:              logger.WithModule("auth"),
	}, nil
}

// SignUp registers an unverified user and dispatches a verification email when
// a mailer is configured. The user record is not rolled back if the email send
// fails; delivery is best-effort from the record's point of view.
func (s *CredentialService) SignUp(ctx context.Context, input SignUpInput) error {
	email := normaliseEmail(input.Email)
	name := strings.TrimSpace(input.Name)
	if email == "" || input.Password == "" || name == "" {
		return apperrors.NewBadRequest("All fields are required")
	}

	// Advisory pre-check for a friendly error; the unique index on email is
	// what actually guarantees exclusivity.
	var existing models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&existing).Error
	switch {
	case err == nil:
		return apperrors.ErrUserExists
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("credential service: lookup user: %w", err)
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return fmt.Errorf("credential service: hash password: %w", err)
	}

	user := models.User{
		Email:    email,
		Name:     name,
		Password: hashed,
		Verified: false,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.ErrUserExists
		}
		return fmt.Errorf("credential service: create user: %w", err)
	}

	token, err := s.tokens.IssueVerification(email)
	if err != nil {
		return fmt.Errorf("credential service: issue verification token: %w", err)
	}

	if s.mailer != nil {
		msg := mail.Message{
			To:      []string{email},
			Subject: "Verify your email",
			HTML:    fmt.Sprintf(`<a href="%s">Click here to verify your email</a>`, s.link(s.verifyURL, token)),
		}
		if sendErr := s.mailer.Send(ctx, msg); sendErr != nil {
			return apperrors.Wrap(sendErr, "Failed to send verification email")
		}
	}

	s.log.Info("user signed up", zap.String("user_id", user.ID))
	return nil
}

// VerifyEmail consumes a verification token and flips the verified flag. The
// flag transitions false -> true exactly once; a second call with the same
// token matches zero rows and fails.
func (s *CredentialService) VerifyEmail(ctx context.Context, token string) error {
	claims, err := s.tokens.Validate(token, PurposeVerify)
	if err != nil {
		return ErrVerificationTokenInvalid.WithInternal(err)
	}

	res := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("email = ? AND verified = ?", claims.Email, false).
		Update("verified", true)
	if res.Error != nil {
		return ErrVerificationTokenInvalid.WithInternal(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyVerified
	}

	s.log.Info("email verified", zap.String("email", claims.Email))
	return nil
}

// SignIn authenticates a verified user and issues a session token. The stored
// last-login timestamp is only touched on success.
func (s *CredentialService) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	email = normaliseEmail(email)
	if email == "" || password == "" {
		return nil, apperrors.NewBadRequest("Email and password required")
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("credential service: lookup user: %w", err)
	}

	if !user.Verified {
		return nil, apperrors.ErrEmailUnverified
	}

	if !crypto.VerifyPassword(user.Password, password) {
		return nil, apperrors.ErrInvalidPassword
	}

	token, err := s.tokens.IssueSession(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("credential service: issue session token: %w", err)
	}

	now := s.now()
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login_at", now).Error; err != nil {
		return nil, fmt.Errorf("credential service: record last login: %w", err)
	}

	s.log.Info("user signed in", zap.String("user_id", user.ID))

	return &SignInResult{Token: token, User: user.Public()}, nil
}

// SignOut acknowledges a signout. Sessions are stateless bearer tokens with no
// revocation store, so the token stays valid until natural expiry.
func (s *CredentialService) SignOut(ctx context.Context, token string) error {
	return nil
}

// ForgotPassword issues a reset token for a known account and mails a reset
// link when a mailer is configured.
func (s *CredentialService) ForgotPassword(ctx context.Context, email string) (*ForgotPasswordResult, error) {
	email = normaliseEmail(email)
	if email == "" {
		return nil, apperrors.NewBadRequest("Email is required")
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("credential service: lookup user: %w", err)
	}

	token, err := s.tokens.IssuePasswordReset(email)
	if err != nil {
		return nil, fmt.Errorf("credential service: issue reset token: %w", err)
	}

	if s.mailer != nil {
		msg := mail.Message{
			To:      []string{email},
			Subject: "Password Reset Request",
			HTML:    fmt.Sprintf(`<p>Click below to reset your password:</p><a href="%s">Reset Password</a>`, s.link(s.resetURL, token)),
		}
		if sendErr := s.mailer.Send(ctx, msg); sendErr != nil {
			return nil, apperrors.Wrap(sendErr, "Failed to send password reset email")
		}
	}

	result := &ForgotPasswordResult{Message: MsgResetLinkSent}
	if s.returnResetToken {
		result.Token = token
	}
	return result, nil
}

// ResetPassword consumes a reset token and replaces the stored password hash.
func (s *CredentialService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if newPassword == "" {
		return apperrors.NewBadRequest("New password is required")
	}

	claims, err := s.tokens.Validate(token, PurposeReset)
	if err != nil {
		return apperrors.ErrTokenInvalid.WithInternal(err)
	}

	hashed, err := crypto.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("credential service: hash password: %w", err)
	}

	res := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("email = ?", claims.Email).
		Update("password", hashed)
	if res.Error != nil {
		return apperrors.ErrTokenInvalid.WithInternal(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrTokenInvalid
	}

	s.log.Info("password reset", zap.String("email", claims.Email))
	return nil
}

// Tokens exposes the underlying token service for gate construction.
func (s *CredentialService) Tokens() *TokenService {
	return s.tokens
}

func (s *CredentialService) link(base, token string) string {
	if base == "" {
		return token
	}
	return fmt.Sprintf("%s?token=%s", base, token)
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
