package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jcastel/authbase/pkg/metrics"
)

// DefaultSessionTTL defines the fallback validity period for session tokens.
const DefaultSessionTTL = time.Hour

// Fixed lifetimes for the non-session token purposes.
const (
	VerificationTTL  = 24 * time.Hour
	PasswordResetTTL = time.Hour
)

// Purpose discriminates the three token kinds so one cannot stand in for
// another (a reset token must never pass the session gate).
type Purpose string

const (
	PurposeSession Purpose = "session"
	PurposeVerify  Purpose = "verify"
	PurposeReset   Purpose = "reset"
)

// TokenConfig bundles the configuration required to build a TokenService.
type TokenConfig struct {
	Secret     string
	Issuer     string
	SessionTTL time.Duration
	Clock      func() time.Time
}

// Claims represents the custom claims embedded in issued tokens. Session
// tokens carry the user id and email; verification and reset tokens carry
// only the email.
type Claims struct {
	UserID  string  `json:"uid,omitempty"`
	Email   string  `json:"email"`
	Purpose Purpose `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies the time-bounded bearer tokens used by the
// credential service. Tokens are stateless: possession plus a valid signature
// and an unexpired timestamp is sufficient proof.
type TokenService struct {
	secret     []byte
	issuer     string
	sessionTTL time.Duration
	now        func() time.Time
}

// NewTokenService constructs a TokenService instance when provided with the required configuration.
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token: secret must be provided")
	}

	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock
	}

	return &TokenService{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		sessionTTL: ttl,
		now:        now,
	}, nil
}

// IssueSession signs a session token for the given user.
func (s *TokenService) IssueSession(userID, email string) (string, error) {
	if userID == "" {
		return "", errors.New("token: user id is required")
	}
	return s.issue(Claims{UserID: userID, Email: email, Purpose: PurposeSession}, s.sessionTTL)
}

// IssueVerification signs an email-verification token.
func (s *TokenService) IssueVerification(email string) (string, error) {
	return s.issue(Claims{Email: email, Purpose: PurposeVerify}, VerificationTTL)
}

// IssuePasswordReset signs a password-reset token.
func (s *TokenService) IssuePasswordReset(email string) (string, error) {
	return s.issue(Claims{Email: email, Purpose: PurposeReset}, PasswordResetTTL)
}

func (s *TokenService) issue(claims Claims, ttl time.Duration) (string, error) {
	if claims.Email == "" {
		return "", errors.New("token: email is required")
	}

	now := s.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   claims.Email,
		Issuer:    s.issuer,
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}
	if claims.UserID != "" {
		claims.Subject = claims.UserID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}

	metrics.TokensIssued.WithLabelValues(string(claims.Purpose)).Inc()

	return signed, nil
}

// Validate parses a signed token and checks it was issued for the expected
// purpose. Expiry, signature, issuer and purpose failures all come back as
// plain errors; callers collapse them into a single token error kind at the
// API boundary.
func (s *TokenService) Validate(tokenString string, purpose Purpose) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("token: token string is empty")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)

	var claims Claims
	_, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("token: parse: %w", err)
	}

	if s.issuer != "" && claims.Issuer != s.issuer {
		return nil, errors.New("token: invalid issuer")
	}

	if claims.Purpose != purpose {
		return nil, fmt.Errorf("token: purpose %q does not match expected %q", claims.Purpose, purpose)
	}

	if claims.Email == "" {
		return nil, errors.New("token: missing email claim")
	}

	return &claims, nil
}
