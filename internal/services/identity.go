package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"postboard/internal/apperr"
	"postboard/internal/auth"
	"postboard/internal/config"
	"postboard/internal/logging"
	"postboard/internal/models"
	codes "postboard/internal/redis"
	"postboard/internal/utils"
)

const (
	tokenName          = "Personal Access Token"
	invalidCredentials = "invalid credentials"
	unauthenticated    = "Unauthenticated."
	verifyCodeLength   = 6
	// a code is discarded after this many wrong guesses
	maxVerifyAttempts  = 5
)

type UserStore interface {
	Create(ctx context.Context, u *models.User) (*models.User, error)
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	MarkEmailVerified(ctx context.Context, id uint, at time.Time) error
}

type TokenStore interface {
	Create(ctx context.Context, t *models.AccessToken) error
	Find(ctx context.Context, id string) (*models.AccessToken, error)
	Revoke(ctx context.Context, id string) error
}

type CodeStore interface {
	Put(ctx context.Context, email, code string, ttl time.Duration) error
	Get(ctx context.Context, email string) (string, error)
	Fail(ctx context.Context, email string, ttl time.Duration) (int64, error)
	Delete(ctx context.Context, email string) error
}

type SignUpInput struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginInput struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"remember_me"`
}

type verifyInput struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// IssuedToken is the result of a successful login.
type IssuedToken struct {
	AccessToken string
	TokenType   string
	ExpiresAt   *time.Time
	User        *models.User
}

type IdentityService struct {
	users  UserStore
	tokens TokenStore
	codes  CodeStore
	mailer utils.Mailer
	log    logging.Logger

	jwtSecret     []byte
	tokenTTL      time.Duration
	rememberTTL   time.Duration
	bcryptCost    int
	verifyCodeTTL time.Duration

	// dummyHash is compared against when the email is unknown so a failed
	// login costs the same whether or not the account exists.
	dummyOnce sync.Once
	dummyHash string

	now func() time.Time
	// dispatch runs mail delivery off the request path.
	dispatch func(func())
}

func NewIdentityService(users UserStore, tokens TokenStore, codes CodeStore, mailer utils.Mailer, log logging.Logger, cfg *config.Config) *IdentityService {
	return &IdentityService{
		users:         users,
		tokens:        tokens,
		codes:         codes,
		mailer:        mailer,
		log:           log.With("component", "identity"),
		jwtSecret:     []byte(cfg.JWTSecret),
		tokenTTL:      cfg.TokenTTL,
		rememberTTL:   cfg.RememberTTL,
		bcryptCost:    cfg.BcryptCost,
		verifyCodeTTL: cfg.VerifyCodeTTL,
		now:           time.Now,
		dispatch:      func(f func()) { go f() },
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp registers a new user. The password is stored only as a bcrypt hash.
func (s *IdentityService) SignUp(ctx context.Context, in SignUpInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	exists, err := s.users.EmailExists(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Validation("The given data was invalid.", map[string]string{
			"email": "The email has already been taken.",
		})
	}

	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		if errors.Is(err, utils.ErrPasswordTooLong) {
			return nil, apperr.Validation("The given data was invalid.", map[string]string{
				"password": "The password may not be greater than 72 bytes.",
			})
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	// a concurrent signup with the same email loses on the unique index
	user, err := s.users.Create(ctx, &models.User{Name: in.Name, Email: in.Email, Password: hash})
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "user signed up", "user_id", user.ID)

	s.sendMail(ctx, user.Email, "Welcome", fmt.Sprintf("Hello %s,\n\nWelcome! Your account is created.", user.Name))
	if err := s.SendVerification(ctx, user); err != nil {
		s.log.Warn(ctx, "verification code not sent", "user_id", user.ID, "error", err)
	}
	return user, nil
}

// Login checks credentials and mints a new access token. Unknown email and
// wrong password fail identically.
func (s *IdentityService) Login(ctx context.Context, in LoginInput) (*IssuedToken, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			_ = utils.CheckPasswordHash(s.dummy(), in.Password)
			return nil, apperr.Authentication(invalidCredentials)
		}
		return nil, err
	}
	if err := utils.CheckPasswordHash(user.Password, in.Password); err != nil {
		return nil, apperr.Authentication(invalidCredentials)
	}

	issued, err := s.issueToken(ctx, user, in.RememberMe)
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "user logged in", "user_id", user.ID, "remember_me", in.RememberMe)
	return issued, nil
}

func (s *IdentityService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = utils.HashPassword(uuid.NewString(), s.bcryptCost)
	})
	return s.dummyHash
}

// issueToken persists a token row and signs a bearer token pointing at it.
// remember extends only the token being minted.
func (s *IdentityService) issueToken(ctx context.Context, user *models.User, remember bool) (*IssuedToken, error) {
	now := s.now()

	var expiresAt *time.Time
	switch {
	case remember:
		t := now.Add(s.rememberTTL)
		expiresAt = &t
	case s.tokenTTL > 0:
		t := now.Add(s.tokenTTL)
		expiresAt = &t
	}

	row := &models.AccessToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Name:      tokenName,
		ExpiresAt: expiresAt,
	}
	if err := s.tokens.Create(ctx, row); err != nil {
		return nil, err
	}

	signed, err := auth.GenerateToken(s.jwtSecret, row.ID, user.ID, now, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &IssuedToken{
		AccessToken: signed,
		TokenType:   auth.TokenType,
		ExpiresAt:   expiresAt,
		User:        user,
	}, nil
}

// Authenticate resolves a bearer token to its user. Unknown, revoked and
// expired tokens are all rejected the same way.
func (s *IdentityService) Authenticate(ctx context.Context, bearer string) (*auth.Identity, error) {
	if bearer == "" {
		return nil, apperr.Authentication(unauthenticated)
	}
	claims, err := auth.ParseToken(s.jwtSecret, bearer)
	if err != nil {
		return nil, apperr.Authentication(unauthenticated)
	}
	uid, err := claims.UserID()
	if err != nil {
		return nil, apperr.Authentication(unauthenticated)
	}

	row, err := s.tokens.Find(ctx, claims.TokenID())
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Authentication(unauthenticated)
		}
		return nil, err
	}
	if !row.Usable(s.now()) || row.UserID != uid {
		return nil, apperr.Authentication(unauthenticated)
	}

	user, err := s.users.GetByID(ctx, row.UserID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Authentication(unauthenticated)
		}
		return nil, err
	}
	return &auth.Identity{User: user, TokenID: row.ID}, nil
}

// Logout revokes exactly the token that authenticated ctx.
func (s *IdentityService) Logout(ctx context.Context) error {
	id, ok := auth.IdentityFrom(ctx)
	if !ok {
		return apperr.Authentication(unauthenticated)
	}
	if err := s.tokens.Revoke(ctx, id.TokenID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.Authentication(unauthenticated)
		}
		return err
	}
	s.log.Info(ctx, "user logged out", "user_id", id.User.ID)
	return nil
}

func (s *IdentityService) CurrentUser(ctx context.Context) (*models.User, error) {
	id, ok := auth.IdentityFrom(ctx)
	if !ok {
		return nil, apperr.Authentication(unauthenticated)
	}
	return id.User, nil
}

// SendVerification stores a fresh code for user and mails it. Verified
// users are skipped.
func (s *IdentityService) SendVerification(ctx context.Context, user *models.User) error {
	if user.Verified() {
		return nil
	}
	code, err := utils.GenerateNumericOTP(verifyCodeLength)
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	if err := s.codes.Put(ctx, user.Email, code, s.verifyCodeTTL); err != nil {
		return apperr.Storage("store verification code", err)
	}

	body := fmt.Sprintf("Hello %s,\n\nYour verification code is: %s\nIt expires in %s.\n\nIf you didn't sign up, ignore this email.",
		user.Name, code, s.verifyCodeTTL)
	s.sendMail(ctx, user.Email, "Verify your email address", body)
	return nil
}

// ResendVerification mails a new code to the authenticated user.
func (s *IdentityService) ResendVerification(ctx context.Context) error {
	user, err := s.CurrentUser(ctx)
	if err != nil {
		return err
	}
	return s.SendVerification(ctx, user)
}

// VerifyEmail confirms the authenticated user's address with code.
func (s *IdentityService) VerifyEmail(ctx context.Context, code string) error {
	user, err := s.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if user.Verified() {
		return nil
	}

	in := verifyInput{Code: strings.TrimSpace(code)}
	if err := validateStruct(in); err != nil {
		return err
	}

	invalid := apperr.Validation("The given data was invalid.", map[string]string{
		"code": "The code is invalid or has expired.",
	})
	stored, err := s.codes.Get(ctx, user.Email)
	if err != nil {
		if errors.Is(err, codes.ErrCodeNotFound) {
			return invalid
		}
		return apperr.Storage("load verification code", err)
	}
	if !utils.EqualOTP(stored, in.Code) {
		n, err := s.codes.Fail(ctx, user.Email, s.verifyCodeTTL)
		if err != nil {
			return apperr.Storage("record failed attempt", err)
		}
		if n >= maxVerifyAttempts {
			if err := s.codes.Delete(ctx, user.Email); err != nil {
				return apperr.Storage("discard verification code", err)
			}
			s.log.Warn(ctx, "verification code discarded", "user_id", user.ID, "attempts", n)
		}
		return invalid
	}

	now := s.now()
	if err := s.users.MarkEmailVerified(ctx, user.ID, now); err != nil {
		return err
	}
	user.EmailVerifiedAt = &now

	if err := s.codes.Delete(ctx, user.Email); err != nil {
		s.log.Warn(ctx, "verification code not deleted", "user_id", user.ID, "error", err)
	}
	s.log.Info(ctx, "email verified", "user_id", user.ID)
	return nil
}

func (s *IdentityService) sendMail(ctx context.Context, to, subject, body string) {
	if s.mailer == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	s.dispatch(func() {
		if err := s.mailer.Send(to, subject, body); err != nil {
			s.log.Warn(ctx, "mail not sent", "subject", subject, "error", err)
		}
	})
}
