package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"masterlearn/internal/domain"
	"masterlearn/internal/email"
	"masterlearn/internal/repository"
)

// UserService coordina alta de usuarios y el login en dos pasos
// (password y luego OTP por email).
type UserService struct {
	logger      *zap.Logger
	users       repository.UserRepository
	challenges  ChallengeStore
	emailSender email.Sender
	otpLimiter  OTPRateLimiter
	tokens      *JWTService
	otpTTL      time.Duration
}

func NewUserService(
	logger *zap.Logger,
	users repository.UserRepository,
	challenges ChallengeStore,
	emailSender email.Sender,
	otpLimiter OTPRateLimiter,
	tokens *JWTService,
	otpTTL time.Duration,
) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if otpTTL <= 0 {
		otpTTL = defaultOTPTTL
	}
	if challenges == nil {
		challenges = NewMemoryChallengeStore(otpTTL)
	}
	return &UserService{
		logger:      logger,
		users:       users,
		challenges:  challenges,
		emailSender: emailSender,
		otpLimiter:  otpLimiter,
		tokens:      tokens,
		otpTTL:      otpTTL,
	}
}

type CreateUserInput struct {
	Username string
	Name     string
	Email    string
	Password string
}

// LoginResult es lo que vuelve al cliente tras validar el password. El
// codigo nunca viaja por aca, solo por email.
type LoginResult struct {
	SessionKey string
	ExpiresAt  time.Time
}

type Session struct {
	Token     string
	Identity  domain.Identity
	ExpiresAt time.Time
}

var (
	ErrMissingFields      = errors.New("missing required fields")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrUserExists         = errors.New("username or email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrChallengeExpired   = errors.New("otp expired")
	ErrCodeMismatch       = errors.New("otp invalid")
	ErrEmailSendFailure   = errors.New("email send failed")
	ErrRateLimited        = errors.New("rate limited")
)

// dummyHash iguala el costo de bcrypt cuando el usuario no existe.
var dummyHash = sync.OnceValue(func() []byte {
	hash, _ := bcrypt.GenerateFromPassword([]byte("masterlearn-dummy-password"), bcrypt.DefaultCost)
	return hash
})

func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("user service not configured")
	}

	username := strings.TrimSpace(input.Username)
	name := strings.TrimSpace(input.Name)
	emailAddr := normalizeEmail(input.Email)
	if username == "" || name == "" || emailAddr == "" || input.Password == "" {
		return domain.User{}, ErrMissingFields
	}
	// Solo direcciones desnudas: "Bob <bob@x.com>" duplicaria el buzon.
	addr, err := mail.ParseAddress(emailAddr)
	if err != nil || addr.Address != emailAddr {
		return domain.User{}, ErrInvalidEmail
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Name:         name,
		Email:        emailAddr,
		PasswordHash: string(hashBytes),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return domain.User{}, ErrUserExists
		}
		return domain.User{}, err
	}
	return user, nil
}

// Login valida credenciales, crea un desafio OTP y envia el codigo por email.
func (s *UserService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	if s.users == nil {
		return LoginResult{}, errors.New("user service not configured")
	}

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return LoginResult{}, ErrMissingFields
	}
	if s.otpLimiter != nil && !s.otpLimiter.Allow(ctx, "login:"+username) {
		return LoginResult{}, ErrRateLimited
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}
	if user.PasswordHash == "" {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	code, hash, err := generateOTP()
	if err != nil {
		return LoginResult{}, err
	}
	now := time.Now().UTC()
	challenge := domain.OTPChallenge{
		SessionKey: newSessionKey(user.Username, now),
		CodeHash:   hash,
		Username:   user.Username,
		Email:      user.Email,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.otpTTL),
	}
	if err := s.challenges.Save(ctx, challenge); err != nil {
		return LoginResult{}, err
	}

	if err := s.notify(ctx, challenge, code); err != nil {
		if _, delErr := s.challenges.Delete(ctx, challenge.SessionKey); delErr != nil {
			s.logger.Warn("discard otp challenge failed", zap.Error(delErr))
		}
		return LoginResult{}, err
	}

	return LoginResult{SessionKey: challenge.SessionKey, ExpiresAt: challenge.ExpiresAt}, nil
}

// VerifyOTP consume el desafio y emite el token de sesion.
func (s *UserService) VerifyOTP(ctx context.Context, sessionKey, code string) (Session, error) {
	sessionKey = strings.TrimSpace(sessionKey)
	code = strings.TrimSpace(code)
	if sessionKey == "" || code == "" {
		return Session{}, ErrMissingFields
	}

	challenge, err := s.challenges.Get(ctx, sessionKey)
	if err != nil {
		return Session{}, err
	}

	if challenge.Expired(time.Now().UTC()) {
		if _, err := s.challenges.Delete(ctx, sessionKey); err != nil {
			return Session{}, err
		}
		return Session{}, ErrChallengeExpired
	}
	if s.otpLimiter != nil && !s.otpLimiter.Allow(ctx, "verify:"+sessionKey) {
		return Session{}, ErrRateLimited
	}
	if !isValidOTPCode(code) || !verifyOTP(code, challenge.CodeHash) {
		return Session{}, ErrCodeMismatch
	}

	deleted, err := s.challenges.Delete(ctx, sessionKey)
	if err != nil {
		return Session{}, err
	}
	if !deleted {
		// Otro request consumio el desafio entre Get y Delete.
		return Session{}, ErrChallengeNotFound
	}

	identity := domain.Identity{Username: challenge.Username, Email: challenge.Email}
	if s.tokens == nil {
		return Session{}, errors.New("jwt not configured")
	}
	token, err := s.tokens.Issue(identity)
	if err != nil {
		return Session{}, err
	}
	return Session{
		Token:     token,
		Identity:  identity,
		ExpiresAt: time.Now().UTC().Add(s.tokens.TTL()),
	}, nil
}

// ResendOTP reemplaza el codigo de un desafio existente y reinicia su ventana.
// La session key no rota.
func (s *UserService) ResendOTP(ctx context.Context, sessionKey string) (time.Time, error) {
	sessionKey = strings.TrimSpace(sessionKey)
	if sessionKey == "" {
		return time.Time{}, ErrChallengeNotFound
	}

	challenge, err := s.challenges.Get(ctx, sessionKey)
	if err != nil {
		return time.Time{}, err
	}
	if s.otpLimiter != nil && !s.otpLimiter.Allow(ctx, "resend:"+sessionKey) {
		return time.Time{}, ErrRateLimited
	}

	code, hash, err := generateOTP()
	if err != nil {
		return time.Time{}, err
	}
	now := time.Now().UTC()
	challenge.CodeHash = hash
	challenge.CreatedAt = now
	challenge.ExpiresAt = now.Add(s.otpTTL)
	if err := s.challenges.Save(ctx, challenge); err != nil {
		return time.Time{}, err
	}

	if err := s.notify(ctx, challenge, code); err != nil {
		return time.Time{}, err
	}
	return challenge.ExpiresAt, nil
}

func (s *UserService) notify(ctx context.Context, challenge domain.OTPChallenge, code string) error {
	if s.emailSender == nil {
		return ErrEmailSendFailure
	}
	if err := s.emailSender.SendLoginOTP(ctx, challenge.Email, challenge.Username, code, challenge.ExpiresAt); err != nil {
		s.logger.Warn("send login otp failed", zap.Error(err), zap.String("username", challenge.Username))
		return ErrEmailSendFailure
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// TokenTTL es la vigencia de los tokens emitidos por VerifyOTP.
func (s *UserService) TokenTTL() time.Duration {
	if s.tokens == nil {
		return 0
	}
	return s.tokens.TTL()
}
