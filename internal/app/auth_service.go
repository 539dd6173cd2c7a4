package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"flashbattle-quiz-service/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultTokenTTL = 7 * 24 * time.Hour
	RoleAdmin       = "admin"
)

// ErrInvalidToken is returned for tokens that fail signature or expiry checks.
var ErrInvalidToken = errors.New("invalid token")

// Claims are the JWT claims issued to players. Subject is the user id.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// AuthConfig configures token signing and password hashing.
type AuthConfig struct {
	Secret     string
	TokenTTL   time.Duration
	BcryptCost int
	// Admins lists user ids granted the admin role when they log in.
	Admins []string
}

// AuthService registers users and issues bearer tokens.
type AuthService struct {
	users  UserRepository
	cfg    AuthConfig
	admins map[string]struct{}
	now    func() time.Time
	log    zerolog.Logger
}

func NewAuthService(users UserRepository, cfg AuthConfig, log zerolog.Logger) *AuthService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	admins := make(map[string]struct{}, len(cfg.Admins))
	for _, id := range cfg.Admins {
		admins[id] = struct{}{}
	}
	return &AuthService{
		users:  users,
		cfg:    cfg,
		admins: admins,
		now:    time.Now,
		log:    log.With().Str("component", "auth").Logger(),
	}
}

// Register creates a user once; a second registration of the same id fails
// with domain.ErrUserExists.
func (s *AuthService) Register(ctx context.Context, userID, password, name string) (string, domain.UserProfile, error) {
	if !domain.ValidUserID(userID) {
		return "", domain.UserProfile{}, domain.ErrBadUserIDFormat
	}
	if password == "" {
		return "", domain.UserProfile{}, domain.ErrBadRequest
	}
	if name == "" {
		name = userID
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return "", domain.UserProfile{}, fmt.Errorf("hash password: %w", err)
	}
	user := domain.UserAuth{
		UserID:       userID,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UnixMilli(),
	}
	created, err := s.users.CreateUser(ctx, user)
	if err != nil {
		return "", domain.UserProfile{}, fmt.Errorf("create user %s: %w", userID, err)
	}
	if !created {
		return "", domain.UserProfile{}, domain.ErrUserExists
	}
	token, err := s.IssueToken(userID)
	if err != nil {
		return "", domain.UserProfile{}, err
	}
	s.log.Info().Str("user", userID).Msg("user registered")
	return token, s.profile(user), nil
}

// Login checks the password and issues a fresh token.
func (s *AuthService) Login(ctx context.Context, userID, password string) (string, domain.UserProfile, error) {
	if userID == "" || password == "" {
		return "", domain.UserProfile{}, domain.ErrBadRequest
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return "", domain.UserProfile{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", domain.UserProfile{}, domain.ErrWrongPassword
	}
	token, err := s.IssueToken(userID)
	if err != nil {
		return "", domain.UserProfile{}, err
	}
	return token, s.profile(user), nil
}

// Profile loads the public view of a registered user.
func (s *AuthService) Profile(ctx context.Context, userID string) (domain.UserProfile, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return domain.UserProfile{}, err
	}
	return s.profile(user), nil
}

// IsAdmin reports whether userID holds the admin role.
func (s *AuthService) IsAdmin(userID string) bool {
	_, ok := s.admins[userID]
	return ok
}

func (s *AuthService) profile(u domain.UserAuth) domain.UserProfile {
	return domain.UserProfile{UserID: u.UserID, Name: u.Name, CreatedAt: u.CreatedAt, Admin: s.IsAdmin(u.UserID)}
}

// IssueToken signs an HS256 token whose subject is userID.
func (s *AuthService) IssueToken(userID string) (string, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
	}
	if s.IsAdmin(userID) {
		claims.Role = RoleAdmin
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a bearer token and returns its claims.
func (s *AuthService) ParseToken(raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
