package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recipebox/internal/cache"
	"recipebox/internal/models"
	"recipebox/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// Password length bounds in bytes. bcrypt rejects anything over 72 bytes.
const (
	MinPasswordLength = 5
	MaxPasswordLength = 72
)

// UserCache caches resolved users for the authentication middleware.
type UserCache interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	SetUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id string) error
}

// ProfileUpdate carries the profile fields to change. Nil fields are left as they are.
type ProfileUpdate struct {
	Email    *string
	Name     *string
	Password *string
}

// AuthService handles accounts, credentials and bearer tokens.
type AuthService struct {
	userRepo   repositories.UserRepository
	cache      UserCache
	jwtSecret  []byte
	tokenTTL   time.Duration
}

// NewAuthService creates a new AuthService. A nil cache disables caching.
func NewAuthService(userRepo repositories.UserRepository, userCache UserCache, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if userCache == nil {
		userCache = cache.Noop{}
	}
	return &AuthService{
		userRepo:   userRepo,
		cache:      userCache,
		jwtSecret:  []byte(jwtSecret),
		tokenTTL:   tokenTTL,
	}
}

// RegisterUser creates a regular active user.
func (s *AuthService) RegisterUser(ctx context.Context, email, password, name string) (*models.User, error) {
	return s.createUser(ctx, &models.User{Email: email, Name: name, IsActive: true}, password)
}

// CreateSuperuser creates an active user with the staff and superuser flags set.
func (s *AuthService) CreateSuperuser(ctx context.Context, email, password, name string) (*models.User, error) {
	return s.createUser(ctx, &models.User{
		Email:       email,
		Name:        name,
		IsActive:    true,
		IsStaff:     true,
		IsSuperuser: true,
	}, password)
}

func (s *AuthService) createUser(ctx context.Context, user *models.User, password string) (*models.User, error) {
	user.Email = models.NormalizeEmail(user.Email)
	if user.Email == "" {
		return nil, &ValidationError{Field: "email", Message: models.ErrEmailRequired.Error()}
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	if existing, err := s.userRepo.GetByEmail(ctx, user.Email); err == nil && existing != nil {
		return nil, ErrEmailTaken
	} else if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashed, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	user.Password = hashed

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":   user.ID,
		"superuser": user.IsSuperuser,
	}).Info("User created")
	return user, nil
}

// CheckPassword reports whether password matches the user's stored hash.
func CheckPassword(user *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) == nil
}

func validatePassword(password string) error {
	switch {
	case len(password) < MinPasswordLength:
		return &ValidationError{Field: "password", Message: fmt.Sprintf("Ensure this field has at least %d characters.", MinPasswordLength)}
	case len(password) > MaxPasswordLength:
		return &ValidationError{Field: "password", Message: fmt.Sprintf("Ensure this field has no more than %d characters.", MaxPasswordLength)}
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// IssueToken authenticates email and password and returns a signed bearer token.
func (s *AuthService) IssueToken(ctx context.Context, email, password string) (string, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to look up user: %w", err)
	}
	if !user.IsActive || !CheckPassword(user, password) {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     now.Add(s.tokenTTL).Unix(),
		"iat":     now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a token, returning its claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

// Authenticate resolves a bearer token to an active user, consulting the cache first.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*models.User, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return nil, fmt.Errorf("%w: missing user_id claim", ErrInvalidToken)
	}

	user, err := s.cache.GetUser(ctx, userID)
	if err != nil {
		logrus.WithError(err).Warn("User cache lookup failed")
	}
	if user == nil {
		user, err = s.userRepo.GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: unknown user", ErrInvalidToken)
			}
			return nil, fmt.Errorf("failed to resolve token user: %w", err)
		}
		if err := s.cache.SetUser(ctx, user); err != nil {
			logrus.WithError(err).Warn("User cache store failed")
		}
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: user inactive", ErrInvalidToken)
	}
	return user, nil
}

// GetProfile returns the user with the given id.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile applies the non-nil fields of upd, re-hashing a new password.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*models.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if upd.Email != nil {
		email := models.NormalizeEmail(*upd.Email)
		if email == "" {
			return nil, &ValidationError{Field: "email", Message: models.ErrEmailRequired.Error()}
		}
		if email != user.Email {
			if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
				return nil, ErrEmailTaken
			}
		}
		user.Email = email
	}
	if upd.Name != nil {
		user.Name = *upd.Name
	}
	if upd.Password != nil {
		if err := validatePassword(*upd.Password); err != nil {
			return nil, err
		}
		hashed, err := hashPassword(*upd.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hashed
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if err := s.cache.DeleteUser(ctx, user.ID); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Warn("User cache invalidation failed")
	}
	return user, nil
}
