package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/zyrticx/tradesmart-api/internal/types"
	"github.com/zyrticx/tradesmart-api/pkg/response"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrTokenGeneration    = errors.New("failed to generate token")
	ErrTokenRevoked       = errors.New("token has been revoked")
)

// Claims represents the JWT claims structure
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// Service handles user registration and session management. Sessions are
// stateless JWTs; sign-out puts the token ID on a revocation list that
// expires together with the token itself.
type Service struct {
	db            *Database
	jwtSecret     []byte
	tokenLifetime time.Duration
	revoked       *gocache.Cache
}

// NewService creates a new authentication service
func NewService(gormDB *gorm.DB, jwtSecret string, tokenLifetime time.Duration) *Service {
	return &Service{
		db:            NewDatabase(gormDB),
		jwtSecret:     []byte(jwtSecret),
		tokenLifetime: tokenLifetime,
		revoked:       gocache.New(tokenLifetime, 10*time.Minute),
	}
}

// SignUp registers a new user and returns a session token
func (s *Service) SignUp(email, password, fullName string) (*types.TokenResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	existing, err := s.db.GetUserByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &types.User{
		UserID:       uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		FullName:     fullName,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := s.db.CreateUser(user); err != nil {
		return nil, err
	}

	return s.issueToken(user)
}

// SignIn verifies credentials and returns a session token
func (s *Service) SignIn(email, password string) (*types.TokenResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.db.GetUserByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueToken(user)
}

// SignOut revokes a session token. The token ID stays on the revocation
// list until the token would have expired anyway.
func (s *Service) SignOut(tokenString string) error {
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return err
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	s.revoked.Set(claims.ID, true, ttl)
	return nil
}

// CurrentUser returns the user record for an authenticated user ID
func (s *Service) CurrentUser(userID string) (*types.User, error) {
	user, err := s.db.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

// ValidateToken validates a JWT and rejects revoked sessions
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return nil, err
	}

	if _, found := s.revoked.Get(claims.ID); found {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Authenticate validates a token and returns the user ID it was issued to.
// Satisfies the middleware's TokenValidator.
func (s *Service) Authenticate(tokenString string) (string, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

func (s *Service) issueToken(user *types.User) (*types.TokenResponse, error) {
	expiration := time.Now().Add(s.tokenLifetime)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
		UserID: user.UserID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, ErrTokenGeneration
	}

	return &types.TokenResponse{
		Token:      tokenString,
		Expiration: expiration,
		User:       *user,
	}, nil
}

func (s *Service) parseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// GinHandlers contains HTTP handlers for authentication endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for authentication endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

type signUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name"`
}

type signInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SignUpHandler handles POST requests to register a new user
func (h *GinHandlers) SignUpHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req signUpRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}

		token, err := h.service.SignUp(req.Email, req.Password, req.FullName)
		if errors.Is(err, ErrEmailTaken) {
			response.Conflict(c, err.Error())
			return
		}
		response.Handle(c, token, err)
	}
}

// SignInHandler handles POST requests to authenticate a user
func (h *GinHandlers) SignInHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req signInRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}

		token, err := h.service.SignIn(req.Email, req.Password)
		if errors.Is(err, ErrInvalidCredentials) {
			response.Unauthorized(c, err.Error())
			return
		}
		response.Handle(c, token, err)
	}
}

// SignOutHandler handles POST requests to revoke the current session
func (h *GinHandlers) SignOutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			response.Unauthorized(c, "Authorization header required")
			return
		}
		if err := h.service.SignOut(token); err != nil {
			response.Unauthorized(c, "Invalid token")
			return
		}
		response.Success(c, gin.H{"signed_out": true})
	}
}

// MeHandler handles GET requests for the authenticated user's profile
func (h *GinHandlers) MeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := h.service.CurrentUser(c.GetString("userID"))
		response.Handle(c, user, err)
	}
}

// BearerToken extracts the bearer token from a request's Authorization header.
// Returns empty string when the header is missing or malformed.
func BearerToken(c *gin.Context) string {
	parts := strings.Split(c.GetHeader("Authorization"), " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
