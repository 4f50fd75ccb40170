package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"airline-reservation/internal/reservation"
	"airline-reservation/internal/util"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidCredentials is returned for empty usernames or passwords
var ErrInvalidCredentials = &reservation.Error{Kind: reservation.KindValidation, Msg: "username and password are required"}

// Roles offered at login, each landing on its own dashboard
const (
	RoleCustomer      = "Customer"
	RoleAdministrator = "Administrator"
	RoleMember1       = "Member 1 - Customer Management"
	RoleMember2       = "Member 2 - Flight Operations"
	RoleMember3       = "Member 3 - Reservations"
	RoleMember4       = "Member 4 - Cancellation & Refunds"
	RoleMember5       = "Member 5 - Fare Management"
	RoleMember6       = "Member 6 - Analytics"
)

// Dashboard names a landing view and the API area it works with
type Dashboard struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Path  string `json:"path"`
}

var dashboards = map[string]Dashboard{
	RoleCustomer:      {ID: "main", Title: "Main Dashboard", Path: "/api/v1/flights"},
	RoleAdministrator: {ID: "main", Title: "Administrator Dashboard", Path: "/api/v1/stats"},
	RoleMember1:       {ID: "member1", Title: "Customer Management", Path: "/api/v1/customers"},
	RoleMember2:       {ID: "member2", Title: "Flight Operations", Path: "/api/v1/flights"},
	RoleMember3:       {ID: "member3", Title: "Reservations", Path: "/api/v1/reservations"},
	RoleMember4:       {ID: "member4", Title: "Cancellation & Refunds", Path: "/api/v1/refunds"},
	RoleMember5:       {ID: "member5", Title: "Fare Management", Path: "/api/v1/fares"},
	RoleMember6:       {ID: "member6", Title: "Analytics", Path: "/api/v1/stats"},
}

// Roles lists the accepted login roles
func Roles() []string {
	return []string{RoleCustomer, RoleAdministrator, RoleMember1, RoleMember2, RoleMember3, RoleMember4, RoleMember5, RoleMember6}
}

// AuthService is a demo login: any non-empty credentials are accepted. The
// issued token identifies the session but no route requires it.
type AuthService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// NewAuthService creates a new auth service. An empty secret gets a random
// per-process one.
func NewAuthService(secret string, ttl time.Duration) *AuthService {
	if secret == "" {
		secret = uuid.New().String()
	}
	return &AuthService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
		logger: util.GetLogger(),
	}
}

// LoginRequest represents a login attempt
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LoginResponse carries the session token and the landing dashboard
type LoginResponse struct {
	Token     string    `json:"token"`
	Role      string    `json:"role"`
	Dashboard Dashboard `json:"dashboard"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login accepts any non-empty credentials. Unknown roles land on the
// customer dashboard.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	_, span := util.StartSpan(ctx, "AuthService.Login")
	defer span.End()

	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}

	role := req.Role
	dash, ok := dashboards[role]
	if !ok {
		role = RoleCustomer
		dash = dashboards[RoleCustomer]
	}

	now := s.now()
	expires := now.Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  req.Username,
		"role": role,
		"jti":  uuid.New().String(),
		"iat":  now.Unix(),
		"exp":  expires.Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	s.logger.Info("User logged in", zap.String("username", req.Username), zap.String("role", role))
	return &LoginResponse{Token: signed, Role: role, Dashboard: dash, ExpiresAt: expires}, nil
}

// ParseToken verifies a token issued by Login and returns its subject and role
func (s *AuthService) ParseToken(tokenString string) (username, role string, err error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", "", fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", "", errors.New("invalid token claims")
	}
	username, _ = claims["sub"].(string)
	role, _ = claims["role"].(string)
	return username, role, nil
}
