package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

type Operator struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type Claims struct {
	OperatorID string `json:"operatorId"`
	Email      string `json:"email"`
	jwt.RegisteredClaims
}

type Service struct {
	DB     *pgxpool.Pool
	Secret string
}

func NewService(db *pgxpool.Pool, secret string) *Service {
	return &Service{DB: db, Secret: secret}
}

// Login verifies operator credentials and issues a signed token.
func (s *Service) Login(ctx context.Context, email, password string) (string, Operator, error) {
	var op Operator
	var hash []byte
	err := s.DB.QueryRow(ctx, `
    SELECT id, email, name, password_hash
    FROM operators
    WHERE email = $1
  `, email).Scan(&op.ID, &op.Email, &op.Name, &hash)
	if err != nil {
		return "", Operator{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return "", Operator{}, ErrInvalidCredentials
	}

	token, err := GenerateToken(s.Secret, op.ID, op.Email, 12*time.Hour)
	if err != nil {
		return "", Operator{}, err
	}
	return token, op, nil
}

func GenerateToken(secret, operatorID, email string, ttl time.Duration) (string, error) {
	claims := Claims{
		OperatorID: operatorID,
		Email:      email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseToken(secret, raw string) (Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return Claims{}, err
	}
	if !token.Valid {
		return Claims{}, errors.New("invalid token")
	}
	return claims, nil
}
