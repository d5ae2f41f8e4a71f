package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-client/internal/models"
)

type authServiceImpl struct {
	logger            zerolog.Logger
	pgPool            *pgxpool.Pool
	jwtIssuer         string
	jwtSigningKey     []byte
	jwtAccessTokenTTL time.Duration
}

func NewAuthService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
	jwtIssuer string,
	jwtSigningKey []byte,
	jwtAccessTokenTTL time.Duration,
) AuthService {
	return &authServiceImpl{
		logger:            logger,
		pgPool:            pgPool,
		jwtIssuer:         jwtIssuer,
		jwtSigningKey:     jwtSigningKey,
		jwtAccessTokenTTL: jwtAccessTokenTTL,
	}
}

func (s *authServiceImpl) SignUp(ctx context.Context, params SignUpParams) (*models.User, error) {
	role := params.Role
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		s.logger.Error().
			Str("role", string(params.Role)).
			Msg("invalid role")
		return nil, ErrInvalidRole
	}

	now := time.Now()
	user := &models.User{
		Name:      strings.TrimSpace(params.Name),
		Email:     strings.ToLower(strings.TrimSpace(params.Email)),
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}

	userUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate user uuid")
		return nil, err
	}
	user.ID = userUUID.String()

	passwordHash, err := argon2id.CreateHash(params.Password, argon2id.DefaultParams)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to hash password")
		return nil, err
	}
	user.Password = passwordHash

	const insertUserQuery = `
INSERT INTO users (id,
                   name,
                   email,
                   password,
                   role,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`
	_, err = s.pgPool.Exec(
		ctx,
		insertUserQuery,
		user.ID,
		user.Name,
		user.Email,
		user.Password,
		user.Role,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			s.logger.Error().
				Str("email", user.Email).
				Msg("user with this email already exists")
			return nil, ErrUserAlreadyExists
		}

		s.logger.Error().
			Err(err).
			Msg("failed to insert user")
		return nil, err
	}
	s.logger.Debug().
		Str("user_id", user.ID).
		Str("email", user.Email).
		Msg("inserted user")

	s.logger.Info().
		Str("user_id", user.ID).
		Str("role", string(user.Role)).
		Msg("signed up user")
	return user, nil
}

func (s *authServiceImpl) Login(ctx context.Context, params LoginParams) (*LoginResult, error) {
	user := &models.User{
		Email: strings.ToLower(strings.TrimSpace(params.Email)),
	}

	const selectUserByEmailQuery = `
SELECT id,
       name,
       password,
       role,
       created_at,
       updated_at
FROM users
WHERE email = $1
`
	err := s.pgPool.QueryRow(
		ctx,
		selectUserByEmailQuery,
		user.Email,
	).Scan(
		&user.ID,
		&user.Name,
		&user.Password,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("email", user.Email).
				Msg("user not found")
			return nil, ErrUserNotFound
		}

		s.logger.Error().
			Err(err).
			Str("email", user.Email).
			Msg("failed to select user by email")
		return nil, err
	}
	s.logger.Debug().
		Str("user_id", user.ID).
		Msg("selected user")

	match, err := argon2id.ComparePasswordAndHash(params.Password, user.Password)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to compare password")
		return nil, err
	} else if !match {
		s.logger.Error().
			Str("user_id", user.ID).
			Msg("passwords do not match")
		return nil, ErrUserPasswordMismatch
	}

	accessToken, expiresAt, err := s.generateAccessToken(user)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate access token")
		return nil, err
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Time("expires_at", expiresAt).
		Msg("logged in")
	return &LoginResult{
		AccessToken:          accessToken,
		AccessTokenExpiresAt: expiresAt,
		User:                 user,
	}, nil
}

func (s *authServiceImpl) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	user := &models.User{ID: userID}

	const selectUserByIDQuery = `
SELECT name,
       email,
       role,
       created_at,
       updated_at
FROM users
WHERE id = $1
`
	err := s.pgPool.QueryRow(
		ctx,
		selectUserByIDQuery,
		user.ID,
	).Scan(
		&user.Name,
		&user.Email,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("user_id", user.ID).
				Msg("user not found")
			return nil, ErrUserNotFound
		}

		s.logger.Error().
			Err(err).
			Str("user_id", user.ID).
			Msg("failed to select user by id")
		return nil, err
	}

	s.logger.Debug().
		Str("user_id", user.ID).
		Msg("selected user")
	return user, nil
}

func (s *authServiceImpl) ParseAccessToken(token string) (*AccessClaims, error) {
	t, err := jwt.ParseWithClaims(
		token,
		&AccessClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.jwtSigningKey, nil
		},
		jwt.WithIssuer(s.jwtIssuer),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("token is expired: %w", err)
		}
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := t.Claims.(*AccessClaims)
	if !ok || claims.Subject == "" {
		return nil, errors.New("failed to parse token: missing subject")
	}
	return claims, nil
}

func (s *authServiceImpl) generateAccessToken(user *models.User) (string, time.Time, error) {
	tokenUUID, err := uuid.NewRandom()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate id: %w", err)
	}

	now := time.Now()
	expiresAt := now.Add(s.jwtAccessTokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenUUID.String(),
			Issuer:    s.jwtIssuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})

	signed, err := token.SignedString(s.jwtSigningKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}
