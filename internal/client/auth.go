package client

import (
	"context"

	"github.com/adanyl0v/go-todo-client/internal/models"
)

type authServiceImpl struct {
	transport Transport
}

func NewAuthService(transport Transport) AuthService {
	return &authServiceImpl{transport: transport}
}

func (s *authServiceImpl) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	resp := new(models.LoginResponse)
	err := s.transport.Post(ctx, "/auth/login", req, resp)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *authServiceImpl) SignUp(ctx context.Context, req models.SignUpRequest) (*models.User, error) {
	user := new(models.User)
	err := s.transport.Post(ctx, "/auth/signup", req, user)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *authServiceImpl) CurrentUser(ctx context.Context) (*models.User, error) {
	user := new(models.User)
	err := s.transport.Get(ctx, "/auth/me", user)
	if err != nil {
		return nil, err
	}
	return user, nil
}
