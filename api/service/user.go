package service

import (
	"context"
	"errors"
	"time"

	jwt2 "github.com/golang-jwt/jwt/v5"

	"github.com/clearpath-sec/cloudscan/internal/user"
	"github.com/clearpath-sec/cloudscan/internal/user/domain"
	userPort "github.com/clearpath-sec/cloudscan/internal/user/port"
	"github.com/clearpath-sec/cloudscan/pkg/jwt"
	timeutils "github.com/clearpath-sec/cloudscan/pkg/time"
)

var (
	ErrUserOnCreate        = user.ErrUserOnCreate
	ErrUserNotFound        = user.ErrUserNotFound
	ErrSessionOnCreate     = user.ErrSessionOnCreate
	ErrSessionOnInvalidate = user.ErrSessionOnInvalidate

	ErrInvalidUserPassword = errors.New("invalid username or password")
)

type UserSignUpRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
	Password  string `json:"password"`
}

type UserSignInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UserSignOutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type UserTokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type UserService struct {
	service               userPort.Service
	authSecret            string
	expMin, refreshExpMin uint
}

func NewUserService(srv userPort.Service, authSecret string, expMin, refreshExpMin uint) *UserService {
	return &UserService{
		service:       srv,
		authSecret:    authSecret,
		expMin:        expMin,
		refreshExpMin: refreshExpMin,
	}
}

func (s *UserService) SignUp(ctx context.Context, req *UserSignUpRequest) (*UserTokenResponse, error) {
	hPassword, err := domain.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	uid, err := s.service.CreateUser(ctx, domain.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		Password:  hPassword,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return nil, err
	}

	access, refresh, err := s.createTokens(uid)
	if err != nil {
		return nil, err
	}
	return &UserTokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

func (s *UserService) SignIn(ctx context.Context, req *UserSignInRequest) (*UserTokenResponse, error) {
	user, err := s.service.GetUserByUsername(ctx, domain.UserFilter{
		Username: req.Username,
	})

	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, ErrUserNotFound
	}

	if !user.CheckPasswordHash(req.Password, user.Password) {
		return nil, ErrInvalidUserPassword
	}
	access, refresh, err := s.createTokens(user.ID)
	if err != nil {
		return nil, err
	}
	err = s.service.StoreUserSession(ctx, domain.Sessions{
		UserID:       user.ID,
		AccessToken:  access,
		RefreshToken: refresh,
		IsLogin:      true,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		return nil, ErrSessionOnCreate
	}

	return &UserTokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

func (s *UserService) SignOut(ctx context.Context, req *UserSignOutRequest) error {
	err := s.service.InvalidateUserSession(ctx, req.RefreshToken)
	if err != nil {
		return ErrSessionOnInvalidate
	}
	return nil
}

func (s *UserService) createTokens(userID domain.UserID) (access, refresh string, err error) {
	access, err = jwt.CreateToken([]byte(s.authSecret), &jwt.UserClaims{
		RegisteredClaims: jwt2.RegisteredClaims{
			ExpiresAt: jwt2.NewNumericDate(timeutils.AddMinutes(s.expMin, true)),
		},
		UserID: userID.String(),
	})
	if err != nil {
		return
	}

	refresh, err = jwt.CreateToken([]byte(s.authSecret), &jwt.UserClaims{
		RegisteredClaims: jwt2.RegisteredClaims{
			ExpiresAt: jwt2.NewNumericDate(timeutils.AddMinutes(s.refreshExpMin, true)),
		},
		UserID: userID.String(),
	})

	if err != nil {
		return
	}

	return
}
