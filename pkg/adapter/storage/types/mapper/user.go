package mapper

import (
	"github.com/google/uuid"

	"github.com/clearpath-sec/cloudscan/internal/user/domain"
	"github.com/clearpath-sec/cloudscan/pkg/adapter/storage/types"
)

func UserDomain2Storage(user domain.User) *types.User {
	return &types.User{
		ID:        user.ID.String(),
		FirstName: &user.FirstName,
		LastName:  &user.LastName,
		Username:  user.Username,
		Password:  user.Password,
		CreatedAt: user.CreatedAt,
		UpdatedAt: timePtrOrNil(user.UpdatedAt),
		DeletedAt: timePtrOrNil(user.DeletedAt),
	}
}

func UserStorage2Domain(user types.User) (*domain.User, error) {
	uid, err := domain.UserIDFromString(user.ID)

	return &domain.User{
		ID:        uid,
		FirstName: strOrEmpty(user.FirstName),
		LastName:  strOrEmpty(user.LastName),
		Username:  user.Username,
		Password:  user.Password,
		CreatedAt: user.CreatedAt,
		UpdatedAt: timeOrZero(user.UpdatedAt),
		DeletedAt: timeOrZero(user.DeletedAt),
	}, err
}

func UserSessionDomain2Storage(session domain.Sessions) *types.Session {
	return &types.Session{
		UserID:       session.UserID.String(),
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		IsLogin:      session.IsLogin,
		CreatedAt:    session.CreatedAt,
		LoggedOutAt:  timePtrOrNil(session.LoggedOutAt),
	}
}

func UserSessionStorage2Domain(session types.Session) (*domain.Sessions, error) {
	uid, err := uuid.Parse(session.UserID)
	return &domain.Sessions{
		UserID:       uid,
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		IsLogin:      session.IsLogin,
		CreatedAt:    session.CreatedAt,
		LoggedOutAt:  timeOrZero(session.LoggedOutAt),
	}, err
}
