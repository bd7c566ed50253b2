package mapper

import (
	"github.com/routeledger/backend/internal/auth/service/dto"
	userdomain "github.com/routeledger/backend/internal/user/domain"
)

func UserToSafeUser(user userdomain.User) dto.SafeUser {
	return dto.SafeUser{
		ID:        string(user.ID),
		Username:  user.Username,
		FullName:  user.FullName,
		Role:      string(user.Role),
		Email:     user.Email,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
