package auth

import (
	"github.com/GeoAtlas/Region-Backend/internal/db"
	"github.com/GeoAtlas/Region-Backend/internal/utils"
)

type TokenInfo struct{}

func (ti TokenInfo) FindToken(value string) (utils.TokenData, error) {
	var token Token

	err := db.DB.First(&token, "token = ?", value).Error
	if err != nil {
		return utils.TokenData{}, err
	}

	return utils.TokenData{
		UserID:    token.UserID,
		ExpiresAt: token.ExpiresAt,
	}, nil
}
