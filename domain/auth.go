package domain

import (
	"github.com/golang-jwt/jwt"

	"github.com/etherbay/goapi/base/ctx"
)

type JwtCustomClaims struct {
	Address string `json:"data"`
	jwt.StandardClaims
}

type AuthUsecase interface {
	// SignToken verifies the wallet signature over the configured message
	// and issues a bearer token for the address
	SignToken(ctx ctx.Ctx, address Address, signature string) (string, error)
	ParseToken(ctx ctx.Ctx, token string) (address string, err error)
}
