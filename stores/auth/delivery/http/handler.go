package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/etherbay/goapi/base/ctx"
	"github.com/etherbay/goapi/base/delivery"
	"github.com/etherbay/goapi/base/validator"
	"github.com/etherbay/goapi/domain"
)

type authHandler struct {
	auth       domain.AuthUsecase
	signingMsg string
}

func New(e *echo.Echo, auth domain.AuthUsecase, signingMsg string) {
	handler := &authHandler{
		auth:       auth,
		signingMsg: signingMsg,
	}
	g := e.Group("/auth")
	g.POST("/sign", handler.sign)
	g.GET("/signingMsg", handler.getSigningMsg)
}

func (h *authHandler) sign(c echo.Context) error {
	context := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Address   domain.Address `json:"address"`
		Signature string         `json:"signature"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		context.WithField("err", err).Error("bind failed")
		return delivery.MakeJsonResp(c, http.StatusUnprocessableEntity, domain.ErrBadParamInput)
	}

	if !validator.IsValidAddress(p.Address.ToLowerStr()) {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, domain.ErrInvalidAddress)
	}

	tkn, err := h.auth.SignToken(context, p.Address, p.Signature)
	if err != nil {
		context.WithField("err", err).Error("auth.SignToken failed")
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusCreated, tkn)
}

// getSigningMsg returns the message wallets must sign to obtain a token
func (h *authHandler) getSigningMsg(c echo.Context) error {
	res := struct {
		Msg string `json:"msg"`
	}{
		Msg: h.signingMsg,
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}
