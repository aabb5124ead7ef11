package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/etherbay/goapi/base/ctx"
	"github.com/etherbay/goapi/base/database/mongoclient"
	"github.com/etherbay/goapi/base/delivery"
	"github.com/etherbay/goapi/base/ptr"
	"github.com/etherbay/goapi/domain"
	"github.com/etherbay/goapi/domain/activity"
	"github.com/etherbay/goapi/domain/listing"
	"github.com/etherbay/goapi/domain/market"
	"github.com/etherbay/goapi/middleware"
	"github.com/etherbay/goapi/service/feed"
	authMiddleware "github.com/etherbay/goapi/stores/auth/delivery/http/middleware"
)

type handler struct {
	market   market.Usecase
	activity activity.Usecase
	hub      *feed.Hub
	mongo    *mongoclient.Client
	started  time.Time
}

func New(e *echo.Echo, marketUC market.Usecase, activityUC activity.Usecase, hub *feed.Hub, mongo *mongoclient.Client, authMw *authMiddleware.AuthMiddleware) {
	h := &handler{
		market:   marketUC,
		activity: activityUC,
		hub:      hub,
		mongo:    mongo,
		started:  time.Now(),
	}

	g := e.Group("/market")
	g.POST("/listings", h.createListing, authMw.Auth())
	g.GET("/listings", h.getListings)
	g.GET("/listings/count", h.getTotalListings)
	g.GET("/listings/:id", h.getListing)
	g.POST("/listings/:id/buy", h.buyListing, authMw.Auth())
	g.POST("/listings/:id/confirm", h.confirmDelivery, authMw.Auth())
	g.POST("/listings/:id/disable", h.disableListing, authMw.Auth())

	g.GET("/transactions/:id", h.getTransaction)
	g.GET("/transactions/:id/amount", h.getTransactionField(func(tx txView) interface{} { return tx.Amount }))
	g.GET("/transactions/:id/buyer", h.getTransactionField(func(tx txView) interface{} { return tx.Buyer }))
	g.GET("/transactions/:id/seller", h.getTransactionField(func(tx txView) interface{} { return tx.Seller }))
	g.GET("/transactions/:id/status", h.getTransactionField(func(tx txView) interface{} { return tx.Status }))
	g.GET("/transactions/:id/custody", h.getCustody)

	g.GET("/accounts/:address/listings", h.getSellerListings, middleware.IsValidAddress("address"))
	g.GET("/accounts/:address/transactions", h.getPartyTransactions, middleware.IsValidAddress("address"))
	g.GET("/accounts/:address/balance", h.getBalance, middleware.IsValidAddress("address"))

	g.GET("/activities", h.getActivities)
	g.GET("/events", h.subscribeEvents)

	e.GET("/health", h.health)
}

func (h *handler) createListing(c echo.Context) error {
	context := c.Get("ctx").(ctx.Ctx)
	seller := c.Get("address").(domain.Address)

	type params struct {
		PriceWei    string `json:"priceWei" validate:"required"`
		Title       string `json:"title" validate:"required"`
		Description string `json:"description"`
		ImageRef    string `json:"imageRef"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		context.WithField("err", err).Error("bind failed")
		return delivery.MakeJsonResp(c, http.StatusUnprocessableEntity, domain.ErrBadParamInput)
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, domain.ErrBadParamInput)
	}

	id, err := h.market.CreateListing(context, market.CreateListingParams{
		Seller:      seller,
		PriceWei:    p.PriceWei,
		Title:       p.Title,
		Description: p.Description,
		ImageRef:    p.ImageRef,
	})
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	res := struct {
		Id int64 `json:"id"`
	}{Id: id}
	return delivery.MakeJsonResp(c, http.StatusCreated, res)
}

func (h *handler) getListing(c echo.Context) error {
	context := c.Get("ctx").(ctx.Ctx)

	id, err := parseId(c.Param("id"))
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	info, err := h.market.GetListing(context, id)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, info)
}

func (h *handler) getListings(c echo.Context) error {
	context := c.Get("ctx").(ctx.Ctx)

	var status *listing.Status
	if raw := c.QueryParam("status"); raw != "" {
		st := listing.Status(raw)
		if !st.IsValid() {
			return delivery.MakeJsonResp(c, http.StatusBadRequest, domain.ErrBadParamInput)
		}
		status = &st
	}

	infos, err := h.market.GetListings(context, status)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, infos)
}

func (h *handler) getTotalListings(c echo.Context) error {
	context := c.Get("ctx").(ctx.Ctx)

	count, err := h.market.GetTotalListings(context)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	res := struct {
		Count int64 `json:"count"`
	}{Count: count}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) getSellerListings(c echo.Context) error {
	context := c.Get("ctx").(ctx.Ctx)
	seller := domain.Address(c.Param("address"))

	ids, err := h.market.GetSellerListings(context, seller)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, ids)
}

func (h *handler) buyListing(c echo.Context) error {
	context := c.Get("ctx").(ctx.Ctx)
	buyer := c.Get("address").(domain.Address)

	id, err := parseId(c.Param("id"))
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	type params struct {
		PaidAmount string `json:"paidAmount" validate:"required"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		context.WithField("err", err).Error("bind failed")
		return delivery.MakeJsonResp(c, http.StatusUnprocessableEntity, domain.ErrBadParamInput)
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, domain.ErrBadParamInput)
	}

	if err := h.market.BuyListing(context, id, buyer, p.PaidAmount); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) confirmDelivery(c echo.Context) error {
	context := c.Get("ctx").(ctx.Ctx)
	caller := c.Get("address").(domain.Address)

	id, err := parseId(c.Param("id"))
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	if err := h.market.ConfirmDelivery(context, id, caller); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) disableListing(c echo.Context) error {
	context := c.Get("ctx").(ctx.Ctx)
	caller := c.Get("address").(domain.Address)

	id, err := parseId(c.Param("id"))
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	if err := h.market.DisableListing(context, id, caller); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

// txView narrows a transaction to its queryable fields
type txView struct {
	Amount string
	Buyer  domain.Address
	Seller domain.Address
	Status string
}

func (h *handler) getTransaction(c echo.Context) error {
	context := c.Get("ctx").(ctx.Ctx)

	id, err := parseId(c.Param("id"))
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	tx, err := h.market.GetTransaction(context, id)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, tx)
}

func (h *handler) getTransactionField(pick func(txView) interface{}) echo.HandlerFunc {
	return func(c echo.Context) error {
		context := c.Get("ctx").(ctx.Ctx)

		id, err := parseId(c.Param("id"))
		if err != nil {
			return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
		}

		tx, err := h.market.GetTransaction(context, id)
		if err != nil {
			return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
		}

		view := txView{
			Amount: tx.Amount,
			Buyer:  tx.Buyer,
			Seller: tx.Seller,
			Status: string(tx.Status),
		}
		return delivery.MakeJsonResp(c, http.StatusOK, pick(view))
	}
}

func (h *handler) getCustody(c echo.Context) error {
	context := c.Get("ctx").(ctx.Ctx)

	id, err := parseId(c.Param("id"))
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	held, err := h.market.GetCustody(context, id)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, held)
}

func (h *handler) getPartyTransactions(c echo.Context) error {
	context := c.Get("ctx").(ctx.Ctx)
	party := domain.Address(c.Param("address"))

	ids, err := h.market.GetPartyTransactions(context, party)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, ids)
}

func (h *handler) getBalance(c echo.Context) error {
	context := c.Get("ctx").(ctx.Ctx)
	party := domain.Address(c.Param("address"))

	balance, err := h.market.GetBalance(context, party)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, balance)
}

func (h *handler) getActivities(c echo.Context) error {
	context := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Actor     *domain.Address `query:"actor"`
		ListingId *int64          `query:"listingId"`
		Type      *string         `query:"type"`
		Offset    *int32          `query:"offset"`
		Limit     *int32          `query:"limit"`
	}

	p := &params{}
	if err := c.Bind(p); err != nil {
		context.WithField("err", err).Error("bind failed")
		return delivery.MakeJsonResp(c, http.StatusUnprocessableEntity, domain.ErrBadParamInput)
	}
	if p.Offset == nil {
		p.Offset = ptr.Int32(0)
	}
	if p.Limit == nil {
		p.Limit = ptr.Int32(50)
	}

	opts := []activity.FindAllOptionsFunc{activity.WithPagination(*p.Offset, *p.Limit)}
	if p.Actor != nil {
		opts = append(opts, activity.WithActor(*p.Actor))
	}
	if p.ListingId != nil {
		opts = append(opts, activity.WithListingId(*p.ListingId))
	}
	if p.Type != nil {
		opts = append(opts, activity.WithType(*p.Type))
	}

	items, err := h.activity.FindAll(context, opts...)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	count, err := h.activity.Count(context, opts...)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	res := struct {
		Items []*activity.Activity `json:"items"`
		Count int                  `json:"count"`
	}{Items: items, Count: count}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) subscribeEvents(c echo.Context) error {
	context := c.Get("ctx").(ctx.Ctx)
	return h.hub.ServeWs(context, c.Response(), c.Request())
}

func (h *handler) health(c echo.Context) error {
	context := c.Get("ctx").(ctx.Ctx)

	mongoStatus := "ok"
	if h.mongo != nil {
		pingCtx, cancel := ctx.WithTimeout(context, 2*time.Second)
		if !h.mongo.Healthy(pingCtx) {
			mongoStatus = "unreachable"
		}
		cancel()
	}

	res := struct {
		Status string  `json:"status"`
		Mongo  string  `json:"mongo"`
		Uptime float64 `json:"uptimeSeconds"`
	}{
		Status: "ok",
		Mongo:  mongoStatus,
		Uptime: time.Since(h.started).Seconds(),
	}
	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

// parseId rejects non-numeric ids up front. Range checks (zero, negative,
// beyond the counter) are the stores' responsibility and come back NotFound.
func parseId(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, domain.ErrBadParamInput
	}
	return id, nil
}
