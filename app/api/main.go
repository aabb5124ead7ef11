package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/viper"
	"github.com/viney-shih/goroutines"

	"github.com/etherbay/goapi/base/ctx"
	"github.com/etherbay/goapi/base/database/mongoclient"
	"github.com/etherbay/goapi/base/log"
	bValidator "github.com/etherbay/goapi/base/validator"
	mmiddleware "github.com/etherbay/goapi/middleware"
	"github.com/etherbay/goapi/service/feed"
	"github.com/etherbay/goapi/service/query"
	activity_repository "github.com/etherbay/goapi/stores/activity/repository"
	activity_usecase "github.com/etherbay/goapi/stores/activity/usecase"
	auth_delivery "github.com/etherbay/goapi/stores/auth/delivery/http"
	auth_middleware "github.com/etherbay/goapi/stores/auth/delivery/http/middleware"
	auth_usecase "github.com/etherbay/goapi/stores/auth/usecase"
	escrow_repository "github.com/etherbay/goapi/stores/escrow/repository"
	listing_repository "github.com/etherbay/goapi/stores/listing/repository"
	market_delivery "github.com/etherbay/goapi/stores/market/delivery/http"
	market_usecase "github.com/etherbay/goapi/stores/market/usecase"
)

func init() {
	viper.SetConfigType("yaml")
	viper.SetConfigFile(`infra/configs/config.yaml`)
	err := viper.ReadInConfig()
	if err != nil {
		panic(err)
	}

	if viper.GetBool(`debug`) {
		log.Log().Info("Service RUN on DEBUG mode")
	}
}

func main() {
	// init echo
	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{}))
	e.Use(middleware.RequestID())
	middL := mmiddleware.InitMiddleware()
	e.Use(middL.ResponseLogger())
	e.Use(middL.AddContext())
	e.Use(middleware.CORS())
	e.Validator = bValidator.NewCustomValidator(validator.New())

	context := ctx.Background()

	// init mongo, activity archive only
	context.Info("init mongo")
	mongoURI := viper.GetString("mongo.uri")
	mongoDBName := viper.GetString("mongo.dbName")
	mongoPoolSize := viper.GetUint64("mongo.poolSize")
	mongoClient := mongoclient.MustConnectMongoClient(mongoURI, mongoDBName, mongoPoolSize)
	q := query.New(mongoClient)

	// event hub
	hub := feed.NewHub()
	go hub.Run()
	defer hub.Close()

	// archive writer pool
	archivePool := goroutines.NewPool(viper.GetInt("archive.workers"))
	defer archivePool.Release()

	// construct repository, usecase and delivery
	activityRepo := activity_repository.NewActivityRepo(q)
	activityUC := activity_usecase.New(activityRepo)

	listingRepo := listing_repository.NewListingRepo()
	escrowLedger := escrow_repository.NewEscrowLedger()
	marketUC := market_usecase.New(&market_usecase.MarketUseCaseCfg{
		ListingRepo:  listingRepo,
		EscrowLedger: escrowLedger,
		Feed:         hub,
		ActivityUC:   activityUC,
		ArchivePool:  archivePool,
	})

	auth := auth_usecase.New(viper.GetString("auth.jwtSecret"), viper.GetString("auth.signatureMsg"))
	authMw := auth_middleware.New(auth)

	auth_delivery.New(e, auth, viper.GetString("auth.signatureMsg"))
	market_delivery.New(e, marketUC, activityUC, hub, mongoClient, authMw)

	go func() {
		if err := e.Start(viper.GetString("server.address")); err != nil && err != http.ErrServerClosed {
			log.Log().WithField("err", err).Error("shutting down the server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 10 seconds.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	sig := <-quit
	log.Log().WithField("signal", sig).Info("received signal")
	shutdownCtx, cancel := ctx.WithTimeout(context, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Log().WithField("err", err).Error("shutting down the server")
	} else {
		log.Log().Info("shutdown server successfully")
	}
}
