package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"grocery/internal/config"
	"grocery/internal/domain/pricing"
	"grocery/internal/handler"
	"grocery/internal/infra/cache"
	"grocery/internal/infra/db"
	"grocery/internal/infra/events"
	"grocery/internal/infra/logger"
	infraRepo "grocery/internal/infra/repository"
	"grocery/internal/infra/retry"
	"grocery/internal/server"
	"grocery/internal/usecase"
	auth "grocery/internal/usecase/auth_usecase"
	"grocery/internal/validator"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

func main() {
	//.env は無くてもよい（本番は環境変数だけ）
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//DB接続
	gormDB, err := db.Connect(cfg.PostgresDSN(), !cfg.IsProduction())
	if err != nil {
		return err
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	policy := retry.DefaultPolicy()
	policy.Timeout = cfg.StoreTimeout
	policy.Backoff = cfg.StoreRetryBackoff

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB, policy)
	productRepo := infraRepo.NewProductGormRepository(gormDB, policy)
	categoryRepo := infraRepo.NewCategoryGormRepository(gormDB, policy)
	inventoryRepo := infraRepo.NewInventoryGormRepository(gormDB, policy)
	cartRepo := infraRepo.NewCartGormRepository(gormDB, policy)
	addressRepo := infraRepo.NewAddressGormRepository(gormDB, policy)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB, policy)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(gormDB, policy)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB, policy)
	notificationRepo := infraRepo.NewNotificationGormRepository(gormDB, policy)
	txManager := infraRepo.NewTxManagerGorm(gormDB, policy)

	//配送料・合計の計算
	calc, err := pricing.NewCalculator(pricing.Config{
		Origin:               pricing.Coordinate{Lat: cfg.StoreLat, Lng: cfg.StoreLng},
		FreeDeliveryRadiusKm: cfg.FreeDeliveryRadiusKm,
		FlatFee:              cfg.FlatDeliveryFee,
	})
	if err != nil {
		return err
	}

	//商品キャッシュ（任意）
	var productCache usecase.ProductCache
	if cfg.RedisURL != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()
		productCache = cache.NewProductCache(rdb, cfg.ProductCacheTTL, policy)
		log.Info("product cache enabled")
	}

	//注文イベント（任意）
	var publisher usecase.OrderEventPublisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		conn, err := amqp.Dial(cfg.AMQPURL)
		if err != nil {
			return err
		}
		defer func() { _ = conn.Close() }()
		p, err := events.NewPublisher(conn)
		if err != nil {
			return err
		}
		defer func() { _ = p.Close() }()
		publisher = p
		log.Info("order events enabled", zap.String("exchange", events.EventsExchange))
	}

	//bcrypt（会員登録：Hash / ログイン：Verify）
	clock := auth.SystemClock{}
	registerUC := auth.NewRegisterUserUsecase(userRepo, auth.NewBcryptPasswordHasher(12), clock)
	loginUC := auth.NewLoginUsecase(userRepo, auth.NewBcryptPasswordVerifier(), auth.NewJWTIssuer(cfg.JWTSecret, cfg.AccessTokenTTL), clock)

	//Usecase生成
	authUC := usecase.NewAuthUsecase(userRepo, auditRepo, registerUC, loginUC, validator.NewAuthValidator())
	productUC := usecase.NewProductUsecase(productRepo, categoryRepo, inventoryRepo, auditRepo, productCache, log)
	cartUC := usecase.NewCartUsecase(cartRepo, productRepo, calc)
	addressUC := usecase.NewAddressUsecase(addressRepo, validator.NewAddressValidator())
	orderUC := usecase.NewOrderUsecase(txManager, orderRepo, orderItemRepo, cartRepo, addressRepo, calc, productCache, log)
	adminOrderUC := usecase.NewAdminOrderUsecase(txManager, orderRepo, orderItemRepo, auditRepo, notificationRepo, publisher, productCache, log)
	deliveryUC := usecase.NewDeliveryUsecase(txManager, orderRepo, orderItemRepo, notificationRepo, publisher, productCache, log)
	courierUC := usecase.NewCourierUsecase(userRepo, auditRepo, registerUC)
	notificationUC := usecase.NewNotificationUsecase(notificationRepo)

	//Handler生成
	h := server.Handlers{
		Auth:         handler.NewAuthHandler(authUC),
		Product:      handler.NewProductHandler(productUC),
		AdminProduct: handler.NewAdminProductHandler(productUC),
		Cart:         handler.NewCartHandler(cartUC),
		Address:      handler.NewAddressHandler(addressUC),
		Order:        handler.NewOrderHandler(orderUC),
		AdminOrder:   handler.NewAdminOrderHandler(adminOrderUC),
		AdminUser:    handler.NewAdminUserHandler(courierUC),
		Delivery:     handler.NewDeliveryHandler(deliveryUC),
		Notification: handler.NewNotificationHandler(notificationUC),
	}
	guards := handler.Guards{Secret: cfg.JWTSecret, Users: userRepo}

	//Server起動
	addr := cfg.Port
	if addr[0] != ':' {
		addr = ":" + addr
	}
	return server.Start(ctx, server.New(log, h, guards), addr, log)
}
