package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"autoparts/internal/config"
	"autoparts/internal/handler"
	"autoparts/internal/infra/cache"
	"autoparts/internal/infra/db"
	"autoparts/internal/infra/notify"
	"autoparts/internal/infra/payments"
	infraRepo "autoparts/internal/infra/repository"
	"autoparts/internal/infra/storage"
	"autoparts/internal/logger"
	"autoparts/internal/server"
	"autoparts/internal/usecase"
	"autoparts/internal/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		//設定前なので既定のloggerで落とす
		boot := logger.New("info", "prod")
		boot.Fatal().Err(err).Msg("config")
	}

	log := logger.New(cfg.LogLevel, cfg.GoEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = log.WithContext(ctx)

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("db handle")
	}
	defer sqlDB.Close()

	pricingPolicy, err := cfg.Pricing()
	if err != nil {
		log.Fatal().Err(err).Msg("pricing")
	}

	//Repository（GORM実装）
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	categoryRepo := infraRepo.NewCategoryGormRepository(gormDB)
	imageRepo := infraRepo.NewProductImageGormRepository(gormDB)
	compatRepo := infraRepo.NewCompatibilityGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(gormDB)
	addressRepo := infraRepo.NewAddressGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//チェックアウトの下書き（Redis）
	rdb := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer rdb.Close()
	drafts := cache.NewRedisDraftStore(rdb, cfg.CheckoutDraftTTL)

	//カード決済（キーが無ければ代引きのみ）
	var paymentProvider usecase.PaymentProvider
	if cfg.StripeSecretKey != "" {
		sp, err := payments.NewStripeProvider(payments.StripeConfig{
			APIKey:     cfg.StripeSecretKey,
			SuccessURL: cfg.StripeSuccessURL,
			CancelURL:  cfg.StripeCancelURL,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("stripe")
		}
		paymentProvider = sp
	} else {
		log.Warn().Msg("STRIPE_SECRET_KEY is empty: card payments disabled")
	}

	//注文イベント
	var notifier usecase.OrderNotifier = notify.NewLogNotifier(log)
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		kn := notify.NewKafkaNotifier(brokers, cfg.KafkaOrderTopic)
		defer kn.Close()
		notifier = kn
	}

	//商品画像
	var objectStore usecase.ObjectStore
	if cfg.GCSBucket != "" {
		gs, err := storage.NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSCredentialsFile, cfg.GCSPublicBaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("gcs")
		}
		defer gs.Close()
		objectStore = gs
	} else {
		log.Warn().Msg("GCS_BUCKET is empty: image upload disabled")
	}

	v := validator.New()

	//Usecase
	productUC := usecase.NewProductUsecase(txm, productRepo, imageRepo, compatRepo, v, cfg.LowStockThreshold)
	imageUC := usecase.NewProductImageUsecase(txm, productRepo, imageRepo, objectStore)
	categoryUC := usecase.NewCategoryUsecase(categoryRepo, v)
	cartUC := usecase.NewCartUsecase(cartRepo, productRepo)
	orderUC := usecase.NewOrderUsecase(txm, orderRepo, orderItemRepo, paymentProvider, notifier, v, pricingPolicy)
	checkoutUC := usecase.NewCheckoutUsecase(drafts, v, orderUC)
	addressUC := usecase.NewAddressUsecase(txm, addressRepo, v)
	adminOrderUC := usecase.NewAdminOrderUsecase(txm, orderRepo, orderItemRepo, notifier)
	auditUC := usecase.NewAuditLogUsecase(auditRepo)

	//Handler
	h := server.Handlers{
		Health:       handler.NewHealthHandler(sqlDB),
		Product:      handler.NewProductHandler(productUC, imageUC),
		AdminProduct: handler.NewAdminProductHandler(productUC, imageUC),
		Category:     handler.NewCategoryHandler(categoryUC),
		Cart:         handler.NewCartHandler(cartUC),
		Checkout:     handler.NewCheckoutHandler(checkoutUC),
		Order:        handler.NewOrderHandler(orderUC),
		Address:      handler.NewAddressHandler(addressUC),
		AdminOrder:   handler.NewAdminOrderHandler(adminOrderUC, auditUC),
	}

	e := server.New(cfg, log, userRepo, h)

	addr := cfg.Port
	if addr != "" && addr[0] != ':' {
		addr = ":" + addr
	}

	log.Info().Str("addr", addr).Msg("server starting")
	if err := server.Start(ctx, e, addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		return
	}
	log.Info().Msg("server stopped")
}
