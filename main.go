package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/Endry199/jpstore/config"
	"github.com/Endry199/jpstore/controllers"
	"github.com/Endry199/jpstore/database"
	"github.com/Endry199/jpstore/logger"
	"github.com/Endry199/jpstore/middleware"
	awspkg "github.com/Endry199/jpstore/pkg/aws"
	"github.com/Endry199/jpstore/repository"
	"github.com/Endry199/jpstore/routes"
	"github.com/Endry199/jpstore/sender"
	"github.com/Endry199/jpstore/services"
)

const serviceName = "jpstore-checkout"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	ctx := context.Background()

	var cloudWatch io.Writer
	var cwLogs *awspkg.CloudWatchLogsClient
	if cfg.CloudWatchEnabled {
		setupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		cw, err := awspkg.NewCloudWatchLogsClient(setupCtx, serviceName)
		cancel()
		if err != nil {
			os.Stderr.WriteString("CloudWatch logs disabled: " + err.Error() + "\n")
		} else {
			cwLogs = cw
			cloudWatch = cw
		}
	}

	log, err := logger.New(cfg.Env, cloudWatch)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	log.Info("Starting checkout service", zap.String("env", cfg.Env))

	// Database. Without credentials the server still starts and checkout
	// answers with a configuration error.
	var db *gorm.DB
	var txRepo repository.TransactionRepository
	var productRepo repository.ProductRepository
	if err := cfg.CheckoutReady(); err != nil {
		log.Warn("Checkout not configured, store disabled", zap.Error(err))
	} else {
		db, err = database.ConnectPostgres(log, cfg.PostgresDSN())
		if err != nil {
			log.Fatal("DB connection failed", zap.Error(err))
		}
		txRepo = repository.NewGormTransactionRepo(db)
		productRepo = repository.NewGormProductRepo(db)
	}

	// Redis (optional)
	var cache *redis.Client
	if cfg.RedisURL != "" {
		cache, err = database.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("Redis unavailable, product cache disabled", zap.Error(err))
			cache = nil
		}
	}

	// CloudWatch (non-fatal)
	metricsClient, err := awspkg.NewMetricsClient(ctx)
	if err != nil {
		log.Warn("CloudWatch metrics client init failed (non-fatal)", zap.Error(err))
	}

	// Receipt archive (optional)
	var receipts services.ReceiptArchiver
	if cfg.ReceiptBucket != "" {
		awsCfg, err := awspkg.LoadAWSConfig(ctx)
		if err != nil {
			log.Warn("Receipt archive disabled", zap.Error(err))
		} else {
			receipts = awspkg.NewReceiptArchive(awsCfg, cfg.ReceiptBucket)
		}
	}

	// Senders. A transport that cannot be built leaves its channel failing
	// per order instead of stopping the service.
	var messenger sender.OperatorMessenger
	if tg, err := sender.NewTelegramSender(cfg.TelegramAPIURL, cfg.Checkout.TelegramBotToken, cfg.NotifyTimeout); err != nil {
		log.Error("Telegram sender disabled", zap.Error(err))
	} else {
		messenger = tg
	}

	var mailer sender.EmailSender
	if smtp, err := sender.NewSMTPSender(sender.SMTPConfig{
		Host:       cfg.Checkout.SMTPHost,
		Port:       cfg.Checkout.SMTPPort,
		Username:   cfg.Checkout.SMTPUser,
		Password:   cfg.Checkout.SMTPPass,
		SkipVerify: cfg.SMTPSkipVerify,
		Timeout:    cfg.NotifyTimeout,
	}); err != nil {
		log.Error("SMTP sender disabled", zap.Error(err))
	} else {
		mailer = smtp
	}

	location, err := time.LoadLocation(cfg.InvoiceTimeZone)
	if err != nil {
		log.Warn("Invalid INVOICE_TIMEZONE, using UTC", zap.String("tz", cfg.InvoiceTimeZone), zap.Error(err))
		location = time.UTC
	}

	// Dependency injection
	customerNotifier, err := services.NewCustomerNotifier(mailer, services.CustomerNotifierConfig{
		From:          cfg.SenderEmail,
		StoreWhatsapp: cfg.StoreWhatsapp,
		Location:      location,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize customer notifier", zap.Error(err))
	}
	checkoutService := services.NewCheckoutService(services.CheckoutDeps{
		Repo:           txRepo,
		Operator:       services.NewOperatorNotifier(messenger, txRepo, cfg.Checkout.TelegramChatID, log),
		Customer:       customerNotifier,
		Receipts:       receipts,
		Metrics:        metricsClient,
		Logger:         log,
		TelegramChatID: cfg.Checkout.TelegramChatID,
	})
	productService := services.NewProductService(productRepo, cache, cfg.ProductCacheTTL, metricsClient, log)
	ackService := services.NewAcknowledgementService(txRepo, messenger, metricsClient, log)

	limiter := middleware.NewRateLimiter(rate.Every(time.Second), 30, 10*time.Minute)
	stopSweeper := make(chan struct{})
	limiter.StartSweeper(stopSweeper)

	// Router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(corsConfig(cfg.AllowedOrigins)))
	r.Use(middleware.RequestID())
	r.Use(middleware.Metrics(metricsClient, serviceName))
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.Timeout(30 * time.Second))

	if err := routes.RegisterRoutes(r, routes.Handlers{
		Checkout:       controllers.NewCheckoutController(checkoutService, cfg, cfg.MaxUploadBytes, log),
		Products:       controllers.NewProductController(productService, log),
		Telegram:       controllers.NewTelegramWebhookController(ackService, cfg.TelegramWebhookSecret, log),
		CatalogLimiter: limiter,
		TrustedProxies: cfg.TrustedProxies,
	}); err != nil {
		log.Fatal("Failed to register routes", zap.Error(err))
	}

	// HTTP server
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.Info("Checkout service started", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Initiating graceful shutdown...")
	close(stopSweeper)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	if cache != nil {
		if err := cache.Close(); err != nil {
			log.Error("Redis close error", zap.Error(err))
		}
	}
	if err := database.Close(db); err != nil {
		log.Error("Database close error", zap.Error(err))
	}

	log.Info("Checkout service stopped gracefully")
	_ = log.Sync()
	if cwLogs != nil {
		if err := cwLogs.Close(shutdownCtx); err != nil {
			os.Stderr.WriteString("CloudWatch log flush incomplete: " + err.Error() + "\n")
		}
	}
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "X-Request-ID", "X-Body-Encoding"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			c.AllowAllOrigins = true
			return c
		}
	}
	c.AllowOrigins = origins
	return c
}
