package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"clean-cloak/internal/config"
	"clean-cloak/internal/handler"
	"clean-cloak/internal/realtime"
	"clean-cloak/internal/repository"
	"clean-cloak/internal/services"
	"clean-cloak/internal/utils"
	"clean-cloak/internal/utils/intasend"
	"clean-cloak/internal/utils/push"
	"clean-cloak/internal/utils/sms"
	"clean-cloak/internal/utils/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	// 1. Base context and shutdown manager
	ctx, shutdownManager := utils.NewShutdownManager(context.Background())
	shutdownManager.StartListening()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// 2. MongoDB
	mongoClient, err := utils.NewMongoDBConnection(ctx, cfg.MongoDB.URI)
	if err != nil {
		log.Fatal(err)
	}
	db := mongoClient.Database(cfg.MongoDB.DBName)
	shutdownManager.Register("MongoDB", func(ctx context.Context) error {
		return mongoClient.Disconnect(ctx)
	})
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		log.Fatal("Failed to create indexes:", err)
	}

	// 3. Redis is optional: without it events stay on this instance and nothing is cached.
	var (
		redisClient *utils.RedisClient
		rdb         *redis.Client
		cache       services.Cache
	)
	redisClient, err = utils.NewRedisClient(cfg.Redis.URL)
	if err != nil {
		log.Printf("[REDIS] Unavailable, running without cache and pub/sub: %v", err)
	} else {
		rdb = redisClient.Raw()
		cache = redisClient
		shutdownManager.Register("Redis", func(ctx context.Context) error {
			return redisClient.Close()
		})
	}

	// 4. Realtime
	hub := realtime.NewHub()
	broker := realtime.NewBroker(hub, rdb, cfg.Realtime.Channel)
	go broker.Run(ctx)
	shutdownManager.Register("realtime hub", func(ctx context.Context) error {
		hub.Close()
		return nil
	})

	// 5. External providers
	var pushSender services.PushSender
	fcm, err := push.NewFCMClient(ctx, push.Credentials{
		ServiceAccountBase64: cfg.Firebase.ServiceAccount,
		ProjectID:            cfg.Firebase.ProjectID,
		ClientEmail:          cfg.Firebase.ClientEmail,
		PrivateKey:           cfg.Firebase.PrivateKey,
		CredentialsFile:      cfg.Firebase.CredentialsFile,
	})
	switch {
	case errors.Is(err, push.ErrNoCredentials):
		log.Println("[PUSH] Firebase not configured, push notifications disabled")
	case err != nil:
		log.Printf("[PUSH] Firebase init failed, push notifications disabled: %v", err)
	default:
		pushSender = fcm
	}

	var smsSender services.SMSSender
	if cfg.Twilio.AccountSID != "" && cfg.Twilio.AuthToken != "" {
		smsSender = sms.NewTwilioClient(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber)
	} else {
		log.Println("[SMS] Twilio not configured, payout texts disabled")
	}

	minioClient, err := storage.NewMinioClient(ctx, cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey,
		cfg.Minio.Bucket, cfg.Minio.PublicURL, cfg.Minio.UseSSL)
	if err != nil {
		log.Fatalf("minio init: %v", err)
	}

	intaSend := intasend.NewClient(intasend.BaseURL(cfg.IntaSend.Sandbox), cfg.IntaSend.PublicKey,
		cfg.IntaSend.SecretKey, cfg.IntaSend.Timeout)

	// 6. Repositories and services
	bookingRepo := repository.NewBookingRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	cleanerRepo := repository.NewCleanerRepository(db)
	userRepo := repository.NewUserRepository(db)
	chatRepo := repository.NewChatRepository(db)
	trackingRepo := repository.NewTrackingRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	jwtUtil := utils.NewJWTUtil(cfg.JWT.Secret, cfg.JWT.Expire)

	notificationService := services.NewNotificationService(notificationRepo, userRepo, broker, pushSender)
	payoutService := services.NewPayoutService(bookingRepo, transactionRepo, cleanerRepo, intaSend,
		notificationService, smsSender, cfg.Payment.Currency)
	paymentService := services.NewPaymentService(bookingRepo, transactionRepo, payoutService, intaSend,
		notificationService, cfg.Payment, cfg.IntaSend.WebhookChallenge)
	authService := services.NewAuthService(userRepo, jwtUtil, redisClient, cache)
	bookingService := services.NewBookingService(bookingRepo, cleanerRepo, userRepo, notificationService)
	cleanerService := services.NewCleanerService(cleanerRepo, cache)
	chatService := services.NewChatService(chatRepo, bookingRepo, notificationService)
	trackingService := services.NewTrackingService(trackingRepo, bookingRepo, notificationService)
	adminService := services.NewAdminService(cleanerRepo, bookingRepo, userRepo, transactionRepo, statsRepo,
		notificationService, cache)
	mediaService := services.NewMediaService(minioClient, cleanerRepo, chatRepo)

	// 7. Background jobs
	cacheRefresher := services.NewCacheRefresher(adminService, cfg.Cron.CacheRefresh)
	cacheRefresher.Start(ctx)

	cron := services.NewCronJobService(bookingRepo, transactionRepo, userRepo, notificationService, cfg.Cron)
	cron.Start(ctx)

	// 8. Router
	router := gin.Default()
	router.Use(utils.TraceID())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", utils.TraceIDHeader},
		ExposeHeaders:    []string{"Content-Length", utils.TraceIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	handler.RegisterRoutes(router, handler.Handlers{
		Auth:          handler.NewAuthHandler(authService, int(cfg.JWT.Expire.Seconds()), cfg.Server.IsProduction()),
		Bookings:      handler.NewBookingHandler(bookingService),
		Payments:      handler.NewPaymentHandler(paymentService),
		Cleaners:      handler.NewCleanerHandler(cleanerService, mediaService),
		Chat:          handler.NewChatHandler(chatService, mediaService),
		Tracking:      handler.NewTrackingHandler(trackingService),
		Admin:         handler.NewAdminHandler(adminService, cfg.Cron.StalePayoutAge),
		Notifications: handler.NewNotificationHandler(notificationService),
		Events:        handler.NewEventsHandler(hub, cfg.Realtime.Heartbeat, cfg.Server.AllowedOrigins),
	}, utils.AuthMiddleware(jwtUtil, redisClient, authService))

	// 9. HTTP server
	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
		// Open SSE streams end when shutdown cancels ctx.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		log.Printf("Clean Cloak API running on :%s (%s)", cfg.Server.Port, cfg.Server.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	shutdownManager.Register("HTTP server", func(ctx context.Context) error {
		return server.Shutdown(ctx)
	})

	select {}
}
