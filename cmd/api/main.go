package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/quillforum/quill-backend/internal/config"
	"github.com/quillforum/quill-backend/internal/handler"
	"github.com/quillforum/quill-backend/internal/middleware"
	"github.com/quillforum/quill-backend/internal/repository"
	"github.com/quillforum/quill-backend/internal/routes"
	"github.com/quillforum/quill-backend/internal/service"
	pkgcache "github.com/quillforum/quill-backend/pkg/cache"
	"github.com/quillforum/quill-backend/pkg/jwt"
	pkglogger "github.com/quillforum/quill-backend/pkg/logger"
	pkgredis "github.com/quillforum/quill-backend/pkg/redis"
	pkgstorage "github.com/quillforum/quill-backend/pkg/storage"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// getConfigPath returns config file path based on APP_ENV environment variable
func getConfigPath() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("configs/config.%s.yaml", env)
}

func main() {
	dotenvFiles := config.LoadDotEnv()

	pkglogger.Init()
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	pkglogger.InitStructured(env)
	pkglogger.Info("APP_ENV=%s, loaded env files: %v", env, dotenvFiles)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	config.LogResolved(cfg)

	// MySQL
	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	pkglogger.Info("Connected to MySQL")

	// Redis
	redisClient, err := pkgredis.NewClient(
		cfg.Redis.Host,
		cfg.Redis.Port,
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Redis.PoolSize,
	)
	if err != nil {
		pkglogger.Warn("Failed to connect to Redis: %v (continuing without Redis)", err)
		redisClient = nil
	} else {
		pkglogger.Info("Connected to Redis")
	}

	var cacheService pkgcache.Service
	if redisClient != nil {
		cacheService = pkgcache.NewService(redisClient)
		pkglogger.Info("Cache service initialized")
	}

	// S3-compatible storage for image rehosting
	var s3Client *pkgstorage.S3Client
	if cfg.Storage.Enabled && cfg.Storage.Bucket != "" {
		var s3Err error
		s3Client, s3Err = pkgstorage.NewS3Client(pkgstorage.S3Config{
			Endpoint:        cfg.Storage.Endpoint,
			Region:          cfg.Storage.Region,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			Bucket:          cfg.Storage.Bucket,
			CDNURL:          cfg.Storage.CDNURL,
			BasePath:        cfg.Storage.BasePath,
			ForcePathStyle:  cfg.Storage.ForcePathStyle,
		})
		if s3Err != nil {
			pkglogger.Warn("S3 storage init failed: %v (continuing without image rehosting)", s3Err)
			s3Client = nil
		} else {
			pkglogger.Info("Connected to S3 storage")
		}
	}

	// JWT Manager
	jwtManager := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.ExpiresIn)

	// Repositories
	revisionRepo := repository.NewRevisionRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	userRepo := repository.NewUserRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Services
	rootLog := *pkglogger.GetLogger()
	converter := service.NewContentConverter()
	loader := service.NewDocumentLoader(documentRepo, cacheService)
	access := service.NewAccessPolicy(loader)

	dispatcher := service.NewSideEffectDispatcher(cfg.SideEffects.Workers, cfg.SideEffects.QueueSize, rootLog)
	dispatcher.OnFailure = middleware.ObserveSideEffectFailure
	defer dispatcher.Close()

	effects := []service.SideEffect{
		service.NewPingbackEffect(documentRepo, cfg.App.SiteHost, rootLog),
		service.NewMentionEffect(userRepo, notificationRepo, rootLog),
	}
	if s3Client != nil {
		effects = append(effects, service.NewImageRehostEffect(s3Client, documentRepo, rootLog))
	}

	pipeline := service.NewMutationPipeline(
		revisionRepo,
		documentRepo,
		converter,
		dispatcher,
		effects,
		[]service.PreflightCheck{service.DebateCommentPreflight{}},
		rootLog,
	)

	// Handlers
	documentHandler := handler.NewDocumentHandler(pipeline, documentRepo, userRepo, cacheService)
	revisionHandler := handler.NewRevisionHandler(revisionRepo, userRepo, access, cacheService)

	// Router
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	// CORS
	allowOrigins := cfg.CORS.AllowOrigins
	if allowOrigins == "" {
		allowOrigins = "http://localhost:3000"
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     splitAndTrim(allowOrigins, ","),
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		ExposeHeaders:    []string{"X-Request-ID"},
		MaxAge:           86400,
	}))

	router.Use(middleware.Metrics())
	router.Use(middleware.RequestLogger())

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "quill-backend",
			"time":    time.Now().Unix(),
		})
	})

	routes.Setup(router, documentHandler, revisionHandler, jwtManager)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	pkglogger.Info("Starting server on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// initDB opens the MySQL connection pool
func initDB(cfg *config.Config) (*gorm.DB, error) {
	mysqlCfg, err := mysqldriver.ParseDSN(cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}

	logMode := gormlogger.Warn
	if cfg.IsDevelopment() {
		logMode = gormlogger.Info
	}

	db, err := gorm.Open(mysql.Open(mysqlCfg.FormatDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logMode),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)
	middleware.SetDBConnectionsActive(float64(cfg.Database.MaxOpenConns))

	return db, nil
}

// splitAndTrim splits a string by delimiter and trims spaces
func splitAndTrim(s, delimiter string) []string {
	var parts []string
	for _, part := range strings.Split(s, delimiter) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
