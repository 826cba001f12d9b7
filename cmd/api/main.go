package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/xinghusp/online-examsys-backend/internal/config"
	"github.com/xinghusp/online-examsys-backend/internal/handler"
	"github.com/xinghusp/online-examsys-backend/internal/middleware"
	pgRepo "github.com/xinghusp/online-examsys-backend/internal/repository/postgres"
	redisRepo "github.com/xinghusp/online-examsys-backend/internal/repository/redis"
	"github.com/xinghusp/online-examsys-backend/internal/service"
	"github.com/xinghusp/online-examsys-backend/internal/service/attemptsweep"
	"github.com/xinghusp/online-examsys-backend/pkg/auth"
	"github.com/xinghusp/online-examsys-backend/pkg/clock"
	"github.com/xinghusp/online-examsys-backend/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к Redis
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Единый источник времени для всех сервисов
	clk := clock.Real{}

	// Инициализируем репозитории
	userRepo := pgRepo.NewUserRepo(db)
	questionRepo := pgRepo.NewQuestionRepo(db)
	examRepo := pgRepo.NewExamRepo(db)
	attemptRepo := pgRepo.NewAttemptRepo(db)
	answerRepo := pgRepo.NewAnswerRepo(db)
	auditRepo := pgRepo.NewAuditRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	// Инициализируем JWT
	jwtService, err := auth.NewJWTService(cfg.JWT.Secret)
	if err != nil {
		log.Printf("Failed to initialize JWTService: %v", err)
		os.Exit(1)
	}

	// Инициализируем сервисы
	questionService := service.NewQuestionService(questionRepo)
	paperService := service.NewPaperService(examRepo, questionRepo, attemptRepo, cacheRepo)
	examService := service.NewExamService(examRepo, questionRepo, attemptRepo, paperService, clk)
	gradingService := service.NewGradingService(
		attemptRepo, answerRepo, questionRepo, examRepo, auditRepo,
		paperService, clk, cfg.Grading.QueueWorkers, cfg.Grading.QueueBuffer,
	)
	attemptService := service.NewAttemptService(
		examRepo, attemptRepo, answerRepo, questionRepo, auditRepo,
		paperService, gradingService, clk,
	)
	resultService := service.NewResultService(examRepo, attemptRepo, answerRepo, questionRepo, userRepo, clk)

	// Контекст для фоновых задач, отменяется при остановке сервера
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Воркеры автопроверки
	go gradingService.Run(ctx)

	// Фоновый свип просроченных попыток
	sweepConfig := &attemptsweep.Config{
		Interval:       cfg.Sweep.Interval,
		HeartbeatGrace: cfg.Sweep.HeartbeatGrace,
		BatchLimit:     cfg.Sweep.BatchLimit,
		ClaimTTL:       cfg.Sweep.ClaimTTL,
	}
	sweeper := attemptsweep.NewSweeper(sweepConfig, &attemptsweep.Dependencies{
		AttemptService: attemptService,
		CacheRepo:      cacheRepo,
		Clock:          clk,
		Config:         sweepConfig,
	})
	go sweeper.Run(ctx)

	// Инициализируем обработчики
	questionHandler := handler.NewQuestionHandler(questionService)
	examHandler := handler.NewExamHandler(examService)
	attemptHandler := handler.NewAttemptHandler(attemptService, clk)
	gradingHandler := handler.NewGradingHandler(gradingService)
	resultHandler := handler.NewResultHandler(resultService)

	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	isProduction := gin.Mode() == gin.ReleaseMode

	router := gin.Default()

	// Настройка доверенных прокси для корректной работы c.ClientIP()
	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	// Настройка CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Настраиваем маршруты API
	api := router.Group("/api")
	api.Use(authMiddleware.RequireAuth())
	{
		// Банк вопросов (только администраторы)
		questions := api.Group("/questions")
		questions.Use(authMiddleware.AdminOnly())
		{
			questions.POST("", questionHandler.CreateQuestion)

			questionWithID := questions.Group("/:id")
			questionWithID.Use(middleware.ExtractUintParam("id", "questionID"))
			{
				questionWithID.GET("", questionHandler.GetQuestion)
				questionWithID.PUT("", questionHandler.UpdateQuestion)
				questionWithID.DELETE("", questionHandler.DeleteQuestion)
			}
		}

		chapters := api.Group("/chapters/:id")
		chapters.Use(authMiddleware.AdminOnly(), middleware.ExtractUintParam("id", "chapterID"))
		{
			chapters.GET("/questions", questionHandler.ListByChapter)
		}

		banks := api.Group("/banks/:id")
		banks.Use(authMiddleware.AdminOnly(), middleware.ExtractUintParam("id", "bankID"))
		{
			banks.POST("/questions/import", questionHandler.ImportQuestions)
		}

		// Экзамены
		exams := api.Group("/exams")
		{
			exams.GET("/available", examHandler.ListAvailable)

			examWithID := exams.Group("/:id")
			examWithID.Use(middleware.ExtractUintParam("id", "examID"))
			{
				// Старт попытки доступен участникам
				examWithID.POST("/attempts",
					rateLimiter.Limit(middleware.StartAttemptRateLimitConfig()),
					attemptHandler.StartAttempt)

				// Администрирование экзамена
				adminExam := examWithID.Group("")
				adminExam.Use(authMiddleware.AdminOnly())
				{
					adminExam.GET("", examHandler.GetExam)
					adminExam.POST("/publish", examHandler.PublishExam)
					adminExam.POST("/finish", examHandler.FinishExam)
					adminExam.POST("/archive", examHandler.ArchiveExam)
					adminExam.POST("/participants", examHandler.AssignParticipants)
					adminExam.GET("/results", resultHandler.ExamResults)
					adminExam.GET("/results/export", resultHandler.ExportResults)
					adminExam.GET("/statistics", resultHandler.Statistics)
					adminExam.GET("/grading-queue", gradingHandler.ManualQueue)
				}
			}

			adminCreateExam := exams.Group("")
			adminCreateExam.Use(authMiddleware.AdminOnly())
			{
				adminCreateExam.POST("", examHandler.CreateExam)
			}
		}

		// Попытки
		attempts := api.Group("/attempts")
		{
			attempts.GET("/my", resultHandler.MyAttempts)

			attemptWithID := attempts.Group("/:id")
			attemptWithID.Use(middleware.ExtractUintParam("id", "attemptID"))
			{
				attemptWithID.GET("", attemptHandler.GetAttempt)
				attemptWithID.GET("/questions", attemptHandler.GetQuestions)
				attemptWithID.POST("/answers",
					rateLimiter.Limit(middleware.SaveAnswerRateLimitConfig()),
					attemptHandler.SaveAnswer)
				attemptWithID.POST("/heartbeat",
					rateLimiter.Limit(middleware.HeartbeatRateLimitConfig()),
					attemptHandler.Heartbeat)
				attemptWithID.POST("/submit", attemptHandler.SubmitAttempt)
				attemptWithID.GET("/result", resultHandler.AttemptResult)

				adminAttempt := attemptWithID.Group("")
				adminAttempt.Use(authMiddleware.AdminOnly())
				{
					adminAttempt.POST("/abort", attemptHandler.AbortAttempt)
					adminAttempt.POST("/grade", gradingHandler.GradeAnswer)
				}
			}
		}
	}

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Server started on port %s", cfg.Server.Port)

	// Ждем сигнала остановки
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Останавливаем фоновые задачи
	cancel()

	// Создаем контекст с таймаутом для graceful shutdown сервера
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("Server exited properly")
}
