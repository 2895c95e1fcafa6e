package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"assessment-service/internal/config"
	"assessment-service/internal/database/mongo"
	"assessment-service/internal/database/redis"
	"assessment-service/internal/event"
	"assessment-service/internal/handlers"
	"assessment-service/internal/lock"
	"assessment-service/internal/repository"
	"assessment-service/internal/service"
	"assessment-service/pkg/discovery"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func setupLogging(logDir string) (*os.File, error) {
	if logDir == "" {
		log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
		return nil, nil
	}
	err := os.MkdirAll(logDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create log directory: %v", err)
	}

	currentTime := time.Now()
	logFileName := fmt.Sprintf("log_%s.log", currentTime.Format("2006-01-02"))
	logFile := filepath.Join(logDir, logFileName)

	file, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %v", err)
	}

	log.SetOutput(file)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	return file, nil
}

type stores struct {
	questions   repository.QuestionRepository
	sessions    repository.SessionRepository
	submissions repository.SubmissionRepository
	close       func()
}

// openStores uses MongoDB when configured and in-memory stores otherwise.
func openStores(cfg *config.Config) (*stores, error) {
	if cfg.MongoDB.URI == "" {
		log.Println("MONGODB_URI not set, using in-memory stores")
		questions := repository.NewMemoryQuestionRepository()
		if cfg.Assessment.SeedFile != "" {
			n, err := repository.SeedQuestions(context.Background(), questions, cfg.Assessment.SeedFile)
			if err != nil {
				return nil, err
			}
			log.Printf("Seeded %d questions from %s", n, cfg.Assessment.SeedFile)
		}
		return &stores{
			questions:   questions,
			sessions:    repository.NewMemorySessionRepository(),
			submissions: repository.NewMemorySubmissionRepository(),
			close:       func() {},
		}, nil
	}

	client, database, err := mongo.Connect(&cfg.MongoDB)
	if err != nil {
		return nil, err
	}

	sessionRepo := repository.NewMongoSessionRepository(database)
	submissionRepo := repository.NewMongoSubmissionRepository(database)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoDB.Timeout)
	defer cancel()
	if err := sessionRepo.CreateIndexes(ctx); err != nil {
		log.Printf("Warning: failed to create session indexes: %v", err)
	}
	if err := submissionRepo.CreateIndexes(ctx); err != nil {
		mongo.Close(client)
		return nil, fmt.Errorf("create submission indexes: %w", err)
	}

	return &stores{
		questions:   repository.NewMongoQuestionRepository(database),
		sessions:    sessionRepo,
		submissions: submissionRepo,
		close:       func() { mongo.Close(client) },
	}, nil
}

// openLocker uses Redis when configured so replicas share session locks.
func openLocker(cfg *config.RedisConfig) (lock.Locker, func(), error) {
	if cfg.Address == "" {
		log.Println("REDIS_ADDR not set, using in-process session locks")
		return lock.NewKeyedMutex(), func() {}, nil
	}
	client, err := redis.Connect(cfg)
	if err != nil {
		return nil, nil, err
	}
	locker := lock.NewRedisLocker(client, cfg.LockPrefix, cfg.LockTTL, cfg.LockRetry, cfg.LockMaxWait)
	return locker, func() {
		if err := client.Close(); err != nil {
			log.Printf("Error closing Redis client: %v", err)
		}
	}, nil
}

func setupRouter(cfg *config.Config, handler *handlers.SessionHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s\" %d %s \"%s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC3339),
			param.Method,
			param.Path,
			param.StatusCode,
			param.Latency,
			param.ErrorMessage,
		)
	}))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Assessment.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "X-User-ID", "accept", "origin", "Cache-Control", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "Assessment Service is healthy")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handler.RegisterRoutes(r)
	return r
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logFile, err := setupLogging(cfg.Server.LogDir)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	st, err := openStores(cfg)
	if err != nil {
		log.Fatalf("Failed to open stores: %v", err)
	}
	defer st.close()

	locker, closeLocker, err := openLocker(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer closeLocker()

	var publisher event.Publisher
	eventPublisher, err := event.NewEventPublisher(cfg.RabbitMQ.URI, cfg.RabbitMQ.Exchange)
	if err != nil {
		log.Printf("Warning: Failed to initialize event publisher: %v", err)
	} else {
		publisher = eventPublisher
	}

	svc := service.NewAssessmentService(service.Dependencies{
		Questions:   st.questions,
		Sessions:    st.sessions,
		Submissions: st.submissions,
		Locker:      locker,
		Publisher:   publisher,
	})

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	if interval := cfg.Assessment.ExpirySweepInterval; interval > 0 {
		go svc.RunExpirySweeper(sweepCtx, interval)
	}

	sessionHandler := handlers.NewSessionHandler(svc, cfg.Server.RequestTimeout)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      setupRouter(cfg, sessionHandler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	var registry *discovery.ServiceRegistry
	if cfg.Consul.ConsulAddress != "" {
		registry, err = discovery.NewServiceRegistry(cfg)
		if err != nil {
			log.Printf("Warning: Service Discovery Init Failed: %s", err)
		} else if err := registry.Register(); err != nil {
			log.Printf("Warning: %v", err)
			registry = nil
		}
	}

	shutdownChan := make(chan os.Signal, 1)
	doneChan := make(chan bool, 1)

	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Error starting server: %v", err)
		}
		doneChan <- true
	}()

	<-shutdownChan
	log.Println("Shutting down server...")
	stopSweeper()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.Printf("Error closing event publisher: %v", err)
		}
	}

	if registry != nil {
		if err := registry.Deregister(); err != nil {
			log.Printf("Error deregistering from service discovery: %v", err)
		}
	}

	<-doneChan
	log.Println("Server shutdown complete")
}
