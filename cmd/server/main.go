package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
	openai "github.com/sashabaranov/go-openai"
	"gopkg.in/yaml.v3"

	"github.com/raglandconnor/podcite/internal/cleanup"
	"github.com/raglandconnor/podcite/internal/handlers"
	"github.com/raglandconnor/podcite/internal/logging"
	"github.com/raglandconnor/podcite/internal/media"
	"github.com/raglandconnor/podcite/internal/podcast"
	"github.com/raglandconnor/podcite/internal/queue"
	"github.com/raglandconnor/podcite/internal/storage"
	"github.com/raglandconnor/podcite/internal/transcription"
)

// Config is the application configuration.
type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Media struct {
		Dir      string `yaml:"dir"`
		Database string `yaml:"database"`
	} `yaml:"media"`

	Tools struct {
		FFmpeg  string `yaml:"ffmpeg"`
		FFprobe string `yaml:"ffprobe"`
	} `yaml:"tools"`

	Segmenter struct {
		Workers int `yaml:"workers"` // 0 = one per CPU
	} `yaml:"segmenter"`

	Whisper struct {
		Model                 string `yaml:"model"`
		RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
	} `yaml:"whisper"`

	Download struct {
		TimeoutSeconds int `yaml:"timeout_seconds"`
	} `yaml:"download"`

	Workers struct {
		Count int `yaml:"count"`
	} `yaml:"workers"`

	Cleanup struct {
		IntervalMinutes int `yaml:"interval_minutes"`
		MaxAgeHours     int `yaml:"max_age_hours"`
	} `yaml:"cleanup"`
}

func main() {
	// .env is optional; the environment itself may carry the key.
	_ = godotenv.Load()

	config, err := loadConfig("config/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logging.Configure(config.Log.Level, nil)
	log := logging.Component("server")

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatal().Msg("OPENAI_API_KEY is not set")
	}

	store, err := storage.NewMediaStore(config.Media.Dir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize media store")
	}

	registry, err := storage.NewRegistry(config.Media.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize episode registry")
	}
	defer registry.Close()

	prober := media.NewProber(config.Tools.FFprobe)
	segmenter := media.NewSegmenter(config.Tools.FFmpeg, prober, config.Segmenter.Workers)
	cache := storage.NewMetaCache(store)

	whisper := transcription.NewWhisperClient(
		openai.NewClient(apiKey),
		config.Whisper.Model,
		transcription.WithRequestTimeout(time.Duration(config.Whisper.RequestTimeoutSeconds)*time.Second),
	)

	orchestrator := transcription.NewOrchestrator(
		store, cache, segmenter, whisper, logging.Component("orchestrator"))

	podcastService := podcast.NewService(
		store, cache, segmenter, registry,
		time.Duration(config.Download.TimeoutSeconds)*time.Second,
		logging.Component("podcast"))

	pool := queue.NewWorkerPool(config.Workers.Count, cache, segmenter, logging.Component("queue"))
	pool.Start()
	defer pool.Stop()

	scheduler := cleanup.NewScheduler(
		store.WorkDir(),
		time.Duration(config.Cleanup.IntervalMinutes)*time.Minute,
		time.Duration(config.Cleanup.MaxAgeHours)*time.Hour,
		logging.Component("cleanup"))
	scheduler.Start()
	defer scheduler.Stop()

	app := fiber.New(fiber.Config{
		BodyLimit: 512 * 1024 * 1024, // podcast episodes are large
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	infoHandler := handlers.NewInfoHandler(orchestrator)
	streamHandler := handlers.NewStreamHandler(orchestrator)
	wsHandler := handlers.NewWSHandler(orchestrator, logging.Component("ws"))
	podcastHandler := handlers.NewPodcastHandler(podcastService)
	uploadHandler := handlers.NewUploadHandler(store, pool, logging.Component("upload"))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	app.Get("/info/:filename", infoHandler.Handle)
	app.Get("/chunks/:filename", streamHandler.HandleChunks)
	app.Get("/transcribe/:filename", streamHandler.HandleTranscribe)
	app.Get("/ws/chunks/:filename", websocket.New(wsHandler.HandleChunks))
	app.Get("/parse-rss", podcastHandler.Handle)
	app.Post("/upload", uploadHandler.Handle)

	app.Get("/episodes", func(c *fiber.Ctx) error {
		episodes, err := registry.ListEpisodes(50)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		if episodes == nil {
			episodes = []storage.EpisodeRecord{}
		}
		return c.JSON(episodes)
	})

	app.Static("/media", store.Dir())

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Info().Msg("shutting down gracefully")
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	log.Info().Str("addr", addr).Msg("server starting")
	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

// loadConfig reads the YAML configuration and applies defaults.
func loadConfig(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	if config.Server.Host == "" {
		config.Server.Host = "0.0.0.0"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8000
	}
	if config.Media.Dir == "" {
		config.Media.Dir = "media"
	}
	if config.Media.Database == "" {
		config.Media.Database = "media/episodes.db"
	}
	if config.Whisper.RequestTimeoutSeconds == 0 {
		config.Whisper.RequestTimeoutSeconds = 120
	}
	if config.Download.TimeoutSeconds == 0 {
		config.Download.TimeoutSeconds = 30
	}
	if config.Workers.Count == 0 {
		config.Workers.Count = 2
	}
	if config.Cleanup.IntervalMinutes == 0 {
		config.Cleanup.IntervalMinutes = 30
	}
	if config.Cleanup.MaxAgeHours == 0 {
		config.Cleanup.MaxAgeHours = 6
	}

	return &config, nil
}
