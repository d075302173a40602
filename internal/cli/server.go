package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BesuglovS/akaquiz/internal/config"
	"github.com/BesuglovS/akaquiz/internal/game"
	pgsource "github.com/BesuglovS/akaquiz/internal/infra/postgres"
	redismirror "github.com/BesuglovS/akaquiz/internal/infra/redis"
	"github.com/BesuglovS/akaquiz/internal/quiz"
	transport "github.com/BesuglovS/akaquiz/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var source quiz.Source = quiz.NewDirSource(cfg.Quiz.Dir)
	if pool != nil {
		source = pgsource.NewQuizSource(pool)
	}

	parser := quiz.NewParser(cfg.Quiz.MediaPath)
	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	repo := quiz.NewRepository(source, parser, quizTTL)

	var mirror game.ScoreMirror
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		mirror = redismirror.NewScoreMirror(client, config.TTLDuration(cfg.Redis.TTL, 2*time.Hour))
	}

	session := game.NewSession(game.Policy{
		DefaultTimeLimit: cfg.Game.DefaultTimeLimit,
		MinScore:         cfg.Game.MinScore,
		MaxScore:         cfg.Game.MaxScore,
	})
	service := game.NewGameService(session, repo, mirror)
	wsHandler := transport.NewWSHandler(service, repo, cfg.Host.Secret, cfg.Game.MaxNicknameLength)

	mux := http.NewServeMux()
	wsHandler.Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting akaquiz on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
