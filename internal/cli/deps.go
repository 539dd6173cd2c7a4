package cli

import (
	"context"
	"fmt"
	"time"

	"flashbattle-quiz-service/internal/app"
	"flashbattle-quiz-service/internal/config"
	"flashbattle-quiz-service/internal/infra/memory"
	pgarchive "flashbattle-quiz-service/internal/infra/postgres"
	infraredis "flashbattle-quiz-service/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// repositories groups the storage backends chosen from config.
type repositories struct {
	rooms   app.RoomRepository
	banks   app.BankRepository
	users   app.UserRepository
	players app.PlayerRepository
	boards  app.LeaderboardRepository

	closers []func()
}

func (r *repositories) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

func newRedisClient(cfg config.Config) (*redis.Client, error) {
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opts), nil
	}
	if cfg.Redis.Addr != "" {
		return redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}), nil
	}
	return nil, nil
}

// openRepositories uses Redis when configured, falling back to in-process
// storage otherwise. A Postgres URL enables the durable bank archive.
func openRepositories(ctx context.Context, cfg config.Config, log zerolog.Logger) (*repositories, error) {
	repos := &repositories{}

	redisClient, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	if redisClient == nil {
		log.Warn().Msg("redis not configured, using in-memory storage")
		repos.rooms = memory.NewRoomRepository()
		repos.banks = memory.NewBankRepository()
		repos.users = memory.NewUserRepository()
		repos.players = memory.NewPlayerRepository()
		repos.boards = memory.NewLeaderboard()
		return repos, nil
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	repos.closers = append(repos.closers, func() { _ = redisClient.Close() })

	var archive infraredis.BankArchive
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			repos.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		repos.closers = append(repos.closers, pool.Close)
		archive = pgarchive.NewBankArchive(pool)
		log.Info().Msg("postgres bank archive enabled")
	}

	repos.rooms = infraredis.NewRoomRepository(redisClient)
	repos.banks = infraredis.NewBankRepository(redisClient, archive, config.TTLDuration(cfg.Bank.CacheTTL, 30*time.Minute))
	repos.users = infraredis.NewUserRepository(redisClient)
	repos.players = infraredis.NewPlayerRepository(redisClient)
	repos.boards = infraredis.NewLeaderboard(redisClient)
	return repos, nil
}
