package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/matchqueue/internal/config"
	"github.com/mauv0809/matchqueue/internal/database"
	"github.com/mauv0809/matchqueue/internal/matchmaking"
)

var regions = []string{"eu", "na", "sa", "asia", "oce"}

// seedOptions are read from SEED_COUNT and SEED_GAMES.
type seedOptions struct {
	count int
	games []string
}

func loadOptions() (seedOptions, error) {
	opts := seedOptions{count: 1000, games: []string{"valorant", "cs2", "dota2", "rocket-league"}}
	if raw, ok := os.LookupEnv("SEED_COUNT"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return opts, fmt.Errorf("SEED_COUNT must be a positive integer, got %q", raw)
		}
		opts.count = n
	}
	if raw, ok := os.LookupEnv("SEED_GAMES"); ok && raw != "" {
		opts.games = strings.Split(raw, ",")
	}
	return opts, nil
}

// randomRequest builds a queued request with plausible attributes. Roughly a
// fifth of the players omit each optional field.
func randomRequest(rng *rand.Rand, games []string, now time.Time, ttl time.Duration) *matchmaking.MatchRequest {
	createdAt := now.Add(-time.Duration(rng.Intn(int(ttl/time.Second)/2)) * time.Second)
	request := &matchmaking.MatchRequest{
		ID:        uuid.NewString(),
		UserID:    "seed-" + uuid.NewString()[:8],
		GameID:    games[rng.Intn(len(games))],
		Status:    matchmaking.RequestQueued,
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(ttl),
	}
	if rng.Intn(5) > 0 {
		region := regions[rng.Intn(len(regions))]
		request.Region = &region
	}
	if rng.Intn(5) > 0 {
		skill := 1 + rng.Intn(10)
		request.Skill = &skill
	}
	ping := 10 + rng.Intn(200)
	maxPing := max(ping, 100+rng.Intn(150))
	request.PingMs = &ping
	request.MaxPingMs = &maxPing
	return request
}

func main() {
	log.Info("Starting database seeder...")
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %s", err)
	}
	opts, err := loadOptions()
	if err != nil {
		log.Fatalf("Invalid seeder options: %s", err)
	}

	db, teardown, err := database.InitDB(cfg.DBName, cfg.Turso.PrimaryURL, cfg.Turso.AuthToken, cfg.MigrationsDir)
	if err != nil {
		log.Fatalf("Failed to open database: %s", err)
	}
	defer func() {
		teardown()
		db.Close()
	}()
	log.Info("Successfully connected to the database.")

	store := matchmaking.NewRequestStore(db)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ctx := context.Background()
	now := time.Now()
	startTime := time.Now()

	log.Info("Preparing to insert queued requests...", "total", opts.count, "games", opts.games)
	for i := range opts.count {
		request := randomRequest(rng, opts.games, now, cfg.Matchmaking.RequestTTL())
		if _, err := store.Submit(ctx, request); err != nil {
			log.Fatalf("Failed to insert request %d: %s", i, err)
		}
		if (i+1)%100 == 0 {
			log.Info("Inserted batch", "completed", i+1, "total", opts.count)
		}
	}

	log.Info("Successfully inserted all queued requests.", "duration", time.Since(startTime))
}
