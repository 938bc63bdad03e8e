package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"study-access-redemption/internal/config"
	pg "study-access-redemption/internal/infra/db/postgres"
	"study-access-redemption/internal/infra/logging"
	"study-access-redemption/internal/usecase"
)

func main() {
	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	count := flag.Int("count", 10, "number of access codes to issue")
	days := flag.Int("days", 30, "duration in days each code grants")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	logger := logging.New(cfg.Log, true)
	codeUC := usecase.NewCodeUseCase(pg.NewAccessCodeRepo(pool), logger)

	codes, err := codeUC.IssueBatch(ctx, *count, *days)
	if err != nil {
		log.Fatalf("issue batch: %v", err)
	}

	for _, c := range codes {
		fmt.Printf("seeded: %s (days=%d)\n", c.Code, c.DurationDays)
	}
	fmt.Printf("%d codes issued.\n", len(codes))
}
