// cmd/tools/match-tester/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"fhrs-sync/internal/common/config"
	"fhrs-sync/internal/common/database"
	"fhrs-sync/internal/common/logger"
	"fhrs-sync/internal/models"
	"fhrs-sync/internal/sync/match"
	"fhrs-sync/internal/sync/store"
	"fhrs-sync/internal/sync/thresholds"
)

func main() {
	placesPath := flag.String("places", "", "Path to a JSON file holding an array of place queries")
	threshold := flag.String("threshold", "", "Strictness level name (defaults to the configured one)")
	asJSON := flag.Bool("json", false, "Print results as JSON")
	listLevels := flag.Bool("levels", false, "List the strictness catalog and exit")
	flag.Parse()

	if *listLevels {
		for _, l := range thresholds.Levels() {
			fmt.Printf("%2d  %-18s value=%.2f  %s\n", l.ID, l.Name, l.Value, l.Description)
		}
		return
	}

	if *placesPath == "" {
		fmt.Println("Error: -places is required.")
		flag.Usage()
		os.Exit(1)
	}

	zapLog := logger.New("warn", "console")
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	raw, err := os.ReadFile(*placesPath)
	if err != nil {
		zapLog.Fatal("failed to read places file", zap.Error(err))
	}

	var places []models.PlaceQuery
	if err := json.Unmarshal(raw, &places); err != nil {
		zapLog.Fatal("failed to parse places file", zap.Error(err))
	}

	nameAddrThreshold := cfg.Match.NameAddressThreshold
	if *threshold != "" {
		nameAddrThreshold = *threshold
	}

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		zapLog.Fatal("postgres connection failed", zap.Error(err))
	}
	defer pg.Close()

	estStore := store.NewEstablishmentStore(pg.DB, log)

	var finder match.CandidateFinder = match.NewPostgresCandidateFinder(estStore, log)
	if cfg.Match.CacheEnabled {
		redis, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			zapLog.Fatal("redis connection failed", zap.Error(err))
		}
		defer redis.Close()
		finder = match.NewCachedCandidateFinder(finder, redis.Client, config.GetDuration(cfg.Match.CacheTTL), log)
	}

	matcher, err := match.NewFuzzyMatcher(finder, match.Config{
		NameAddressThreshold: nameAddrThreshold,
		PostcodeThreshold:    cfg.Match.PostcodeThreshold,
		QueryTimeout:         config.GetDuration(cfg.Match.QueryTimeout),
	}, log)
	if err != nil {
		zapLog.Fatal("matcher setup failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	results, stats, err := matcher.Match(ctx, places)
	if err != nil {
		zapLog.Fatal("match run failed", zap.Error(err))
	}

	if *asJSON {
		out := struct {
			Results []models.MatchResult `json:"results"`
			Stats   models.MatchStats    `json:"stats"`
		}{Results: results, Stats: stats}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			zapLog.Fatal("failed to encode results", zap.Error(err))
		}
		return
	}

	fmt.Printf("Threshold: %s\n\n", nameAddrThreshold)
	for _, r := range results {
		rating := "-"
		if r.Establishment.RatingValueStr != nil {
			rating = *r.Establishment.RatingValueStr
		}
		fmt.Printf("%-30s -> %-30s (FHRS %d, rating %s, distance %.4f)\n",
			r.PlaceName, r.Establishment.BusinessName, r.Establishment.FHRSID, rating, r.Distance)
	}

	fmt.Printf("\nPlaces searched:    %d\n", stats.PlacesSearched)
	fmt.Printf("Matches found:      %d\n", stats.MatchesFound)
	fmt.Printf("Percentage matched: %.1f%%\n", stats.PercentageMatch)
	fmt.Printf("Average strictness: %.3f\n", stats.AverageStrictness)
}
