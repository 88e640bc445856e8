package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saviobatista/adsb-relay/internal/config"
	"github.com/saviobatista/adsb-relay/internal/db"
	"github.com/saviobatista/adsb-relay/internal/enrich"
	"github.com/saviobatista/adsb-relay/internal/nats"
	"github.com/saviobatista/adsb-relay/internal/redis"
	"github.com/saviobatista/adsb-relay/internal/sink"
	"github.com/saviobatista/adsb-relay/internal/stats"
	"github.com/saviobatista/adsb-relay/internal/supervisor"
	"github.com/saviobatista/adsb-relay/internal/tracker"
)

func main() {
	if err := runRelay(); err != nil {
		log.Printf("Relay failed: %v", err)
		os.Exit(1)
	}
}

// runRelay contains the main application logic and can be tested
func runRelay() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Redis client is shared by the current-view sink and the
	// enrichment cache.
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = redis.New(cfg.RedisAddr)
		if err != nil {
			return fmt.Errorf("failed to create Redis client: %w", err)
		}
	}

	lookup, err := buildLookup(cfg, redisClient)
	if err != nil {
		return err
	}

	sinks, err := buildSinks(cfg, redisClient)
	if err != nil {
		return err
	}
	if len(sinks) == 0 {
		log.Printf("No sinks configured, positions will be tracked but not written anywhere")
	}
	for _, s := range sinks {
		log.Printf("Sink enabled: %s", s.Name())
	}

	st := stats.New()
	sup := supervisor.New(supervisor.Config{
		Addr:           cfg.FeedAddr,
		SourceID:       cfg.SourceID,
		ConnectTimeout: cfg.ConnectTimeout,
		ReconnectDelay: cfg.ReconnectDelay,
		FlushInterval:  cfg.FlushInterval,
	}, tracker.New(lookup), sinks, st)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go st.LogPeriodically(ctx, 60*time.Second)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		log.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	log.Printf("Starting relay: feed %s, source %s", cfg.FeedAddr, cfg.SourceID)
	if err := sup.Run(ctx); err != nil {
		closeSinks(sinks)
		return fmt.Errorf("supervisor failed: %w", err)
	}

	closeSinks(sinks)
	log.Printf("Final stats: %s", st.String())
	return nil
}

// buildLookup assembles the aircraft metadata chain: the CSV database
// when configured, fronted by the Redis cache when both are available.
func buildLookup(cfg *config.Config, redisClient *redis.Client) (tracker.Lookup, error) {
	if cfg.AircraftDBPath == "" {
		return nil, nil
	}

	store, err := enrich.LoadCSV(cfg.AircraftDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load aircraft database: %w", err)
	}
	log.Printf("Loaded aircraft database: %d entries", store.Len())

	if redisClient != nil {
		return enrich.NewCached(store, redisClient), nil
	}
	return store, nil
}

// buildSinks creates one sink per configured destination.
func buildSinks(cfg *config.Config, redisClient *redis.Client) ([]sink.Sink, error) {
	var sinks []sink.Sink

	if cfg.CSVPath != "" {
		csvSink, err := sink.NewCSV(cfg.CSVPath, cfg.CurrentCSVPath, cfg.CurrentMaxAge)
		if err != nil {
			return nil, fmt.Errorf("failed to create CSV sink: %w", err)
		}
		sinks = append(sinks, csvSink)
	}

	if cfg.DBConnStr != "" {
		dbClient, err := db.New(cfg.DBConnStr)
		if err != nil {
			return nil, fmt.Errorf("failed to create database client: %w", err)
		}
		if err := dbClient.Ping(); err != nil {
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		sinks = append(sinks, sink.NewDB(dbClient, cfg.BatchSize))
	}

	if cfg.NATSURL != "" {
		natsClient, err := nats.New(cfg.NATSURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create NATS client: %w", err)
		}
		sinks = append(sinks, sink.NewNATS(natsClient, natsClient.Close))
	}

	if cfg.IngestURL != "" {
		sinks = append(sinks, sink.NewHTTP(cfg.IngestURL, cfg.BatchSize))
	}

	if redisClient != nil {
		sinks = append(sinks, sink.NewRedis(redisClient, cfg.CurrentMaxAge))
	}

	return sinks, nil
}

func closeSinks(sinks []sink.Sink) {
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			log.Printf("Failed to close %s sink: %v", s.Name(), err)
		}
	}
}
