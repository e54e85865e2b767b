// Command trailhound-cli is the headless investigation runner: it seeds
// an investigation with one identifier and lets the scheduler fan out
// across the configured sources, printing the run summary as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/viper"

	"github.com/tagus/trailhound/pkg/config"
	"github.com/tagus/trailhound/pkg/executor"
	"github.com/tagus/trailhound/pkg/graph/postgres"
	"github.com/tagus/trailhound/pkg/graph/weaviate"
	"github.com/tagus/trailhound/pkg/identity"
	"github.com/tagus/trailhound/pkg/interfaces"
	"github.com/tagus/trailhound/pkg/logging"
	"github.com/tagus/trailhound/pkg/multitenancy"
	"github.com/tagus/trailhound/pkg/scheduler"
	"github.com/tagus/trailhound/pkg/sources"
	"github.com/tagus/trailhound/pkg/tracing"
)

const version = "0.1.0"

var logger = logging.New()

func main() {
	var (
		seed        = flag.String("seed", "", "seed identifier (email, phone, username, domain)")
		projectID   = flag.String("project", "", "investigation project ID")
		maxDepth    = flag.Int("max-depth", 0, "maximum investigation depth (default from config)")
		configPath  = flag.String("config", "", "path to a trailhound.yaml config file")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("trailhound-cli", version)
		return
	}
	if *seed == "" || *projectID == "" {
		fmt.Fprintln(os.Stderr, "usage: trailhound-cli -seed <value> -project <id> [-max-depth N] [-config trailhound.yaml]")
		os.Exit(2)
	}

	if err := run(*seed, *projectID, *maxDepth, *configPath); err != nil {
		logger.Error(context.Background(), "Run failed", map[string]interface{}{
			"error": err.Error(),
		})
		os.Exit(1)
	}
}

func run(seed, projectID string, maxDepth int, configPath string) error {
	ctx := multitenancy.WithProjectID(context.Background(), projectID)

	if configPath != "" {
		v := viper.New()
		v.SetConfigFile(configPath)
		v.AutomaticEnv()
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		merged := config.MergeFromViper(v)
		logger.Info(ctx, "Loaded deployment config", map[string]interface{}{
			"path":   configPath,
			"merged": merged,
		})
	}
	cfg := config.Get()

	if maxDepth <= 0 {
		maxDepth = cfg.Scheduler.MaxDepth
	}

	store, err := buildStore(cfg)
	if err != nil {
		return err
	}

	registry := sources.NewRegistry()
	if cfg.Sources.CatalogPath != "" {
		catalog, err := sources.LoadCatalog(cfg.Sources.CatalogPath)
		if err != nil {
			return err
		}
		if err := catalog.Build(registry); err != nil {
			return err
		}
	}
	if len(registry.List()) == 0 {
		return fmt.Errorf("no sources configured; set SOURCES_CATALOG or pass a config file")
	}

	identities := buildRegistry(cfg)

	tracer, err := tracing.New(tracing.Config{
		Enabled:           cfg.Tracing.OpenTelemetry.Enabled,
		ServiceName:       cfg.Tracing.OpenTelemetry.ServiceName,
		CollectorEndpoint: cfg.Tracing.OpenTelemetry.CollectorEndpoint,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	searcher, err := executor.New(store, registry, identities,
		executor.WithLogger(logger),
		executor.WithTracer(tracer),
	)
	if err != nil {
		return err
	}

	sched, err := scheduler.New(store, searcher,
		scheduler.WithLogger(logger),
		scheduler.WithTracer(tracer),
	)
	if err != nil {
		return err
	}

	summary, err := sched.Run(ctx, seed, projectID, maxDepth)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func buildStore(cfg *config.Config) (interfaces.GraphReadWriter, error) {
	switch cfg.Graph.Provider {
	case "postgres":
		return postgres.New(cfg.Graph.Postgres.ConnectionString,
			postgres.WithTable(cfg.Graph.Postgres.Table),
			postgres.WithLogger(logger),
		)
	default:
		return weaviate.New(&weaviate.Config{
			Host:        cfg.Graph.Weaviate.Host,
			Scheme:      cfg.Graph.Weaviate.Scheme,
			APIKey:      cfg.Graph.Weaviate.APIKey,
			ClassPrefix: cfg.Graph.Weaviate.ClassPrefix,
		}, weaviate.WithLogger(logger))
	}
}

func buildRegistry(cfg *config.Config) interfaces.IdentityRegistry {
	if cfg.Registry.Provider != "redis" {
		return identity.NewMemoryRegistry()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Registry.Redis.URL,
		Password: cfg.Registry.Redis.Password,
		DB:       cfg.Registry.Redis.DB,
	})
	return identity.NewRedisRegistry(client,
		identity.WithTTL(cfg.Registry.Redis.TTL),
		identity.WithLogger(logger),
	)
}
