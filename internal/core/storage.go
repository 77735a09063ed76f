package core

import (
	"fmt"
	"os"
	"strings"

	"github.com/jpong0810/fund-review-tracker/internal/infra/persistence/memory"
	"github.com/jpong0810/fund-review-tracker/internal/infra/persistence/postgres"
	"github.com/jpong0810/fund-review-tracker/internal/infra/persistence/sqlite"
	"github.com/jpong0810/fund-review-tracker/pkg/domain"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

type (
	Transaction     = domain.Transaction
	TransactionView = domain.TransactionView
	PersistentStore = domain.PersistentStore
)

// OpenPersistentStore selects a backend using environment variables.
// Defaults to sqlite when unset.
//
//	FUNDREVIEW_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	FUNDREVIEW_SQLITE_PATH: path to sqlite file (default ./fundreview.db)
//	FUNDREVIEW_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenPersistentStore(engine *RulesEngine) (PersistentStore, error) {
	driver := os.Getenv("FUNDREVIEW_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(engine), nil
	case StorageSQLite:
		path := os.Getenv("FUNDREVIEW_SQLITE_PATH")
		return sqlite.NewStore(path, engine)
	case StoragePostgres:
		dsn := os.Getenv("FUNDREVIEW_POSTGRES_DSN")
		return postgres.NewStore(dsn, engine)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}

// PipelineConfigFromEnv derives the pipeline configuration from environment
// variables, starting from the permissive defaults.
//
//	FUNDREVIEW_PIPELINE_POLICY: linear|checklist (default linear)
//	FUNDREVIEW_ALLOW_BACKWARD: true|false (default true)
//	FUNDREVIEW_REQUIRE_TERMINAL_DELETE: true|false (default false)
//	FUNDREVIEW_ALLOW_UNCHECK: true|false (default true)
func PipelineConfigFromEnv() (PipelineConfig, error) {
	cfg := domain.DefaultPipelineConfig()
	if policy := os.Getenv("FUNDREVIEW_PIPELINE_POLICY"); policy != "" {
		switch PipelinePolicy(policy) {
		case PolicyLinear, PolicyChecklist:
			cfg.Policy = PipelinePolicy(policy)
		default:
			return PipelineConfig{}, fmt.Errorf("unknown pipeline policy %s", policy)
		}
	}
	if v := os.Getenv("FUNDREVIEW_ALLOW_BACKWARD"); v != "" {
		cfg.AllowBackwardTransitions = strings.EqualFold(v, "true")
	}
	if v := os.Getenv("FUNDREVIEW_REQUIRE_TERMINAL_DELETE"); v != "" {
		cfg.RequireTerminalDelete = strings.EqualFold(v, "true")
	}
	if v := os.Getenv("FUNDREVIEW_ALLOW_UNCHECK"); v != "" {
		cfg.AllowUncheck = strings.EqualFold(v, "true")
	}
	return cfg, nil
}
