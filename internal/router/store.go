package router

import (
	"context"
	"database/sql"
	"fmt"

	mem "peptide-tracker/internal/adapters/storage/memory"
	pg "peptide-tracker/internal/adapters/storage/postgres"
	"peptide-tracker/internal/adapters/storage/sqlite"
	"peptide-tracker/internal/config"
	"peptide-tracker/internal/domain/doses"
	"peptide-tracker/internal/domain/injections"
	"peptide-tracker/internal/domain/protocols"
	"peptide-tracker/internal/domain/substances"
)

// Store agrupa los repos de un mismo backend.
type Store struct {
	Substances substances.Repository
	Protocols  protocols.Repository
	Doses      doses.Repository
	Injections injections.Repository
}

func MemoryStore() Store {
	return Store{
		Substances: mem.NewSubstanceRepo(),
		Protocols:  mem.NewProtocolRepo(),
		Doses:      mem.NewDoseRepo(),
		Injections: mem.NewInjectionRepo(),
	}
}

func PostgresStore(db *sql.DB) Store {
	return Store{
		Substances: pg.NewSubstancesRepo(db),
		Protocols:  pg.NewProtocolsRepo(db),
		Doses:      pg.NewDosesRepo(db),
		Injections: pg.NewInjectionsRepo(db),
	}
}

func SQLiteStore(db *sql.DB) Store {
	return Store{
		Substances: sqlite.NewSubstancesRepo(db),
		Protocols:  sqlite.NewProtocolsRepo(db),
		Doses:      sqlite.NewDosesRepo(db),
		Injections: sqlite.NewInjectionsRepo(db),
	}
}

// OpenStore abre el backend configurado y aplica el schema.
// db es nil para el store in-memory.
func OpenStore(ctx context.Context, cfg *config.Config) (Store, *sql.DB, error) {
	switch cfg.Store {
	case config.StorePostgres:
		db, err := pg.Open(cfg.DatabaseURL)
		if err != nil {
			return Store{}, nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := pg.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return Store{}, nil, fmt.Errorf("migrate postgres: %w", err)
		}
		return PostgresStore(db), db, nil
	case config.StoreSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return Store{}, nil, fmt.Errorf("open sqlite: %w", err)
		}
		return SQLiteStore(db), db, nil
	case config.StoreMemory, "":
		return MemoryStore(), nil, nil
	default:
		return Store{}, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}
