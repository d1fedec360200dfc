// Package storage opens the repository selected by configuration
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"grisera/internal/config"
	"grisera/internal/document"
	"grisera/internal/document/badgerstore"
	"grisera/internal/document/mongostore"
	"grisera/internal/graph/sqlstore"
	"grisera/internal/repository"
	"grisera/internal/repository/docrepo"
	"grisera/internal/repository/graphrepo"
)

// Open builds the repository for cfg.Backend.
//
//	backend: graph    -> graph.driver sqlite|postgres, graph.dsn
//	backend: document -> document.driver badger|mongo
func Open(ctx context.Context, cfg *config.Config, log *slog.Logger) (repository.Repository, error) {
	switch cfg.Backend {
	case config.BackendGraph:
		store, err := sqlstore.New(sqlstore.Dialect(cfg.Graph.Driver), cfg.Graph.DSN)
		if err != nil {
			return nil, err
		}
		log.Info("graph store opened", "driver", cfg.Graph.Driver)
		return graphrepo.New(store, log), nil

	case config.BackendDocument:
		store, err := openDocumentStore(ctx, cfg.Document, log)
		if err != nil {
			return nil, err
		}
		log.Info("document store opened", "driver", cfg.Document.Driver)
		return docrepo.New(store, log), nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func openDocumentStore(ctx context.Context, cfg config.DocumentConfig, log *slog.Logger) (document.Store, error) {
	switch cfg.Driver {
	case "badger":
		bc := badgerstore.DefaultConfig(cfg.Path)
		if cfg.InMemory {
			bc = badgerstore.InMemoryConfig()
		}
		bc.Logger = log.With("component", "badger")
		return badgerstore.Open(bc)
	case "mongo":
		return mongostore.Open(ctx, mongostore.Config{
			URI:      cfg.MongoURI,
			Database: cfg.Database,
			Timeout:  cfg.Timeout,
		})
	default:
		return nil, fmt.Errorf("unknown document driver %q", cfg.Driver)
	}
}
