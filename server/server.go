// Package server exposes the RBAC catalog over an HTTP admin API.
package server

import (
	"fmt"
	"log"
	"os"

	"gorm.io/gorm"

	"github.com/gymstack/rbac/provision"
	"github.com/gymstack/rbac/store"
)

// Server wires the HTTP layer to the database and the permission cache.
type Server struct {
	Config *AppConfig
	Logger *log.Logger

	db    *gorm.DB
	cache store.PermissionCache
}

// NewServer opens the database and permission cache from config.
func NewServer(cfg *AppConfig) (*Server, error) {
	if cfg == nil {
		cfg = GetConfig()
	}
	dsn := cfg.RBACDBDSN()
	if dsn == "" {
		return nil, fmt.Errorf("server: no database DSN configured")
	}
	db, err := store.Open(dsn)
	if err != nil {
		return nil, fmt.Errorf("server: open db: %w", err)
	}

	var cache store.PermissionCache
	if addr := cfg.Valkey.Addr; addr != "" {
		cache, err = store.NewValkeyPermissionCache(addr, cfg.Valkey.Prefix, cfg.Valkey.TTL)
		if err != nil {
			return nil, fmt.Errorf("server: valkey cache: %w", err)
		}
	} else {
		cache, err = store.NewBuntPermissionCache(cfg.Valkey.TTL)
		if err != nil {
			return nil, fmt.Errorf("server: buntdb cache: %w", err)
		}
	}

	return &Server{
		Config: cfg,
		Logger: log.New(os.Stdout, "[rbac] ", log.LstdFlags),
		db:     db,
		cache:  cache,
	}, nil
}

// GetDB returns the database handle.
func (s *Server) GetDB() (*gorm.DB, error) {
	if s.db == nil {
		return nil, fmt.Errorf("server: database not initialized")
	}
	return s.db, nil
}

// Engine builds a provisioning engine backed by the server's DB and cache.
func (s *Server) Engine() *provision.Engine {
	return provision.NewEngine(s.db, s.cache, s.Logger)
}

// Close releases the permission cache connection.
func (s *Server) Close() {
	if s.cache != nil {
		s.cache.Close()
	}
}
