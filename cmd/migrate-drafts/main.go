package main

import (
	"context"
	"flag"
	"log"

	"github.com/debemdeboas/the-thread/internal/config"
	"github.com/debemdeboas/the-thread/internal/db"
	"github.com/debemdeboas/the-thread/internal/repository/editor"
)

// main copies drafts kept by one drafts driver into another, e.g. from the
// fs driver into the database.
func main() {
	configPath := flag.String("config", "config.yaml", "Path to the YAML configuration file")
	from := flag.String("from", "fs", "Source drafts driver (db, fs)")
	to := flag.String("to", "db", "Target drafts driver (db, fs)")
	flag.Parse()

	if *from == *to {
		log.Fatal("--from and --to must name different drivers")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	DB := db.NewSQLite(cfg.Database.Path)
	if err := DB.InitDB(); err != nil {
		log.Fatalf("Error opening database: %v", err)
	}
	defer DB.Close()

	source, err := newKV(cfg.Drafts, *from, DB)
	if err != nil {
		log.Fatalf("Error opening source: %v", err)
	}
	target, err := newKV(cfg.Drafts, *to, DB)
	if err != nil {
		log.Fatalf("Error opening target: %v", err)
	}

	copied, err := editor.Migrate(context.Background(), source, target, cfg.Drafts.StorageKey)
	if err != nil {
		log.Fatalf("Error migrating drafts: %v", err)
	}
	log.Printf("Migrated %d drafts from %s to %s", copied, *from, *to)
}

func newKV(cfg config.DraftsConfig, driver string, database db.DB) (editor.KV, error) {
	cfg.Driver = driver
	return editor.NewKV(cfg, database)
}
