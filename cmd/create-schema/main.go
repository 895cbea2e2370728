package main

import (
	"context"
	"flag"
	"log"

	"legalklarity-backend/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
    id UUID PRIMARY KEY,
    user_id VARCHAR(128) NOT NULL,

    -- Original upload
    filename VARCHAR(512) NOT NULL,
    mime_type VARCHAR(255) NOT NULL,
    size BIGINT NOT NULL CHECK (size >= 0),
    storage_path TEXT NOT NULL,
    content_hash VARCHAR(32) NOT NULL,

    -- Analysis request
    role VARCHAR(64) NOT NULL DEFAULT 'individual',
    language_code VARCHAR(16) NOT NULL DEFAULT 'en',
    document_type VARCHAR(64) NOT NULL DEFAULT '',

    -- Outcome
    status VARCHAR(20) NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'completed', 'failed')),
    analysis JSONB,
    error_message TEXT,

    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    analyzed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_documents_user_created ON documents (user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_documents_content_hash ON documents (content_hash);
CREATE INDEX IF NOT EXISTS idx_documents_status ON documents (status) WHERE status <> 'completed';
`

func main() {
	drop := flag.Bool("drop", false, "drop the documents table before creating it (destroys data)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if *drop {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS documents CASCADE"); err != nil {
			log.Fatalf("Failed to drop table: %v", err)
		}
		log.Println("✓ Dropped existing documents table (if any)")
	}

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		log.Fatalf("Failed to create schema: %v", err)
	}
	log.Println("✓ documents table and indexes ready")

	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM documents").Scan(&count); err != nil {
		log.Fatalf("Failed to verify table: %v", err)
	}
	log.Printf("✓ documents table holds %d rows", count)
}
