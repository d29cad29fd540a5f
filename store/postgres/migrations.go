package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Scribe store.
var Migrations = migrate.NewGroup("scribe")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_scribe_licenses",
			Version: "20260101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS scribe_licenses (
    id                    TEXT PRIMARY KEY,
    user_id               TEXT NOT NULL DEFAULT '',
    license_key           TEXT NOT NULL,
    plan                  TEXT NOT NULL DEFAULT 'free',
    status                TEXT NOT NULL DEFAULT 'pending',
    max_websites          INT NOT NULL DEFAULT 1,
    max_content_per_month INT NOT NULL DEFAULT 0,
    expires_at            TIMESTAMPTZ,
    cancelled_at          TIMESTAMPTZ,
    registered_domains    JSONB NOT NULL DEFAULT '[]',
    version               BIGINT NOT NULL DEFAULT 0,
    metadata              JSONB NOT NULL DEFAULT '{}',
    created_at            TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at            TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_scribe_licenses_key ON scribe_licenses (license_key);
CREATE INDEX IF NOT EXISTS idx_scribe_licenses_user_status ON scribe_licenses (user_id, status);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS scribe_licenses`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_scribe_websites",
			Version: "20260101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS scribe_websites (
    id         TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL DEFAULT '',
    license_id TEXT NOT NULL DEFAULT '',
    url        TEXT NOT NULL DEFAULT '',
    domain     TEXT NOT NULL DEFAULT '',
    name       TEXT NOT NULL DEFAULT '',
    metadata   JSONB NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_scribe_websites_user_domain ON scribe_websites (user_id, domain);
CREATE INDEX IF NOT EXISTS idx_scribe_websites_license ON scribe_websites (license_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS scribe_websites`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_scribe_content",
			Version: "20260101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS scribe_content (
    id                 TEXT PRIMARY KEY,
    website_id         TEXT NOT NULL DEFAULT '',
    title              TEXT NOT NULL DEFAULT '',
    topic              TEXT NOT NULL DEFAULT '',
    body               TEXT,
    target_keywords    JSONB NOT NULL DEFAULT '[]',
    min_words          INT NOT NULL DEFAULT 0,
    word_count         INT,
    tone               TEXT NOT NULL DEFAULT '',
    audience           TEXT NOT NULL DEFAULT '',
    status             TEXT NOT NULL DEFAULT 'pending',
    plagiarism_score   DOUBLE PRECISION,
    readability_score  DOUBLE PRECISION,
    generated_at       TIMESTAMPTZ,
    quality_checked_at TIMESTAMPTZ,
    published_at       TIMESTAMPTZ,
    failed_at          TIMESTAMPTZ,
    failure_reason     TEXT NOT NULL DEFAULT '',
    metadata           JSONB NOT NULL DEFAULT '{}',
    created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_scribe_content_website_status ON scribe_content (website_id, status);
CREATE INDEX IF NOT EXISTS idx_scribe_content_generated ON scribe_content (website_id, generated_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS scribe_content`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_scribe_tracking_events",
			Version: "20260101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS scribe_tracking_events (
    id             TEXT PRIMARY KEY,
    trackable_type TEXT NOT NULL,
    trackable_id   TEXT NOT NULL,
    event_type     TEXT NOT NULL,
    value          DOUBLE PRECISION,
    occurred_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    metadata       JSONB NOT NULL DEFAULT '{}',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_scribe_events_trackable ON scribe_tracking_events (trackable_type, trackable_id, occurred_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS scribe_tracking_events`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_scribe_settings",
			Version: "20260101000005",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS scribe_settings (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL DEFAULT '',
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS scribe_settings`)
				return err
			},
		},
	)
}
