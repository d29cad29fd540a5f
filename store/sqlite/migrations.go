package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Scribe store (SQLite).
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
    max_websites          INTEGER NOT NULL DEFAULT 1,
    max_content_per_month INTEGER NOT NULL DEFAULT 0,
    expires_at            TEXT,
    cancelled_at          TEXT,
    registered_domains    TEXT NOT NULL DEFAULT '[]',
    version               INTEGER NOT NULL DEFAULT 0,
    metadata              TEXT NOT NULL DEFAULT '{}',
    created_at            TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at            TEXT NOT NULL DEFAULT (datetime('now'))
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
    metadata   TEXT NOT NULL DEFAULT '{}',
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
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
    target_keywords    TEXT NOT NULL DEFAULT '[]',
    min_words          INTEGER NOT NULL DEFAULT 0,
    word_count         INTEGER,
    tone               TEXT NOT NULL DEFAULT '',
    audience           TEXT NOT NULL DEFAULT '',
    status             TEXT NOT NULL DEFAULT 'pending',
    plagiarism_score   REAL,
    readability_score  REAL,
    generated_at       TEXT,
    quality_checked_at TEXT,
    published_at       TEXT,
    failed_at          TEXT,
    failure_reason     TEXT NOT NULL DEFAULT '',
    metadata           TEXT NOT NULL DEFAULT '{}',
    created_at         TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at         TEXT NOT NULL DEFAULT (datetime('now'))
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
    value          REAL,
    occurred_at    TEXT NOT NULL DEFAULT (datetime('now')),
    metadata       TEXT NOT NULL DEFAULT '{}',
    created_at     TEXT NOT NULL DEFAULT (datetime('now'))
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
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
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
