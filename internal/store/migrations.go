package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS notifications (
	id             TEXT PRIMARY KEY,
	bus_id         INTEGER NOT NULL DEFAULT 0,
	app_name       TEXT NOT NULL,
	summary        TEXT NOT NULL,
	body           TEXT NOT NULL,
	app_icon       TEXT NOT NULL DEFAULT '',
	replaces_id    INTEGER NOT NULL DEFAULT 0,
	actions        TEXT NOT NULL DEFAULT '[]',
	urgency        INTEGER NOT NULL DEFAULT 1,
	category       TEXT NOT NULL DEFAULT '',
	resident       INTEGER NOT NULL DEFAULT 0,
	expire_timeout INTEGER NOT NULL DEFAULT -1,
	created_at     INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notifications_created_at ON notifications(created_at);
CREATE INDEX IF NOT EXISTS idx_notifications_app_name ON notifications(app_name);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
ALTER TABLE notifications ADD COLUMN image_width INTEGER NOT NULL DEFAULT 0;
ALTER TABLE notifications ADD COLUMN image_height INTEGER NOT NULL DEFAULT 0;

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
