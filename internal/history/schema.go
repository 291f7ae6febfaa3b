package history

const schemaVersion = 1

const schemaSQL = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS saves (
	id INTEGER PRIMARY KEY,
	document TEXT NOT NULL,
	trigger_name TEXT NOT NULL,
	size INTEGER NOT NULL,
	saved_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_saves_document ON saves(document, saved_at);
`
