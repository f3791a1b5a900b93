package cache

const embeddedSchema = `
CREATE TABLE IF NOT EXISTS render_cache (
	cache_key   TEXT PRIMARY KEY,
	backend     TEXT NOT NULL,
	width       INTEGER NOT NULL,
	height      INTEGER NOT NULL,
	png         BLOB NOT NULL,
	created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	accessed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	expires_at  TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_render_cache_expires ON render_cache(expires_at);
`
