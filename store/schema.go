package store

import (
	"context"
	"database/sql"
	"fmt"
)

const schemaVersion = 1

const (
	opInsert = "insert"
	opUpdate = "update"
	opDelete = "delete"
)

var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS collections (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL UNIQUE,
    embedding  TEXT NOT NULL,
    metric     TEXT NOT NULL,
    dimension  INTEGER NOT NULL DEFAULT 0,
    metadata   TEXT,
    scn        INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS records (
    collection_id TEXT NOT NULL REFERENCES collections(id),
    id            TEXT NOT NULL,
    document      TEXT,
    uri           TEXT,
    meta          TEXT,
    embedding     BLOB NOT NULL,
    PRIMARY KEY(collection_id, id)
)`,
	`CREATE TABLE IF NOT EXISTS record_log (
    collection_id TEXT NOT NULL,
    scn           INTEGER NOT NULL,
    op            TEXT NOT NULL,
    record_id     TEXT NOT NULL,
    payload       TEXT NOT NULL,
    created_at    INTEGER NOT NULL DEFAULT (CAST(strftime('%s', 'now') AS INTEGER)),
    PRIMARY KEY(collection_id, scn)
)`,
	`CREATE TABLE IF NOT EXISTS vector_storage (
    collection_id TEXT PRIMARY KEY,
    scn           INTEGER NOT NULL,
    kind          TEXT NOT NULL,
    "index"       BLOB NOT NULL
)`,
}

// recordTriggers keeps the change log, the collection SCN and the persisted
// index consistent with every record mutation. Updates that leave a row
// unchanged do not fire.
func recordTriggers() []string {
	payload := func(alias string) string {
		return fmt.Sprintf(`json_object(
        'id', %[1]s.id,
        'document', %[1]s.document,
        'uri', %[1]s.uri,
        'meta', json(%[1]s.meta),
        'embedding', lower(hex(%[1]s.embedding))
    )`, alias)
	}
	body := func(alias, op string) string {
		return fmt.Sprintf(`BEGIN
    UPDATE collections SET scn = scn + 1 WHERE id = %[1]s.collection_id;
    INSERT INTO record_log(collection_id, scn, op, record_id, payload)
    VALUES (
        %[1]s.collection_id,
        (SELECT scn FROM collections WHERE id = %[1]s.collection_id),
        '%[2]s',
        %[1]s.id,
        %[3]s
    );
    DELETE FROM vector_storage WHERE collection_id = %[1]s.collection_id;
END`, alias, op, payload(alias))
	}
	changed := `OLD.document IS NOT NEW.document
    OR OLD.uri IS NOT NEW.uri
    OR OLD.meta IS NOT NEW.meta
    OR OLD.embedding IS NOT NEW.embedding`
	return []string{
		`CREATE TRIGGER IF NOT EXISTS records_ai AFTER INSERT ON records
` + body("NEW", opInsert),
		`CREATE TRIGGER IF NOT EXISTS records_au AFTER UPDATE ON records
WHEN ` + changed + `
` + body("NEW", opUpdate),
		`CREATE TRIGGER IF NOT EXISTS records_ad AFTER DELETE ON records
` + body("OLD", opDelete),
	}
}

// migrate creates the schema when the database is older than schemaVersion.
func migrate(ctx context.Context, db *sql.DB) error {
	var version int
	if err := db.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("store: read schema version: %w", err)
	}
	if version >= schemaVersion {
		return nil
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	stmts := append(append([]string{}, schemaDDL...), recordTriggers()...)
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: migrate: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d`, schemaVersion)); err != nil {
		return fmt.Errorf("store: set schema version: %w", err)
	}
	return tx.Commit()
}
