package replica

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	mmerr "github.com/viant/mmvec/errors"
	"github.com/viant/mmvec/result"
	"github.com/viant/mmvec/store"
)

// Replicator applies the change log of a source collection to a target
// collection. Entries are applied at least once; replaying an entry is a no-op
// because upserts of identical rows and deletes of absent ids change nothing.
type Replicator struct {
	db     *sql.DB
	source *store.Collection
	target *store.Collection
	cfg    Config
	logger *slog.Logger
}

// Option configures a Replicator.
type Option func(*Replicator)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Replicator) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithConfig(cfg Config) Option {
	return func(r *Replicator) { r.cfg = cfg }
}

// New creates a replicator whose state lives in targetDB, the database of the
// target collection's client.
func New(ctx context.Context, targetDB *sql.DB, source, target *store.Collection, opts ...Option) (*Replicator, error) {
	if targetDB == nil || source == nil || target == nil {
		return nil, mmerr.New(mmerr.CodeReplicaStateFailure, "replica: database, source and target are required")
	}
	r := &Replicator{db: targetDB, source: source, target: target, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	if r.cfg.BatchSize <= 0 {
		r.cfg.BatchSize = DefaultBatchSize
	}
	if _, err := targetDB.ExecContext(ctx, stateTableDDL()); err != nil {
		return nil, mmerr.Wrap(err, mmerr.CodeReplicaStateFailure, "replica: creating state table")
	}
	return r, nil
}

// State returns the replication progress; LastSCN is 0 before the first sync.
func (r *Replicator) State(ctx context.Context) (State, error) {
	st := State{SourceID: r.source.ID(), TargetID: r.target.ID()}
	var updated int64
	err := r.db.QueryRowContext(ctx, `SELECT last_scn, updated_at FROM `+StateTable+` WHERE source_id = ? AND target_id = ?`,
		st.SourceID, st.TargetID).Scan(&st.LastSCN, &updated)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return st, nil
	case err != nil:
		return st, mmerr.Wrap(err, mmerr.CodeReplicaStateFailure, "replica: reading state")
	}
	st.UpdatedAt = time.Unix(updated, 0)
	return st, nil
}

// Sync applies every change recorded after the last applied SCN and returns
// the number of entries applied.
func (r *Replicator) Sync(ctx context.Context) (int, error) {
	started := time.Now()
	st, err := r.State(ctx)
	if err != nil {
		return 0, err
	}
	applied := 0
	for {
		if err := ctx.Err(); err != nil {
			return applied, err
		}
		entries, err := r.source.Changes(ctx, st.LastSCN, r.cfg.BatchSize)
		if err != nil {
			return applied, err
		}
		if len(entries) == 0 {
			break
		}
		for _, e := range entries {
			if err := r.apply(ctx, e); err != nil {
				return applied, mmerr.Wrap(err, mmerr.CodeReplicaStateFailure, "replica: applying change",
					mmerr.Field("scn", e.SCN), mmerr.FieldID(e.RecordID))
			}
			applied++
		}
		st.LastSCN = entries[len(entries)-1].SCN
		if err := r.saveState(ctx, st.LastSCN); err != nil {
			return applied, err
		}
		if len(entries) < r.cfg.BatchSize {
			break
		}
	}
	r.logger.Info("replica synced", "collection", r.target.Name(), "source", r.source.Name(),
		"count", applied, "scn", st.LastSCN, "elapsed", time.Since(started))
	return applied, nil
}

func (r *Replicator) apply(ctx context.Context, e store.ChangeEntry) error {
	if e.Op == "delete" {
		_, err := r.target.Delete(ctx, []string{e.RecordID}, nil)
		return err
	}
	p, err := decodePayload(e.Payload)
	if err != nil {
		return err
	}
	vec, err := p.embedding()
	if err != nil {
		return err
	}
	md, err := p.metadata()
	if err != nil {
		return err
	}
	recs := store.Records{
		IDs:        []string{e.RecordID},
		Embeddings: [][]float32{vec},
		Metadatas:  []result.Metadata{md},
	}
	if p.Document != nil {
		recs.Documents = []string{*p.Document}
	}
	if p.URI != nil {
		recs.URIs = []string{*p.URI}
	}
	return r.target.Upsert(ctx, recs)
}

func (r *Replicator) saveState(ctx context.Context, scn int64) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO `+StateTable+`(source_id, target_id, last_scn, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT(source_id, target_id) DO UPDATE SET last_scn = excluded.last_scn, updated_at = excluded.updated_at`,
		r.source.ID(), r.target.ID(), scn, time.Now().Unix())
	if err != nil {
		return mmerr.Wrap(err, mmerr.CodeReplicaStateFailure, "replica: saving state", mmerr.Field("scn", scn))
	}
	return nil
}
