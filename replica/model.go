package replica

import (
	"encoding/hex"
	"encoding/json"
	"time"

	mmerr "github.com/viant/mmvec/errors"
	"github.com/viant/mmvec/result"
	"github.com/viant/mmvec/vector"
)

// StateTable records the last SCN applied for each source/target pair.
const StateTable = "replica_state"

// DefaultBatchSize is the number of change log entries applied per round.
const DefaultBatchSize = 256

// State describes the latest SCN applied to a target collection.
type State struct {
	SourceID  string
	TargetID  string
	LastSCN   int64
	UpdatedAt time.Time
}

// Config captures replication settings.
type Config struct {
	// BatchSize controls how many log entries to fetch and apply per round.
	BatchSize int
}

func stateTableDDL() string {
	return `CREATE TABLE IF NOT EXISTS ` + StateTable + ` (
    source_id  TEXT NOT NULL,
    target_id  TEXT NOT NULL,
    last_scn   INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    PRIMARY KEY(source_id, target_id)
)`
}

// payload is the JSON row image written by the record triggers.
type payload struct {
	ID        string          `json:"id"`
	Document  *string         `json:"document"`
	URI       *string         `json:"uri"`
	Meta      json.RawMessage `json:"meta"`
	Embedding string          `json:"embedding"`
}

func decodePayload(data []byte) (*payload, error) {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, mmerr.Wrap(err, mmerr.CodeReplicaPayloadInvalid, "replica: decoding change payload")
	}
	return &p, nil
}

func (p *payload) embedding() ([]float32, error) {
	blob, err := hex.DecodeString(p.Embedding)
	if err != nil {
		return nil, mmerr.Wrap(err, mmerr.CodeReplicaPayloadInvalid, "replica: embedding is not hex", mmerr.FieldID(p.ID))
	}
	v, err := vector.DecodeEmbedding(blob)
	if err != nil {
		return nil, mmerr.Wrap(err, mmerr.CodeReplicaPayloadInvalid, "replica: decoding embedding", mmerr.FieldID(p.ID))
	}
	return v, nil
}

// metadata returns the row metadata; an empty map stands for NULL so that the
// upsert clears metadata removed upstream.
func (p *payload) metadata() (result.Metadata, error) {
	md := result.Metadata{}
	if len(p.Meta) == 0 || string(p.Meta) == "null" {
		return md, nil
	}
	if err := json.Unmarshal(p.Meta, &md); err != nil {
		return nil, mmerr.Wrap(err, mmerr.CodeReplicaPayloadInvalid, "replica: decoding metadata", mmerr.FieldID(p.ID))
	}
	return md, nil
}
