package store

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	mmerr "github.com/viant/mmvec/errors"
	"github.com/viant/mmvec/result"
)

// normalizeMetadata checks keys and coerces values to string, bool, int64 or
// float64. A nil or empty map yields nil.
func normalizeMetadata(md result.Metadata) (result.Metadata, error) {
	if len(md) == 0 {
		return nil, nil
	}
	out := make(result.Metadata, len(md))
	for k, v := range md {
		if err := validateKey(k); err != nil {
			return nil, err
		}
		s, err := scalar(v)
		if err != nil {
			return nil, mmerr.Wrap(err, mmerr.CodeStoreRecordInvalid, "store: invalid metadata value", mmerr.Field("key", k))
		}
		out[k] = s
	}
	return out, nil
}

func validateKey(k string) error {
	if k == "" || strings.ContainsAny(k, `"\`) || strings.HasPrefix(k, "$") {
		return mmerr.New(mmerr.CodeStoreRecordInvalid, "store: metadata keys must be non-empty, must not start with $ and must not contain quotes or backslashes",
			mmerr.Field("key", k))
	}
	return nil
}

// scalar coerces a metadata or predicate operand to a canonical scalar type.
func scalar(v any) (any, error) {
	switch x := v.(type) {
	case string, bool, int64, float64:
		if f, ok := x.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			return nil, fmt.Errorf("non-finite number %v", f)
		}
		return x, nil
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case uint:
		return scalar(uint64(x))
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return nil, fmt.Errorf("integer %d overflows int64", x)
		}
		return int64(x), nil
	case float32:
		return scalar(float64(x))
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, nil
		}
		f, err := x.Float64()
		if err != nil {
			return nil, err
		}
		return scalar(f)
	case nil:
		return nil, fmt.Errorf("null values are not supported")
	}
	return nil, fmt.Errorf("unsupported type %T; want string, bool or number", v)
}

func encodeMetadata(md result.Metadata) (sql.NullString, error) {
	md, err := normalizeMetadata(md)
	if err != nil || md == nil {
		return sql.NullString{}, err
	}
	data, err := json.Marshal(md)
	if err != nil {
		return sql.NullString{}, mmerr.Wrap(err, mmerr.CodeStoreRecordInvalid, "store: encoding metadata")
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodeMetadata(s sql.NullString) (result.Metadata, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(s.String)))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, mmerr.Wrap(err, mmerr.CodeStoreDatabaseFailure, "store: decoding metadata")
	}
	out := make(result.Metadata, len(raw))
	for k, v := range raw {
		s, err := scalar(v)
		if err != nil {
			return nil, mmerr.Wrap(err, mmerr.CodeStoreDatabaseFailure, "store: decoding metadata", mmerr.Field("key", k))
		}
		out[k] = s
	}
	return out, nil
}
