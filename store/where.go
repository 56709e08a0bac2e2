package store

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	mmerr "github.com/viant/mmvec/errors"
)

// Where filters records by metadata. A key maps either to a value (equality)
// or to an operator object:
//
//	{"category": "sport"}
//	{"year": {"$gte": 2020}}
//	{"$or": [{"category": "sport"}, {"item_id": {"$in": ["1", "2"]}}]}
//
// Operators: $eq $ne $gt $gte $lt $lte $in $nin, combined with $and and $or.
// $ne and $nin also match records that lack the key. Several keys in one
// object are combined with AND.
type Where map[string]any

// WhereDocument filters records by document text with $contains,
// $not_contains, $and and $or. Matching is case-sensitive.
type WhereDocument map[string]any

type predicate struct {
	sql  string
	args []any
}

func (p *predicate) empty() bool { return p == nil || p.sql == "" }

func whereError(msg string, fields ...mmerr.Attr) error {
	return mmerr.New(mmerr.CodeStoreWhereInvalid, "store: where: "+msg, fields...)
}

func compileWhere(w Where) (*predicate, error) {
	if len(w) == 0 {
		return &predicate{}, nil
	}
	return compileMetaObject(map[string]any(w))
}

func compileWhereDocument(w WhereDocument) (*predicate, error) {
	if len(w) == 0 {
		return &predicate{}, nil
	}
	return compileDocObject(map[string]any(w))
}

func compileMetaObject(obj map[string]any) (*predicate, error) {
	if len(obj) == 0 {
		return nil, whereError("empty object")
	}
	var parts []*predicate
	for _, key := range sortedKeys(obj) {
		value := obj[key]
		var (
			p   *predicate
			err error
		)
		switch key {
		case "$and", "$or":
			p, err = compileLogical(key, value, compileMetaObject)
		default:
			if strings.HasPrefix(key, "$") {
				return nil, whereError("unknown operator", mmerr.Field("operator", key))
			}
			p, err = compileField(key, value)
		}
		if err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}
	return join(parts, " AND "), nil
}

func compileDocObject(obj map[string]any) (*predicate, error) {
	if len(obj) == 0 {
		return nil, whereError("empty document object")
	}
	var parts []*predicate
	for _, key := range sortedKeys(obj) {
		value := obj[key]
		switch key {
		case "$and", "$or":
			p, err := compileLogical(key, value, compileDocObject)
			if err != nil {
				return nil, err
			}
			parts = append(parts, p)
		case "$contains", "$not_contains":
			text, ok := value.(string)
			if !ok || text == "" {
				return nil, whereError(key + " expects a non-empty string")
			}
			if key == "$contains" {
				parts = append(parts, &predicate{sql: "(instr(document, ?) > 0)", args: []any{text}})
			} else {
				parts = append(parts, &predicate{sql: "(document IS NULL OR instr(document, ?) = 0)", args: []any{text}})
			}
		default:
			return nil, whereError("unknown document operator", mmerr.Field("operator", key))
		}
	}
	return join(parts, " AND "), nil
}

func compileLogical(op string, value any, compile func(map[string]any) (*predicate, error)) (*predicate, error) {
	items, ok := asList(value)
	if !ok || len(items) == 0 {
		return nil, whereError(op + " expects a non-empty list of objects")
	}
	parts := make([]*predicate, 0, len(items))
	for _, item := range items {
		obj, ok := asObject(item)
		if !ok {
			return nil, whereError(op + " expects a list of objects")
		}
		p, err := compile(obj)
		if err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}
	sep := " AND "
	if op == "$or" {
		sep = " OR "
	}
	return join(parts, sep), nil
}

func compileField(key string, value any) (*predicate, error) {
	if err := validateKey(key); err != nil {
		return nil, whereError("invalid key", mmerr.Field("key", key))
	}
	path := `$."` + key + `"`
	ops, isObject := asObject(value)
	if !isObject {
		return compileOp(path, key, "$eq", value)
	}
	if len(ops) == 0 {
		return nil, whereError("empty operator object", mmerr.Field("key", key))
	}
	var parts []*predicate
	for _, op := range sortedKeys(ops) {
		p, err := compileOp(path, key, op, ops[op])
		if err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}
	return join(parts, " AND "), nil
}

func compileOp(path, key, op string, operand any) (*predicate, error) {
	switch op {
	case "$eq":
		return equals(path, key, operand)
	case "$ne":
		p, err := equals(path, key, operand)
		if err != nil {
			return nil, err
		}
		return negate(p), nil
	case "$gt", "$gte", "$lt", "$lte":
		v, err := scalar(operand)
		if err != nil {
			return nil, whereError(err.Error(), mmerr.Field("key", key))
		}
		switch v.(type) {
		case int64, float64:
		default:
			return nil, whereError(op+" expects a number", mmerr.Field("key", key))
		}
		cmp := map[string]string{"$gt": ">", "$gte": ">=", "$lt": "<", "$lte": "<="}[op]
		return &predicate{
			sql:  fmt.Sprintf("(json_type(meta, ?) IN ('integer', 'real') AND json_extract(meta, ?) %s ?)", cmp),
			args: []any{path, path, v},
		}, nil
	case "$in", "$nin":
		items, ok := asList(operand)
		if !ok || len(items) == 0 {
			return nil, whereError(op+" expects a non-empty list", mmerr.Field("key", key))
		}
		parts := make([]*predicate, 0, len(items))
		for _, item := range items {
			p, err := equals(path, key, item)
			if err != nil {
				return nil, err
			}
			parts = append(parts, p)
		}
		p := join(parts, " OR ")
		if op == "$nin" {
			return negate(p), nil
		}
		return p, nil
	}
	return nil, whereError("unknown operator", mmerr.Field("operator", op), mmerr.Field("key", key))
}

func equals(path, key string, operand any) (*predicate, error) {
	v, err := scalar(operand)
	if err != nil {
		return nil, whereError(err.Error(), mmerr.Field("key", key))
	}
	switch x := v.(type) {
	case bool:
		return &predicate{sql: "(json_type(meta, ?) = ?)", args: []any{path, fmt.Sprint(x)}}, nil
	case string:
		return &predicate{sql: "(json_type(meta, ?) = 'text' AND json_extract(meta, ?) = ?)", args: []any{path, path, x}}, nil
	default:
		return &predicate{sql: "(json_type(meta, ?) IN ('integer', 'real') AND json_extract(meta, ?) = ?)", args: []any{path, path, x}}, nil
	}
}

// negate also matches rows where p evaluates to NULL, i.e. the key is absent.
func negate(p *predicate) *predicate {
	return &predicate{sql: "(coalesce(" + p.sql + ", 0) = 0)", args: p.args}
}

func join(parts []*predicate, sep string) *predicate {
	if len(parts) == 1 {
		return parts[0]
	}
	out := &predicate{}
	sqls := make([]string, len(parts))
	for i, p := range parts {
		sqls[i] = p.sql
		out.args = append(out.args, p.args...)
	}
	out.sql = "(" + strings.Join(sqls, sep) + ")"
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func asObject(v any) (map[string]any, bool) {
	switch x := v.(type) {
	case map[string]any:
		return x, true
	case Where:
		return map[string]any(x), true
	case WhereDocument:
		return map[string]any(x), true
	}
	return nil, false
}

// asList accepts []any as decoded from JSON as well as typed Go slices.
func asList(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if items, ok := v.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
