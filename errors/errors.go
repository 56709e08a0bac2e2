// Package errors provides coded, structured errors for the store, embedding,
// loader and configuration layers. Codes read "<area>.<subject>.<reason>";
// predicates classify errors by the trailing reason.
package errors

import (
	"fmt"
	"strings"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier for an error.
type Code string

const (
	CodeStoreOpenFailure           Code = "store.open.failure"
	CodeStoreDatabaseFailure       Code = "store.database.failure"
	CodeStoreCollectionNotFound    Code = "store.collection.not_found"
	CodeStoreCollectionConflict    Code = "store.collection.conflict"
	CodeStoreCollectionInvalid     Code = "store.collection.invalid_input"
	CodeStoreRecordInvalid         Code = "store.record.invalid_input"
	CodeStoreRecordNotFound        Code = "store.record.not_found"
	CodeStoreRecordConflict        Code = "store.record.conflict"
	CodeStoreQueryInvalid          Code = "store.query.invalid_input"
	CodeStoreWhereInvalid          Code = "store.where.invalid_input"
	CodeStoreEmbeddingDimInvalid   Code = "store.embedding.dimension.invalid"
	CodeStoreIndexFailure          Code = "store.index.failure"
	CodeEmbeddingRequestInvalid    Code = "embedding.request.invalid"
	CodeEmbeddingModalityInvalid   Code = "embedding.modality.invalid"
	CodeEmbeddingUpstreamFailure   Code = "embedding.upstream.failure"
	CodeEmbeddingProviderNotFound  Code = "embedding.provider.not_found"
	CodeLoaderURIInvalid           Code = "loader.uri.invalid"
	CodeLoaderSchemeNotFound       Code = "loader.scheme.not_found"
	CodeLoaderIOFailure            Code = "loader.io.failure"
	CodeLoaderDecodeInvalid        Code = "loader.decode.invalid_format"
	CodeManifestParseInvalid       Code = "manifest.parse.invalid_format"
	CodeReplicaPayloadInvalid      Code = "replica.payload.invalid_format"
	CodeReplicaStateFailure        Code = "replica.state.failure"
	CodeConfigLoadReadFailure      Code = "config.load.read.failure"
	CodeConfigValidateInvalidValue Code = "config.validate.invalid_value"
	CodeCLIInputInvalid            Code = "cli.input.invalid"
	CodeCLISetupFailure            Code = "cli.setup.failure"
)

// Attr is a structured key/value context attached to an error.
type Attr struct {
	Key   string
	Value any
}

// Field creates a structured error field.
func Field(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

func FieldCollection(name string) Attr { return Field("collection", name) }

func FieldID(id string) Attr { return Field("id", id) }

func FieldURI(uri string) Attr { return Field("uri", uri) }

// New returns a coded error carrying fields.
func New(code Code, msg string, fields ...Attr) error {
	return oops.Code(code).With(flatten(fields)...).New(msg)
}

// Errorf formats a coded error; %w wraps as with fmt.Errorf.
func Errorf(code Code, format string, args ...any) error {
	return oops.Code(code).Errorf(format, args...)
}

// Wrap annotates err with a code and message. It returns nil for a nil err.
func Wrap(err error, code Code, msg string, fields ...Attr) error {
	if err == nil {
		return nil
	}
	return oops.Code(code).With(flatten(fields)...).Wrapf(err, "%s", msg)
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return oops.Code(code).Wrapf(err, format, args...)
}

// CodeOf returns the innermost code in the chain, or "" for uncoded errors.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	switch code := oopsErr.Code().(type) {
	case Code:
		return code
	case string:
		return Code(code)
	case nil:
		return ""
	default:
		return Code(fmt.Sprintf("%v", code))
	}
}

// FieldsOf returns the structured context attached along the chain.
func FieldsOf(err error) map[string]any {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}
	return oopsErr.Context()
}

// IsNotFound reports whether err carries a not_found code.
func IsNotFound(err error) bool {
	return reason(CodeOf(err)) == "not_found"
}

func IsConflict(err error) bool {
	return reason(CodeOf(err)) == "conflict"
}

// IsInvalidInput reports whether err was caused by a bad argument or document.
func IsInvalidInput(err error) bool {
	r := reason(CodeOf(err))
	return r == "invalid" || r == "invalid_input" || r == "invalid_value" || r == "invalid_format"
}

func IsUpstreamFailure(err error) bool {
	code := CodeOf(err)
	return strings.Contains(string(code), "upstream") && reason(code) == "failure"
}

func reason(code Code) string {
	s := string(code)
	if i := strings.LastIndex(s, "."); i >= 0 {
		return s[i+1:]
	}
	return s
}

func flatten(fields []Attr) []any {
	out := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		out = append(out, f.Key, f.Value)
	}
	return out
}
