package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	mmerr "github.com/viant/mmvec/errors"
)

func TestCodesAndPredicates(t *testing.T) {
	err := mmerr.New(mmerr.CodeStoreRecordInvalid, "ids and uris differ in length",
		mmerr.FieldCollection("images"), mmerr.Field("ids", 3))
	assert.Equal(t, mmerr.CodeStoreRecordInvalid, mmerr.CodeOf(err))
	assert.True(t, mmerr.IsInvalidInput(err))
	assert.False(t, mmerr.IsNotFound(err))
	assert.Equal(t, "images", mmerr.FieldsOf(err)["collection"])

	assert.True(t, mmerr.IsNotFound(mmerr.New(mmerr.CodeStoreCollectionNotFound, "missing")))
	assert.True(t, mmerr.IsConflict(mmerr.New(mmerr.CodeStoreRecordConflict, "exists")))
	assert.True(t, mmerr.IsUpstreamFailure(mmerr.New(mmerr.CodeEmbeddingUpstreamFailure, "503")))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := mmerr.Wrap(cause, mmerr.CodeStoreDatabaseFailure, "writing records")
	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, mmerr.CodeStoreDatabaseFailure, mmerr.CodeOf(err))
	assert.Nil(t, mmerr.Wrap(nil, mmerr.CodeStoreDatabaseFailure, "noop"))
	assert.Equal(t, mmerr.Code(""), mmerr.CodeOf(cause))
}

func TestCodeOfInnermost(t *testing.T) {
	inner := mmerr.New(mmerr.CodeStoreCollectionNotFound, "no such collection")
	outer := mmerr.Wrap(inner, mmerr.CodeCLISetupFailure, "demo")
	assert.Equal(t, mmerr.CodeStoreCollectionNotFound, mmerr.CodeOf(outer))
	assert.True(t, mmerr.IsNotFound(outer))
}
