package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap_KeepsCodeAndChain(t *testing.T) {
	root := stderrors.New("connection refused")
	err := Wrap(DataSourceError("postgres", root), "startup failed")

	assert.Equal(t, CodeDataSource, GetCode(err))
	assert.ErrorIs(t, err, root)
	assert.Contains(t, err.Error(), "startup failed")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestWrap_PlainErrorIsInternal(t *testing.T) {
	err := Wrapf(stderrors.New("boom"), "step %d", 3)
	assert.Equal(t, CodeInternalError, GetCode(err))
	assert.Equal(t, "step 3: boom", err.Error())

	assert.Nil(t, Wrap(nil, "ignored"))
	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("plain")))
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeModelInvalid, stderrors.New("bad json"))
	assert.Equal(t, CodeModelInvalid, GetCode(err))
	assert.Nil(t, WithCode(CodeModelInvalid, nil))
}
