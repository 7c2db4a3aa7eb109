package selector

import (
	"testing"

	// Packages
	assert "github.com/stretchr/testify/assert"

	multipart "github.com/mutablelogic/go-multipart"
	schema "github.com/mutablelogic/go-multipart/pkg/schema"
)

////////////////////////////////////////////////////////////////////////////////
// SINGLE SELECTOR TESTS

func Test_Selector_Single(t *testing.T) {
	assert := assert.New(t)
	engine := New(schema.Single("avatar"), schema.UnknownFieldIgnore)

	// First matching file part is accepted
	action, err := engine.EvaluateFileField("avatar")
	assert.NoError(err)
	assert.Equal(Accept, action)

	// A second one exceeds the implicit count of one
	_, err = engine.EvaluateFileField("avatar")
	var countErr *multipart.FieldCountLimitError
	if assert.ErrorAs(err, &countErr) {
		assert.Equal("avatar", countErr.Field)
		assert.Equal(1, countErr.MaxCount)
	}

	// Unknown file fields follow the policy
	action, err = engine.EvaluateFileField("other")
	assert.NoError(err)
	assert.Equal(Ignore, action)

	// Text fields are not gated
	action, err = engine.EvaluateTextField("anything")
	assert.NoError(err)
	assert.Equal(Accept, action)
}

func Test_Selector_Single_Reject(t *testing.T) {
	assert := assert.New(t)
	engine := New(schema.Single("avatar"), schema.UnknownFieldReject)

	_, err := engine.EvaluateFileField("other")
	var unexpected *multipart.UnexpectedFieldError
	if assert.ErrorAs(err, &unexpected) {
		assert.Equal("other", unexpected.Field)
	}
}

////////////////////////////////////////////////////////////////////////////////
// ARRAY SELECTOR TESTS

func Test_Selector_Array(t *testing.T) {
	assert := assert.New(t)
	engine := New(schema.Array("photos", 2), schema.UnknownFieldIgnore)

	for i := 0; i < 2; i++ {
		action, err := engine.EvaluateFileField("photos")
		assert.NoError(err)
		assert.Equal(Accept, action)
	}

	_, err := engine.EvaluateFileField("photos")
	var countErr *multipart.FieldCountLimitError
	if assert.ErrorAs(err, &countErr) {
		assert.Equal("photos", countErr.Field)
		assert.Equal(2, countErr.MaxCount)
	}
}

////////////////////////////////////////////////////////////////////////////////
// FIELDS SELECTOR TESTS

func Test_Selector_Fields(t *testing.T) {
	assert := assert.New(t)
	engine := New(schema.Fields(
		schema.File("avatar").WithMaxCount(1),
		schema.Text("bio"),
	), schema.UnknownFieldReject)

	// File field with matching kind
	action, err := engine.EvaluateFileField("avatar")
	assert.NoError(err)
	assert.Equal(Accept, action)

	// Text field with matching kind
	action, err = engine.EvaluateTextField("bio")
	assert.NoError(err)
	assert.Equal(Accept, action)

	// Kind mismatch falls through to the unknown-field policy
	_, err = engine.EvaluateFileField("bio")
	assert.ErrorAs(err, new(*multipart.UnexpectedFieldError))
	_, err = engine.EvaluateTextField("avatar")
	assert.ErrorAs(err, new(*multipart.UnexpectedFieldError))

	// Unlisted name is unknown
	_, err = engine.EvaluateFileField("unknown")
	assert.ErrorAs(err, new(*multipart.UnexpectedFieldError))
}

func Test_Selector_Fields_Constraints(t *testing.T) {
	assert := assert.New(t)
	engine := New(schema.Fields(
		schema.File("avatar").WithAllowedMimeTypes("image/*"),
		schema.Text("bio").WithMaxSize(64),
	), schema.UnknownFieldIgnore)

	assert.Equal([]string{"image/*"}, engine.FieldMimeTypes("avatar"))
	assert.Nil(engine.FieldMimeTypes("bio"))
	assert.Equal(int64(64), engine.FieldTextMaxSize("bio"))
	assert.Equal(int64(0), engine.FieldTextMaxSize("avatar"))
	assert.Equal(int64(0), engine.FieldTextMaxSize("unknown"))
}

////////////////////////////////////////////////////////////////////////////////
// NONE / ANY SELECTOR TESTS

func Test_Selector_None(t *testing.T) {
	assert := assert.New(t)

	// Ignore policy skips every file part
	engine := New(schema.None(), schema.UnknownFieldIgnore)
	action, err := engine.EvaluateFileField("anything")
	assert.NoError(err)
	assert.Equal(Ignore, action)

	// Reject policy errors on every file part; text is still accepted
	engine = New(schema.None(), schema.UnknownFieldReject)
	_, err = engine.EvaluateFileField("anything")
	assert.Error(err)
	action, err = engine.EvaluateTextField("anything")
	assert.NoError(err)
	assert.Equal(Accept, action)
}

func Test_Selector_Any(t *testing.T) {
	assert := assert.New(t)
	engine := New(schema.Any(), schema.UnknownFieldReject)

	for i := 0; i < 5; i++ {
		action, err := engine.EvaluateFileField("whatever")
		assert.NoError(err)
		assert.Equal(Accept, action)
	}
}
