package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrom(t *testing.T) {
	assert := assert.New(t)

	assert.NoError(SetLanguage("en-US"))
	assert.Equal("label LOOP missing", From("label %v missing", "LOOP"))
	assert.Equal("line 12: x", From("line %d: %v", 12, "x"))

	assert.Error(SetLanguage("not a language tag"))
	assert.Equal("still english", From("still %v", "english"))
}
