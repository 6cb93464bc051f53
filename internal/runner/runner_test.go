package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasPort(t *testing.T) {
	assert.True(t, hasPort("example.com:22"))
	assert.False(t, hasPort("example.com"))
}

func TestShellQuoteEscapesSingleQuotes(t *testing.T) {
	assert.Equal(t, `'it'\''s'`, shellQuote("it's"))
}

func TestShellJoinQuotesEachArg(t *testing.T) {
	got := shellJoin([]string{"echo", "hello world"})
	assert.Equal(t, "'echo' 'hello world'", got)
}
