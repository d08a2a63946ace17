package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLikeEscaperNeutralizesWildcards(t *testing.T) {
	assert.Equal(t, `fido`, likeEscaper.Replace(`fido`))
	assert.Equal(t, `\%`, likeEscaper.Replace(`%`))
	assert.Equal(t, `\_`, likeEscaper.Replace(`_`))
	assert.Equal(t, `\\`, likeEscaper.Replace(`\`))
	assert.Equal(t, `fido\%\_\\bark`, likeEscaper.Replace(`fido%_\bark`))
}
