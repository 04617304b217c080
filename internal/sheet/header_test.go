package sheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildHeader(t *testing.T) {
	names, err := buildHeader([]string{"Contract", "", "% Complete", "Contract"}, 5, DuplicateSuffix)
	require.NoError(t, err)
	assert.Equal(t, []string{"Contract", "Unnamed: 1", "% Complete", "Contract.1", "Unnamed: 4"}, names)
}

func TestBuildHeader_KeepsWhitespaceVerbatim(t *testing.T) {
	names, err := buildHeader([]string{" Revenue To Date ", "Gross Profit %"}, 2, DuplicateError)
	require.NoError(t, err)
	assert.Equal(t, []string{" Revenue To Date ", "Gross Profit %"}, names)
}

func TestParseDuplicatePolicy(t *testing.T) {
	p, err := ParseDuplicatePolicy("")
	require.NoError(t, err)
	assert.Equal(t, DuplicateSuffix, p)

	p, err = ParseDuplicatePolicy("ERROR")
	require.NoError(t, err)
	assert.Equal(t, DuplicateError, p)

	_, err = ParseDuplicatePolicy("merge")
	assert.Error(t, err)
}
