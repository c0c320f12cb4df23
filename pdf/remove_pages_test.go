package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemovePages(t *testing.T) {
	out, err := RemovePages(numberedPDF(t, 4), "2,4")
	require.NoError(t, err)
	assert.Equal(t, []int{8, 24}, pageWidths(t, out))
}

func TestRemovePagesValidates(t *testing.T) {
	src := numberedPDF(t, 2)

	_, err := RemovePages(src, "3")
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = RemovePages(src, "1-2000000000")
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = RemovePages(src, "2-1")
	assert.ErrorIs(t, err, ErrParse)
}

func TestResave(t *testing.T) {
	src := numberedPDF(t, 3)

	out, err := Resave(src)
	require.NoError(t, err)
	assert.Equal(t, []int{8, 16, 24}, pageWidths(t, out))
}
