package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAndPutBytesBuffer(t *testing.T) {
	t.Parallel()

	buf := GetBytesBuffer()
	require.NotNil(t, buf)

	buf.WriteString("dirty")
	PutBytesBuffer(buf)

	buf = GetBytesBuffer()
	assert.Zero(t, buf.Len())
	PutBytesBuffer(buf)

	PutBytesBuffer(nil)
}
