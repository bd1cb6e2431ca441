package webdav

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Читатель не отдаёт за один вызов больше размера блока,
// но содержимое доходит целиком
func TestChunkReaderBoundsReads(t *testing.T) {
	payload := bytes.Repeat([]byte("abcdefgh"), 100) // 800 байт
	reader := newChunkReader(bytes.NewReader(payload), 64)

	var got []byte
	buf := make([]byte, 256)
	for {
		n, err := reader.Read(buf)
		assert.LessOrEqual(t, n, 64)
		got = append(got, buf[:n]...)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}

	assert.Equal(t, payload, got)
}

func TestChunkReaderSmallBuffer(t *testing.T) {
	reader := newChunkReader(bytes.NewReader([]byte("hello")), 1024)

	// Буфер меньше размера блока читается как обычно
	got, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)
}
