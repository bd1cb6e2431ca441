package webdav

import (
	"io"
)

// chunkReader отдаёт данные блоками не больше заданного размера
// Ограничивает объём, который транспорт читает за один вызов,
// чтобы выгрузка больших вложений шла ровным потоком
type chunkReader struct {
	src       io.Reader
	chunkSize int
}

func newChunkReader(src io.Reader, chunkSize int) *chunkReader {
	return &chunkReader{src: src, chunkSize: chunkSize}
}

// Read читает не больше chunkSize байт за вызов
func (r *chunkReader) Read(p []byte) (int, error) {
	if len(p) > r.chunkSize {
		p = p[:r.chunkSize]
	}
	return r.src.Read(p)
}
