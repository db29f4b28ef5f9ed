package sheetql

import (
	"compress/bzip2"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/nao1215/sheetql/domain/model"
	"github.com/ulikunitz/xz"
)

func noopClose() error { return nil }

// decompress returns a reader over the uncompressed contents of r.
// release frees the decoder once reading is done.
func decompress(r io.Reader, c model.CompressionType) (_ io.Reader, release func() error, _ error) {
	switch c {
	case model.CompressionNone:
		return r, noopClose, nil
	case model.CompressionGZ:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("not a gzip stream: %w", err)
		}
		return zr, zr.Close, nil
	case model.CompressionBZ2:
		return bzip2.NewReader(r), noopClose, nil
	case model.CompressionXZ:
		zr, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("not an xz stream: %w", err)
		}
		return zr, noopClose, nil
	case model.CompressionZSTD:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("not a zstd stream: %w", err)
		}
		return zr, func() error {
			zr.Close()
			return nil
		}, nil
	}
	return nil, nil, fmt.Errorf("%w: compression %v", ErrUnsupportedFormat, c)
}

// compress returns a writer that compresses into w. finish must be called
// after the last write so the stream trailer is flushed. bzip2 is read-only.
func compress(w io.Writer, c model.CompressionType) (_ io.Writer, finish func() error, _ error) {
	switch c {
	case model.CompressionNone:
		return w, noopClose, nil
	case model.CompressionGZ:
		zw := gzip.NewWriter(w)
		return zw, zw.Close, nil
	case model.CompressionXZ:
		zw, err := xz.NewWriter(w)
		if err != nil {
			return nil, nil, err
		}
		return zw, zw.Close, nil
	case model.CompressionZSTD:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, nil, err
		}
		return zw, zw.Close, nil
	}
	return nil, nil, fmt.Errorf("%w: %v exports are not supported", ErrUnsupportedFormat, c)
}
