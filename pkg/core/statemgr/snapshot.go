package statemgr

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pierrec/lz4"
)

// compressSnapshot packs a serialized tree into an lz4 frame.
func compressSnapshot(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("can't compress snapshot: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("can't compress snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

func decompressSnapshot(data []byte) ([]byte, error) {
	res, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("can't decompress snapshot: %w", err)
	}
	return res, nil
}
