package storage

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Snapshot blobs compress well (long runs of repeated JSON keys), and a
// shared encoder keeps allocation off the snapshot ticker's hot path.
var (
	blobEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	blobDecoder, _ = zstd.NewReader(nil)
)

// EncodeBlob marshals v to JSON and compresses it.
func EncodeBlob(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode blob: %w", err)
	}
	return blobEncoder.EncodeAll(raw, nil), nil
}

// DecodeBlob decompresses data and unmarshals it into v.
func DecodeBlob(data []byte, v any) error {
	raw, err := blobDecoder.DecodeAll(data, nil)
	if err != nil {
		return fmt.Errorf("decode blob: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode blob: %w", err)
	}
	return nil
}
