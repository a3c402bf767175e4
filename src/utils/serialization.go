package utils

import (
	"bytes"
	"encoding"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Every blob on disk starts with a fixed header so that a file handed to the
// wrong loader is rejected before any cryptographic parsing happens:
//
//	magic "HSWB" | version byte | artifact kind byte | payload length (uint64 BE)
const blobMagic = "HSWB"
const blobVersion = 1
const headerSize = 4 + 1 + 1 + 8

// Pack serializes object into path, prefixed with the blob header for kind.
// The object must implement io.WriterTo or encoding.BinaryMarshaler.
func Pack(object any, kind byte, path string) (err error) {

	payload := new(bytes.Buffer)

	switch object := object.(type) {
	case io.WriterTo:
		if _, err = object.WriteTo(payload); err != nil {
			return fmt.Errorf("%T.WriteTo: %w", object, err)
		}
	case encoding.BinaryMarshaler:
		var data []byte
		if data, err = object.MarshalBinary(); err != nil {
			return fmt.Errorf("%T.MarshalBinary: %w", object, err)
		}
		payload.Write(data)
	default:
		return fmt.Errorf("%T does not implement io.WriterTo or encoding.BinaryMarshaler", object)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("os.Create(%s): %w", path, err)
	}
	defer f.Close()

	header := make([]byte, headerSize)
	copy(header, blobMagic)
	header[4] = blobVersion
	header[5] = kind
	binary.BigEndian.PutUint64(header[6:], uint64(payload.Len()))

	if _, err = f.Write(header); err != nil {
		return fmt.Errorf("file.Write header: %w", err)
	}
	if _, err = payload.WriteTo(f); err != nil {
		return fmt.Errorf("file.Write payload: %w", err)
	}

	return
}

// Unpack reads the blob at path, validates the header against kind, and
// deserializes the payload into object. The object must implement
// io.ReaderFrom or encoding.BinaryUnmarshaler.
func Unpack(object any, kind byte, path string) (err error) {

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("os.ReadFile(%s): %w", path, err)
	}

	payload, err := checkHeader(data, kind, path)
	if err != nil {
		return err
	}

	switch object := object.(type) {
	case io.ReaderFrom:
		if _, err = object.ReadFrom(bytes.NewReader(payload)); err != nil {
			return fmt.Errorf("%T.ReadFrom: %w", object, err)
		}
	case encoding.BinaryUnmarshaler:
		if err = object.UnmarshalBinary(payload); err != nil {
			return fmt.Errorf("%T.UnmarshalBinary: %w", object, err)
		}
	default:
		return fmt.Errorf("%T does not implement io.ReaderFrom or encoding.BinaryUnmarshaler", object)
	}

	return
}

func checkHeader(data []byte, kind byte, path string) (payload []byte, err error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%s: truncated blob (%d bytes)", path, len(data))
	}
	if string(data[:4]) != blobMagic {
		return nil, fmt.Errorf("%s: bad magic %q", path, data[:4])
	}
	if data[4] != blobVersion {
		return nil, fmt.Errorf("%s: unsupported blob version %d", path, data[4])
	}
	if data[5] != kind {
		return nil, fmt.Errorf("%s: artifact kind mismatch: got %d, want %d", path, data[5], kind)
	}
	n := binary.BigEndian.Uint64(data[6:headerSize])
	payload = data[headerSize:]
	if uint64(len(payload)) != n {
		return nil, fmt.Errorf("%s: payload length mismatch: got %d, header says %d", path, len(payload), n)
	}
	return payload, nil
}
