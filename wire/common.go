// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"encoding/binary"
	"errors"
	"io"
)

var (
	// littleEndian is a convenience variable since binary.LittleEndian is
	// quite long.
	littleEndian = binary.LittleEndian
)

var (
	// ErrFrameTooLarge a length prefix announced more bytes than allowed
	ErrFrameTooLarge = errors.New("frame exceeds maximum size")
)

// ReadUint32 reads a little endian uint32 from r
func ReadUint32(r io.Reader) (uint32, error) {
	var bytes = make([]byte, 4)
	if _, err := io.ReadFull(r, bytes); err != nil {
		return 0, err
	}
	return littleEndian.Uint32(bytes), nil
}

// ReadUint64 reads a little endian uint64 from r
func ReadUint64(r io.Reader) (uint64, error) {
	var bytes = make([]byte, 8)
	if _, err := io.ReadFull(r, bytes); err != nil {
		return 0, err
	}
	return littleEndian.Uint64(bytes), nil
}

// ReadString reads a length prefixed string from r
func ReadString(r io.Reader) (string, error) {
	buf, err := ReadBytes(r)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// ReadBytes reads a []byte whose length is carried in the first 4 bytes.
func ReadBytes(r io.Reader) ([]byte, error) {
	return ReadBytesMax(r, 0)
}

// ReadBytesMax is ReadBytes with an upper bound on the announced length.
// max <= 0 disables the check.
func ReadBytesMax(r io.Reader, max int) ([]byte, error) {
	len, err := ReadUint32(r)
	if err != nil {
		return nil, err
	}
	if max > 0 && int(len) > max {
		return nil, ErrFrameTooLarge
	}
	buf := make([]byte, len)
	_, err = io.ReadFull(r, buf)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteUint32 writes a little endian uint32 to w
func WriteUint32(w io.Writer, val uint32) error {
	buf := make([]byte, 4)
	littleEndian.PutUint32(buf, val)
	if _, err := w.Write(buf); err != nil {
		return err
	}
	return nil
}

// WriteUint64 writes a little endian uint64 to w
func WriteUint64(w io.Writer, val uint64) error {
	buf := make([]byte, 8)
	littleEndian.PutUint64(buf, val)
	if _, err := w.Write(buf); err != nil {
		return err
	}
	return nil
}

// WriteString writes a length prefixed string to w
func WriteString(w io.Writer, str string) error {
	return WriteBytes(w, []byte(str))
}

// WriteBytes writes len(buf) as uint32 followed by buf
func WriteBytes(w io.Writer, buf []byte) error {
	if err := WriteUint32(w, uint32(len(buf))); err != nil {
		return err
	}
	if _, err := w.Write(buf); err != nil {
		return err
	}
	return nil
}
