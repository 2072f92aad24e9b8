package dataset

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jo-hoe/digit-collector/internal/imaging"
)

// npyMagic opens every NPY array, followed by the format version bytes.
var npyMagic = []byte("\x93NUMPY")

// packNpz wraps the pixel and label arrays in an npz container: a
// deflate-compressed zip holding X.npy (uint8, n x 28 x 28) and y.npy
// (little-endian int64, n), the layout numpy's savez_compressed produces.
func packNpz(pixels []byte, labels []int64) ([]byte, error) {
	n := len(labels)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	xw, err := zw.Create("X.npy")
	if err != nil {
		return nil, fmt.Errorf("zip create X.npy: %w", err)
	}
	if err := writeNpy(xw, "|u1", []int{n, imaging.CanonicalHeight, imaging.CanonicalWidth}, pixels); err != nil {
		return nil, fmt.Errorf("failed to write X array: %w", err)
	}

	yw, err := zw.Create("y.npy")
	if err != nil {
		return nil, fmt.Errorf("zip create y.npy: %w", err)
	}
	if err := writeNpy(yw, "<i8", []int{n}, int64LEBytes(labels)); err != nil {
		return nil, fmt.Errorf("failed to write y array: %w", err)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize npz container: %w", err)
	}
	return buf.Bytes(), nil
}

// writeNpy emits one array in NPY format version 1.0: magic, version, header
// length, a python-literal header dict, then the raw array data. The header
// is space-padded and newline-terminated so the data section starts on a
// 64-byte boundary.
func writeNpy(w io.Writer, descr string, shape []int, data []byte) error {
	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': %s, }",
		descr, shapeString(shape))

	preamble := len(npyMagic) + 2 + 2 // magic, version, header length field
	total := preamble + len(header) + 1
	if rem := total % 64; rem != 0 {
		total += 64 - rem
	}
	headerLen := total - preamble

	if _, err := w.Write(npyMagic); err != nil {
		return fmt.Errorf("failed to write npy magic: %w", err)
	}
	if _, err := w.Write([]byte{1, 0}); err != nil {
		return fmt.Errorf("failed to write npy version: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(headerLen)); err != nil {
		return fmt.Errorf("failed to write npy header length: %w", err)
	}

	padded := make([]byte, headerLen)
	copy(padded, header)
	for i := len(header); i < headerLen-1; i++ {
		padded[i] = ' '
	}
	padded[headerLen-1] = '\n'
	if _, err := w.Write(padded); err != nil {
		return fmt.Errorf("failed to write npy header: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write npy data: %w", err)
	}
	return nil
}

// shapeString renders a shape the way python writes tuples: one-element
// tuples keep a trailing comma.
func shapeString(shape []int) string {
	if len(shape) == 1 {
		return fmt.Sprintf("(%d,)", shape[0])
	}
	parts := make([]string, len(shape))
	for i, dim := range shape {
		parts[i] = strconv.Itoa(dim)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func int64LEBytes(values []int64) []byte {
	out := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(out[i*8:], uint64(v))
	}
	return out
}
