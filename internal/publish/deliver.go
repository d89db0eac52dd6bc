package publish

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
)

// deliverFile copies a rendered file to its publish destination and proves
// the bytes on disk match the source. The destination is hashed after the
// copy completes so the check covers what actually landed, not just what
// passed through the writer. A failed check removes the destination.
func deliverFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat render output: %w", err)
	}

	wantSum, err := writeDelivery(src, dst)
	if err != nil {
		return err
	}

	gotSum, gotSize, err := digestFile(dst)
	if err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("verify delivery: %w", err)
	}
	if gotSize != info.Size() {
		_ = os.Remove(dst)
		return fmt.Errorf("delivery size mismatch: rendered %d bytes, delivered %d bytes", info.Size(), gotSize)
	}
	if !bytes.Equal(wantSum, gotSum) {
		_ = os.Remove(dst)
		return fmt.Errorf("delivery hash mismatch: %s corrupted during copy", dst)
	}
	return nil
}

// writeDelivery streams src into dst and returns the SHA-256 of the bytes
// read from the source.
func writeDelivery(src, dst string) ([]byte, error) {
	in, err := os.Open(src)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return nil, err
	}

	hasher := sha256.New()
	if _, err := io.Copy(out, io.TeeReader(in, hasher)); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return nil, err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return nil, err
	}
	return hasher.Sum(nil), nil
}

func digestFile(path string) ([]byte, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	hasher := sha256.New()
	size, err := io.Copy(hasher, f)
	if err != nil {
		return nil, 0, err
	}
	return hasher.Sum(nil), size, nil
}
