package loaders

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// stageTempFile writes data into a fresh temporary directory and returns the
// file path with a cleanup func that removes the directory. cleanup is
// always non-nil and safe to call more than once.
func stageTempFile(dir, filename string, data []byte) (string, func(), error) {
	tmpDir, err := os.MkdirTemp(dir, "sheetrag_upload_*")
	if err != nil {
		return "", func() {}, fmt.Errorf("temp dir: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }

	path := filepath.Join(tmpDir, "upload"+strings.ToLower(filepath.Ext(filename)))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		cleanup()
		return "", func() {}, fmt.Errorf("create temp file: %w", err)
	}

	bw := bufio.NewWriterSize(f, 1024*1024)
	_, writeErr := bw.Write(data)
	if writeErr == nil {
		writeErr = bw.Flush()
	}
	closeErr := f.Close()

	if writeErr != nil {
		cleanup()
		return "", func() {}, fmt.Errorf("write temp: %w", writeErr)
	}
	if closeErr != nil {
		cleanup()
		return "", func() {}, fmt.Errorf("close temp: %w", closeErr)
	}

	return path, cleanup, nil
}
