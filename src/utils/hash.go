package utils

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
)

// HashFiles hashes the name and the contents of every file in order.
func HashFiles(paths ...string) (string, error) {
	h := sha256.New()
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return "", fmt.Errorf("HashFiles: failed to open %s: %w", p, err)
		}

		io.WriteString(h, p)
		if _, err := io.Copy(h, f); err != nil {
			f.Close()
			return "", fmt.Errorf("HashFiles: failed to read %s: %w", p, err)
		}

		f.Close()
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
