package index

import (
	"encoding/hex"
	"os"

	"github.com/minio/highwayhash"

	"codegraph/internal/codeerr"
)

// hashKey is fixed: hashes only need to be stable across runs, not secret.
var hashKey = make([]byte, 32)

// HashContent returns the manifest hash of source bytes.
func HashContent(data []byte) string {
	sum := highwayhash.Sum(data, hashKey)
	return hex.EncodeToString(sum[:])
}

// HashFile hashes a file's contents for the manifest.
func HashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", codeerr.Resourcef(path, "file not found")
		}
		return "", err
	}
	return HashContent(data), nil
}
