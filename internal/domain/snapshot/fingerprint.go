package snapshot

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint hashes parts into a short, stable context key. Parts are
// rendered as JSON, which orders map keys, so equal inputs always produce
// the same key.
func Fingerprint(parts ...any) (string, error) {
	canonical, err := json.Marshal(parts)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return strconv.FormatUint(xxhash.Sum64(canonical), 16), nil
}
