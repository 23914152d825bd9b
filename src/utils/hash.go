package utils

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// HashStruct returns a stable sha256 of v's JSON form. Map keys are sorted by encoding/json.
func HashStruct(v interface{}) (string, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("HashStruct: %w", err)
	}

	hash := sha256.Sum256(payload)
	return fmt.Sprintf("%x", hash), nil
}
