package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/Kamar-Folarin/repo-tracker/internal/models"
)

// FingerprintLength is the length of every digest returned by Fingerprint
const FingerprintLength = sha256.Size * 2

// Fingerprint returns the lowercase hex SHA-256 digest of input.
func Fingerprint(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// ContentFingerprint digests the repositories independent of their order,
// so two fetches of unchanged data produce the same value.
func ContentFingerprint(repos []models.Repository) string {
	sorted := make([]models.Repository, len(repos))
	copy(sorted, repos)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	for i := range sorted {
		if sorted[i].UpdatedAt != nil {
			t := sorted[i].UpdatedAt.UTC()
			sorted[i].UpdatedAt = &t
		}
	}

	// Marshalling a slice of plain structs cannot fail.
	data, _ := json.Marshal(sorted)
	return Fingerprint(string(data))
}
