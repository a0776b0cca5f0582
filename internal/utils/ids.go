package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const nanoidAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// GenerateNanoIDWithPrefix returns ids like "doc_x8f2k1".
func GenerateNanoIDWithPrefix(prefix string, length int) string {
	id, err := gonanoid.Generate(nanoidAlphabet, length)
	if err != nil {
		panic(err)
	}
	return fmt.Sprintf("%s_%s", prefix, id)
}

// GenerateOpaqueID returns a 32-char hex id. Used for attachment ids and
// obligation state ids, which are never derived from content.
func GenerateOpaqueID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func Now() time.Time {
	return time.Now().UTC()
}
