package id

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// At returns a ULID whose timestamp part is t, so a record's id sorts with its
// creation time.
func At(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), rand.Reader).String()
}
