// id.go generates identifiers of the form <prefix>_<unix-ms>_<random-suffix>.
// The millisecond timestamp keeps ids roughly sortable by creation time; the
// random suffix comes from crypto/rand so ids minted in the same millisecond
// never collide in practice.
package repositories

import (
	"crypto/rand"
	"fmt"
	"time"
)

const (
	idAlphabet     = "0123456789abcdefghijklmnopqrstuvwxyz"
	idSuffixLength = 9
)

// NewChecklistID mints an identifier for a checklist record
func NewChecklistID() string {
	return newID("checklist")
}

// NewLinkToken mints a token for a single-use link
func NewLinkToken() string {
	return newID("link")
}

func newID(prefix string) string {
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixMilli(), randomSuffix(idSuffixLength))
}

func randomSuffix(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(fmt.Sprintf("reading random bytes: %v", err))
	}
	for i, b := range buf {
		buf[i] = idAlphabet[int(b)%len(idAlphabet)]
	}
	return string(buf)
}
