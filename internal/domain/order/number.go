package order

import (
	"math/rand/v2"
	"regexp"
	"strings"
	"time"
)

// numberAlphabet matches the suffix charset customers see on receipts.
const numberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const numberSuffixLen = 5

// NumberPattern matches a well-formed order number: the UTC creation date
// followed by a 5-character random suffix, e.g. 20250601#K4X9Q.
var NumberPattern = regexp.MustCompile(`^\d{8}#[A-Z0-9]{5}$`)

// NewNumber generates an order number for the given creation time. The
// random suffix does not guarantee uniqueness by construction; callers must
// pair it with an existence check and retry.
func NewNumber(now time.Time) string {
	var b strings.Builder
	b.Grow(8 + 1 + numberSuffixLen)
	b.WriteString(now.UTC().Format("20060102"))
	b.WriteByte('#')
	for range numberSuffixLen {
		b.WriteByte(numberAlphabet[rand.IntN(len(numberAlphabet))])
	}
	return b.String()
}
