package orchestrator

import (
	"encoding/hex"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/blake2b"
)

func maskEmail(s string) string {
	at := strings.LastIndex(s, "@")
	if at <= 0 {
		return maskTail(s, 0)
	}
	_, n := utf8.DecodeRuneInString(s)
	return s[:n] + "***" + s[at:]
}

func maskPhone(s string) string { return maskTail(s, 4) }

func maskTail(s string, keep int) string {
	r := []rune(s)
	if len(r) <= keep {
		return strings.Repeat("*", len(r))
	}
	var b strings.Builder
	for i, c := range r {
		switch {
		case i == 0 && c == '+':
			b.WriteRune(c)
		case i >= len(r)-keep:
			b.WriteRune(c)
		default:
			b.WriteByte('*')
		}
	}
	return b.String()
}

// contactHash lets audit tooling correlate entries for one address without storing it.
func contactHash(s string) string {
	sum := blake2b.Sum256([]byte(strings.ToLower(strings.TrimSpace(s))))
	return hex.EncodeToString(sum[:16])
}
