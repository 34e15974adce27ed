package bench

import (
	"math/rand"
	"strings"
)

// Words returns every string whose length is in [minLen, maxLen] over alphabet, shortest first and,
// within one length, in alphabet order.
func Words(alphabet string, minLen, maxLen int) []string {
	var words []string
	var buf strings.Builder
	var gen func(depth, length int)
	gen = func(depth, length int) {
		if depth == length {
			words = append(words, buf.String())
			return
		}
		prefix := buf.String()
		for i := 0; i < len(alphabet); i++ {
			buf.Reset()
			buf.WriteString(prefix)
			buf.WriteByte(alphabet[i])
			gen(depth+1, length)
		}
	}
	for length := minLen; length <= maxLen; length++ {
		buf.Reset()
		gen(0, length)
	}
	return words
}

// Shuffle returns a copy of words in a random order drawn from seed.
func Shuffle(words []string, seed int64) []string {
	out := append([]string(nil), words...)
	r := rand.New(rand.NewSource(seed))
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
