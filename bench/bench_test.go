package bench

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/pingcap-incubator/tinystm/config"
	"github.com/pingcap-incubator/tinystm/dict"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWords(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "aa", "ab", "ba", "bb"}, Words("ab", 1, 2))
	assert.Equal(t, []string{"", "x"}, Words("x", 0, 1))
	assert.Len(t, Words("abc", 3, 3), 27)
	assert.Empty(t, Words("abc", 2, 1))
}

func TestShuffleKeepsWords(t *testing.T) {
	words := Words("abcd", 1, 3)
	shuffled := Shuffle(words, 7)
	assert.ElementsMatch(t, words, shuffled)
	assert.Equal(t, shuffled, Shuffle(words, 7))
	// The input is left alone.
	assert.Equal(t, Words("abcd", 1, 3), words)
}

func TestHistogram(t *testing.T) {
	h := NewHistogram()
	for i := 1; i <= 100; i++ {
		h.Measure(time.Duration(i) * time.Microsecond)
	}
	h.Measure(0)
	s := h.Summary()
	assert.Equal(t, int64(101), s.Count)
	assert.Equal(t, int64(1), s.Min)
	assert.Equal(t, int64(100), s.Max)
	assert.InDelta(t, 50, s.Avg, 1)
	assert.Equal(t, int64(99), s.Per99th)
	assert.True(t, s.QPS > 0)
}

func TestRender(t *testing.T) {
	headers := []string{"Impl", "Words"}
	values := [][]string{{"tl2", "10"}, {"plain", "10"}}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, OutputStylePlain, headers, values))
	assert.Equal(t, "tl2    - Words: 10\nplain  - Words: 10\n", buf.String())

	buf.Reset()
	require.NoError(t, Render(&buf, OutputStyleTable, headers, values))
	assert.Contains(t, buf.String(), "IMPL")
	assert.Contains(t, buf.String(), "plain")

	buf.Reset()
	require.NoError(t, Render(&buf, OutputStyleJSON, headers, values))
	var rows []map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	assert.Equal(t, []map[string]string{{"Impl": "tl2", "Words": "10"}, {"Impl": "plain", "Words": "10"}}, rows)

	assert.Error(t, Render(&buf, "xml", headers, values))

	buf.Reset()
	require.NoError(t, Render(&buf, OutputStyleTable, headers, nil))
	assert.Empty(t, buf.String())
}

func TestFill(t *testing.T) {
	cfg := config.FillConfig{Workers: 4, Alphabet: "abc", MinLength: 0, MaxLength: 3}
	for _, impl := range []string{ImplTL2, ImplPlain} {
		t.Run(impl, func(t *testing.T) {
			set, err := NewSet(impl)
			require.NoError(t, err)
			report, err := Fill(impl, set, cfg, 1)
			require.NoError(t, err)
			assert.True(t, report.Verified)
			assert.Equal(t, 40, report.Words)
			assert.Equal(t, int64(40), report.Inserted)
			assert.Equal(t, int64(40*(fillPasses-1)), report.Existing)
			assert.Equal(t, int64(40*fillPasses), report.Latency.Count)
			assert.Len(t, report.Row(), len(FillHeaders))
			if impl == ImplPlain {
				assert.Zero(t, report.Retries.Total)
			}
		})
	}
}

func TestFillRateLimit(t *testing.T) {
	cfg := config.FillConfig{Workers: 2, Alphabet: "ab", MinLength: 1, MaxLength: 2, Rate: 1000}
	report, err := Fill(ImplTL2, dict.New(), cfg, 3)
	require.NoError(t, err)
	assert.True(t, report.Verified)
}

func TestFillRejectsInvalidConfig(t *testing.T) {
	_, err := Fill(ImplTL2, dict.New(), config.FillConfig{Alphabet: "aa", MaxLength: 1}, 0)
	assert.Error(t, err)

	_, err = NewSet("skiplist")
	assert.Error(t, err)
}

func TestVerifyDetectsMismatch(t *testing.T) {
	set := dict.NewPlain()
	_, err := set.Add("a")
	require.NoError(t, err)

	err = Verify(set, []string{"a", "b"}, 2)
	require.Error(t, err)

	_, err = set.Add("c")
	require.NoError(t, err)
	_, err = set.Add("b")
	require.NoError(t, err)
	err = Verify(set, []string{"a", "b"}, 2)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "3 words"), err.Error())

	assert.NoError(t, Verify(set, []string{"c", "a", "b"}, 1))
}

func TestRunSwap(t *testing.T) {
	report, err := RunSwap(1, 4, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, report.X)
	assert.Equal(t, 1, report.Y)
	assert.Equal(t, uint64(1), report.CommitDate)
	assert.Equal(t, 0, report.Retries)

	report, err = RunSwap(1, 4, 4, 50)
	require.NoError(t, err)
	assert.Equal(t, 200, report.Swaps)
	assert.Equal(t, 1, report.X)
	assert.Equal(t, 4, report.Y)
	assert.Equal(t, uint64(200), report.CommitDate)
}

func TestDefaultWorkers(t *testing.T) {
	assert.True(t, DefaultWorkers() >= 1)
}
