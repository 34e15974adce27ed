package bench

import (
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	units "github.com/docker/go-units"
	"github.com/google/btree"
	"github.com/juju/ratelimit"
	"github.com/montanaflynn/stats"
	"github.com/pingcap-incubator/tinystm/config"
	"github.com/pingcap-incubator/tinystm/dict"
	"github.com/pingcap-incubator/tinystm/util/worker"
	"github.com/pingcap/log"
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/cpu"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Dictionary implementations accepted by NewSet.
const (
	ImplTL2   = "tl2"
	ImplPlain = "plain"
)

// fillPasses is how many times every word is submitted. Only one submission per word may report
// an insertion.
const fillPasses = 2

// NewSet creates an empty dictionary of the named implementation.
func NewSet(impl string) (dict.Set, error) {
	switch impl {
	case ImplTL2:
		return dict.New(), nil
	case ImplPlain:
		return dict.NewPlain(), nil
	default:
		return nil, errors.Errorf("unknown dictionary implementation %q", impl)
	}
}

// DefaultWorkers returns the number of logical CPUs.
func DefaultWorkers() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		log.Warn("failed to count logical cpus", zap.Error(err))
		return runtime.NumCPU()
	}
	return n
}

// retryReporter is implemented by dictionaries whose insertions may restart.
type retryReporter interface {
	AddWithRetries(s string) (bool, int, error)
}

// FillReport describes a completed fill run.
type FillReport struct {
	Impl      string
	Workers   int
	Words     int
	Inserted  int64
	Existing  int64
	Latency   Summary
	Retries   RetryStats
	Verified  bool
	StartedAt time.Time
}

// RetryStats summarizes the restarts needed per insertion.
type RetryStats struct {
	Total   float64
	Mean    float64
	Per99th float64
	Max     float64
}

func newRetryStats(retries []float64) (RetryStats, error) {
	var rs RetryStats
	if len(retries) == 0 {
		return rs, nil
	}
	data := stats.LoadRawData(retries)
	var err error
	if rs.Total, err = data.Sum(); err != nil {
		return rs, errors.WithStack(err)
	}
	if rs.Mean, err = data.Mean(); err != nil {
		return rs, errors.WithStack(err)
	}
	if rs.Per99th, err = data.Percentile(99); err != nil {
		return rs, errors.WithStack(err)
	}
	if rs.Max, err = data.Max(); err != nil {
		return rs, errors.WithStack(err)
	}
	return rs, nil
}

// FillHeaders are the column names of FillReport.Row.
var FillHeaders = []string{"Impl", "Workers", "Words", "Inserted", "Existing", "Elapsed", "QPS",
	"Avg(us)", "P99(us)", "Max(us)", "Retries", "Retries/Op", "P99 Retries", "Verified"}

// Row renders the report as one output row.
func (r *FillReport) Row() []string {
	return []string{
		r.Impl,
		strconv.Itoa(r.Workers),
		strconv.Itoa(r.Words),
		strconv.FormatInt(r.Inserted, 10),
		strconv.FormatInt(r.Existing, 10),
		units.HumanDuration(r.Latency.Elapsed),
		fmt.Sprintf("%.1f", r.Latency.QPS),
		strconv.FormatInt(r.Latency.Avg, 10),
		strconv.FormatInt(r.Latency.Per99th, 10),
		strconv.FormatInt(r.Latency.Max, 10),
		fmt.Sprintf("%.0f", r.Retries.Total),
		fmt.Sprintf("%.3f", r.Retries.Mean),
		fmt.Sprintf("%.0f", r.Retries.Per99th),
		strconv.FormatBool(r.Verified),
	}
}

// Fill inserts every word described by cfg into set from a pool of workers, each word submitted
// fillPasses times in a shuffled order, then checks the result against an ordered oracle.
func Fill(impl string, set dict.Set, cfg config.FillConfig, seed int64) (*FillReport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	workers := cfg.Workers
	if workers == 0 {
		workers = DefaultWorkers()
	}
	words := Words(cfg.Alphabet, cfg.MinLength, cfg.MaxLength)
	report := &FillReport{
		Impl:      impl,
		Workers:   workers,
		Words:     len(words),
		StartedAt: time.Now(),
	}
	log.Info("fill started",
		zap.String("impl", impl),
		zap.Int("workers", workers),
		zap.Int("words", len(words)),
		zap.Int64("rate", cfg.Rate))

	var bucket *ratelimit.Bucket
	if cfg.Rate > 0 {
		bucket = ratelimit.NewBucketWithRate(float64(cfg.Rate), cfg.Rate)
	}

	var (
		hist     = NewHistogram()
		inserted atomic.Int64
		existing atomic.Int64

		mu      sync.Mutex
		retries []float64
		errs    error
	)
	reporter, hasRetries := set.(retryReporter)
	pool := worker.NewPool("fill", workers)
	for pass := 0; pass < fillPasses; pass++ {
		for _, word := range Shuffle(words, seed+int64(pass)) {
			word := word
			pool.Submit(func() {
				if bucket != nil {
					bucket.Wait(1)
				}
				start := time.Now()
				var (
					added bool
					n     int
					err   error
				)
				if hasRetries {
					added, n, err = reporter.AddWithRetries(word)
				} else {
					added, err = set.Add(word)
				}
				hist.Measure(time.Since(start))

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					errs = multierr.Append(errs, errors.Wrapf(err, "add %q", word))
					return
				}
				retries = append(retries, float64(n))
				if added {
					inserted.Inc()
				} else {
					existing.Inc()
				}
			})
		}
	}
	pool.Wait()
	pool.Stop()

	report.Latency = hist.Summary()
	report.Inserted = inserted.Load()
	report.Existing = existing.Load()
	if errs != nil {
		return report, errs
	}
	var err error
	if report.Retries, err = newRetryStats(retries); err != nil {
		return report, err
	}
	if report.Inserted != int64(uniqueCount(words)) {
		return report, errors.Errorf("%d insertions reported for %d distinct words", report.Inserted, uniqueCount(words))
	}
	if err := Verify(set, words, workers); err != nil {
		return report, err
	}
	report.Verified = true
	log.Info("fill finished",
		zap.String("impl", impl),
		zap.Int64("inserted", report.Inserted),
		zap.Duration("elapsed", report.Latency.Elapsed),
		zap.Float64("retries", report.Retries.Total))
	return report, nil
}

func uniqueCount(words []string) int {
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		seen[w] = struct{}{}
	}
	return len(seen)
}

// Verify checks that set holds exactly words: every word is reported by Contains, probing from
// the given number of goroutines, and Words enumerates the same members in ascending order.
func Verify(set dict.Set, words []string, parallel int) error {
	oracle := btree.NewOrderedG[string](32)
	for _, w := range words {
		oracle.ReplaceOrInsert(w)
	}
	if parallel < 1 {
		parallel = 1
	}

	var g errgroup.Group
	chunk := (len(words) + parallel - 1) / parallel
	for start := 0; start < len(words); start += chunk {
		end := start + chunk
		if end > len(words) {
			end = len(words)
		}
		part := words[start:end]
		g.Go(func() error {
			for _, w := range part {
				found, err := set.Contains(w)
				if err != nil {
					return errors.Wrapf(err, "contains %q", w)
				}
				if !found {
					return errors.Errorf("word %q is missing", w)
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		got, err := set.Words()
		if err != nil {
			return err
		}
		if len(got) != oracle.Len() {
			return errors.Errorf("dictionary enumerates %d words, expected %d", len(got), oracle.Len())
		}
		i := 0
		var mismatch error
		oracle.Ascend(func(w string) bool {
			if got[i] != w {
				mismatch = errors.Errorf("word #%d is %q, expected %q", i, got[i], w)
				return false
			}
			i++
			return true
		})
		return mismatch
	})
	return g.Wait()
}
