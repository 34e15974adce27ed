package bench

import (
	"sync"

	"github.com/pingcap-incubator/tinystm/stm"
	"go.uber.org/multierr"
)

// SwapReport is the outcome of RunSwap.
type SwapReport struct {
	X, Y       int
	Swaps      int
	Retries    int
	CommitDate uint64
}

// RunSwap exchanges the values of two registers holding x and y, workers*rounds times, each
// exchange being one transaction. With an even number of swaps the registers end where they
// started.
func RunSwap(x, y, workers, rounds int) (*SwapReport, error) {
	clock := stm.NewClock()
	rx := stm.NewRegister(x, clock.Now())
	ry := stm.NewRegister(y, clock.Now())

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		retries int
		errs    error
	)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			tx := stm.NewTxnWithClock(clock)
			for r := 0; r < rounds; r++ {
				n, err := stm.Atomically(tx, func(tx *stm.Txn) error {
					return swap(tx, rx, ry)
				})
				mu.Lock()
				retries += n
				errs = multierr.Append(errs, err)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if errs != nil {
		return nil, errs
	}
	return &SwapReport{
		X:          rx.Value(),
		Y:          ry.Value(),
		Swaps:      workers * rounds,
		Retries:    retries,
		CommitDate: clock.Now(),
	}, nil
}

func swap(tx *stm.Txn, a, b *stm.Register[int]) error {
	va, err := a.Read(tx)
	if err != nil {
		return err
	}
	vb, err := b.Read(tx)
	if err != nil {
		return err
	}
	a.Write(tx, vb)
	b.Write(tx, va)
	return nil
}
