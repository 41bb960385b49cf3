package testutil

import (
	"sync"

	dErrors "talentmatch/pkg/domain-errors"
)

// Outcomes counts how calls made by RunConcurrent ended. Successful calls are
// counted in Successes; failures are bucketed by their domain error code, with
// uncoded errors under dErrors.CodeInternal.
type Outcomes struct {
	Successes int
	Failures  map[dErrors.Code]int
}

// Total is the number of calls observed.
func (o Outcomes) Total() int {
	n := o.Successes
	for _, c := range o.Failures {
		n += c
	}
	return n
}

// RunConcurrent starts n goroutines that call fn with their index, waits for
// all of them and tallies the results.
func RunConcurrent(n int, fn func(i int) error) Outcomes {
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out = Outcomes{Failures: make(map[dErrors.Code]int)}
	)
	for i := range n {
		wg.Go(func() {
			err := fn(i)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				out.Successes++
				return
			}
			out.Failures[dErrors.CodeOf(err)]++
		})
	}
	wg.Wait()
	return out
}
