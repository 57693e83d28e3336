package hpshare

import (
	"sync"

	"github.com/hashicorp/go-multierror"
)

type CallFn func() error

// SyncCall executes all functions in parallel and returns the combined error.
func SyncCall(fns ...CallFn) error {
	var wg = sync.WaitGroup{}
	wg.Add(len(fns))

	var mtx sync.Mutex
	var result *multierror.Error

	for _, currFn := range fns {
		fn := currFn
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				mtx.Lock()
				result = multierror.Append(result, err)
				mtx.Unlock()
			}
		}()
	}

	wg.Wait()

	return result.ErrorOrNil()
}
