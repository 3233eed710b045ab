package utils

import (
	"sync"
)

type completedTask[T any] struct {
	Index  int
	Result T
	Error  error
}

// RunInPool runs worker over every input using at most maxWorkers goroutines.
// Results are returned in input order. If any call fails, the error of the
// lowest failing index is returned.
func RunInPool[In any, Out any](inputs []In, worker func(int, In) (Out, error), maxWorkers int) ([]Out, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	workers := min(len(inputs), max(maxWorkers, 1))

	queue := make(chan int, len(inputs))
	for i := range inputs {
		queue <- i
	}
	close(queue)

	completed := make(chan completedTask[Out], len(inputs))

	wg := sync.WaitGroup{}
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()

			for idx := range queue {
				res, err := worker(idx, inputs[idx])
				completed <- completedTask[Out]{Index: idx, Result: res, Error: err}
			}
		}()
	}

	wg.Wait()
	close(completed)

	results := make([]Out, len(inputs))
	firstErr, firstErrIdx := error(nil), len(inputs)
	for task := range completed {
		if task.Error != nil {
			if task.Index < firstErrIdx {
				firstErr, firstErrIdx = task.Error, task.Index
			}
			continue
		}
		results[task.Index] = task.Result
	}

	if firstErr != nil {
		return nil, firstErr
	}

	return results, nil
}
