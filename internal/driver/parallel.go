package driver

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// CompileAll компилирует все юниты параллельно. Каждый юнит владеет
// своими interner'ами, поэтому мьютексы не нужны; результаты пишутся по
// уникальным индексам. Слияние инстанциаций выполняется отдельным шагом
// после завершения всех юнитов.
func CompileAll(ctx context.Context, inputs []UnitInput, opts Options, events chan<- Event) ([]*UnitResult, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	for _, in := range inputs {
		notify(events, in.Unit.Name, StatusQueued)
	}

	// Результаты (индексы уникальны для каждой горутины, мьютекс не нужен)
	results := make([]*UnitResult, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(inputs)))

	for i, in := range inputs {
		g.Go(func(i int, in UnitInput) func() error {
			return func() error {
				// Проверка отмены
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}

				notify(events, in.Unit.Name, StatusWorking)
				res := CompileUnit(in, opts)
				results[i] = res
				if res.Failed() {
					notify(events, in.Unit.Name, StatusError)
				} else {
					notify(events, in.Unit.Name, StatusDone)
				}
				return nil
			}
		}(i, in))
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
