// Package runner provides TaskRunner implementations: an in-process runner
// for single-machine federations and an HTTP runner for remote station
// daemons.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"fedstats/domain/core"
	"fedstats/internal"
	"fedstats/internal/errors"
	"fedstats/internal/station"
	"fedstats/ports"
)

// LocalRunner executes partials against in-process stations. Each Submit
// fans the request out to every target concurrently; AwaitResults collects
// the replies in submission order.
type LocalRunner struct {
	stations map[core.StationID]*station.Station
	order    []core.StationID
	log      *internal.Logger

	mu      sync.Mutex
	pending map[core.TaskID]*pendingTask
}

type pendingTask struct {
	done    chan struct{}
	results []ports.StationResult
}

// NewLocal creates a runner over in-process stations.
func NewLocal(stations []*station.Station) *LocalRunner {
	byID := make(map[core.StationID]*station.Station, len(stations))
	order := make([]core.StationID, 0, len(stations))
	for _, s := range stations {
		byID[s.ID()] = s
		order = append(order, s.ID())
	}
	return &LocalRunner{
		stations: byID,
		order:    order,
		log:      internal.DefaultLogger,
		pending:  make(map[core.TaskID]*pendingTask),
	}
}

// Stations lists the reachable station identifiers.
func (r *LocalRunner) Stations() []core.StationID {
	out := make([]core.StationID, len(r.order))
	copy(out, r.order)
	return out
}

// Submit dispatches one method to the target stations. Targets the runner
// does not know yield a nil-payload result rather than an error.
func (r *LocalRunner) Submit(ctx context.Context, method string, kwargs interface{}, targets []core.StationID) (ports.TaskHandle, error) {
	raw, err := json.Marshal(kwargs)
	if err != nil {
		return ports.TaskHandle{}, errors.DispatchError(fmt.Sprintf("encoding kwargs for %s", method), err)
	}
	if len(targets) == 0 {
		targets = r.Stations()
	}

	task := &pendingTask{
		done:    make(chan struct{}),
		results: make([]ports.StationResult, len(targets)),
	}
	handle := ports.TaskHandle{ID: core.NewTaskID()}

	r.mu.Lock()
	r.pending[handle.ID] = task
	r.mu.Unlock()

	go func() {
		defer close(task.done)
		g, gctx := errgroup.WithContext(ctx)
		for i, id := range targets {
			i, id := i, id
			task.results[i] = ports.StationResult{Station: id}
			st, ok := r.stations[id]
			if !ok {
				r.log.Warn("runner: unknown station %s, recording no response", id)
				continue
			}
			g.Go(func() error {
				task.results[i].Payload = st.Handle(gctx, method, raw)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			r.log.Warn("runner: %s round interrupted: %v", method, err)
		}
	}()

	return handle, nil
}

// AwaitResults blocks until the round completes or the context is done.
func (r *LocalRunner) AwaitResults(ctx context.Context, handle ports.TaskHandle) ([]ports.StationResult, error) {
	r.mu.Lock()
	task, ok := r.pending[handle.ID]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown task %s", handle.ID)
	}

	select {
	case <-task.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	r.mu.Lock()
	delete(r.pending, handle.ID)
	r.mu.Unlock()
	return task.results, nil
}
