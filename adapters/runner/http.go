package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"fedstats/domain/core"
	"fedstats/internal"
	"fedstats/internal/errors"
	"fedstats/ports"
)

// HTTPRunner dispatches partials to remote station daemons over their REST
// API. A station that cannot be reached, or that answers with a non-2xx
// status and no wire body, is recorded as a nil-payload result so the
// aggregation skip policy can handle its absence.
type HTTPRunner struct {
	endpoints map[core.StationID]string
	client    *http.Client
	log       *internal.Logger

	mu      sync.Mutex
	pending map[core.TaskID]*pendingTask
}

// NewHTTP creates a runner over remote stations, keyed by station ID with
// the station daemon's base URL as value.
func NewHTTP(endpoints map[core.StationID]string, client *http.Client) *HTTPRunner {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &HTTPRunner{
		endpoints: endpoints,
		client:    client,
		log:       internal.DefaultLogger,
		pending:   make(map[core.TaskID]*pendingTask),
	}
}

// Stations lists the configured station identifiers, sorted for stable
// default target order.
func (r *HTTPRunner) Stations() []core.StationID {
	out := make([]core.StationID, 0, len(r.endpoints))
	for id := range r.endpoints {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Submit posts the method and kwargs to each target station concurrently.
func (r *HTTPRunner) Submit(ctx context.Context, method string, kwargs interface{}, targets []core.StationID) (ports.TaskHandle, error) {
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
			base, ok := r.endpoints[id]
			if !ok {
				r.log.Warn("runner: no endpoint for station %s, recording no response", id)
				continue
			}
			g.Go(func() error {
				task.results[i].Payload = r.post(gctx, base, method, raw)
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
func (r *HTTPRunner) AwaitResults(ctx context.Context, handle ports.TaskHandle) ([]ports.StationResult, error) {
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

// post executes one partial request. Any reply body is returned verbatim as
// the wire payload; transport failures and empty replies yield nil.
func (r *HTTPRunner) post(ctx context.Context, base, method string, kwargs json.RawMessage) json.RawMessage {
	url := fmt.Sprintf("%s/v1/partial/%s", base, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(kwargs))
	if err != nil {
		r.log.Warn("runner: building request for %s: %v", url, err)
		return nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		r.log.Warn("runner: station unreachable at %s: %v", base, err)
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		r.log.Warn("runner: reading reply from %s: %v", base, err)
		return nil
	}
	if len(body) == 0 {
		return nil
	}
	return json.RawMessage(body)
}
