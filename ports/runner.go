package ports

import (
	"context"
	"encoding/json"

	"fedstats/domain/core"
)

// TaskHandle identifies one dispatched federation round.
type TaskHandle struct {
	ID core.TaskID
}

// StationResult is one station's reply to a partial request. Payload holds
// the raw wire object - either a sufficient statistic or a tagged error
// payload ({"error": ...}) - and is nil when the station never responded.
// The slice returned by AwaitResults corresponds index-for-index to the
// target list passed to Submit; no other ordering is guaranteed.
type StationResult struct {
	Station core.StationID  `json:"station"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// TaskRunner is the task-distribution substrate: it ships a computation
// request to each target station, executes it there in isolation, and
// returns the collected results. The aggregation core treats it as a fixed
// external collaborator; retry, backoff and transport concerns live behind
// this interface.
type TaskRunner interface {
	// Submit dispatches a method with keyword arguments to the target
	// stations and returns a handle for collecting the results.
	Submit(ctx context.Context, method string, kwargs interface{}, targets []core.StationID) (TaskHandle, error)

	// AwaitResults blocks until every target has responded or failed,
	// returning one StationResult per target in submission order.
	AwaitResults(ctx context.Context, handle TaskHandle) ([]StationResult, error)

	// Stations lists the stations this runner can reach.
	Stations() []core.StationID
}
