// Package aggregate implements the global aggregators: each folds the list
// of per-station sufficient statistics into one global statistic and derives
// the final analysis result from it alone. Every reduction used here is
// commutative and associative, so the arrival order of station results
// never changes a numeric output.
package aggregate

import (
	"encoding/json"

	"fedstats/internal"
	"fedstats/ports"
)

// errorPayload is the tagged error form of the wire contract.
type errorPayload struct {
	Error string `json:"error"`
}

// decode interprets one station payload. Stations that never responded and
// stations that returned a tagged error payload are unusable and skipped,
// never treated as zero contributions. A payload that fails to parse is
// also unusable; the skip policy decides per column whether enough evidence
// remains.
func decode(res ports.StationResult, out interface{}) bool {
	if res.Payload == nil {
		internal.DefaultLogger.Warn("station %s returned no result, skipping", res.Station)
		return false
	}
	var tagged errorPayload
	if err := json.Unmarshal(res.Payload, &tagged); err == nil && tagged.Error != "" {
		internal.DefaultLogger.Warn("station %s reported error: %s", res.Station, tagged.Error)
		return false
	}
	if err := json.Unmarshal(res.Payload, out); err != nil {
		internal.DefaultLogger.Warn("station %s returned malformed payload: %v", res.Station, err)
		return false
	}
	return true
}
