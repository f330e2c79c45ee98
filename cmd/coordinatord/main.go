package main

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/joho/godotenv"

	"fedstats/adapters/runner"
	"fedstats/adapters/web"
	"fedstats/app"
	"fedstats/domain/core"
	"fedstats/internal/config"
	"fedstats/internal/errors"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	endpoints, err := parseStationURLs(cfg.Coordinator.StationURLs)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	if len(endpoints) == 0 {
		log.Fatal("STATION_URLS must name at least one station")
	}

	taskRunner := runner.NewHTTP(endpoints, nil)
	analyses := app.NewAnalysisService(taskRunner)
	server := web.NewServer(analyses)

	addr := ":" + cfg.Coordinator.Port
	log.Printf("Coordinator serving on %s (%d stations)", addr, len(endpoints))
	if err := http.ListenAndServe(addr, server.Router()); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// parseStationURLs reads STATION_URLS entries of the form "id=url". A plain
// URL is accepted too, with the URL doubling as the station ID.
func parseStationURLs(entries []string) (map[core.StationID]string, error) {
	endpoints := make(map[core.StationID]string, len(entries))
	for _, entry := range entries {
		idPart, url := entry, entry
		if eq := strings.Index(entry, "="); eq >= 0 {
			idPart, url = entry[:eq], entry[eq+1:]
		}
		id, err := core.ParseStationID(strings.TrimSpace(idPart))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid station entry %q", entry)
		}
		url = strings.TrimRight(strings.TrimSpace(url), "/")
		if url == "" {
			return nil, errors.InvalidInput(fmt.Sprintf("invalid station entry %q: empty URL", entry))
		}
		if _, dup := endpoints[id]; dup {
			return nil, errors.InvalidInput(fmt.Sprintf("duplicate station id %q", id))
		}
		endpoints[id] = url
	}
	return endpoints, nil
}
