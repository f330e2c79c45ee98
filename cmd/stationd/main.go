package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"fedstats/adapters/api"
	"fedstats/adapters/file"
	"fedstats/adapters/postgres"
	"fedstats/domain/core"
	"fedstats/internal/config"
	"fedstats/internal/station"
	"fedstats/ports"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	source, cleanup, err := buildSource(cfg)
	if err != nil {
		log.Fatalf("Data source error: %v", err)
	}
	if cleanup != nil {
		defer cleanup()
	}

	stationID, err := core.ParseStationID(cfg.Station.ID)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	st := station.New(stationID, source, cfg.Privacy.TTestMinRecords)
	app := api.NewApp(st)

	addr := ":" + cfg.Station.Port
	log.Printf("Station %s serving on %s (source: %s)", stationID, addr, cfg.Station.SourceKind)
	if err := http.ListenAndServe(addr, app.Router()); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func buildSource(cfg *config.Config) (ports.TableSource, func() error, error) {
	switch cfg.Station.SourceKind {
	case "csv", "excel":
		if cfg.Station.DataFile == "" {
			return nil, nil, fmt.Errorf("STATION_DATA_FILE is required for the %s source", cfg.Station.SourceKind)
		}
		return file.NewDataReader(cfg.Station.DataFile, cfg.Station.SheetName), nil, nil
	case "postgres":
		if cfg.Station.DatabaseURL == "" || cfg.Station.TableName == "" {
			return nil, nil, fmt.Errorf("DATABASE_URL and STATION_TABLE are required for the postgres source")
		}
		source, err := postgres.Connect(cfg.Station.DatabaseURL, cfg.Station.TableName)
		if err != nil {
			return nil, nil, err
		}
		return source, source.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported source kind %q", cfg.Station.SourceKind)
	}
}
