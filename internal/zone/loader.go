package zone

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"tiendita/internal/model"

	"github.com/rs/zerolog"
)

// fileLoader implements Loader for reading zone documents from disk.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based zone loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "zone-loader").Logger(),
	}
}

// Load reads a JSON zone document from the local file system.
func (l *fileLoader) Load(ctx context.Context, path string) ([]model.DeliveryZone, error) {
	l.logger.Info().Str("file", path).Msg("loading zone document")

	data, err := os.ReadFile(path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to read zone document")
		return nil, fmt.Errorf("failed to read zone document %s: %w", path, err)
	}

	zones, err := parseZones(data)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to parse zone document")
		return nil, fmt.Errorf("failed to parse zone document %s: %w", path, err)
	}

	l.logger.Info().
		Str("file", path).
		Int("zones_loaded", len(zones)).
		Msg("zone document loaded successfully")

	return zones, nil
}

// parseZones decodes and sanity-checks a zone document.
func parseZones(data []byte) ([]model.DeliveryZone, error) {
	var zones []model.DeliveryZone
	if err := json.Unmarshal(data, &zones); err != nil {
		return nil, fmt.Errorf("invalid zone JSON: %w", err)
	}

	seen := make(map[string]bool, len(zones))
	for i, z := range zones {
		if z.ID == "" {
			return nil, fmt.Errorf("zone at index %d has no id", i)
		}
		if z.Name == "" {
			return nil, fmt.Errorf("zone %s has no name", z.ID)
		}
		if z.PriceCents < 0 {
			return nil, fmt.Errorf("zone %s has negative price", z.ID)
		}
		if seen[z.ID] {
			return nil, fmt.Errorf("duplicate zone id %s", z.ID)
		}
		seen[z.ID] = true
	}

	return zones, nil
}
