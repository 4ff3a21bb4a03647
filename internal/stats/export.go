package stats

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
)

// csvHeader is the fixed export column order.
var csvHeader = []string{"brand", "model", "year", "gearbox", "average_price", "average_mileage"}

// Export writes the statistics as CSV rows in a fixed column order,
// sorted by group key for deterministic output.
func Export(statistics map[GroupKey]Averages, w io.Writer) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	for _, key := range sortedKeys(statistics) {
		avg := statistics[key]
		row := []string{
			key.Brand,
			key.Model,
			strconv.Itoa(key.Year),
			key.Gearbox,
			strconv.Itoa(avg.Price),
			strconv.Itoa(avg.Mileage),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// ExportFile writes the statistics to the given path, creating parent
// directories as needed.
func ExportFile(statistics map[GroupKey]Averages, path string, logger *slog.Logger) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create statistics file: %w", err)
	}
	defer f.Close()

	if err := Export(statistics, f); err != nil {
		return err
	}
	logger.Info("statistics written", "path", path, "groups", len(statistics))
	return nil
}
