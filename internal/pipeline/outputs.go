package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nao1215/gravelscan/internal/model"
	"github.com/nao1215/gravelscan/internal/report"
	"github.com/nao1215/gravelscan/internal/stats"
	"github.com/nao1215/gravelscan/internal/storage"
)

// Output file names inside the output directory.
const (
	CombinedBase         = "all_gravel_bikes"
	StatisticsFile       = "statistics.json"
	ParametersFile       = "parameters_summary.txt"
	InterruptedPrefix    = "interrupted_results"
	EnrichedListingsFile = "enriched_bikes.json"
)

// Outputs describes the files written for a collection.
type Outputs struct {
	Files      []string
	Statistics stats.Statistics
	Parameters stats.ParametersSummary
}

// WriteOutputs saves c as {dir}/{base}.csv and .json together with its
// statistics and parameters summary.
func WriteOutputs(dir, base string, c *model.Collection) (Outputs, error) {
	listings := c.Listings()
	out := Outputs{
		Statistics: stats.Compute(listings),
		Parameters: stats.SummarizeParameters(listings),
	}

	files, err := storage.SaveBoth(dir, base, listings)
	if err != nil {
		return out, err
	}
	out.Files = files

	statsPath := filepath.Join(dir, StatisticsFile)
	if err := storage.SaveJSONFile(statsPath, out.Statistics); err != nil {
		return out, err
	}
	out.Files = append(out.Files, statsPath)

	paramsPath := filepath.Join(dir, ParametersFile)
	if err := writeParameters(paramsPath, out.Parameters); err != nil {
		return out, err
	}
	out.Files = append(out.Files, paramsPath)
	return out, nil
}

func writeParameters(path string, p stats.ParametersSummary) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	w := report.NewTextWriter(f, report.WithValueLimit(report.FileValueLimit, report.FileExampleCount))
	if _, err := w.WriteParameters(p); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// SaveInterrupted saves the listings of runs gathered before an interrupt
// as interrupted_results_{timestamp}.csv and .json. Nothing is written
// when there are no listings.
func SaveInterrupted(dir string, runs []*QueryRun, now time.Time) ([]string, error) {
	merged := Merge(runs)
	if merged.Len() == 0 {
		return nil, nil
	}
	return storage.SaveBoth(dir, storage.StampedBase(InterruptedPrefix, "", now), merged.Listings())
}
