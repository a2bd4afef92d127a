// Package stats writes and reads the per-run artifact directory: the run
// record, the lossless statistics JSON, the best code, and a flat CSV of the
// per-generation series for plotting.
package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/gocarina/gocsv"

	"oneiros/internal/model"
)

const (
	runIndexFile   = "run_index.json"
	runFile        = "run.json"
	statisticsFile = "statistics.json"
	bestCodeFile   = "best_code.json"
	seriesFile     = "series.csv"
)

// SeriesRow is one generation of the flattened statistics series.
type SeriesRow struct {
	Generation int     `csv:"generation"`
	Mean       float64 `csv:"mean"`
	SEM        float64 `csv:"sem"`
	Best       float64 `csv:"best"`
}

// WriteRunArtifacts persists everything a finished run produced under
// baseDir/<run id> and returns the run directory.
func WriteRunArtifacts(baseDir string, record model.RunRecord, statistics model.RunStatistics, bestCode []float64) (string, error) {
	if record.ID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, record.ID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, runFile), record); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, statisticsFile), statistics); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, bestCodeFile), map[string]any{"best_code": bestCode}); err != nil {
		return "", err
	}
	if err := writeSeries(filepath.Join(runDir, seriesFile), statistics); err != nil {
		return "", err
	}

	return runDir, nil
}

// ReadRunRecord loads baseDir/<run id>/run.json; absent runs report false.
func ReadRunRecord(baseDir, runID string) (model.RunRecord, bool, error) {
	var record model.RunRecord
	ok, err := readJSON(filepath.Join(baseDir, runID, runFile), &record)
	return record, ok, err
}

// ReadStatistics loads baseDir/<run id>/statistics.json.
func ReadStatistics(baseDir, runID string) (model.RunStatistics, bool, error) {
	var statistics model.RunStatistics
	ok, err := readJSON(filepath.Join(baseDir, runID, statisticsFile), &statistics)
	return statistics, ok, err
}

// ReadBestCode loads baseDir/<run id>/best_code.json.
func ReadBestCode(baseDir, runID string) ([]float64, bool, error) {
	var payload struct {
		BestCode []float64 `json:"best_code"`
	}
	ok, err := readJSON(filepath.Join(baseDir, runID, bestCodeFile), &payload)
	return payload.BestCode, ok, err
}

// ReadSeries loads the per-generation CSV series.
func ReadSeries(baseDir, runID string) ([]SeriesRow, bool, error) {
	path := filepath.Join(baseDir, runID, seriesFile)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	var rows []SeriesRow
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, false, err
	}
	return rows, true, nil
}

// AppendRunIndex records a finished run in the flat index at the artifacts
// root, replacing any previous entry with the same id.
func AppendRunIndex(baseDir string, entry model.RunRecord) error {
	if entry.ID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].ID == entry.ID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns the indexed runs, newest first.
func ListRunIndex(baseDir string) ([]model.RunRecord, error) {
	path := filepath.Join(baseDir, runIndexFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []model.RunRecord{}, nil
		}
		return nil, err
	}

	var entries []model.RunRecord
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry model.RunRecord
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// Prefer later appended entries for equal timestamps.
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]model.RunRecord, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

// ExportRunArtifacts copies a run's artifact files into outDir/<run id>.
func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	for _, file := range []string{runFile, statisticsFile, bestCodeFile, seriesFile} {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	return dst, nil
}

func writeSeries(path string, statistics model.RunStatistics) error {
	rows := make([]SeriesRow, len(statistics.MeanPerGeneration))
	for i := range rows {
		rows[i] = SeriesRow{
			Generation: i,
			Mean:       statistics.MeanPerGeneration[i],
			SEM:        statistics.SEMPerGeneration[i],
			Best:       statistics.BestPerGeneration[i],
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return gocsv.Marshal(rows, file)
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func readJSON(path string, value any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, value); err != nil {
		return false, err
	}
	return true, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
