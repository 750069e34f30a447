// Package batch wires the engagement service to CSV input and output files.
package batch

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// FeedRow is one input record for the engagement batches.
type FeedRow struct {
	URI         string
	DisplayName string
}

// CreatorRow is one input record for the user-data batch.
type CreatorRow struct {
	DID      string
	FeedName string
}

// ReadFeedRows parses the input CSV for the engagement batches. The file must
// carry feed_at_uri and feed_display_name columns; a missing column is a
// fatal configuration error raised before any network call.
func ReadFeedRows(path string) ([]FeedRow, error) {
	records, index, err := readTable(path, []string{"feed_at_uri", "feed_display_name"})
	if err != nil {
		return nil, err
	}

	rows := make([]FeedRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, FeedRow{
			URI:         strings.TrimSpace(rec[index["feed_at_uri"]]),
			DisplayName: strings.TrimSpace(rec[index["feed_display_name"]]),
		})
	}
	return rows, nil
}

// ReadCreatorRows parses the input CSV for the user-data batch. The file must
// carry creator_did and feed_display_name columns.
func ReadCreatorRows(path string) ([]CreatorRow, error) {
	records, index, err := readTable(path, []string{"creator_did", "feed_display_name"})
	if err != nil {
		return nil, err
	}

	rows := make([]CreatorRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, CreatorRow{
			DID:      strings.TrimSpace(rec[index["creator_did"]]),
			FeedName: strings.TrimSpace(rec[index["feed_display_name"]]),
		})
	}
	return rows, nil
}

// readTable reads a CSV file and returns its data records plus a header
// index for the required columns.
func readTable(path string, required []string) ([][]string, map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("input %s is empty", path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.TrimSpace(col)] = i
	}

	var missing []string
	for _, col := range required {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("input %s is missing required columns: %s", path, strings.Join(missing, ", "))
	}

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read rows: %w", err)
	}
	return records, index, nil
}
