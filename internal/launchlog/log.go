// Package launchlog keeps the append-only CSV record of created campaigns.
package launchlog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/rs/zerolog/log"
)

const TimeLayout = "2006-01-02 15:04:05"

var Header = []string{"campaign_name", "campaign_id", "adset_id", "created_at"}

type Entry struct {
	Name       string
	CampaignID string
	AdSetID    string
	CreatedAt  time.Time
}

func (e Entry) row() []string {
	return []string{e.Name, e.CampaignID, e.AdSetID, e.CreatedAt.Format(TimeLayout)}
}

// File appends entries to a CSV file. A file whose first row is not exactly
// Header is rewritten with the header and no earlier rows.
type File struct {
	path string
}

func NewFile(path string) *File { return &File{path: path} }

func (f *File) Path() string { return f.path }

func (f *File) Record(_ context.Context, e Entry) error {
	rows, err := f.read()
	if err != nil {
		log.Warn().Err(err).Str("path", f.path).Msg("could not read existing launch log; starting a new one")
		rows = nil
	}
	if len(rows) == 0 || !slices.Equal(rows[0], Header) {
		rows = [][]string{Header}
	}
	rows = append(rows, e.row())

	tmp := f.path + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create launch log: %w", err)
	}
	w := csv.NewWriter(out)
	if err := w.WriteAll(rows); err != nil {
		out.Close()
		return fmt.Errorf("write launch log: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close launch log: %w", err)
	}
	return os.Rename(tmp, f.path)
}

// Entries returns every logged entry, oldest first.
func (f *File) Entries() ([]Entry, error) {
	rows, err := f.read()
	if err != nil {
		return nil, err
	}
	var out []Entry
	for i, r := range rows {
		if i == 0 || len(r) != len(Header) {
			continue
		}
		ts, _ := time.ParseInLocation(TimeLayout, r[3], time.Local)
		out = append(out, Entry{Name: r[0], CampaignID: r[1], AdSetID: r[2], CreatedAt: ts})
	}
	return out, nil
}

func (f *File) read() ([][]string, error) {
	in, err := os.Open(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer in.Close()

	r := csv.NewReader(in)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}
