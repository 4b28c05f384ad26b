package export

import (
	"errors"
	"time"
)

// ErrNoColumns is returned when a dataset has nothing to render.
var ErrNoColumns = errors.New("export requires at least one column")

// Column describes one exported column. Key indexes the row maps.
type Column struct {
	Key   string
	Title string
}

// Dataset defines tabular export content.
type Dataset struct {
	Title       string
	Columns     []Column
	Rows        []map[string]string
	GeneratedAt time.Time
}

// Titles returns the column titles in order.
func (d Dataset) Titles() []string {
	titles := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		titles[i] = c.Title
	}
	return titles
}

// Record returns row's values in column order.
func (d Dataset) Record(row map[string]string) []string {
	record := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		record[i] = row[c.Key]
	}
	return record
}

// Renderer turns a dataset into a downloadable document.
type Renderer interface {
	Render(data Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}
