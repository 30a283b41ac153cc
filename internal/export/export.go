package export

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"ssot/internal/model"
)

var ErrNoRows = errors.New("no rows")

type Format string

const (
	FormatCSV    Format = "csv"
	FormatNDJSON Format = "ndjson"
)

// FormatFor picks the format from a file extension; anything that is not
// .ndjson/.jsonl is written as delimited text.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ndjson", ".jsonl":
		return FormatNDJSON
	}
	return FormatCSV
}

// WriteCSV writes a header row of cols followed by one row per record.
// When cols is nil the dataset's own columns are used.
func WriteCSV(w io.Writer, ds model.Dataset, cols []string, delim rune) error {
	if cols == nil {
		cols = model.Columns(ds)
	}
	return writeDelimited(w, ds, cols, delim, true)
}

// AppendCSV writes the records of ds as rows of cols without a header, for
// growing an existing file.
func AppendCSV(w io.Writer, ds model.Dataset, cols []string, delim rune) error {
	return writeDelimited(w, ds, cols, delim, false)
}

func writeDelimited(w io.Writer, ds model.Dataset, cols []string, delim rune, header bool) error {
	cw := csv.NewWriter(w)
	if delim != 0 {
		cw.Comma = delim
	}
	if header {
		if err := cw.Write(cols); err != nil {
			return err
		}
	}
	for i := 0; i < ds.Len(); i++ {
		r := ds.At(i)
		row := make([]string, len(cols))
		for j, c := range cols {
			row[j] = r.Get(c)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteNDJSON writes one JSON object per line, keys in column order.
func WriteNDJSON(w io.Writer, ds model.Dataset) error {
	bw := bufio.NewWriter(w)
	for i := 0; i < ds.Len(); i++ {
		b, err := json.Marshal(ds.At(i))
		if err != nil {
			return err
		}
		if _, err := bw.Write(append(b, '\n')); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func ToCSV(path string, ds model.Dataset, cols []string, delim rune) error {
	if ds.Empty() {
		return ErrNoRows
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteCSV(f, ds, cols, delim)
}

func ToNDJSON(path string, ds model.Dataset) error {
	if ds.Empty() {
		return ErrNoRows
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteNDJSON(f, ds)
}

// ToFile writes ds to path in the format its extension implies.
func ToFile(path string, ds model.Dataset, cols []string, delim rune) error {
	switch FormatFor(path) {
	case FormatNDJSON:
		if cols != nil {
			ds = project(ds, cols)
		}
		return ToNDJSON(path, ds)
	case FormatCSV:
		return ToCSV(path, ds, cols, delim)
	}
	return fmt.Errorf("unsupported export path %q", path)
}

func project(ds model.Dataset, cols []string) model.Dataset {
	recs := make([]model.Record, ds.Len())
	for i := range recs {
		recs[i] = ds.At(i).Project(cols)
	}
	return model.NewDataset(recs)
}
