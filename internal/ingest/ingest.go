package ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/nxadm/tail"

	"ssot/internal/detect"
	"ssot/internal/model"
	"ssot/internal/util/logx"
)

const sampleLines = 20

// Options controls how a table file is read.
type Options struct {
	Path      string
	Delimiter rune // 0 = sniff
}

// LoadFile reads a whole table file. The format is sniffed from the first
// lines unless a delimiter is forced.
func LoadFile(opt Options) (model.Dataset, detect.Guess, error) {
	b, err := os.ReadFile(opt.Path)
	if err != nil {
		return model.Dataset{}, detect.Guess{}, err
	}
	b = bytes.TrimPrefix(b, []byte("\xef\xbb\xbf"))
	g := detect.Guess{Format: detect.FormatDelimited, Delimiter: opt.Delimiter, Confidence: 1}
	if opt.Delimiter == 0 {
		g = detect.Heuristics(head(b, sampleLines))
	}
	var ds model.Dataset
	switch g.Format {
	case detect.FormatJSON:
		ds, err = ReadJSON(bytes.NewReader(b))
	case detect.FormatNDJSON:
		ds, err = ReadNDJSON(bytes.NewReader(b))
	case detect.FormatUnknown:
		ds = model.Dataset{}
	default:
		ds, err = ReadCSV(bytes.NewReader(b), g.Delimiter)
	}
	if err != nil {
		return model.Dataset{}, g, fmt.Errorf("%s: %w", opt.Path, err)
	}
	logx.Debugf("ingest: %s format=%s delim=%q rows=%d", opt.Path, g.Format, g.Delimiter, ds.Len())
	return ds, g, nil
}

func head(b []byte, n int) []string {
	out := []string{}
	s := bufio.NewScanner(bytes.NewReader(b))
	s.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for s.Scan() && len(out) < n {
		out = append(out, s.Text())
	}
	return out
}

// ReadCSV parses delimited text with a header row. Blank lines are skipped;
// short rows are padded with empty values and surplus fields dropped.
func ReadCSV(r io.Reader, delim rune) (model.Dataset, error) {
	cr := csv.NewReader(r)
	if delim != 0 {
		cr.Comma = delim
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return model.Dataset{}, nil
	}
	if err != nil {
		return model.Dataset{}, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	recs := []model.Record{}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return model.Dataset{}, err
		}
		recs = append(recs, model.NewRecord(header, row))
	}
	return model.NewDataset(recs), nil
}

// ReadJSON accepts either the {"data":[...]} envelope or a bare array.
func ReadJSON(r io.Reader) (model.Dataset, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return model.Dataset{}, err
	}
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var ds model.Dataset
		err := json.Unmarshal(b, &ds)
		return ds, err
	}
	var env struct {
		Data model.Dataset `json:"data"`
	}
	if err := json.Unmarshal(b, &env); err != nil {
		return model.Dataset{}, err
	}
	return env.Data, nil
}

func ReadNDJSON(r io.Reader) (model.Dataset, error) {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	recs := []model.Record{}
	n := 0
	for s.Scan() {
		n++
		line := bytes.TrimSpace(s.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec model.Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return model.Dataset{}, fmt.Errorf("line %d: %w", n, err)
		}
		recs = append(recs, rec)
	}
	if err := s.Err(); err != nil {
		return model.Dataset{}, err
	}
	return model.NewDataset(recs), nil
}

// Change signals that a followed file grew or was rewritten.
type Change struct {
	Path  string
	Lines int
	When  time.Time
}

// Follow tails path and emits one Change per burst of new lines, after the
// file has been quiet for settle. Both channels close when ctx is done.
func Follow(ctx context.Context, path string, settle time.Duration) (<-chan Change, <-chan error) {
	out := make(chan Change, 16)
	errs := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errs)
		t, err := tail.TailFile(path, tail.Config{
			Follow:    true,
			ReOpen:    true,
			MustExist: true,
			Logger:    tail.DiscardingLogger,
			Poll:      true,
			Location:  &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd},
		})
		if err != nil {
			errs <- err
			return
		}
		defer t.Cleanup()
		pending := 0
		timer := time.NewTimer(settle)
		if !timer.Stop() {
			<-timer.C
		}
		defer timer.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = t.Stop()
				return
			case l, ok := <-t.Lines:
				if !ok {
					return
				}
				if l.Err != nil {
					select {
					case errs <- l.Err:
					default:
					}
					continue
				}
				if pending == 0 {
					timer.Reset(settle)
				}
				pending++
			case <-timer.C:
				c := Change{Path: path, Lines: pending, When: time.Now()}
				pending = 0
				select {
				case out <- c:
				case <-ctx.Done():
					_ = t.Stop()
					return
				}
			}
		}
	}()
	return out, errs
}
