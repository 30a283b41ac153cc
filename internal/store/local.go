package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"ssot/internal/export"
	"ssot/internal/ingest"
	"ssot/internal/model"
	"ssot/internal/source"
	"ssot/internal/util/logx"
)

type stamp struct {
	size  int64
	mtime time.Time
	delim rune
}

// Local serves tables from <dir>/<resource>.csv. A file is re-read whenever
// its size or modification time changes; updates are applied in memory and,
// with write-back enabled, saved to the file.
type Local struct {
	*Store
	dir       string
	delim     rune
	writeBack bool

	mu     sync.Mutex
	stamps map[model.ResourceType]stamp
}

// Path returns the file backing rt under dir.
func Path(dir string, rt model.ResourceType) string {
	return filepath.Join(dir, string(rt)+".csv")
}

// OpenLocal prepares a local backend. delim 0 sniffs each file.
func OpenLocal(dir string, delim rune, writeBack bool) (*Local, error) {
	st, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	l := &Local{Store: New(), dir: dir, delim: delim, writeBack: writeBack, stamps: map[model.ResourceType]stamp{}}
	if writeBack {
		l.Store.OnChange(l.save)
	}
	return l, nil
}

func (l *Local) Dir() string { return l.dir }

// Fetch re-reads the table file if it changed since the last read.
func (l *Local) Fetch(ctx context.Context, rt model.ResourceType) (model.Dataset, error) {
	p := Path(l.dir, rt)
	fi, err := os.Stat(p)
	if err != nil {
		return model.Dataset{}, err
	}
	l.mu.Lock()
	prev, seen := l.stamps[rt]
	l.mu.Unlock()
	if !seen || prev.size != fi.Size() || !prev.mtime.Equal(fi.ModTime()) {
		ds, g, err := ingest.LoadFile(ingest.Options{Path: p, Delimiter: l.delim})
		if err != nil {
			return model.Dataset{}, err
		}
		l.Store.Put(rt, ds)
		l.mu.Lock()
		l.stamps[rt] = stamp{size: fi.Size(), mtime: fi.ModTime(), delim: g.Delimiter}
		l.mu.Unlock()
		logx.Infof("store: loaded %s (%d rows)", p, ds.Len())
	}
	return l.Store.Fetch(ctx, rt)
}

// UpdateByKey syncs rt from its file before applying the update, so an
// update never runs against a table that was only served from a snapshot.
func (l *Local) UpdateByKey(ctx context.Context, rt model.ResourceType, p source.Payload) (bool, error) {
	if _, err := l.Fetch(ctx, rt); err != nil {
		return false, err
	}
	return l.Store.UpdateByKey(ctx, rt, p)
}

func (l *Local) UpdateByCompoundKey(ctx context.Context, rt model.ResourceType, p source.Payload) (bool, error) {
	if _, err := l.Fetch(ctx, rt); err != nil {
		return false, err
	}
	return l.Store.UpdateByCompoundKey(ctx, rt, p)
}

// save writes the table through a temp file and rename.
func (l *Local) save(rt model.ResourceType, ds model.Dataset) error {
	p := Path(l.dir, rt)
	l.mu.Lock()
	delim := l.stamps[rt].delim
	l.mu.Unlock()
	if delim == 0 {
		delim = ','
	}
	tmp := p + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := export.WriteCSV(f, ds, nil, delim); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, p); err != nil {
		return err
	}
	if fi, err := os.Stat(p); err == nil {
		l.mu.Lock()
		l.stamps[rt] = stamp{size: fi.Size(), mtime: fi.ModTime(), delim: delim}
		l.mu.Unlock()
	}
	logx.Infof("store: wrote %s (%d rows)", p, ds.Len())
	return nil
}
