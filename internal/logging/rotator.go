package logging

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// FileRotator is an io.Writer over a log file that rolls the file over
// once it exceeds Config.MaxSize megabytes. Rolled files are renamed with a
// timestamp suffix, optionally gzipped, and pruned by count and age.
type FileRotator struct {
	config *Config
	mu     sync.Mutex
	file   *os.File
	size   int64
	// background compression and pruning
	wg sync.WaitGroup
	// now is replaceable in tests
	now func() time.Time
}

// NewFileRotator opens (or creates) cfg.FilePath for appending.
func NewFileRotator(cfg *Config) (*FileRotator, error) {
	if cfg.FilePath == "" {
		return nil, fmt.Errorf("log file path is empty")
	}
	r := &FileRotator{
		config: cfg,
		now:    time.Now,
	}

	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0750); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	if err := r.openFile(); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *FileRotator) openFile() error {
	file, err := os.OpenFile(r.config.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("stat log file: %w", err)
	}

	r.file = file
	r.size = info.Size()
	return nil
}

// Write implements io.Writer.
func (r *FileRotator) Write(p []byte) (n int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		if err := r.openFile(); err != nil {
			return 0, err
		}
	}

	// An empty file is never rotated, so one oversized record still lands.
	if r.size > 0 && r.exceeds(int64(len(p))) {
		if err := r.rotate(); err != nil {
			return 0, fmt.Errorf("rotate log: %w", err)
		}
	}

	n, err = r.file.Write(p)
	r.size += int64(n)
	return n, err
}

func (r *FileRotator) exceeds(writeSize int64) bool {
	if r.config.MaxSize <= 0 {
		return false
	}
	return r.size+writeSize > r.config.MaxSize*1024*1024
}

// Rotate forces a rollover of the current file.
func (r *FileRotator) Rotate() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rotate()
}

func (r *FileRotator) rotate() error {
	if r.file != nil {
		if err := r.file.Close(); err != nil {
			return fmt.Errorf("close current log: %w", err)
		}
		r.file = nil
	}

	rotatedPath := r.rotatedName(r.now())
	if err := os.Rename(r.config.FilePath, rotatedPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("rename log file: %w", err)
	}

	if err := r.openFile(); err != nil {
		return err
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if r.config.Compress {
			compressFile(rotatedPath)
		}
		r.prune()
	}()

	return nil
}

// rotatedName returns a free name of the form base-YYYYMMDD-HHMMSS[.N].ext.
func (r *FileRotator) rotatedName(t time.Time) string {
	dir, name, ext := r.parts()
	stamp := t.Format("20060102-150405")

	candidate := filepath.Join(dir, fmt.Sprintf("%s-%s%s", name, stamp, ext))
	for i := 1; exists(candidate) || exists(candidate+".gz"); i++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s-%s.%d%s", name, stamp, i, ext))
	}
	return candidate
}

func (r *FileRotator) parts() (dir, name, ext string) {
	base := filepath.Base(r.config.FilePath)
	ext = filepath.Ext(base)
	return filepath.Dir(r.config.FilePath), strings.TrimSuffix(base, ext), ext
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// compressFile gzips path to path.gz and removes the original on success.
func compressFile(path string) {
	input, err := os.Open(path)
	if err != nil {
		return
	}
	defer input.Close()

	output, err := os.OpenFile(path+".gz", os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0640)
	if err != nil {
		return
	}

	gz := gzip.NewWriter(output)
	gz.Name = filepath.Base(path)

	_, copyErr := io.Copy(gz, input)
	closeErr := gz.Close()
	fileErr := output.Close()
	if copyErr != nil || closeErr != nil || fileErr != nil {
		os.Remove(path + ".gz")
		return
	}

	os.Remove(path)
}

// prune removes rolled files beyond MaxBackups or older than MaxAge days.
func (r *FileRotator) prune() {
	files, err := r.rotatedFiles()
	if err != nil {
		return
	}

	type fileInfo struct {
		path    string
		modTime time.Time
	}
	infos := make([]fileInfo, 0, len(files))
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		infos = append(infos, fileInfo{path: f, modTime: info.ModTime()})
	}

	// newest first
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].modTime.After(infos[j].modTime)
	})

	var cutoff time.Time
	if r.config.MaxAge > 0 {
		cutoff = r.now().AddDate(0, 0, -r.config.MaxAge)
	}
	for i, f := range infos {
		tooMany := r.config.MaxBackups > 0 && i >= r.config.MaxBackups
		tooOld := !cutoff.IsZero() && f.modTime.Before(cutoff)
		if tooMany || tooOld {
			os.Remove(f.path)
		}
	}
}

func (r *FileRotator) rotatedFiles() ([]string, error) {
	dir, name, ext := r.parts()
	return filepath.Glob(filepath.Join(dir, name+"-*"+ext+"*"))
}

// Close waits for background compression and closes the current file.
func (r *FileRotator) Close() error {
	r.wg.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file != nil {
		err := r.file.Close()
		r.file = nil
		return err
	}
	return nil
}

// Sync flushes any buffered data to the file.
func (r *FileRotator) Sync() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file != nil {
		return r.file.Sync()
	}
	return nil
}

// LogFiles returns the current log file followed by rolled files.
func (r *FileRotator) LogFiles() ([]string, error) {
	matches, err := r.rotatedFiles()
	if err != nil {
		return []string{r.config.FilePath}, err
	}
	return append([]string{r.config.FilePath}, matches...), nil
}
