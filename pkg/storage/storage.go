// Package storage provides persistent storage on LittleFS for the settings
// file and line-oriented data files such as the calculator history.
// It handles atomic writes, version checking, and cleanup of temporary files.
package storage

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/tuffrabit/tinygo-calcpad-rp2040/pkg/config"

	"tinygo.org/x/tinyfs"
	"tinygo.org/x/tinyfs/littlefs"
)

const (
	configDir    = "/config"
	dataDir      = "/data"
	settingsFile = "/config/calcpad.yaml"
	tempSuffix   = ".tmp"
)

var (
	ErrNotFound        = errors.New("file not found")
	ErrNotDirectory    = errors.New("not a directory")
	ErrVersionMismatch = config.ErrVersionMismatch
)

// Manager owns the mounted filesystem.
type Manager struct {
	fs       *littlefs.LFS
	blockDev tinyfs.BlockDevice
	mounted  bool
	log      *slog.Logger
}

// Stats provides information about storage usage.
type Stats struct {
	TotalSpace int64
	UsedSpace  int64
	FreeSpace  int64
	FileCount  int
}

// New initializes the storage system with the given block device.
// It mounts the filesystem and performs boot-time cleanup.
// If format is true and mount fails, it will format the filesystem.
func New(blockDev tinyfs.BlockDevice, format bool, log *slog.Logger) (*Manager, error) {
	if log == nil {
		log = slog.Default()
	}
	lfs := littlefs.New(blockDev)

	// Conservative settings for RP2040 flash
	lfs.Configure(&littlefs.Config{
		CacheSize:     512,
		LookaheadSize: 128,
	})

	if err := lfs.Mount(); err != nil {
		if !format {
			return nil, err
		}
		log.Warn("mount failed, formatting", "err", err)
		if err := lfs.Format(); err != nil {
			return nil, err
		}
		if err := lfs.Mount(); err != nil {
			return nil, err
		}
	}

	m := &Manager{
		fs:       lfs,
		blockDev: blockDev,
		mounted:  true,
		log:      log,
	}

	if err := m.bootCleanup(); err != nil {
		log.Warn("boot cleanup failed", "err", err)
	}

	// Settings written by a different firmware version are discarded; the
	// defaults apply until new settings are saved.
	if _, err := m.LoadSettings(); errors.Is(err, ErrVersionMismatch) {
		log.Warn("discarding settings", "err", err)
		if err := m.Remove(settingsFile); err != nil {
			log.Error("discard settings failed", "err", err)
		}
	}

	return m, nil
}

// Close unmounts the filesystem.
func (m *Manager) Close() error {
	if m.mounted {
		m.mounted = false
		return m.fs.Unmount()
	}
	return nil
}

// bootCleanup removes temporary files left over from interrupted writes.
func (m *Manager) bootCleanup() error {
	for _, dir := range []string{configDir, dataDir} {
		entries, err := m.readDir(dir)
		if err != nil {
			if isNotExist(err) {
				continue
			}
			return err
		}
		for _, entry := range entries {
			name := entry.Name()
			if strings.HasSuffix(name, tempSuffix) {
				m.log.Debug("removing stale temp file", "dir", dir, "name", name)
				m.fs.Remove(path.Join(dir, name))
			}
		}
	}
	return nil
}

// readDir reads the directory entries at the given path.
func (m *Manager) readDir(dirPath string) ([]os.FileInfo, error) {
	f, err := m.fs.Open(dirPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if !f.IsDir() {
		return nil, ErrNotDirectory
	}

	return f.Readdir(-1)
}

// ensureDir creates the parent directory of p if it doesn't exist.
// Only one level is created; all data lives one directory below the root.
func (m *Manager) ensureDir(p string) error {
	dir := path.Dir(p)
	if dir == "/" || dir == "." {
		return nil
	}
	if err := m.fs.Mkdir(dir, 0755); err != nil && !isExist(err) {
		return err
	}
	return nil
}

// isExist checks if an error is "already exists".
// LittleFS errors don't always match os.IsExist, so we check the message too.
func isExist(err error) bool {
	if err == nil {
		return false
	}
	if os.IsExist(err) {
		return true
	}
	return strings.Contains(err.Error(), "already exists")
}

// isNotExist is the LittleFS-aware counterpart of os.IsNotExist.
func isNotExist(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) || os.IsNotExist(err) {
		return true
	}
	return strings.Contains(err.Error(), "No directory entry")
}

// ReadFile returns the whole content of p, or ErrNotFound.
func (m *Manager) ReadFile(p string) ([]byte, error) {
	f, err := m.fs.Open(p)
	if err != nil {
		if isNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}

// WriteFile atomically replaces p with data, creating its directory.
func (m *Manager) WriteFile(p string, data []byte) error {
	if err := m.ensureDir(p); err != nil {
		return err
	}
	return m.atomicWrite(p, data)
}

// Remove deletes p. A missing file is not an error.
func (m *Manager) Remove(p string) error {
	if err := m.fs.Remove(p); err != nil && !isNotExist(err) {
		return err
	}
	return nil
}

// ReadLines returns up to the last max lines of p. Empty lines are skipped.
// A max of zero or less returns every line.
func (m *Manager) ReadLines(p string, max int) ([]string, error) {
	data, err := m.ReadFile(p)
	if err != nil {
		return nil, err
	}

	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		lines = append(lines, line)
		if max > 0 && len(lines) > max {
			lines = lines[1:]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// WriteLines atomically replaces p with one line per entry. Empty entries
// are not written.
func (m *Manager) WriteLines(p string, lines []string) error {
	var buf bytes.Buffer
	for _, line := range lines {
		if line == "" {
			continue
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return m.WriteFile(p, buf.Bytes())
}

// LoadSettings reads the settings file. It returns ErrNotFound when there is
// none and ErrVersionMismatch when it was written by another format version.
func (m *Manager) LoadSettings() (config.Settings, error) {
	data, err := m.ReadFile(settingsFile)
	if err != nil {
		return config.Settings{}, err
	}
	return config.Parse(data)
}

// SaveSettings writes s atomically with the current version.
func (m *Manager) SaveSettings(s config.Settings) error {
	data, err := s.Marshal()
	if err != nil {
		return err
	}
	return m.WriteFile(settingsFile, data)
}

// GetStats returns storage statistics.
func (m *Manager) GetStats() (*Stats, error) {
	files := 0
	for _, dir := range []string{configDir, dataDir} {
		entries, err := m.readDir(dir)
		if err != nil {
			if isNotExist(err) {
				continue
			}
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			files++
		}
	}

	blocks, err := m.fs.Size()
	if err != nil {
		return nil, err
	}
	used := int64(blocks) * m.blockDev.EraseBlockSize()
	total := m.blockDev.Size()
	return &Stats{
		TotalSpace: total,
		UsedSpace:  used,
		FreeSpace:  total - used,
		FileCount:  files,
	}, nil
}

// atomicWrite writes data to a temporary file, syncs it, then renames.
// The original file is never in a partially written state.
func (m *Manager) atomicWrite(filepath string, data []byte) error {
	tempPath := filepath + tempSuffix

	// Leftover from an interrupted write
	m.fs.Remove(tempPath)

	f, err := m.fs.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return err
	}

	// LittleFS rejects zero-length writes; an empty file needs none.
	if len(data) > 0 {
		if _, err := f.Write(data); err != nil {
			f.Close()
			m.fs.Remove(tempPath)
			return err
		}
	}

	if syncer, ok := f.(interface{ Sync() error }); ok {
		if err := syncer.Sync(); err != nil {
			f.Close()
			m.fs.Remove(tempPath)
			return err
		}
	}

	if err := f.Close(); err != nil {
		m.fs.Remove(tempPath)
		return err
	}

	// LittleFS rename doesn't replace
	m.fs.Remove(filepath)

	if err := m.fs.Rename(tempPath, filepath); err != nil {
		m.fs.Remove(tempPath)
		return err
	}

	return nil
}

// LineFile is a history store backed by one file.
type LineFile struct {
	m    *Manager
	path string
}

// Lines returns a LineFile for p.
func (m *Manager) Lines(p string) *LineFile {
	return &LineFile{m: m, path: p}
}

// ReadLines treats a missing file as empty.
func (l *LineFile) ReadLines(max int) ([]string, error) {
	lines, err := l.m.ReadLines(l.path, max)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return lines, err
}

func (l *LineFile) WriteLines(lines []string) error { return l.m.WriteLines(l.path, lines) }

func (l *LineFile) Remove() error { return l.m.Remove(l.path) }

// Path returns the file path.
func (l *LineFile) Path() string { return l.path }
