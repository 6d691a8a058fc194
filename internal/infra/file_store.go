package infra

import (
	"bufio"
	"bytes"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/eliteGoblin/focusd/appgate/internal/domain"
)

// FileStore implements domain.Store with one file per key.
// Values are written with temp file + rename so a reader in the other
// context sees either the old or the new value, never a torn one.
// Log appends are serialized with flock on a per-log lock file.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-backed store rooted at dir.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the store directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// keyPath maps a logical key to a file name that is safe on every filesystem.
func (s *FileStore) keyPath(key string) string {
	hash := md5.Sum([]byte(key))
	return filepath.Join(s.dir, "kv_"+hex.EncodeToString(hash[:])[:12])
}

func (s *FileStore) logPath(log string) string {
	hash := md5.Sum([]byte(log))
	return filepath.Join(s.dir, "log_"+hex.EncodeToString(hash[:])[:12])
}

// Get returns the value stored under key.
func (s *FileStore) Get(key string) ([]byte, bool, error) {
	data, err := os.ReadFile(s.keyPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// Set replaces the value atomically (write + rename).
func (s *FileStore) Set(key string, value []byte) error {
	path := s.keyPath(key)

	tmpPath, err := s.writeTemp(path, value)
	if err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// SetIfAbsent writes a complete temp file and hard-links it into place.
// link(2) fails if the target exists, so exactly one writer wins.
func (s *FileStore) SetIfAbsent(key string, value []byte) (bool, error) {
	path := s.keyPath(key)

	tmpPath, err := s.writeTemp(path, value)
	if err != nil {
		return false, err
	}
	defer os.Remove(tmpPath)

	if err := os.Link(tmpPath, path); err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// writeTemp writes value to a temp file unique per writer, in the same
// directory as path so rename and link stay atomic.
func (s *FileStore) writeTemp(path string, value []byte) (string, error) {
	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", err
	}
	return tmpPath, nil
}

// Remove deletes the key.
func (s *FileStore) Remove(key string) error {
	err := os.Remove(s.keyPath(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Append adds a record to the log. Records are base64 lines so arbitrary
// bytes never break the framing.
func (s *FileStore) Append(log string, record []byte) error {
	path := s.logPath(log)

	unlock, err := s.lock(path)
	if err != nil {
		return err
	}
	defer unlock()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return err
	}
	line := base64.StdEncoding.EncodeToString(record) + "\n"
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Entries returns every record of the log in append order.
// A torn trailing line (crash mid-append) is skipped.
func (s *FileStore) Entries(log string) ([][]byte, error) {
	data, err := os.ReadFile(s.logPath(log))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var records [][]byte
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		record, err := base64.StdEncoding.DecodeString(string(line))
		if err != nil {
			continue
		}
		records = append(records, record)
	}
	return records, scanner.Err()
}

// Close is a no-op; files are opened per call.
func (s *FileStore) Close() error {
	return nil
}

// lock takes an exclusive flock on path+".lock".
func (s *FileStore) lock(path string) (func(), error) {
	lockFile, err := os.OpenFile(path+".lock", os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}
	if err := syscall.Flock(int(lockFile.Fd()), syscall.LOCK_EX); err != nil {
		lockFile.Close()
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	return func() {
		_ = syscall.Flock(int(lockFile.Fd()), syscall.LOCK_UN)
		lockFile.Close()
	}, nil
}

// Ensure FileStore implements domain.Store.
var _ domain.Store = (*FileStore)(nil)
