// Package storage writes proof-of-payment uploads to local disk under a
// per-user directory and hands back a stable reference for the ledger to
// store. Files are write-once; nothing here ever deletes or rewrites them.
package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrUnsafePath is returned when a path would escape the uploads directory.
var ErrUnsafePath = errors.New("unsafe upload path")

// StoredFile describes a successfully written attachment.
type StoredFile struct {
	ID       string // uuid, also the attachment reference handed to callers
	Filename string // original name as uploaded
	Path     string // relative path under the owner's directory
	Mimetype string
	Size     int64
}

// UserDir returns the uploads directory for one owner.
func UserDir(baseDir, ownerID string) string {
	return filepath.Join(baseDir, ownerID)
}

// Store writes the upload under
// <base>/<ownerID>/obligation-payments/YYYY/MM/<uuid><ext> and returns its
// record. The write either completes fully or leaves no usable reference.
func Store(baseDir, ownerID, filename, mimetype string, r io.Reader) (*StoredFile, error) {
	id := uuid.NewString()
	now := time.Now()
	relPath := filepath.Join(
		"obligation-payments",
		fmt.Sprintf("%04d", now.Year()),
		fmt.Sprintf("%02d", int(now.Month())),
		id+strings.ToLower(filepath.Ext(filename)),
	)
	fullPath, err := SafeJoin(UserDir(baseDir, ownerID), relPath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir for upload: %w", err)
	}
	f, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("create upload file: %w", err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(fullPath) // do not leave a half-written artifact behind
		return nil, fmt.Errorf("write upload file: %w", err)
	}
	return &StoredFile{ID: id, Filename: filename, Path: relPath, Mimetype: mimetype, Size: n}, nil
}

// SafeJoin joins rel onto base and rejects any result that escapes base.
func SafeJoin(base, rel string) (string, error) {
	joined := filepath.Join(base, rel)
	cleanBase := filepath.Clean(base)
	if joined != cleanBase && !strings.HasPrefix(joined, cleanBase+string(os.PathSeparator)) {
		return "", ErrUnsafePath
	}
	return joined, nil
}

// DirSize walks dir and returns the total size in bytes of regular files.
// A missing directory counts as zero usage.
func DirSize(dir string) (int64, error) {
	var total int64
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			total += info.Size()
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return total, nil
}
