package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"voicebank/internal/domain"
)

// FileSource polls a directory for new audio files and hands each one
// to the assistant as a command for the default user. A file named
// enroll_*.wav or verify_*.wav is delivered as that kind instead.
type FileSource struct {
	dir         string
	defaultUser string
	processed   map[string]bool
	mu          sync.Mutex
}

func NewFileSource(dir, defaultUser string) *FileSource {
	return &FileSource{
		dir:         dir,
		defaultUser: defaultUser,
		processed:   make(map[string]bool),
	}
}

func (f *FileSource) Name() string {
	return "file"
}

func (f *FileSource) Start(_ context.Context) error {
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return fmt.Errorf("creating audio dir: %w", err)
	}
	return nil
}

func (f *FileSource) Stop() error {
	return nil
}

func (f *FileSource) NextRequest(ctx context.Context) (*domain.Request, error) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			req, err := f.checkForNewFile()
			if err != nil {
				return nil, err
			}
			if req != nil {
				return req, nil
			}
		}
	}
}

func (f *FileSource) checkForNewFile() (*domain.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("reading dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := filepath.Ext(entry.Name())
		if ext != ".wav" && ext != ".mp3" && ext != ".m4a" && ext != ".webm" {
			continue
		}

		path := filepath.Join(f.dir, entry.Name())
		if f.processed[path] {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading file %s: %w", path, err)
		}

		f.processed[path] = true

		processedPath := path + ".processed"
		os.Rename(path, processedPath)

		return &domain.Request{
			Kind:   kindFromName(entry.Name()),
			UserID: f.defaultUser,
			Audio:  data,
		}, nil
	}

	return nil, nil
}

func kindFromName(name string) domain.RequestKind {
	switch {
	case strings.HasPrefix(name, "enroll_"):
		return domain.KindEnroll
	case strings.HasPrefix(name, "verify_"):
		return domain.KindVerify
	default:
		return domain.KindCommand
	}
}
