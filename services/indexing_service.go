package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileIndexingService indexes PDFs found in a watched directory.
type FileIndexingService struct {
	ragService RAGService

	mu     sync.Mutex
	hashes map[string]string
}

// NewFileIndexingService creates a new indexing service.
func NewFileIndexingService(ragService RAGService) *FileIndexingService {
	return &FileIndexingService{
		ragService: ragService,
		hashes:     make(map[string]string),
	}
}

// WatchDirectory indexes files as they are created or written until ctx is cancelled.
func (s *FileIndexingService) WatchDirectory(ctx context.Context, dirPath string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(dirPath); err != nil {
		return err
	}
	log.Printf("WATCHER: Watching directory: %s", dirPath)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			s.handleEvent(ctx, event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("WATCHER ERROR: %v", err)
		case <-ctx.Done():
			log.Println("WATCHER: Context cancelled, shutting down watcher.")
			return nil
		}
	}
}

func (s *FileIndexingService) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !isSupportedFile(event.Name) {
		return
	}
	switch {
	case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
		log.Printf("WATCHER: File modified/created: %s", event.Name)
		if err := s.indexIfChanged(ctx, event.Name); err != nil {
			log.Printf("WATCHER ERROR: Failed to process file %s: %v", event.Name, err)
		}
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		// Entries are never removed from the index.
		log.Printf("WATCHER: File removed/renamed: %s (indexed chunks are kept)", event.Name)
	}
}

// ScanAndIndexDirectory indexes every PDF in dirPath whose content has not
// been indexed yet.
func (s *FileIndexingService) ScanAndIndexDirectory(ctx context.Context, dirPath string) error {
	log.Printf("INDEXER: Starting directory scan for: %s", dirPath)
	err := filepath.WalkDir(dirPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isSupportedFile(path) {
			return nil
		}
		if err := s.indexIfChanged(ctx, path); err != nil {
			log.Printf("INDEXER ERROR: Failed to process file %s: %v", path, err)
		}
		return nil
	})
	log.Println("INDEXER: Directory scan finished.")
	return err
}

func (s *FileIndexingService) indexIfChanged(ctx context.Context, path string) error {
	hash, err := calculateFileHash(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hashes[path] == hash {
		return nil
	}

	resp, err := s.ragService.IndexFile(ctx, path)
	if err != nil {
		return err
	}
	s.hashes[path] = hash
	log.Printf("INDEXER: %s: %s (%d chunks)", path, resp.Message, resp.Chunks)
	return nil
}

func isSupportedFile(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".pdf"
}

func calculateFileHash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
