package main

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/saviobatista/adsb-relay/internal/event"
	"github.com/saviobatista/adsb-relay/internal/nats"
)

func main() {
	if err := runEventLog(); err != nil {
		log.Printf("Event log failed: %v", err)
		os.Exit(1)
	}
}

// runEventLog contains the main application logic and can be tested
func runEventLog() error {
	outputDir, natsURL := parseEnvironment()

	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	client, err := nats.New(natsURL)
	if err != nil {
		return fmt.Errorf("failed to create NATS client: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	writer := NewWriter(outputDir)
	go writer.Start(ctx)

	if err := client.SubscribeEvents(func(ev *event.Event) {
		if err := writer.WriteEvent(ev); err != nil {
			log.Printf("Failed to write event: %v", err)
		}
	}); err != nil {
		client.Close()
		cancel()
		return fmt.Errorf("failed to subscribe to position events: %w", err)
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down...")
	client.Close()
	cancel()
	time.Sleep(time.Second) // Give time for goroutines to clean up

	return nil
}

// parseEnvironment extracts environment variables with defaults
func parseEnvironment() (string, string) {
	outputDir := os.Getenv("OUTPUT_DIR")
	if outputDir == "" {
		outputDir = "./events"
	}

	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = "nats://nats:4222" // Default to Docker service name
	}

	return outputDir, natsURL
}

// Writer appends position events as JSON lines to a daily file and
// gzips the previous day's file on rotation.
type Writer struct {
	outputDir    string
	currentFile  *os.File
	currentDate  string
	rotationChan chan struct{}
	mu           sync.RWMutex
}

// NewWriter creates a new event writer
func NewWriter(outputDir string) *Writer {
	return &Writer{
		outputDir:    outputDir,
		rotationChan: make(chan struct{}, 1),
	}
}

// Start initializes the writer and starts the rotation timer
func (w *Writer) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.rotateFile(); err != nil {
		log.Printf("Failed to create initial event file: %v", err)
		return
	}

	go w.rotationTimer(ctx)
}

// WriteEvent appends one event as a JSON line to the current file
func (w *Writer) WriteEvent(ev *event.Event) error {
	w.mu.RLock()
	currentDate := w.currentDate
	currentFile := w.currentFile
	w.mu.RUnlock()

	// Check if we need to rotate
	if currentDate != time.Now().UTC().Format("2006-01-02") {
		w.rotationChan <- struct{}{}
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	data = append(data, '\n')

	if _, err := currentFile.Write(data); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	return nil
}

// rotationTimer handles daily file rotation
func (w *Writer) rotationTimer(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.rotationChan:
			if err := w.rotateAndCompress(); err != nil {
				log.Printf("Failed to rotate event files: %v", err)
			}
		}
	}
}

// rotateAndCompress closes the current file, compresses the previous
// day's file, and creates a new one
func (w *Writer) rotateAndCompress() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.currentFile != nil {
		if err := w.currentFile.Close(); err != nil {
			return fmt.Errorf("failed to close current file: %w", err)
		}
	}

	if w.currentDate != "" {
		prevPath := filepath.Join(w.outputDir, fmt.Sprintf("events_%s.jsonl", w.currentDate))
		if err := compressFile(prevPath); err != nil {
			log.Printf("Failed to compress previous event file: %v", err)
		}
	}

	return w.rotateFile()
}

// rotateFile creates a new event file for the current day
func (w *Writer) rotateFile() error {
	currentDate := time.Now().UTC().Format("2006-01-02")
	path := filepath.Join(w.outputDir, fmt.Sprintf("events_%s.jsonl", currentDate))

	//nolint:gosec // path is controlled by application logic
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open event file: %w", err)
	}

	w.currentFile = file
	w.currentDate = currentDate
	return nil
}

// compressFile compresses an event file using gzip
func compressFile(filePath string) error {
	//nolint:gosec // filePath is controlled by application logic
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	compressedPath := filePath + ".gz"
	//nolint:gosec // compressedPath is controlled by application logic
	compressedFile, err := os.Create(compressedPath)
	if err != nil {
		return fmt.Errorf("failed to create compressed file: %w", err)
	}
	defer func() {
		if cerr := compressedFile.Close(); cerr != nil {
			fmt.Fprintf(os.Stderr, "error closing compressed file: %v\n", cerr)
		}
	}()

	gz := gzip.NewWriter(compressedFile)
	if _, err := gz.Write(data); err != nil {
		gz.Close()
		return fmt.Errorf("failed to write compressed data: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to finish compressed file: %w", err)
	}

	if err := os.Remove(filePath); err != nil {
		return fmt.Errorf("failed to remove original file: %w", err)
	}

	return nil
}

// CurrentFile returns the current file in a thread-safe manner
func (w *Writer) CurrentFile() *os.File {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.currentFile
}

// CurrentDate returns the current date in a thread-safe manner
func (w *Writer) CurrentDate() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.currentDate
}
