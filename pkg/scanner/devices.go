package scanner

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrStreamEnded is returned by a Stream that has no more frames. File
// streams end; live cameras do not.
var ErrStreamEnded = errors.New("video stream ended")

// Device is an enumerated video input.
type Device struct {
	ID    string
	Label string
}

// Provider enumerates and opens video inputs.
type Provider interface {
	Devices(ctx context.Context) ([]Device, error)
	Open(ctx context.Context, dev Device) (Stream, error)
}

// Stream is an open video input. Close releases every track and is safe to
// call more than once.
type Stream interface {
	Frame(ctx context.Context) (image.Image, error)
	Close() error
}

// Focuser is implemented by streams whose device can autofocus.
type Focuser interface {
	SupportsContinuousFocus() bool
	SetContinuousFocus() error
}

// PreferredDevice picks a rear-facing device when a label says so, otherwise
// the first device.
func PreferredDevice(devs []Device) (Device, bool) {
	if len(devs) == 0 {
		return Device{}, false
	}
	for _, d := range devs {
		label := strings.ToLower(d.Label)
		if strings.Contains(label, "back") || strings.Contains(label, "rear") {
			return d, true
		}
	}
	return devs[0], true
}

var imageExtensions = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}

// FileProvider exposes still images as a single video device: one image, or
// every PNG/JPEG in a directory in name order.
type FileProvider struct {
	root   string
	frames []string
}

func NewFileProvider(path string) (*FileProvider, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return &FileProvider{root: path, frames: []string{path}}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var frames []string
	for _, e := range entries {
		if e.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		frames = append(frames, filepath.Join(path, e.Name()))
	}
	sort.Strings(frames)
	return &FileProvider{root: path, frames: frames}, nil
}

func (p *FileProvider) Devices(ctx context.Context) ([]Device, error) {
	if len(p.frames) == 0 {
		return nil, nil
	}
	return []Device{{ID: p.root, Label: "files " + filepath.Base(p.root)}}, nil
}

func (p *FileProvider) Open(ctx context.Context, dev Device) (Stream, error) {
	if dev.ID != p.root {
		return nil, fmt.Errorf("unknown device %q", dev.ID)
	}
	frames := make([]string, len(p.frames))
	copy(frames, p.frames)
	return &fileStream{frames: frames}, nil
}

type fileStream struct {
	mu     sync.Mutex
	frames []string
	next   int
	closed bool
}

func (s *fileStream) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.closed || s.next >= len(s.frames) {
		s.mu.Unlock()
		return nil, ErrStreamEnded
	}
	path := s.frames[s.next]
	s.next++
	s.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

func (s *fileStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
