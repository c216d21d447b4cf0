package eligibility

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// fileWindow is the YAML shape of one owner's window:
//
//	owner-123:
//	  timezone: America/Chicago
//	  weekdays: [mon, tue, wed, thu, fri]
//	  hours:
//	    start: "09:00"
//	    end: "18:00"
//	  daily_limit: 50
type fileWindow struct {
	Timezone string   `yaml:"timezone"`
	Weekdays []string `yaml:"weekdays"`
	Hours    struct {
		Start TimeOfDay `yaml:"start"`
		End   TimeOfDay `yaml:"end"`
	} `yaml:"hours"`
	DailyLimit int `yaml:"daily_limit"`
}

// FileSource serves owner windows from a YAML file. The file is parsed once
// at construction; Reload picks up edits without restarting the process.
type FileSource struct {
	path string

	mu      sync.RWMutex
	windows map[string]Window
}

// NewFileSource loads the YAML file at path and fails fast on malformed
// configuration.
func NewFileSource(path string) (*FileSource, error) {
	s := &FileSource{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the configuration file, replacing all windows atomically.
func (s *FileSource) Reload() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read owner windows from %s: %w", s.path, err)
	}

	var parsed map[string]fileWindow
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("failed to parse owner windows from %s: %w", s.path, err)
	}

	windows := make(map[string]Window, len(parsed))
	for ownerID, fw := range parsed {
		w, err := fw.toWindow()
		if err != nil {
			return fmt.Errorf("owner %q: %w", ownerID, err)
		}
		windows[ownerID] = w
	}

	s.mu.Lock()
	s.windows = windows
	s.mu.Unlock()
	return nil
}

// Window implements Source.
func (s *FileSource) Window(ctx context.Context, ownerID string) (Window, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.windows[ownerID]
	if !ok {
		return Window{}, ErrOwnerNotFound
	}
	return w, nil
}

func (fw fileWindow) toWindow() (Window, error) {
	w := Window{
		Timezone:   fw.Timezone,
		Start:      fw.Hours.Start,
		End:        fw.Hours.End,
		DailyLimit: fw.DailyLimit,
	}

	if _, err := w.Location(); err != nil {
		return Window{}, err
	}

	// Contains treats [Start, End) as within one local day, so an inverted
	// range would be permanently empty and defer its operations forever.
	if !w.allDay() && w.End.Minutes() <= w.Start.Minutes() {
		return Window{}, fmt.Errorf("%w: %s-%s", ErrInvalidWindowHours, w.Start, w.End)
	}

	for _, name := range fw.Weekdays {
		day, err := ParseWeekday(name)
		if err != nil {
			return Window{}, err
		}
		w.Weekdays = append(w.Weekdays, day)
	}

	return w, nil
}
