package generator

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Connector describes one PACS connector the generator emulates.
type Connector struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	PACSType    string `yaml:"pacsType"`
	PACSVersion string `yaml:"pacsVersion"`
	EndpointURL string `yaml:"endpointUrl"`
}

// fleetFile is the on-disk shape of a connector fleet definition.
type fleetFile struct {
	Connectors []Connector `yaml:"connectors"`
}

// DefaultFleet returns the built-in connector fleet used when no file is
// configured. IDs match the demo dashboard's dimension data.
func DefaultFleet() []Connector {
	return []Connector{
		{
			ID:          "lenel-primary",
			Name:        "Lenel Primary",
			PACSType:    "LENEL",
			PACSVersion: "7.8",
			EndpointURL: "https://lenel-primary.local:443/api",
		},
		{
			ID:          "ccure-satellite",
			Name:        "C-CURE Satellite",
			PACSType:    "CCURE",
			PACSVersion: "2.90",
			EndpointURL: "https://ccure-satellite.local:443/api",
		},
		{
			ID:          "s2-building-b",
			Name:        "S2 Building B",
			PACSType:    "S2",
			PACSVersion: "4.1",
			EndpointURL: "https://s2-building-b.local:443/api",
		},
		{
			ID:          "genetec-campus",
			Name:        "Genetec Campus",
			PACSType:    "GENETEC",
			PACSVersion: "11.3",
			EndpointURL: "https://genetec-campus.local:443/api",
		},
	}
}

// Fleet holds the current connector set, optionally backed by a YAML file
// that is hot-reloaded on change.
type Fleet struct {
	mu         sync.RWMutex
	connectors []Connector
	path       string
	logger     *slog.Logger
}

// NewFleet creates a Fleet from a YAML file, or from the built-in default
// fleet when path is empty.
func NewFleet(path string, logger *slog.Logger) (*Fleet, error) {
	if logger == nil {
		logger = slog.Default()
	}
	f := &Fleet{path: path, logger: logger}

	if path == "" {
		f.connectors = DefaultFleet()
		return f, nil
	}
	connectors, err := loadFleetFile(path)
	if err != nil {
		return nil, err
	}
	f.connectors = connectors
	return f, nil
}

// Connectors returns a snapshot of the current fleet.
func (f *Fleet) Connectors() []Connector {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Connector, len(f.connectors))
	copy(out, f.connectors)
	return out
}

// Watch reloads the fleet file whenever it changes. Blocks until done is
// closed. No-op when the fleet is the built-in default.
func (f *Fleet) Watch(done <-chan struct{}) error {
	if f.path == "" {
		<-done
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	// Watch the directory: editors often replace the file, which drops a
	// watch registered on the file itself.
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		return fmt.Errorf("watch dir %s: %w", filepath.Dir(f.path), err)
	}

	f.logger.Info("watching connector fleet file", "path", f.path)

	for {
		select {
		case <-done:
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != f.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				connectors, err := loadFleetFile(f.path)
				if err != nil {
					f.logger.Error("failed to reload fleet file", "error", err)
					continue
				}
				f.mu.Lock()
				f.connectors = connectors
				f.mu.Unlock()
				f.logger.Info("connector fleet reloaded", "connectors", len(connectors))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.logger.Error("watcher error", "error", err)
		}
	}
}

func loadFleetFile(path string) ([]Connector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fleet file: %w", err)
	}
	var file fleetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse fleet file: %w", err)
	}
	if len(file.Connectors) == 0 {
		return nil, fmt.Errorf("fleet file %s defines no connectors", path)
	}
	for i, c := range file.Connectors {
		if c.ID == "" || c.PACSType == "" {
			return nil, fmt.Errorf("fleet file %s: connector %d missing id or pacsType", path, i)
		}
	}
	return file.Connectors, nil
}
