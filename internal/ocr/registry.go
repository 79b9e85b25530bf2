// Package ocr holds the OCR engine registry and helpers shared by engine
// adapters.
package ocr

import (
	"fmt"
	"sort"

	"lekha/internal/config"
	"lekha/internal/domain"
	"lekha/internal/port"
)

// EngineFactory creates an OCREngine from the OCR config.
type EngineFactory func(cfg *config.OCRConfig) (port.OCREngine, error)

// registry of engine factories, populated by init() in each engine package
// or explicitly via RegisterEngine.
var engines = map[string]EngineFactory{}

// RegisterEngine registers an engine factory by name.
func RegisterEngine(name string, factory EngineFactory) {
	engines[name] = factory
}

// Registered returns the names of all registered engines, sorted.
func Registered() []string {
	names := make([]string, 0, len(engines))
	for name := range engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewEngine creates an OCREngine by name using the registered factory.
func NewEngine(name string, cfg *config.OCRConfig) (port.OCREngine, error) {
	factory, ok := engines[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownEngine, name)
	}
	return factory(cfg)
}

// NewEngines creates every engine listed in cfg.Engines, in run order.
func NewEngines(cfg *config.OCRConfig) ([]port.OCREngine, error) {
	out := make([]port.OCREngine, 0, len(cfg.Engines))
	for _, name := range cfg.Engines {
		eng, err := NewEngine(name, cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, eng)
	}
	return out, nil
}
