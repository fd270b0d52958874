// Package convert dispatches staged documents to a Markdown converter.
// The converter is a black box that writes its result into an output
// directory; callers never read the result back.
package convert

import (
	"context"
	"errors"
	"fmt"

	"convert-gateway/vars"
)

var (
	ErrUnsupportedInput  = errors.New("input format not supported by converter")
	ErrUnsupportedFormat = errors.New("output format not supported by converter")
)

// Converter renders inputPath in the requested format into outputDir.
type Converter interface {
	Convert(ctx context.Context, inputPath, format, outputDir string) error
	// Name identifies the backend in logs and history rows.
	Name() string
}

// New builds the backend selected by cfg, wrapped in a worker limit.
func New(ctx context.Context, cfg vars.ConverterConfig) (Converter, error) {
	var conv Converter
	switch cfg.Backend {
	case vars.BackendMarker:
		conv = NewCommandConverter(cfg.Command)
	case vars.BackendPDFText:
		c, err := NewPDFTextConverter(ctx)
		if err != nil {
			return nil, err
		}
		conv = c
	default:
		return nil, fmt.Errorf("unknown converter backend %q", cfg.Backend)
	}
	return Limit(conv, ResolveWorkers(cfg.Workers)), nil
}
