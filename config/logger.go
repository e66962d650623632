package config

import (
	"fmt"
	"io"
	"os"

	"github.com/hupe1980/mailmesh/logging"
)

// NewLogger builds the logger described by c. The returned closer releases
// the log file, if any.
func (c LogConfig) NewLogger(attrs map[string]any) (logging.Logger, io.Closer, error) {
	level, err := logging.ParseLevel(c.Level)
	if err != nil {
		return nil, nil, err
	}

	var (
		out    io.Writer = os.Stderr
		closer io.Closer = io.NopCloser(nil)
	)

	if c.File != "" {
		f, err := os.OpenFile(c.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out, closer = f, f
	}

	return logging.New(&logging.Config{
		Level:  level,
		Format: c.Format,
		Output: out,
		Attrs:  attrs,
	}), closer, nil
}
