package dis

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

type config struct {
	output io.Writer
	strict bool
	color  bool
	info   bool
	logger zerolog.Logger
}

// Option configures a disassembly.
type Option func(*config)

func newConfig(opts []Option) *config {
	cfg := &config{
		output: os.Stdout,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithOutput sets the sink the listing is written to. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		c.output = w
	}
}

// WithStrict makes undecodable bytes abort the disassembly with an
// *errz.DecodeError instead of rendering a placeholder.
func WithStrict(strict bool) Option {
	return func(c *config) {
		c.strict = strict
	}
}

// WithColor enables ANSI colors in the text listing.
func WithColor(enabled bool) Option {
	return func(c *config) {
		c.color = enabled
	}
}

// WithInfo prints a summary of each code object's tables before its
// instructions.
func WithInfo(enabled bool) Option {
	return func(c *config) {
		c.info = enabled
	}
}

// WithLogger sets the logger that receives debug and warning events.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}
