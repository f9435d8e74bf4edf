package dsl

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Ctx carries a context.Context plus the logging and indentation state
// that the parser-dispatcher-executor pipeline threads through every
// call. The parser, scenario loader, executor and step handlers take a
// *Ctx as their first argument rather than a bare context.Context so
// that trace output stays available along the whole call chain.
type Ctx struct {
	context.Context

	log *zap.SugaredLogger

	// Verbose turns on Indf output; Debug additionally turns on
	// Inddf output. Both default to false.
	Verbose bool
	Debug   bool

	indent int
}

// NewCtx wraps the given context.Context (background if nil) with a
// production zap logger.
func NewCtx(ctx context.Context) *Ctx {
	if ctx == nil {
		ctx = context.Background()
	}
	logger, _ := zap.NewProduction()
	return &Ctx{
		Context: ctx,
		log:     logger.Sugar(),
	}
}

// NewTestCtx wraps the given context.Context with a development logger
// suitable for test output, and turns on Verbose/Debug tracing.
func NewTestCtx(ctx context.Context) *Ctx {
	if ctx == nil {
		ctx = context.Background()
	}
	logger, _ := zap.NewDevelopment()
	return &Ctx{
		Context: ctx,
		log:     logger.Sugar(),
		Verbose: true,
		Debug:   true,
	}
}

// Child returns a Ctx sharing the same logger and context but with its
// own indentation level, so nested subsystems (e.g. a scenario load
// inside a parse) can indent their trace without disturbing the
// caller's level.
func (c *Ctx) Child() *Ctx {
	return &Ctx{
		Context: c.Context,
		log:     c.log,
		Verbose: c.Verbose,
		Debug:   c.Debug,
		indent:  c.indent + 1,
	}
}

func (c *Ctx) prefix() string {
	s := ""
	for i := 0; i < c.indent; i++ {
		s += "  "
	}
	return s
}

// Indf logs a trace-level line if Verbose is set.
func (c *Ctx) Indf(format string, args ...interface{}) {
	if !c.Verbose {
		return
	}
	c.log.Infof(c.prefix()+format, args...)
}

// Inddf logs a deep-trace line if Debug is set.
func (c *Ctx) Inddf(format string, args ...interface{}) {
	if !c.Debug {
		return
	}
	c.log.Debugf(c.prefix()+format, args...)
}

// Warnf always logs a warning.
func (c *Ctx) Warnf(format string, args ...interface{}) {
	c.log.Warnf(c.prefix()+format, args...)
}

// Errorf always logs an error.
func (c *Ctx) Errorf(format string, args ...interface{}) {
	c.log.Errorf(c.prefix()+format, args...)
}

// Sync flushes the underlying logger. Hosts should defer it at startup.
func (c *Ctx) Sync() error {
	if c.log == nil {
		return nil
	}
	return c.log.Sync()
}

func (c *Ctx) String() string {
	return fmt.Sprintf("Ctx{verbose=%v debug=%v}", c.Verbose, c.Debug)
}
