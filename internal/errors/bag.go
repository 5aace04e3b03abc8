package errors

import (
	"fmt"
)

// Mode selects how the bag reacts to errors.
type Mode int

const (
	// Collect accumulates diagnostics up to MaxErrors before going fatal.
	Collect Mode = iota
	// Immediate goes fatal on the first error.
	Immediate
)

const DefaultMaxErrors = 50

// Config carries the diagnostic policy for one compilation.
type Config struct {
	Mode             Mode
	MaxErrors        int
	WarningsAsErrors bool
	SuppressWarnings bool
}

// Bag is the diagnostics collector shared across pipeline phases. Phases add
// diagnostics; phase boundaries consult HasErrors/Fatal to decide whether to
// continue.
type Bag struct {
	cfg   Config
	diags []CompilerError
	fatal bool
}

func NewBag(cfg Config) *Bag {
	if cfg.MaxErrors <= 0 {
		cfg.MaxErrors = DefaultMaxErrors
	}
	return &Bag{cfg: cfg}
}

// Add records a diagnostic, applying warning promotion and suppression.
// It reports whether the pipeline may continue.
func (b *Bag) Add(err CompilerError) bool {
	if err.Level == Warning {
		if b.cfg.SuppressWarnings {
			return !b.fatal
		}
		if b.cfg.WarningsAsErrors {
			err.Level = Error
		}
	}
	b.diags = append(b.diags, err)
	if err.Level == Error {
		if b.cfg.Mode == Immediate || b.ErrorCount() >= b.cfg.MaxErrors {
			b.fatal = true
		}
	}
	return !b.fatal
}

// Fatal reports whether the bag has decided compilation must stop now.
func (b *Bag) Fatal() bool { return b.fatal }

func (b *Bag) HasErrors() bool { return b.ErrorCount() > 0 }

func (b *Bag) ErrorCount() int {
	n := 0
	for _, d := range b.diags {
		if d.Level == Error {
			n++
		}
	}
	return n
}

func (b *Bag) WarningCount() int {
	n := 0
	for _, d := range b.diags {
		if d.Level == Warning {
			n++
		}
	}
	return n
}

// All returns the recorded diagnostics in insertion order.
func (b *Bag) All() []CompilerError { return b.diags }

// Summary is the one-line report printed after the pipeline finishes or
// aborts.
func (b *Bag) Summary() string {
	if b.HasErrors() {
		return fmt.Sprintf("compilation failed with %d error(s), %d warning(s)",
			b.ErrorCount(), b.WarningCount())
	}
	return "compilation successful"
}
