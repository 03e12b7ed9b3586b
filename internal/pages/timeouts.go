// internal/pages/timeouts.go
package pages

import "time"

// Timeouts groups the deadlines and poll intervals used by the page objects.
type Timeouts struct {
	// Structural bounds waits for screens and mandatory controls.
	Structural time.Duration `mapstructure:"structural" yaml:"structural"`
	// Short bounds reads of controls that are already expected on screen.
	Short time.Duration `mapstructure:"short" yaml:"short"`
	// Fluent bounds waits on asynchronously populated content.
	Fluent time.Duration `mapstructure:"fluent" yaml:"fluent"`
	// Optional bounds best-effort waits for UI that may never appear.
	Optional time.Duration `mapstructure:"optional" yaml:"optional"`

	PollFast    time.Duration `mapstructure:"poll_fast" yaml:"poll_fast"`
	PollSettle  time.Duration `mapstructure:"poll_settle" yaml:"poll_settle"`
	PollDefault time.Duration `mapstructure:"poll_default" yaml:"poll_default"`
}

// DefaultTimeouts returns the production timings.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Structural:  10 * time.Second,
		Short:       5 * time.Second,
		Fluent:      8 * time.Second,
		Optional:    3 * time.Second,
		PollFast:    120 * time.Millisecond,
		PollSettle:  150 * time.Millisecond,
		PollDefault: 200 * time.Millisecond,
	}
}

// withDefaults fills zero fields from DefaultTimeouts.
func (t Timeouts) withDefaults() Timeouts {
	d := DefaultTimeouts()
	for _, f := range []struct{ v, def *time.Duration }{
		{&t.Structural, &d.Structural},
		{&t.Short, &d.Short},
		{&t.Fluent, &d.Fluent},
		{&t.Optional, &d.Optional},
		{&t.PollFast, &d.PollFast},
		{&t.PollSettle, &d.PollSettle},
		{&t.PollDefault, &d.PollDefault},
	} {
		if *f.v <= 0 {
			*f.v = *f.def
		}
	}
	return t
}
