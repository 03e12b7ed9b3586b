// internal/pages/site_test.go
package pages

import "time"

// fast scales every deadline down so the wizard tests run in well under a second each.
var fast = Timeouts{
	Structural:  time.Second,
	Short:       500 * time.Millisecond,
	Fluent:      600 * time.Millisecond,
	Optional:    80 * time.Millisecond,
	PollFast:    10 * time.Millisecond,
	PollSettle:  10 * time.Millisecond,
	PollDefault: 10 * time.Millisecond,
}
