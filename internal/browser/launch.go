// internal/browser/launch.go
package browser

import (
	"strconv"
	"strings"
)

// Backend names accepted by the launcher.
const (
	DriverChromedp   = "chromedp"
	DriverPlaywright = "playwright"
)

// LaunchOptions describe how a backend starts its browser. They are shared by
// every backend so the same configuration drives either driver.
type LaunchOptions struct {
	Headless     bool
	WindowWidth  int
	WindowHeight int
	// ExecPath overrides the browser binary; empty means the driver's default.
	ExecPath string
	// Args are extra command-line switches, "--name" or "--name=value".
	Args []string
	// BlockPrompts denies geolocation, notification, microphone and camera
	// permissions so that no OS-level prompt can cover the page.
	BlockPrompts bool
}

// Flag is one browser command-line switch. Value is either a bool or a string.
type Flag struct {
	Name  string
	Value any
}

// String renders the flag as it appears on the command line.
func (f Flag) String() string {
	switch v := f.Value.(type) {
	case bool:
		if v {
			return "--" + f.Name
		}
		return "--" + f.Name + "=false"
	case string:
		return "--" + f.Name + "=" + v
	default:
		return "--" + f.Name
	}
}

// BlockedPermissions lists the permissions denied when BlockPrompts is set.
var BlockedPermissions = []string{"geolocation", "notifications", "microphone", "camera"}

// ChromeFlags returns the Chromium switches for these options. Headless runs
// use the new headless mode with a fixed window and the flags CI containers
// need; headed runs just start maximized.
func (o LaunchOptions) ChromeFlags() []Flag {
	var flags []Flag
	if o.Headless {
		w, h := o.WindowWidth, o.WindowHeight
		if w <= 0 || h <= 0 {
			w, h = 1400, 900
		}
		flags = append(flags,
			Flag{Name: "headless", Value: "new"},
			Flag{Name: "window-size", Value: strconv.Itoa(w) + "," + strconv.Itoa(h)},
			Flag{Name: "disable-gpu", Value: true},
			Flag{Name: "no-sandbox", Value: true},
			Flag{Name: "disable-dev-shm-usage", Value: true},
		)
	} else {
		flags = append(flags, Flag{Name: "start-maximized", Value: true})
	}
	for _, arg := range o.Args {
		if f, ok := ParseFlag(arg); ok {
			flags = append(flags, f)
		}
	}
	return flags
}

// ParseFlag parses "--name" or "--name=value". Leading dashes are optional.
func ParseFlag(arg string) (Flag, bool) {
	arg = strings.TrimLeft(strings.TrimSpace(arg), "-")
	if arg == "" {
		return Flag{}, false
	}
	if name, value, found := strings.Cut(arg, "="); found {
		return Flag{Name: name, Value: value}, true
	}
	return Flag{Name: arg, Value: true}, true
}
