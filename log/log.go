// Package log provides the warning and debug hooks used by the module.
// Applications can override the hooks to route messages into their own
// logger; setting a hook to nil silences that level.
package log

import (
	"fmt"
	"log"
)

// Func prints a message.
type Func func(s string)

var (
	warnFunc Func = func(s string) {
		log.Println("imgproc: WARNING: " + s)
	}
	debugFunc Func
)

// SetWarnFunc replaces the warning hook.
func SetWarnFunc(f Func) {
	warnFunc = f
}

// SetDebugFunc replaces the debug hook. The default is nil (silent).
func SetDebugFunc(f Func) {
	debugFunc = f
}

// Warnf prints a warning through the current hook.
func Warnf(format string, a ...any) {
	if warnFunc != nil {
		warnFunc(fmt.Sprintf(format, a...))
	}
}

// Debugf prints a debug message through the current hook.
func Debugf(format string, a ...any) {
	if debugFunc != nil {
		debugFunc(fmt.Sprintf(format, a...))
	}
}
