package observability

import (
	"fmt"
	"runtime/debug"
)

// RecoverPanic recovers from a panic and logs it with structured logging
//
// Usage in defer statements:
//
//	go func() {
//	    defer observability.RecoverPanic(logger, "ops server")
//	    // ... code that might panic
//	}()
//
// The panic is NOT re-raised.
func RecoverPanic(logger *Logger, context string) {
	if r := recover(); r != nil {
		LogPanic(logger, context, r)
	}
}

// MustRecover converts a recovered value into an error. A nil value returns nil.
//
//	func run() (err error) {
//	    defer func() {
//	        if perr := observability.MustRecover(recover()); perr != nil {
//	            err = perr
//	        }
//	    }()
//	    ...
//	}
func MustRecover(r interface{}) error {
	if r != nil {
		return fmt.Errorf("panic: %v", r)
	}
	return nil
}

// LogPanic logs a recovered panic value with the current stack
func LogPanic(logger *Logger, context string, r interface{}) {
	logger.WithField("panic", fmt.Sprint(r)).
		WithField("stack", string(debug.Stack())).
		WithField("context", context).
		Error("PANIC recovered")
}
