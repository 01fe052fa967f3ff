package particle

import (
	"fmt"
	"io"
)

// logWriter is the destination for solver diagnostic output. nil
// means stdout via fmt.Println, matching the teacher's own fallback.
var logWriter io.Writer

// SetLogWriter redirects solver diagnostics (capacity growth notices,
// strict-contact-filter drops) to w. Pass nil to
// restore the default (stdout).
func SetLogWriter(w io.Writer) {
	logWriter = w
}

// Logf writes a formatted diagnostic line. Never called from the
// per-substep kernels themselves — only from lifecycle events, which
// are rare relative to the solver's hot path.
func Logf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if logWriter != nil {
		fmt.Fprintln(logWriter, msg)
	} else {
		fmt.Println(msg)
	}
}
