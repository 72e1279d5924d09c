package log

import (
	"fmt"
	"runtime"
	"strings"
)

const (
	stackSkip      = 4
	stackMaxFrames = 32
)

// stackFilterPrefixes hides logging internals from captured stacks.
var stackFilterPrefixes = []string{
	"github.com/go-kratos/kratos",
	"github.com/rs/zerolog",
	"github.com/go-lynx/cute/log",
}

// captureStack collects a stack trace, one "FuncName file:line" per line.
func captureStack() string {
	pcs := make([]uintptr, stackMaxFrames)
	n := runtime.Callers(stackSkip, pcs)
	if n == 0 {
		return ""
	}
	frames := runtime.CallersFrames(pcs[:n])
	var b strings.Builder
	for {
		fr, more := frames.Next()
		if fr.Function != "" || fr.File != "" {
			if !hasAnyPrefix(fr.Function, stackFilterPrefixes) && !hasAnyPrefix(fr.File, stackFilterPrefixes) {
				fmt.Fprintf(&b, "%s %s:%d\n", fr.Function, fr.File, fr.Line)
			}
		}
		if !more {
			break
		}
	}
	return b.String()
}

// hasAnyPrefix reports whether s starts with any prefix in the list.
func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
