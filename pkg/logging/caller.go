package logging

import (
	"runtime"
	"strings"
	"sync"
)

const (
	maximumCallerDepth = 25
	knownLoggingFrames = 4
)

var (
	callerInitOnce     sync.Once
	minimumCallerDepth = 1
	loggingPackage     string
)

// getCaller retrieves the name of the first non-logging calling function,
// skipping logrus and this package's wrapper frames.
func getCaller() *runtime.Frame {
	// cache the package path of this file's function on the first call
	callerInitOnce.Do(func() {
		pcs := make([]uintptr, maximumCallerDepth)
		_ = runtime.Callers(0, pcs)
		for i := 0; i < maximumCallerDepth; i++ {
			funcName := runtime.FuncForPC(pcs[i]).Name()
			if strings.Contains(funcName, "getCaller") {
				loggingPackage = getPackageName(funcName)
				break
			}
		}
		minimumCallerDepth = knownLoggingFrames
	})

	pcs := make([]uintptr, maximumCallerDepth)
	depth := runtime.Callers(minimumCallerDepth, pcs)
	frames := runtime.CallersFrames(pcs[:depth])

	for f, again := frames.Next(); again; f, again = frames.Next() {
		pkg := getPackageName(f.Function)
		if pkg != loggingPackage && !strings.Contains(pkg, "sirupsen/logrus") {
			return &f //nolint:scopelint
		}
	}
	return nil
}

func getPackageName(f string) string {
	for {
		lastPeriod := strings.LastIndex(f, ".")
		lastSlash := strings.LastIndex(f, "/")
		if lastPeriod > lastSlash {
			f = f[:lastPeriod]
		} else {
			break
		}
	}
	return f
}
