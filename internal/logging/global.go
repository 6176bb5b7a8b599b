package logging

// Info, Warn, Error and Debug are short aliases for LogInfo/LogWarn/
// LogError/LogDebug, kept alongside the Log-prefixed names since both
// spellings are already in use across this tree's packages.
func Info(format string, args ...interface{})  { LogInfo(format, args...) }
func Warn(format string, args ...interface{})  { LogWarn(format, args...) }
func Error(format string, args ...interface{}) { LogError(format, args...) }
func Debug(format string, args ...interface{}) { LogDebug(format, args...) }
