package recursivehasher

// InitDebugFlags initialises debug flags - for CLI compatibility
func InitDebugFlags(flagsStr string) {
	if flagsStr != "" {
		SetDebugFlags(flagsStr)
	}
}

// InitLogging applies the verbose section of a configuration to the package logger
func InitLogging(vc *VerboseConfig) {
	if vc == nil {
		return
	}
	SetVerboseLevel(vc.Level)
	SetLogFormat(vc.Format)
	InitDebugFlags(vc.Debug)
	VerboseLog(1, "Logging initialised (level %d, format %s)", vc.Level, vc.Format)
}
