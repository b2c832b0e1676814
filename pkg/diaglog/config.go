package diaglog

// Config holds the location of the diagnostic log file.
type Config struct {
	// Path of the append-only log file. Its directory is created if missing.
	// An empty path disables the diagnostic log.
	Path string
}
