package config

import "github.com/brettbedarf/stagefs/internal/util"

// CLI verbosity values accepted by [ConfigOverride.LogLvl]
const (
	ErrorVerbose = iota + 1
	WarnVerbose
	InfoVerbose
	DebugVerbose
	TraceVerbose
)

// Default configuration constants. See [Config] for field descriptions.
const (
	DefaultLogLvl = util.InfoLevel

	// DefaultStoreType keeps everything in memory unless a disk root is requested
	DefaultStoreType = "memory"

	// DefaultStoreRoot is resolved against the working directory by the disk store
	DefaultStoreRoot = "."

	DefaultCurrentDirectory = "/"

	// DefaultLibFolderPath is where the library overlay files are exposed
	DefaultLibFolderPath = "/node_modules/typescript/lib"

	DefaultSkipLoadingLibFiles = false
)
