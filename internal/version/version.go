package version

// Version contains the application version information.
// Set via build-time ldflags in release builds:
// go build -ldflags "-X git.home.luguber.info/inful/sitemirror/internal/version.Version=v0.3.0".
var Version = "dev"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version line printed by `sitemirror version`.
func String() string {
	return "sitemirror " + Version + " (commit " + GitCommit + ", built " + BuildTime + ")"
}
