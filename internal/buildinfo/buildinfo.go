// Package buildinfo carries version stamps set with -ldflags "-X".
package buildinfo

var (
    Version = "dev"
    Commit  = ""
    BuiltAt = ""
)

// Info is reported by /debug alongside the runtime configuration.
func Info() map[string]string {
    return map[string]string{
        "service": "flower-shop-api",
        "version": Version,
        "commit":  Commit,
        "builtAt": BuiltAt,
    }
}
