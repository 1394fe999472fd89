// Package version retrieves the module version embedded by the Go toolchain.
package version

import "runtime/debug"

// Default is returned when the build information carries no release version
// for the module, such as when running from a source checkout.
const Default = "dev"

// GetJetVersion returns the version of the jet module in use.
func GetJetVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, dep := range info.Deps {
			if dep.Path == "github.com/tinystack/jet" {
				return dep.Version
			}
		}
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
	}
	return Default
}
