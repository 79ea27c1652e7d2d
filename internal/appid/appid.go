// Package appid holds the application identity used for config discovery,
// environment variable prefixes and version output.
package appid

const (
	// BinaryName is the executable name.
	BinaryName = "megacheck"

	// Vendor is the publishing organization.
	Vendor = "meganame"

	// ConfigName is the directory name under the XDG config home.
	ConfigName = "megacheck"

	// EnvPrefix is prepended to every environment variable the app reads.
	EnvPrefix = "MEGACHECK_"

	// Description is shown in CLI help and version output.
	Description = "Batch availability checker for .mega names on MegaETH"
)

// Identity describes the running application.
type Identity struct {
	BinaryName  string
	Vendor      string
	ConfigName  string
	EnvPrefix   string
	Description string
}

// Get returns the application identity.
func Get() Identity {
	return Identity{
		BinaryName:  BinaryName,
		Vendor:      Vendor,
		ConfigName:  ConfigName,
		EnvPrefix:   EnvPrefix,
		Description: Description,
	}
}

// Env returns the prefixed environment variable name for key.
func Env(key string) string {
	return EnvPrefix + key
}
