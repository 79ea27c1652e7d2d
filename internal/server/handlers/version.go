package handlers

import (
	"encoding/json"
	"net/http"
	"runtime"

	"github.com/fulmenhq/gofulmen/crucible"

	"github.com/meganame/megacheck/internal/appid"
)

// BuildInfo is stamped into the binary at link time.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

// RegistryInfo names the contracts the service reads from.
type RegistryInfo struct {
	NamesContract     string `json:"names_contract"`
	MulticallContract string `json:"multicall_contract,omitempty"`
}

var (
	buildInfo    = BuildInfo{Version: "dev", Commit: "unknown", BuildDate: "unknown"}
	appIdentity  = appid.Get()
	registryInfo *RegistryInfo
)

// SetVersionInfo sets the build information reported by /version.
func SetVersionInfo(version, commit, buildDate string) {
	buildInfo = BuildInfo{Version: version, Commit: commit, BuildDate: buildDate}
}

// SetAppIdentity overrides the app identity reported by the handler
func SetAppIdentity(identity appid.Identity) {
	appIdentity = identity
}

// SetRegistryInfo adds the registry contracts to /version. Multicall is
// omitted when batching is disabled.
func SetRegistryInfo(namesContract, multicallContract string, multicall bool) {
	info := &RegistryInfo{NamesContract: namesContract}
	if multicall {
		info.MulticallContract = multicallContract
	}
	registryInfo = info
}

// VersionResponse is the body of GET /version.
type VersionResponse struct {
	App          AppInfo       `json:"app"`
	Registry     *RegistryInfo `json:"registry,omitempty"`
	Dependencies DepInfo       `json:"dependencies"`
	Runtime      RuntimeInfo   `json:"runtime"`
}

// AppInfo contains application version details
type AppInfo struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Commit    string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// DepInfo contains dependency version information
type DepInfo struct {
	Gofulmen string `json:"gofulmen"`
	Crucible string `json:"crucible"`
}

// RuntimeInfo contains runtime environment information
type RuntimeInfo struct {
	Platform      string `json:"platform"`
	NumCPU        int    `json:"num_cpu"`
	NumGoroutines int    `json:"num_goroutines"`
}

// CurrentVersion assembles the version report served by /version and
// printed by "megacheck version --json".
func CurrentVersion() VersionResponse {
	deps := crucible.GetVersion()
	return VersionResponse{
		App: AppInfo{
			Name:      appIdentity.BinaryName,
			Version:   buildInfo.Version,
			Commit:    buildInfo.Commit,
			BuildDate: buildInfo.BuildDate,
			GoVersion: runtime.Version(),
		},
		Registry:     registryInfo,
		Dependencies: DepInfo{Gofulmen: deps.Gofulmen, Crucible: deps.Crucible},
		Runtime: RuntimeInfo{
			Platform:      runtime.GOOS + "/" + runtime.GOARCH,
			NumCPU:        runtime.NumCPU(),
			NumGoroutines: runtime.NumGoroutine(),
		},
	}
}

// VersionHandler serves CurrentVersion as JSON.
func VersionHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(CurrentVersion())
}
