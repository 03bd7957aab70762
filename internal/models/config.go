package models

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string `json:"version"`
	GoVersion string `json:"goVersion"`
	Commit    string `json:"commit,omitempty"`
	Dirty     bool   `json:"dirty"`
}

// ServiceInfo is the payload of the config endpoint.
type ServiceInfo struct {
	BuildInfo    BuildInfo `json:"buildInfo"`
	Id           string    `json:"id"`
	Name         string    `json:"name"`
	StopNo       string    `json:"stopNo"`
	Source       string    `json:"source"`
	PrimaryRoute string    `json:"primaryRoute"`
	Timezone     string    `json:"timezone"`
}
