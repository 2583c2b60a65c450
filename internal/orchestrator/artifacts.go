package orchestrator

import (
	"fmt"
	"sort"
)

// ArtifactSpec describes an installer the orchestrator can download and run
// unattended.
type ArtifactSpec struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	URL         string   `json:"url" yaml:"url"`
	FileName    string   `json:"fileName" yaml:"fileName"`
	Args        []string `json:"args" yaml:"args"`
}

var catalogue = map[string]ArtifactSpec{
	"vcredist": {
		Name:        "vcredist",
		Description: "Microsoft Visual C++ x64 redistributable",
		URL:         "https://aka.ms/vs/17/release/vc_redist.x64.exe",
		FileName:    "vc_redist.x64.exe",
		Args:        []string{"/install", "/passive", "/norestart"},
	},
}

// LookupArtifact returns the built-in artifact called name.
func LookupArtifact(name string) (ArtifactSpec, error) {
	spec, ok := catalogue[name]
	if !ok {
		return ArtifactSpec{}, fmt.Errorf("%w %q (known: %v)", ErrUnknownArtifact, name, ArtifactNames())
	}
	return spec, nil
}

// ArtifactNames lists the built-in artifacts.
func ArtifactNames() []string {
	names := make([]string, 0, len(catalogue))
	for n := range catalogue {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
