package routing

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Allowlist struct {
	Version     int                   `yaml:"version"`
	Entrypoints map[string]Entrypoint `yaml:"entrypoints"`
}

type Entrypoint struct {
	Routes []Route `yaml:"routes"`
}

type Route struct {
	Path       string   `yaml:"path"`
	Methods    []string `yaml:"methods"`
	RouteClass string   `yaml:"route_class"`
}

var knownRouteClasses = map[RouteClass]bool{
	RouteClassUI:          true,
	RouteClassInternalAPI: true,
	RouteClassPublicAPI:   true,
	RouteClassOps:         true,
	RouteClassStatic:      true,
}

var knownMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

func ParseAllowlistYAML(b []byte) (Allowlist, error) {
	var a Allowlist
	if err := yaml.Unmarshal(b, &a); err != nil {
		return Allowlist{}, err
	}
	if a.Version != 1 {
		return Allowlist{}, errors.New("allowlist: unsupported version")
	}
	if a.Entrypoints == nil {
		return Allowlist{}, errors.New("allowlist: missing entrypoints")
	}
	for name, ep := range a.Entrypoints {
		if err := ep.validate(); err != nil {
			return Allowlist{}, fmt.Errorf("allowlist: entrypoint %s: %w", name, err)
		}
	}
	return a, nil
}

// validate rejects unknown classes and methods, relative paths, and a
// method declared twice for one path.
func (ep Entrypoint) validate() error {
	seen := map[string]bool{}
	for _, r := range ep.Routes {
		if !strings.HasPrefix(r.Path, "/") {
			return fmt.Errorf("route %q: path must start with /", r.Path)
		}
		if !knownRouteClasses[RouteClass(r.RouteClass)] {
			return fmt.Errorf("route %s: unknown route_class %q", r.Path, r.RouteClass)
		}
		if len(r.Methods) == 0 {
			return fmt.Errorf("route %s: no methods", r.Path)
		}
		for _, m := range r.Methods {
			if !knownMethods[m] {
				return fmt.Errorf("route %s: unknown method %q", r.Path, m)
			}
			key := m + " " + r.Path
			if seen[key] {
				return fmt.Errorf("route %s: duplicate method %s", r.Path, m)
			}
			seen[key] = true
		}
	}
	return nil
}

func LoadAllowlist(path string) (Allowlist, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Allowlist{}, err
	}
	return ParseAllowlistYAML(b)
}
