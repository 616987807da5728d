// Package machine holds the read-mostly MachineConfig registry: the
// descriptors are decoded once from an embedded YAML document (grounded on
// ncplot7py/domain/machines.py's declarative per-family table) and cached
// in a lock-light concurrent map shared across every engine invocation
// (§5: "machine-config registry... may be shared freely"), adapted from
// the teacher's internal/node/registry.go sync.RWMutex registry idiom.
package machine

import (
	_ "embed"
	"fmt"
	"regexp"

	"github.com/puzpuzpuz/xsync/v3"
	"gopkg.in/yaml.v3"

	"github.com/ncplot7go/ncengine/internal/domain"
)

//go:embed machines.yaml
var machinesYAML []byte

type descriptor struct {
	Name            string `yaml:"name"`
	ControlFamily   string `yaml:"controlFamily"`
	VariablePattern string `yaml:"variablePattern"`
	VariablePrefix  string `yaml:"variablePrefix"`
	ToolRangeMin    int    `yaml:"toolRangeMin"`
	ToolRangeMax    int    `yaml:"toolRangeMax"`
	DefaultPlane    string `yaml:"defaultPlane"`
	DefaultFeedMode string `yaml:"defaultFeedMode"`
	IsLathe         bool   `yaml:"isLathe"`
}

type descriptorFile struct {
	Machines []descriptor `yaml:"machines"`
}

// Registry is a concurrent-read cache of MachineConfig values keyed by
// name. Mutation only happens at construction; afterward it is treated as
// an immutable resource per §5 and may be shared across goroutines.
type Registry struct {
	configs *xsync.MapOf[string, *domain.MachineConfig]
}

// NewRegistry decodes the embedded machine descriptors and returns a ready
// Registry. It panics only on a malformed embedded document, which would
// be a build-time defect, not a runtime input error.
func NewRegistry() *Registry {
	var file descriptorFile
	if err := yaml.Unmarshal(machinesYAML, &file); err != nil {
		panic(fmt.Sprintf("machine: invalid embedded descriptor file: %v", err))
	}

	r := &Registry{configs: xsync.NewMapOf[string, *domain.MachineConfig]()}
	for _, d := range file.Machines {
		cfg := &domain.MachineConfig{
			Name:            d.Name,
			ControlFamily:   d.ControlFamily,
			VariablePattern: regexp.MustCompile(d.VariablePattern),
			VariablePrefix:  d.VariablePrefix,
			ToolRangeMin:    d.ToolRangeMin,
			ToolRangeMax:    d.ToolRangeMax,
			DefaultPlane:    d.DefaultPlane,
			DefaultFeedMode: d.DefaultFeedMode,
			IsLathe:         d.IsLathe,
		}
		r.configs.Store(cfg.Name, cfg)
	}
	// Aliases mirroring machines.py's MACHINE_CONFIGS table.
	if cfg, ok := r.configs.Load("SIEMENS_840D"); ok {
		r.configs.Store("ISO_MILL", cfg)
	}
	if cfg, ok := r.configs.Load("FANUC_STAR"); ok {
		r.configs.Store("FANUC_T", cfg)
		r.configs.Store("SB12RG_F", cfg)
		r.configs.Store("SB12RG_B", cfg)
		r.configs.Store("SR20JII_F", cfg)
		r.configs.Store("SR20JII_B", cfg)
	}
	return r
}

// Get returns the config for name, falling back to FANUC_GENERIC when name
// is unknown (matching ncplot7py.domain.machines.get_machine_config).
func (r *Registry) Get(name string) *domain.MachineConfig {
	if cfg, ok := r.configs.Load(name); ok {
		return cfg
	}
	cfg, _ := r.configs.Load("FANUC_GENERIC")
	return cfg
}

// Register adds or overrides a config, used by callers wiring a third
// machine family (e.g. the star-machine supplement) without forking the
// registry type itself.
func (r *Registry) Register(cfg *domain.MachineConfig) {
	r.configs.Store(cfg.Name, cfg)
}

// List returns every distinct registered machine name, for the §6
// `list_machines` response.
func (r *Registry) List() []*domain.MachineConfig {
	seen := map[string]bool{}
	var out []*domain.MachineConfig
	r.configs.Range(func(name string, cfg *domain.MachineConfig) bool {
		if !seen[cfg.Name] {
			seen[cfg.Name] = true
			out = append(out, cfg)
		}
		return true
	})
	return out
}
