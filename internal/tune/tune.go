// Package tune holds the per-stack presets: target memory allocations
// and the environment variables that keep the stack's own processes
// inside those allocations.
package tune

import (
	"fmt"

	"github.com/cameronsjo/ballast/internal/compose"
	"github.com/cameronsjo/ballast/internal/patch"
)

// Default targets for the single-service presets.
const (
	DefaultLimit       = "600M"
	DefaultReservation = "500M"
	DefaultHeap        = "200M"
)

// EnvVar is one environment variable a preset sets on a service.
type EnvVar struct {
	Key   string
	Value string
}

// ServiceTuning describes the target allocation for one service.
type ServiceTuning struct {
	Service           string
	MemoryLimit       string
	MemoryReservation string
	Env               []EnvVar
}

// Preset is a named collection of service tunings.
type Preset struct {
	Name     string
	Services []ServiceTuning
}

// Names lists the available preset names.
var Names = []string{"cassandra", "pulsar", "qdrant"}

// Lookup builds the named preset with the given overrides. Presets
// that take no overrides ignore them.
func Lookup(name, limit, reservation, heap string) (Preset, error) {
	switch name {
	case "cassandra":
		return Cassandra(limit, reservation, heap), nil
	case "qdrant":
		return Qdrant(limit, reservation), nil
	case "pulsar":
		return Pulsar(), nil
	default:
		return Preset{}, fmt.Errorf("unknown preset %q (available: %v)", name, Names)
	}
}

// Cassandra trims the cassandra service: compose-level limits plus a
// JVM heap small enough to live inside them. Gossip settling is
// skipped so the smaller heap does not slow startup.
func Cassandra(limit, reservation, heap string) Preset {
	jvmOpts := fmt.Sprintf("-Xms%s -Xmx%s -Dcassandra.skip_wait_for_gossip_to_settle=0", heap, heap)
	return Preset{
		Name: "cassandra",
		Services: []ServiceTuning{{
			Service:           "cassandra",
			MemoryLimit:       limit,
			MemoryReservation: reservation,
			Env:               []EnvVar{{Key: "JVM_OPTS", Value: jvmOpts}},
		}},
	}
}

// Qdrant trims the qdrant service by moving vectors and payload to
// memory-mapped files instead of RAM.
func Qdrant(limit, reservation string) Preset {
	return Preset{
		Name: "qdrant",
		Services: []ServiceTuning{{
			Service:           "qdrant",
			MemoryLimit:       limit,
			MemoryReservation: reservation,
			Env: []EnvVar{
				// mmap vectors larger than 1KB, i.e. essentially all of them
				{Key: "QDRANT__STORAGE__MEMMAP_THRESHOLD_KB", Value: "1"},
				{Key: "QDRANT__STORAGE__ON_DISK_PAYLOAD", Value: "true"},
			},
		}},
	}
}

// Pulsar trims the whole Pulsar stack: zookeeper, bookie, broker and
// the init job, each with matched JVM sizing.
func Pulsar() Preset {
	return Preset{
		Name: "pulsar",
		Services: []ServiceTuning{
			{
				Service:           "zookeeper",
				MemoryLimit:       "300M",
				MemoryReservation: "200M",
				Env:               []EnvVar{{Key: "PULSAR_MEM", Value: "-Xms128m -Xmx128m -XX:MaxDirectMemorySize=64m"}},
			},
			{
				Service:           "bookie",
				MemoryLimit:       "600M",
				MemoryReservation: "400M",
				Env:               []EnvVar{{Key: "BOOKIE_MEM", Value: "-Xms128m -Xmx128m -XX:MaxDirectMemorySize=128m"}},
			},
			{
				Service:           "pulsar",
				MemoryLimit:       "512M",
				MemoryReservation: "400M",
				Env:               []EnvVar{{Key: "PULSAR_MEM", Value: "-Xms192m -Xmx192m -XX:MaxDirectMemorySize=192m"}},
			},
			{
				Service:           "pulsar-init",
				MemoryLimit:       "128M",
				MemoryReservation: "128M",
				Env:               []EnvVar{{Key: "PULSAR_MEM", Value: "-Xms64m -Xmx64m -XX:MaxDirectMemorySize=64m"}},
			},
		},
	}
}

// Edits returns the ordered patch edits for the preset's services that
// are present in doc, and the names of services that were not found.
func (p Preset) Edits(doc *compose.Document) (edits []patch.Edit, skipped []string) {
	for _, t := range p.Services {
		if !doc.HasService(t.Service) {
			skipped = append(skipped, t.Service)
			continue
		}
		resources := compose.Path{"services", t.Service, "deploy", "resources"}
		edits = append(edits,
			patch.SetScalar{Path: resources.Child("limits", "memory"), Value: t.MemoryLimit},
			patch.SetScalar{Path: resources.Child("reservations", "memory"), Value: t.MemoryReservation},
		)
		for _, ev := range t.Env {
			edits = append(edits, patch.UpsertEnv{Service: t.Service, Key: ev.Key, Value: ev.Value})
		}
	}
	return edits, skipped
}

// ShedEdits scales every declared memory reservation in doc by factor,
// clamped to floor. Services without a reservation are naturally
// skipped by ScaleMemory's missing-field no-op.
func ShedEdits(doc *compose.Document, factor float64, floor int) []patch.Edit {
	var edits []patch.Edit
	for _, name := range doc.ServiceNames() {
		edits = append(edits, patch.ScaleMemory{
			Path:   compose.Path{"services", name, "deploy", "resources", "reservations", "memory"},
			Factor: factor,
			Floor:  floor,
		})
	}
	return edits
}

// Monitoring stack removal targets.
var (
	// MonitoringServices are the optional observability services.
	MonitoringServices = []string{"grafana", "prometheus", "loki"}

	// MonitoringVolumes are the volumes those services own.
	MonitoringVolumes = []string{"grafana-storage", "prometheus-data", "loki-data"}

	// MonitoringSavings estimates the megabytes freed per removed service.
	MonitoringSavings = map[string]int{
		"grafana":    256,
		"prometheus": 128,
		"loki":       256,
	}
)

// MonitoringEdits returns deletions for the monitoring services and,
// unless keepVolumes is set, their volumes.
func MonitoringEdits(keepVolumes bool) []patch.Edit {
	var edits []patch.Edit
	for _, name := range MonitoringServices {
		edits = append(edits, patch.DeleteKey{Path: compose.Path{"services", name}})
	}
	if !keepVolumes {
		for _, name := range MonitoringVolumes {
			edits = append(edits, patch.DeleteKey{Path: compose.Path{"volumes", name}})
		}
	}
	return edits
}

// EstimateSavings sums the expected memory savings for the removed
// service names.
func EstimateSavings(removed []string) int {
	total := 0
	for _, name := range removed {
		total += MonitoringSavings[name]
	}
	return total
}
