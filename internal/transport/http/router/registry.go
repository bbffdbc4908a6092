package router

import (
	"sort"

	"lostfound/internal/transport/http/ez"
)

// Module mounts one feature's routes under /api.
type Module interface{ Mount(ez.EZ) }

// Modules may also implement prioritizer to control mount order (lower
// first). Without it the priority is 100.
type prioritizer interface{ Priority() int }

type Registry struct {
	mods []Module
}

func (r *Registry) Add(mods ...Module) { r.mods = append(r.mods, mods...) }

func (r *Registry) MountAll(api ez.EZ) {
	mods := append([]Module(nil), r.mods...)
	sort.SliceStable(mods, func(i, j int) bool {
		return priorityOf(mods[i]) < priorityOf(mods[j])
	})
	for _, m := range mods {
		m.Mount(api)
	}
}

func priorityOf(v any) int {
	if p, ok := v.(prioritizer); ok {
		return p.Priority()
	}
	return 100
}
