package systems

// SystemInfo describes one stage of the simulation step for display.
type SystemInfo struct {
	ID          string // matches the perf phase name
	Name        string
	Description string
}

// stepSystems lists the step stages in run order.
var stepSystems = []SystemInfo{
	{"traffic", "Traffic", "Moves scripted traffic and checks it against the borders"},
	{"broadphase", "Broadphase", "Indexes borders and traffic hulls"},
	{"physics", "Physics", "Samples controls and moves cars"},
	{"collision", "Collision", "Marks cars touching borders or traffic"},
	{"sensors", "Sensors", "Casts rays and evaluates networks"},
	{"leader", "Leader", "Selects the best car for camera and saving"},
	{"telemetry", "Telemetry", "Aggregates window statistics"},
}

// SystemRegistry maps step stage ids to their display metadata.
type SystemRegistry struct {
	byID map[string]SystemInfo
}

// NewSystemRegistry creates a registry of the step stages.
func NewSystemRegistry() *SystemRegistry {
	r := &SystemRegistry{byID: make(map[string]SystemInfo, len(stepSystems))}
	for _, info := range stepSystems {
		r.byID[info.ID] = info
	}
	return r
}

// Lookup returns the metadata of a stage.
func (r *SystemRegistry) Lookup(id string) (SystemInfo, bool) {
	info, ok := r.byID[id]
	return info, ok
}

// Name returns the display name of a stage, or the id when unknown.
func (r *SystemRegistry) Name(id string) string {
	if info, ok := r.byID[id]; ok {
		return info.Name
	}
	return id
}

// IDs returns the stage ids in run order.
func (r *SystemRegistry) IDs() []string {
	ids := make([]string, len(stepSystems))
	for i, info := range stepSystems {
		ids[i] = info.ID
	}
	return ids
}
