package model

// SnapshotVersion is the current on-disk schema version.
const SnapshotVersion = 1

// Snapshot is the point-in-time persisted state of the gateway: the
// permanently burned webhook IDs, the live registrations and the sensor
// entries keyed by composite key.
type Snapshot struct {
	Version       int                `json:"version"`
	DeletedIDs    []string           `json:"deleted_ids"`
	Registrations map[string]*Device `json:"registrations"`
	Sensors       map[string]*Sensor `json:"sensors"`
}

// EmptySnapshot returns a snapshot with initialised maps at the current
// schema version.
func EmptySnapshot() *Snapshot {
	return &Snapshot{
		Version:       SnapshotVersion,
		DeletedIDs:    []string{},
		Registrations: make(map[string]*Device),
		Sensors:       make(map[string]*Sensor),
	}
}
