package pipeline

// Lifecycle состояние чанка в конвейере. Фазы идут строго по порядку:
// Pending → Metadata → Terrain → Paths → Wfc → Finalized.
type Lifecycle uint8

const (
	Unknown Lifecycle = iota
	Pending
	Metadata
	Terrain
	Paths
	Wfc
	Finalized
	Cancelled
	Failed
)

var lifecycleNames = [...]string{
	Unknown:   "Unknown",
	Pending:   "Pending",
	Metadata:  "Metadata",
	Terrain:   "Terrain",
	Paths:     "Paths",
	Wfc:       "Wfc",
	Finalized: "Finalized",
	Cancelled: "Cancelled",
	Failed:    "Failed",
}

func (l Lifecycle) String() string {
	if int(l) < len(lifecycleNames) {
		return lifecycleNames[l]
	}
	return "Invalid"
}

// InFlight чанк ещё генерируется
func (l Lifecycle) InFlight() bool {
	return l >= Pending && l <= Wfc
}
