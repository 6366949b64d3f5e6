package ec

// ChunkPriority is the upload pipeline's per-chunk importance level. The
// engine itself never interprets priorities; callers translate them into a
// redundancy ratio before encoding. The mapping lives here so the pipeline
// and its tests share one table (unequal error protection policy).
type ChunkPriority int

const (
	PriorityCritical ChunkPriority = iota
	PriorityHigh
	PriorityNormal
	PriorityLow
)

// RedundancyRatio returns the redundancy ratio conventionally applied to
// chunks of this priority.
func (p ChunkPriority) RedundancyRatio() float64 {
	switch p {
	case PriorityCritical:
		return 3.0
	case PriorityHigh:
		return 2.5
	case PriorityNormal:
		return 1.5
	default:
		return 1.0
	}
}

func (p ChunkPriority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityNormal:
		return "normal"
	case PriorityLow:
		return "low"
	default:
		return "unknown"
	}
}
