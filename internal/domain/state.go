package domain

// GenerationState is the orchestrator's position in a generation cycle.
// Values include GenerationIdle, GenerationText, GenerationImage,
// GenerationCompleted, and GenerationError.
type GenerationState string

const (
	GenerationIdle      GenerationState = "idle"
	GenerationText      GenerationState = "generating_text"
	GenerationImage     GenerationState = "generating_image"
	GenerationCompleted GenerationState = "completed"
	GenerationError     GenerationState = "error"
)

// InFlight reports whether a generation is currently running.
func (s GenerationState) InFlight() bool {
	return s == GenerationText || s == GenerationImage
}
