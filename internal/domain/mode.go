package domain

import "fmt"

// ModeName is the wire name of a generation mode.
type ModeName string

const (
	ModeNameAI       ModeName = "ai"
	ModeNameTemplate ModeName = "template"
)

// GenerationMode selects where the meme image comes from. It is closed:
// the only implementations are AIMode and TemplateMode.
type GenerationMode interface {
	Name() ModeName
	generationMode()
}

// AIMode generates the image from the returned image prompt.
type AIMode struct{}

// Name returns ModeNameAI.
func (AIMode) Name() ModeName { return ModeNameAI }

func (AIMode) generationMode() {}

// TemplateMode uses the selected template image. Template is nil until the
// user picks one.
type TemplateMode struct {
	Template *MemeTemplate
}

// Name returns ModeNameTemplate.
func (TemplateMode) Name() ModeName { return ModeNameTemplate }

func (TemplateMode) generationMode() {}

// ParseModeName validates a wire mode name.
func ParseModeName(s string) (ModeName, error) {
	switch ModeName(s) {
	case ModeNameAI, ModeNameTemplate:
		return ModeName(s), nil
	default:
		return "", fmt.Errorf("unknown generation mode %q", s)
	}
}
