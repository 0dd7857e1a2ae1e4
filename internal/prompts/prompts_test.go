package prompts

import (
	"strings"
	"testing"
)

func TestBuildCaptionPrompt(t *testing.T) {
	tests := []struct {
		name            string
		topic           string
		templateContext string
		want            []string
		notWant         []string
	}{
		{
			name:    "ai mode",
			topic:   "  Git merge conflict ",
			want:    []string{"about: Git merge conflict"},
			notWant: []string{"already chosen"},
		},
		{
			name:            "template mode",
			topic:           "CSS centering div",
			templateContext: "A cute dog sitting in front of a laptop",
			want:            []string{"about: CSS centering div", "already chosen: A cute dog sitting in front of a laptop"},
		},
		{
			name:            "blank context",
			topic:           "deploys",
			templateContext: "   ",
			notWant:         []string{"already chosen"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := BuildCaptionPrompt(tc.topic, tc.templateContext)
			for _, w := range tc.want {
				if !strings.Contains(got, w) {
					t.Errorf("prompt %q does not contain %q", got, w)
				}
			}
			for _, w := range tc.notWant {
				if strings.Contains(got, w) {
					t.Errorf("prompt %q unexpectedly contains %q", got, w)
				}
			}
		})
	}
}

func TestBuildImagePrompt(t *testing.T) {
	got := BuildImagePrompt(" A server room on fire. ")
	if !strings.HasPrefix(got, "A server room on fire. Style:") {
		t.Errorf("BuildImagePrompt() = %q", got)
	}
	if !strings.Contains(got, "no text") {
		t.Errorf("BuildImagePrompt() = %q, want the no-text instruction", got)
	}
}
