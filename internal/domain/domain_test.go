package domain

import (
	"errors"
	"testing"
)

func TestGeneratedMemeFileName(t *testing.T) {
	m := &GeneratedMeme{Timestamp: 1700000000123}
	if got := m.FileName(); got != "dev-meme-1700000000123.png" {
		t.Errorf("FileName() = %q", got)
	}
}

func TestParseModeName(t *testing.T) {
	tests := []struct {
		in      string
		want    ModeName
		wantErr bool
	}{
		{in: "ai", want: ModeNameAI},
		{in: "template", want: ModeNameTemplate},
		{in: "AI", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range tests {
		got, err := ParseModeName(tc.in)
		if (err != nil) != tc.wantErr || got != tc.want {
			t.Errorf("ParseModeName(%q) = %q, %v", tc.in, got, err)
		}
	}
}

func TestGenerationStateFlags(t *testing.T) {
	tests := []struct {
		state    GenerationState
		inFlight bool
	}{
		{GenerationIdle, false},
		{GenerationText, true},
		{GenerationImage, true},
		{GenerationCompleted, false},
		{GenerationError, false},
	}
	for _, tc := range tests {
		if tc.state.InFlight() != tc.inFlight {
			t.Errorf("%s: InFlight=%v", tc.state, tc.state.InFlight())
		}
	}
}

func TestCatalog(t *testing.T) {
	if len(Catalog) != 9 {
		t.Fatalf("catalog has %d templates, want 9", len(Catalog))
	}
	seen := map[string]bool{}
	for _, tmpl := range Catalog {
		if seen[tmpl.ID] || tmpl.ID == CustomTemplateID || tmpl.URL == "" || tmpl.Description == "" {
			t.Errorf("bad catalog entry %+v", tmpl)
		}
		seen[tmpl.ID] = true
	}

	got, ok := FindTemplate(Catalog, "t3")
	if !ok || got.Name != "Hacker Mode" {
		t.Errorf("FindTemplate(t3) = %+v, %v", got, ok)
	}
	got.Name = "changed"
	if again, _ := FindTemplate(Catalog, "t3"); again.Name != "Hacker Mode" {
		t.Error("FindTemplate returned a reference into the catalog")
	}
	if _, ok := FindTemplate(Catalog, "custom"); ok {
		t.Error("FindTemplate(custom) found a catalog entry")
	}
}

func TestNewCustomTemplate(t *testing.T) {
	tmpl := NewCustomTemplate("data:image/png;base64,AAAA")
	if !tmpl.IsCustom() || tmpl.Name != "Custom Upload" || tmpl.Description != "User uploaded image" {
		t.Errorf("NewCustomTemplate() = %+v", tmpl)
	}
	var nilTmpl *MemeTemplate
	if nilTmpl.IsCustom() {
		t.Error("nil template reported as custom")
	}
}

func TestErrorWrapping(t *testing.T) {
	cause := errors.New("rate limited")
	err := error(&ServiceError{Step: "text", Err: cause})
	if !errors.Is(err, cause) || err.Error() != "text generation failed: rate limited" {
		t.Errorf("ServiceError = %v", err)
	}
	v := error(&ValidationError{Err: ErrEmptyTopic})
	if !errors.Is(v, ErrEmptyTopic) || v.Error() != ErrEmptyTopic.Error() {
		t.Errorf("ValidationError = %v", v)
	}
}
