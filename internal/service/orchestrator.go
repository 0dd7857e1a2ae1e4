package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/devmeme/internal/domain"
	"github.com/timmy/devmeme/internal/logger"
)

// genericUploadContext stands in for a custom template the user did not describe.
const genericUploadContext = "A generic funny image uploaded by the user"

// HistoryStore keeps generated memes, newest first.
type HistoryStore interface {
	Prepend(ctx context.Context, meme *domain.GeneratedMeme) error
	List(ctx context.Context) ([]domain.GeneratedMeme, error)
	Latest(ctx context.Context) (*domain.GeneratedMeme, error)
	GetByID(ctx context.Context, id string) (*domain.GeneratedMeme, error)
	Delete(ctx context.Context, id string) error
}

// OrchestratorConfig holds configuration for the orchestrator.
type OrchestratorConfig struct {
	// TemplateDelay paces template-mode generations.
	TemplateDelay time.Duration
	// Templates are offered in addition to domain.Catalog.
	Templates []domain.MemeTemplate
}

// Session is a point-in-time view of the orchestrator.
type Session struct {
	State             domain.GenerationState `json:"state"`
	Error             string                 `json:"error,omitempty"`
	Mode              domain.ModeName        `json:"mode"`
	SelectedTemplate  *domain.MemeTemplate   `json:"selected_template,omitempty"`
	CustomTemplate    *domain.MemeTemplate   `json:"custom_template,omitempty"`
	CustomDescription string                 `json:"custom_description"`
	Topic             string                 `json:"topic"`
	SelectedMemeID    string                 `json:"selected_meme_id,omitempty"`
	ActiveMeme        *domain.GeneratedMeme  `json:"active_meme,omitempty"`
}

// Orchestrator runs the two-step generation cycle and owns the session
// state: mode, template selection, history selection and the generation
// state machine. One generation runs at a time; external calls are made
// without holding the lock.
type Orchestrator struct {
	content       ContentGenerator
	history       HistoryStore
	catalog       []domain.MemeTemplate
	templateDelay time.Duration

	newID func() string
	now   func() time.Time

	mu                sync.Mutex
	state             domain.GenerationState
	lastError         string
	mode              domain.ModeName
	selectedTemplate  *domain.MemeTemplate
	customTemplate    *domain.MemeTemplate
	customDescription string
	topic             string
	selectedMemeID    string
	attempt           uint64
}

// NewOrchestrator creates an Orchestrator in AI mode with an idle state.
func NewOrchestrator(content ContentGenerator, history HistoryStore, cfg *OrchestratorConfig) *Orchestrator {
	if cfg == nil {
		cfg = &OrchestratorConfig{TemplateDelay: 500 * time.Millisecond}
	}
	catalog := make([]domain.MemeTemplate, 0, len(domain.Catalog)+len(cfg.Templates))
	catalog = append(catalog, domain.Catalog...)
	catalog = append(catalog, cfg.Templates...)

	return &Orchestrator{
		content:       content,
		history:       history,
		catalog:       catalog,
		templateDelay: cfg.TemplateDelay,
		newID:         uuid.NewString,
		now:           time.Now,
		state:         domain.GenerationIdle,
		mode:          domain.ModeNameAI,
	}
}

// Submit validates the request and runs one generation cycle for topic.
// Validation failures return a *domain.ValidationError and leave the
// state machine untouched. Content-service failures move the state to
// Error and return a *domain.ServiceError. If Reset abandons the attempt
// before it finishes, the result is dropped and ErrStaleGeneration is
// returned.
func (o *Orchestrator) Submit(ctx context.Context, topic string) (*domain.GeneratedMeme, error) {
	o.mu.Lock()
	if strings.TrimSpace(topic) == "" {
		o.lastError = domain.ErrEmptyTopic.Error()
		o.mu.Unlock()
		return nil, &domain.ValidationError{Err: domain.ErrEmptyTopic}
	}
	if o.state.InFlight() {
		o.mu.Unlock()
		return nil, domain.ErrGenerationInProgress
	}
	mode := o.currentMode()
	tmplMode, isTemplate := mode.(domain.TemplateMode)
	if isTemplate && tmplMode.Template == nil {
		o.lastError = domain.ErrNoTemplateSelected.Error()
		o.mu.Unlock()
		return nil, &domain.ValidationError{Err: domain.ErrNoTemplateSelected}
	}

	var templateContext string
	if isTemplate {
		templateContext = o.templateContext(tmplMode.Template)
	}
	o.attempt++
	token := o.attempt
	o.state = domain.GenerationText
	o.lastError = ""
	o.selectedMemeID = ""
	o.topic = topic
	o.mu.Unlock()

	generationID := o.newID()
	ctx = logger.SetGenerationID(ctx, generationID)
	ctx = logger.WithField(ctx, logger.FieldMode, string(mode.Name()))
	start := time.Now()
	logger.CtxInfo(ctx, "Generation started: topic=%q", topic)

	content, err := o.content.GenerateMemeContent(ctx, topic, templateContext)
	if err != nil {
		return nil, o.fail(ctx, token, &domain.ServiceError{Step: "text", Err: err})
	}

	var imageURL string
	switch m := mode.(type) {
	case domain.AIMode:
		if !o.advance(token, domain.GenerationImage) {
			return nil, o.stale(ctx)
		}
		imageURL, err = o.content.GenerateMemeImage(ctx, content.ImagePrompt)
		if err != nil {
			return nil, o.fail(ctx, token, &domain.ServiceError{Step: "image", Err: err})
		}
	case domain.TemplateMode:
		if err := sleepContext(ctx, o.templateDelay); err != nil {
			return nil, o.fail(ctx, token, &domain.ServiceError{Step: "template", Err: err})
		}
		imageURL = m.Template.URL
	}

	meme := &domain.GeneratedMeme{
		ID:         generationID,
		ImageURL:   imageURL,
		TopText:    content.TopText,
		BottomText: content.BottomText,
		Timestamp:  o.now().UnixMilli(),
		Topic:      topic,
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if token != o.attempt {
		return nil, o.stale(ctx)
	}
	if err := o.history.Prepend(ctx, meme); err != nil {
		o.state = domain.GenerationError
		o.lastError = err.Error()
		return nil, fmt.Errorf("failed to store meme: %w", err)
	}
	o.state = domain.GenerationCompleted

	logger.With(logger.Fields{
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
		logger.FieldMemeID:     meme.ID,
	}).Info(ctx, "Generation completed: top=%q, bottom=%q", meme.TopText, meme.BottomText)

	return meme, nil
}

// Regenerate re-submits the active meme's topic.
func (o *Orchestrator) Regenerate(ctx context.Context) (*domain.GeneratedMeme, error) {
	active, err := o.ActiveMeme(ctx)
	if err != nil {
		return nil, err
	}
	return o.Submit(ctx, active.Topic)
}

// Reset abandons any in-flight attempt and returns to Idle. A result
// arriving for the abandoned attempt is discarded.
func (o *Orchestrator) Reset(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.InFlight() {
		logger.CtxWarn(ctx, "Abandoning in-flight generation: attempt=%d", o.attempt)
	}
	o.attempt++
	o.state = domain.GenerationIdle
	o.lastError = ""
}

func (o *Orchestrator) advance(token uint64, next domain.GenerationState) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if token != o.attempt {
		return false
	}
	o.state = next
	return true
}

// fail records err as the session error unless the attempt is stale.
func (o *Orchestrator) fail(ctx context.Context, token uint64, err error) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if token != o.attempt {
		return o.stale(ctx)
	}
	o.state = domain.GenerationError
	o.lastError = err.Error()
	logger.CtxError(ctx, "Generation failed: %v", err)
	return err
}

func (o *Orchestrator) stale(ctx context.Context) error {
	logger.CtxWarn(ctx, "Discarding result of abandoned generation")
	return domain.ErrStaleGeneration
}

// currentMode must be called with mu held.
func (o *Orchestrator) currentMode() domain.GenerationMode {
	if o.mode == domain.ModeNameTemplate {
		return domain.TemplateMode{Template: o.selectedTemplate}
	}
	return domain.AIMode{}
}

// templateContext must be called with mu held.
func (o *Orchestrator) templateContext(t *domain.MemeTemplate) string {
	if t.IsCustom() {
		if strings.TrimSpace(o.customDescription) != "" {
			return o.customDescription
		}
		return genericUploadContext
	}
	return t.Description
}

// SetMode switches between AI and template generation. The template
// selection survives mode switches.
func (o *Orchestrator) SetMode(name domain.ModeName) error {
	if _, err := domain.ParseModeName(string(name)); err != nil {
		return &domain.ValidationError{Err: err}
	}
	o.mu.Lock()
	o.mode = name
	o.mu.Unlock()
	return nil
}

// Templates returns the custom template, if any, followed by the catalog.
func (o *Orchestrator) Templates() []domain.MemeTemplate {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]domain.MemeTemplate, 0, len(o.catalog)+1)
	if o.customTemplate != nil {
		out = append(out, *o.customTemplate)
	}
	return append(out, o.catalog...)
}

// SelectTemplate selects a catalog template, or the custom upload when id
// is domain.CustomTemplateID.
func (o *Orchestrator) SelectTemplate(id string) (*domain.MemeTemplate, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if id == domain.CustomTemplateID {
		if o.customTemplate == nil {
			return nil, domain.ErrTemplateNotFound
		}
		o.selectedTemplate = o.customTemplate
		return o.customTemplate, nil
	}
	t, ok := domain.FindTemplate(o.catalog, id)
	if !ok {
		return nil, domain.ErrTemplateNotFound
	}
	o.selectedTemplate = t
	return t, nil
}

// UploadTemplate replaces the custom template with imageRef, selects it
// and clears the custom description.
func (o *Orchestrator) UploadTemplate(imageRef string) *domain.MemeTemplate {
	t := domain.NewCustomTemplate(imageRef)
	o.mu.Lock()
	o.customTemplate = t
	o.selectedTemplate = t
	o.customDescription = ""
	o.mu.Unlock()
	return t
}

// SetCustomDescription sets the context sent with the custom template.
func (o *Orchestrator) SetCustomDescription(description string) {
	o.mu.Lock()
	o.customDescription = description
	o.mu.Unlock()
}

// SuggestedTopics returns the starter topics.
func (o *Orchestrator) SuggestedTopics() []string {
	return append([]string(nil), domain.SuggestedTopics...)
}

// History returns all memes, newest first.
func (o *Orchestrator) History(ctx context.Context) ([]domain.GeneratedMeme, error) {
	return o.history.List(ctx)
}

// ImageSources returns every image reference the session offers: template
// images followed by history images.
func (o *Orchestrator) ImageSources(ctx context.Context) ([]string, error) {
	memes, err := o.history.List(ctx)
	if err != nil {
		return nil, err
	}
	templates := o.Templates()
	out := make([]string, 0, len(templates)+len(memes))
	for _, t := range templates {
		out = append(out, t.URL)
	}
	for _, m := range memes {
		out = append(out, m.ImageURL)
	}
	return out, nil
}

// Meme returns a history entry without selecting it.
func (o *Orchestrator) Meme(ctx context.Context, id string) (*domain.GeneratedMeme, error) {
	return o.history.GetByID(ctx, id)
}

// SelectMeme makes a history entry the active meme and loads its topic.
func (o *Orchestrator) SelectMeme(ctx context.Context, id string) (*domain.GeneratedMeme, error) {
	meme, err := o.history.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	o.mu.Lock()
	o.selectedMemeID = meme.ID
	o.topic = meme.Topic
	o.mu.Unlock()
	return meme, nil
}

// DeleteMeme removes a history entry. Deleting the selected entry falls
// back to showing the newest meme.
func (o *Orchestrator) DeleteMeme(ctx context.Context, id string) error {
	if err := o.history.Delete(ctx, id); err != nil {
		return err
	}
	o.mu.Lock()
	if o.selectedMemeID == id {
		o.selectedMemeID = ""
	}
	o.mu.Unlock()
	logger.With(logger.Fields{logger.FieldMemeID: id}).Info(ctx, "Meme deleted")
	return nil
}

// ActiveMeme returns the selected history entry, or the newest one when
// nothing is selected. domain.ErrMemeNotFound means history is empty.
func (o *Orchestrator) ActiveMeme(ctx context.Context) (*domain.GeneratedMeme, error) {
	o.mu.Lock()
	selected := o.selectedMemeID
	o.mu.Unlock()

	if selected != "" {
		meme, err := o.history.GetByID(ctx, selected)
		if !errors.Is(err, domain.ErrMemeNotFound) {
			return meme, err
		}
	}
	return o.history.Latest(ctx)
}

// Snapshot returns the current session view.
func (o *Orchestrator) Snapshot(ctx context.Context) (*Session, error) {
	active, err := o.ActiveMeme(ctx)
	if err != nil && !errors.Is(err, domain.ErrMemeNotFound) {
		return nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	return &Session{
		State:             o.state,
		Error:             o.lastError,
		Mode:              o.mode,
		SelectedTemplate:  o.selectedTemplate,
		CustomTemplate:    o.customTemplate,
		CustomDescription: o.customDescription,
		Topic:             o.topic,
		SelectedMemeID:    o.selectedMemeID,
		ActiveMeme:        active,
	}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
