package prompts

import (
	"fmt"
	"strings"
)

// ============================================================================
// Caption Prompts (text model)
// ============================================================================

// CaptionSystemPrompt defines the role and output contract for caption writing.
const CaptionSystemPrompt = `You are a senior software engineer with a sharp sense of humour who writes programming memes.

Rules:
- Write a classic two-part meme: a setup on top and a punchline on the bottom.
- Keep each caption short, at most about 8 words, so it fits on an image.
- Use jokes working developers recognise: bugs, deploys, code review, legacy code, meetings, deadlines.
- No hashtags, no emoji, no surrounding quotes.
- Describe a background picture for the joke in imagePrompt: the scene only, never any text inside the image.

Respond with a single JSON object and nothing else:
{"topText": "...", "bottomText": "...", "imagePrompt": "..."}`

// captionUserPrompt is filled with the topic.
const captionUserPrompt = `Create a funny programming meme about: %s`

// templateContextPrompt is appended when the background image is fixed.
const templateContextPrompt = `

The background image is already chosen: %s
Write captions that fit this image. Still fill imagePrompt with a short description of it.`

// BuildCaptionPrompt returns the user prompt for a topic. templateContext
// describes a fixed background image and is empty in AI mode.
func BuildCaptionPrompt(topic, templateContext string) string {
	prompt := fmt.Sprintf(captionUserPrompt, strings.TrimSpace(topic))
	if ctx := strings.TrimSpace(templateContext); ctx != "" {
		prompt += fmt.Sprintf(templateContextPrompt, ctx)
	}
	return prompt
}

// ============================================================================
// Image Prompts (image model)
// ============================================================================

// imageStyleSuffix steers the image model towards clean meme backgrounds.
const imageStyleSuffix = `. Style: photographic or bold illustration, expressive, well lit, ` +
	`leave clear space at the top and bottom for captions, no text, no letters, no watermarks.`

// BuildImagePrompt decorates a scene description for the image model.
func BuildImagePrompt(scene string) string {
	return strings.TrimRight(strings.TrimSpace(scene), ".") + imageStyleSuffix
}
