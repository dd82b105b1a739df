package ai

import "fmt"

const (
	storyTemperature = 0.5
	noPersona        = "none"

	storySystemPrompt = `You are a literary editor. Style: %s. Persona: %s.
Output Markdown strictly with:
# Title
## Blurb
## Chapters (3–5), each 4–6 sentences
## Closing line echoing the first entry.`

	storyUserPrompt = `Date range: %s – %s
Daily notes:
%s

Constraints: 600–900 words, PG-13 tone, cohesive narrative.`
)

// StoryInput is what a story prompt is built from. Digest is the
// newline-joined "- (day) text" list.
type StoryInput struct {
	Style   string
	Persona *string
	From    string
	To      string
	Digest  string
}

// BuildStoryPrompt renders the literary-editor prompt for a date range.
func BuildStoryPrompt(in StoryInput) Prompt {
	persona := noPersona
	if in.Persona != nil {
		persona = *in.Persona
	}
	return Prompt{
		System:      fmt.Sprintf(storySystemPrompt, in.Style, persona),
		User:        fmt.Sprintf(storyUserPrompt, in.From, in.To, in.Digest),
		Temperature: storyTemperature,
	}
}
