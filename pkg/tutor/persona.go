package tutor

import "strings"

const (
	// DefaultPersonaName is used when start_session omits a persona.
	DefaultPersonaName = "Sage"
	// DefaultPersonaStyle is used when start_session omits a style.
	DefaultPersonaStyle = "patient, encouraging, and Socratic"
)

// SystemPrompt renders the pinned system instruction for a tutoring session.
// Replies are delivered by voice, so the prompt steers the model toward
// short, speakable answers without markdown.
func SystemPrompt(personaName, personaStyle, topic, sectionTitle, sectionContext string) string {
	name := strings.TrimSpace(personaName)
	if name == "" {
		name = DefaultPersonaName
	}
	style := strings.TrimSpace(personaStyle)
	if style == "" {
		style = DefaultPersonaStyle
	}

	var b strings.Builder
	b.WriteString("You are ")
	b.WriteString(name)
	b.WriteString(", a voice tutor speaking with a student. Your teaching style is ")
	b.WriteString(style)
	b.WriteString(".")
	if topic = strings.TrimSpace(topic); topic != "" {
		b.WriteString(" You are tutoring the student on ")
		b.WriteString(topic)
		b.WriteString(".")
	}
	if sectionTitle = strings.TrimSpace(sectionTitle); sectionTitle != "" {
		b.WriteString(" The current section is \"")
		b.WriteString(sectionTitle)
		b.WriteString("\".")
	}
	if sectionContext = strings.TrimSpace(sectionContext); sectionContext != "" {
		b.WriteString("\n\nSection material to draw on when relevant:\n")
		b.WriteString(sectionContext)
	}
	b.WriteString("\n\nYour replies are spoken aloud. Keep them short, conversational, and free of markdown, lists, or code. ")
	b.WriteString("Ask one guiding question at a time rather than lecturing.")
	return b.String()
}
