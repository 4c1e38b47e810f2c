package generator

import (
	"fmt"
	"strings"
	"time"

	"github.com/starford/cinesuite/internal/scene"
)

// Tone values accepted in a Request.
const (
	ToneProfessional = "professional"
	ToneCasual       = "casual"
	ToneDramatic     = "dramatic"
	ToneComedic      = "comedic"
)

type sampling struct {
	Temperature float64
	MaxTokens   int
}

var samplingByKind = map[scene.Kind]sampling{
	scene.KindSearch:   {Temperature: 0.8, MaxTokens: 4000},
	scene.KindChat:     {Temperature: 0.9, MaxTokens: 3000},
	scene.KindMail:     {Temperature: 0.8, MaxTokens: 4000},
	scene.KindTerminal: {Temperature: 0.7, MaxTokens: 2000},
}

var enrichSampling = sampling{Temperature: 0.7, MaxTokens: 2000}

const searchPrompt = `You build believable on-screen interfaces for film and TV.
Produce a VALID JSON configuration for a fictional but credible search engine.

The JSON must contain brandName, theme, triggerText (what the actor types) and results (at least 8).
Each result has id, type, title, url, snippet, date, favicon and pageContent (rich text, 200-500 words).
pageConfig is {layout: "article"|"blog"|"news"|"forum"|"wiki", headerImage, contentImages: [{url, caption, position, width}],
style: {primaryColor, font, textSize, spacing}, sidebar: {type, content}, metadata: {category, tags[], views, comments, lastModified}}.`

const chatPrompt = `You write realistic messaging conversations for film and TV.
Produce a VALID JSON configuration for a chat conversation.
The JSON must contain contactName, contactPhone, contactStatus, theme, triggerText (the message the actor will type)
and messagesHistory (at least 5 earlier messages).
Each message has id, isMe (boolean), text, time ("HH:MM") and status.
Keep it natural, with the occasional typo and emoji.`

const mailPrompt = `You write realistic email inboxes for film and TV.
Produce a VALID JSON configuration for a mailbox.
The JSON must contain userEmail, userName, provider, triggerText (subject of the email to write) and emails (at least 6).
Each email has id, senderName, senderEmail, subject, preview, body (HTML), date, read, starred, important, labels and folder.`

const terminalPrompt = `You write believable terminal sessions for film and TV.
Produce a VALID JSON configuration for a terminal.
The JSON must contain color ("green"|"red"|"blue"|"amber"), triggerText (the command the actor types),
lines (at least 10 output lines without timestamps), typingSpeed ("slow"|"fast"|"instant"),
showProgressBar, progressDuration (seconds), finalMessage and finalStatus ("success"|"error").`

var enrichPrompts = map[scene.Kind]string{
	scene.KindSearch:   "Produce 3-5 additional search results as a JSON array. Each result must fit the existing context.",
	scene.KindChat:     "Produce 3-5 additional chat messages as a JSON array. Each message must continue the existing conversation.",
	scene.KindMail:     "Produce 2-4 additional emails as a JSON array. Each email must fit the existing inbox.",
	scene.KindTerminal: `Produce 5-8 additional terminal output lines as a JSON object {"lines": [...]}.`,
}

// SystemPrompt builds the instructions sent ahead of the user's prompt.
func SystemPrompt(req Request, now time.Time) string {
	if req.Enrich {
		return enrichPrompts[req.Kind]
	}

	var base string
	switch req.Kind {
	case scene.KindSearch:
		base = searchPrompt
	case scene.KindChat:
		base = chatPrompt
	case scene.KindMail:
		base = mailPrompt
	case scene.KindTerminal:
		base = terminalPrompt
	}

	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\n\nIMPORTANT - time frame: ")
	b.WriteString(ExtractDateContext(req.Prompt, now).Instruction)
	if req.Context != "" {
		fmt.Fprintf(&b, "\nNarrative context: %s", req.Context)
	}
	tone := req.Tone
	if tone == "" {
		tone = ToneCasual
	}
	fmt.Fprintf(&b, "\nTone: %s. Match language and cultural references to the period.", tone)
	b.WriteString("\nAnswer ONLY with complete valid JSON, no markdown and no explanation.")
	return b.String()
}

func samplingFor(req Request) sampling {
	if req.Enrich {
		return enrichSampling
	}
	return samplingByKind[req.Kind]
}
