package translator

import (
	"fmt"
	"strings"

	"github.com/yourusername/translate-relay-bot/internal/domain/entity"
)

const systemPrompt = `You are a translation engine inside a group chat.
Translate the user's message into the requested language.
Reply with the translation only: no quotes, no notes, no transliteration.
Keep emoji, links, @mentions and line breaks as they are.
If the message is already in the requested language, return it unchanged.`

// languageName display name for prompts, falling back to the code
func languageName(code string) string {
	if name, ok := entity.SupportedLanguages[code]; ok {
		return name
	}
	return code
}

func userPrompt(text, sourceLang, targetLang string) string {
	var b strings.Builder
	if sourceLang != "" && sourceLang != entity.UnknownLanguage {
		fmt.Fprintf(&b, "Source language: %s\n", languageName(sourceLang))
	}
	fmt.Fprintf(&b, "Target language: %s\n\n%s", languageName(targetLang), text)
	return b.String()
}
