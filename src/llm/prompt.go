package llm

import (
	"fmt"
	"strings"
)

func textPrompt(lang, text string) string {
	return fmt.Sprintf("You are a professional translator. Translate the user's text into %s. "+
		"Preserve meaning, tone, and formatting. Only output the translation.\n\n%s", lang, text)
}

func imagePrompt(lang string) string {
	return fmt.Sprintf("You are a professional translator. Read all text in this image and translate it into %s. "+
		"Preserve meaning, tone, and line breaks. Only output the translation.", lang)
}

// promptFor picks the instruction for req. Text, when present alongside an
// image, is appended as extra context.
func promptFor(req Request) string {
	if len(req.Image) == 0 {
		return textPrompt(req.TargetLang, req.Text)
	}
	p := imagePrompt(req.TargetLang)
	if t := strings.TrimSpace(req.Text); t != "" {
		p += "\n\n" + t
	}
	return p
}
