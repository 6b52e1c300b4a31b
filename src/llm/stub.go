package llm

import (
	"fmt"
	"strings"
)

// streamStub answers locally with a tagged echo of the input. It lets the
// whole pipeline run without network access or credentials.
func streamStub(req Request, onFragment func(string)) (string, error) {
	var text string
	switch {
	case strings.TrimSpace(req.Text) != "":
		text = fmt.Sprintf("[%s] %s", req.TargetLang, strings.TrimSpace(req.Text))
	case len(req.Image) > 0:
		text = fmt.Sprintf("[%s] (image, %d bytes, %s)", req.TargetLang, len(req.Image), req.ImageMIME)
	default:
		return "", ErrEmptyInput
	}
	onFragment(text)
	return text, nil
}
