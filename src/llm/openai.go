package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

type chatMessage struct {
	Role    string         `json:"role"`
	Content messageContent `json:"content"`
}

// messageContent encodes as a plain string, or as a parts list when an
// image is attached.
type messageContent struct {
	Text  string
	Parts []contentPart
}

func (c messageContent) MarshalJSON() ([]byte, error) {
	if c.Parts != nil {
		return json.Marshal(c.Parts)
	}
	return json.Marshal(c.Text)
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

func buildChatRequest(req Request) chatRequest {
	content := messageContent{Text: textPrompt(req.TargetLang, req.Text)}
	if len(req.Image) > 0 {
		dataURI := fmt.Sprintf("data:%s;base64,%s", req.ImageMIME, base64.StdEncoding.EncodeToString(req.Image))
		content = messageContent{Parts: []contentPart{
			{Type: "text", Text: promptFor(req)},
			{Type: "image_url", ImageURL: &imageURL{URL: dataURI}},
		}}
	}
	return chatRequest{
		Model:       req.Model,
		Messages:    []chatMessage{{Role: "user", Content: content}},
		Temperature: temperature,
		Stream:      true,
	}
}

func (c *Client) streamOpenAI(ctx context.Context, req Request, onFragment func(string)) (string, error) {
	if req.APIKey == "" {
		return "", ErrMissingAPIKey
	}
	url := joinURL(req.BaseURL, "/chat/completions")
	return c.postStream(ctx, req, url, buildChatRequest(req), "text/event-stream", NewSSEDecoder(), onFragment)
}
