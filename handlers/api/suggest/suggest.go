// Package suggest is the AI collaborator boundary: a free-text prompt goes
// out, a caption suggestion (and optionally an image reference) comes back.
// The upstream model is a black box; only the parsed suggestion crosses into
// the editor.
package suggest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"memecanvas/handlers/api/apiutil"
)

var (
	openaiAPIKey  string
	openaiBaseURL string
	openaiModel   string
)

// Init reads the AI collaborator configuration from the environment. Without
// an API key the endpoint answers 503.
func Init() {
	openaiAPIKey = os.Getenv("OPENAI_API_KEY")
	openaiBaseURL = os.Getenv("OPENAI_BASE_URL")
	if openaiBaseURL == "" {
		openaiBaseURL = "https://api.openai.com" // Default value
	}
	openaiModel = os.Getenv("OPENAI_MODEL")
	if openaiModel == "" {
		openaiModel = "gpt-4o-mini"
	}
	if openaiAPIKey == "" {
		logrus.Warn("OPENAI_API_KEY environment variable not set. Caption suggestions will not work.")
	}
}

type (
	// SuggestionRequest is the editor-facing input.
	SuggestionRequest struct {
		Prompt   string `json:"prompt"`
		Category string `json:"category,omitempty"`
	}

	// Suggestion is what the editor consumes: it feeds ImageRef into
	// addImage and the caption fields into addText.
	Suggestion struct {
		ImageRef   string `json:"imageRef,omitempty"`
		TopText    string `json:"topText,omitempty"`
		BottomText string `json:"bottomText,omitempty"`
	}

	chatMessage struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}

	chatCompletionRequest struct {
		Model    string        `json:"model"`
		Messages []chatMessage `json:"messages"`
	}

	chatCompletionResponse struct {
		Choices []struct {
			Message chatMessage `json:"message"`
		} `json:"choices"`
	}
)

const systemPrompt = `You write meme captions. Answer with a single JSON object:
{"topText": "...", "bottomText": "...", "imageRef": ""}
topText and bottomText are short, punchy, ALL CAPS captions. Leave imageRef empty unless the user supplied an image URL to caption.`

// HandleSuggest proxies the prompt to the chat completion API and returns
// the parsed suggestion.
func HandleSuggest() http.HandlerFunc {
	client := &http.Client{Timeout: 2 * time.Minute}

	return func(w http.ResponseWriter, r *http.Request) {
		if openaiAPIKey == "" {
			apiutil.ErrorMessage(w, r, http.StatusServiceUnavailable, "Caption suggestions are not configured on the server")
			return
		}

		var req SuggestionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apiutil.ErrorMessage(w, r, http.StatusBadRequest, "Invalid request body")
			return
		}
		if strings.TrimSpace(req.Prompt) == "" {
			apiutil.ErrorMessage(w, r, http.StatusBadRequest, "Prompt is required")
			return
		}

		userPrompt := req.Prompt
		if req.Category != "" {
			userPrompt = fmt.Sprintf("[%s] %s", req.Category, req.Prompt)
		}
		payload, err := json.Marshal(chatCompletionRequest{
			Model: openaiModel,
			Messages: []chatMessage{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: userPrompt},
			},
		})
		if err != nil {
			apiutil.ErrorMessage(w, r, http.StatusInternalServerError, "Failed to build upstream request")
			return
		}

		proxyReq, err := http.NewRequestWithContext(r.Context(), http.MethodPost, openaiBaseURL+"/v1/chat/completions", bytes.NewReader(payload))
		if err != nil {
			apiutil.ErrorMessage(w, r, http.StatusInternalServerError, "Failed to build upstream request")
			return
		}
		proxyReq.Header.Set("Authorization", "Bearer "+openaiAPIKey)
		proxyReq.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(proxyReq)
		if err != nil {
			logrus.WithField("error", err).Warn("Suggestion upstream call failed")
			apiutil.ErrorMessage(w, r, http.StatusBadGateway, "Failed to reach suggestion service")
			return
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil || resp.StatusCode != http.StatusOK {
			logrus.WithFields(logrus.Fields{"status": resp.StatusCode, "error": err}).Warn("Suggestion upstream returned an error")
			apiutil.ErrorMessage(w, r, http.StatusBadGateway, "Suggestion service returned an error")
			return
		}

		var completion chatCompletionResponse
		if err := json.Unmarshal(body, &completion); err != nil || len(completion.Choices) == 0 {
			apiutil.ErrorMessage(w, r, http.StatusBadGateway, "Suggestion service returned an unexpected payload")
			return
		}

		render.JSON(w, r, parseSuggestion(completion.Choices[0].Message.Content))
	}
}

// parseSuggestion extracts the JSON object the system prompt asks for. A
// model that answers in prose instead degrades to top/bottom lines.
func parseSuggestion(content string) Suggestion {
	var s Suggestion
	start := strings.IndexByte(content, '{')
	end := strings.LastIndexByte(content, '}')
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(content[start:end+1]), &s); err == nil {
			return s
		}
	}

	lines := []string{}
	for _, l := range strings.Split(content, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) > 0 {
		s.TopText = lines[0]
	}
	if len(lines) > 1 {
		s.BottomText = lines[1]
	}
	return s
}
