package models

// Chat message types accepted from clients. A "prompt" is mapped to the
// user role before relay; anything else is treated as assistant output
// being replayed as conversation history.
const (
	MessageTypePrompt   = "prompt"
	MessageTypeResponse = "response"
)

// ChatMessage is one element of the client-supplied conversation history.
type ChatMessage struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// ChatRequest is the POST /api/v1/chat payload.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
}
