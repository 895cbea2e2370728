package models

// Sender identifies who authored a chat message
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Citation is a grounding attribution returned alongside a bot answer
type Citation struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// ChatMessage is one entry of a conversation transcript
type ChatMessage struct {
	Text      string     `json:"text"`
	Sender    Sender     `json:"sender"`
	IsTyping  bool       `json:"isTyping,omitempty"`
	Citations []Citation `json:"citations,omitempty"`
}

// ChatRequest is the body of POST /api/v1/chat
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// ChatReply is the answer produced for a single chat turn
type ChatReply struct {
	Text      string     `json:"text"`
	Citations []Citation `json:"citations"`
}
