package models

// Message is one entry of the widget transcript. It is created when the user submits non-empty input, or
// when a reply or error arrives for a turn, and is never modified afterwards.
type Message struct {
	Sender Sender
	Text   string
}

// Sender identifies which side of the conversation produced a transcript Message.
type Sender string

const (
	// SenderUser marks a message typed by the visitor.
	SenderUser Sender = "user"
	// SenderBot marks a reply, or the fixed error text that stands in for one.
	SenderBot Sender = "bot"
)

// UserMessage returns a transcript message sent by the visitor.
func UserMessage(text string) Message {
	return Message{Sender: SenderUser, Text: text}
}

// BotMessage returns a transcript message produced by the chat service.
func BotMessage(text string) Message {
	return Message{Sender: SenderBot, Text: text}
}
