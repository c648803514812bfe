package domain

// RenderedMessage is the subject/body/reply-to triple handed to the dispatcher.
type RenderedMessage struct {
	Subject string
	HTML    string
	ReplyTo string // empty when the contact is not email-shaped
}

// Message is a RenderedMessage addressed with the static sender and recipients.
type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
	ReplyTo string
}
