package queue

import "context"

// Sender delivers a message body to a named destination.
type Sender interface {
	SendMessage(ctx context.Context, destination string, body any) error
}
