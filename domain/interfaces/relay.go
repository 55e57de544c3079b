package interfaces

import (
	"context"

	"page_capture/domain/entities"
)

// Emitter sends fire-and-forget messages from the page side
type Emitter interface {
	Send(msg entities.Message) error
}

// Relay is the panel's view of the message broker
type Relay interface {
	// Request delivers msg to the foreground page and waits for its response
	Request(ctx context.Context, msg entities.Message) (entities.Response, error)

	// Subscribe returns a stream of messages broadcast to the panel and a cancel func
	Subscribe() (<-chan entities.Message, func())
}
