package inspector

import (
	"context"
	"fmt"

	"page_capture/domain/entities"
	"page_capture/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// Endpoint answers relay requests for one page by running them on the
// page's event loop.
type Endpoint struct {
	inspector *Inspector
	loop      interfaces.EventLoop
	logger    *logrus.Logger
}

// NewEndpoint - creates the request handler for a page's inspector
func NewEndpoint(inspector *Inspector, loop interfaces.EventLoop, logger *logrus.Logger) *Endpoint {
	return &Endpoint{inspector: inspector, loop: loop, logger: logger}
}

// HandleRequest - applies a start, stop or toggle request
func (e *Endpoint) HandleRequest(ctx context.Context, msg entities.Message) (entities.Response, error) {
	var (
		resp  entities.Response
		opErr error
	)
	err := e.loop.Do(ctx, func() {
		switch msg.Action {
		case entities.ActionStartInspector:
			opErr = e.inspector.Start()
			resp.Status = "Inspector started"
		case entities.ActionStopInspector:
			opErr = e.inspector.Stop()
			resp.Status = "Inspector stopped"
		case entities.ActionToggleInspector:
			opErr = e.inspector.Toggle()
			resp.Status = "Inspector toggled"
		default:
			opErr = fmt.Errorf("unsupported action %q", msg.Action)
		}
		resp.Active = e.inspector.State() == Active
	})
	if err != nil {
		return entities.Response{}, fmt.Errorf("page did not answer %s: %w", msg.Action, err)
	}
	if opErr != nil {
		resp.Error = opErr.Error()
		e.logger.WithError(opErr).WithField("action", msg.Action).Warn("inspector request failed")
	}
	return resp, nil
}
