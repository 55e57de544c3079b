package entities

// MessageAction represents the kind of a relay message
type MessageAction string

const (
	ActionStartInspector  MessageAction = "startInspector"
	ActionStopInspector   MessageAction = "stopInspector"
	ActionToggleInspector MessageAction = "toggleInspector"
	ActionElementSelected MessageAction = "elementSelected"
)

// Message represents one message exchanged between the panel, the broker and the page
type Message struct {
	ID      string           `json:"id,omitempty"`
	Action  MessageAction    `json:"action"`
	Element *CapturedElement `json:"element,omitempty"`
	PageURL string           `json:"pageUrl,omitempty"`
}

// Response represents the answer to a request message
type Response struct {
	Status string `json:"status"`
	Active bool   `json:"active"`
	Error  string `json:"error,omitempty"`
}
