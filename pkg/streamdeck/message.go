package streamdeck

// Outbound event names.
const (
	EventSetImage = "setImage"
	EventSetTitle = "setTitle"
)

// Target selects where a setImage or setTitle applies.
type Target int

const (
	// TargetBoth updates the hardware and the software display.
	TargetBoth Target = 0

	// TargetHardware updates only the physical panel.
	TargetHardware Target = 1

	// TargetSoftware updates only the on-screen panel.
	TargetSoftware Target = 2
)

// Registration is the first message sent after the host socket opens.
type Registration struct {
	Event string `json:"event"`
	UUID  string `json:"uuid"`
}

// Message is an outbound event addressed to a button context.
type Message struct {
	Event   string `json:"event"`
	Context string `json:"context"`
	Payload any    `json:"payload"`
}

// ImagePayload is the payload of setImage.
type ImagePayload struct {
	Image  string `json:"image"`
	Target Target `json:"target"`
}

// TitlePayload is the payload of setTitle.
type TitlePayload struct {
	Title  string `json:"title"`
	Target Target `json:"target"`
	State  int    `json:"state"`
}

// SetImage builds a setImage message for the physical panel.
func SetImage(context, image string) Message {
	return Message{
		Event:   EventSetImage,
		Context: context,
		Payload: ImagePayload{Image: image, Target: TargetHardware},
	}
}

// SetTitle builds a setTitle message for both displays, state 0.
func SetTitle(context, title string) Message {
	return Message{
		Event:   EventSetTitle,
		Context: context,
		Payload: TitlePayload{Title: title, Target: TargetBoth},
	}
}
