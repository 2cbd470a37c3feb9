package events

// Topic constants for changes broadcast across views of a session.
const (
	TopicPincodeChanged = "pincode.changed"
)
