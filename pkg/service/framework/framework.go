package framework

type (
	Type        string
	StatusState string
)

const (
	// List of all service

	Issuance Type = "issuance"

	StatusReady    StatusState = "ready"
	StatusNotReady StatusState = "not_ready"
)

// Status is for service reporting on their status
type Status struct {
	Status  StatusState `json:"status,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Service is an interface each service must comply with to be orchestrated by the CLI.
type Service interface {
	Type() Type
	Status() Status
}

// NotReady builds a not ready Status with the given message.
func NotReady(msg string) Status {
	return Status{Status: StatusNotReady, Message: msg}
}
