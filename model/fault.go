package model

import "errors"

// Fault is the body written by the legacy catalog endpoint when any step of
// the retrieve pipeline fails. The transaction still completes with the
// platform default status; callers detect failure by the body shape alone.
type Fault struct {
	Message string `json:"message"`
	Name    string `json:"name"`
}

// Namer lets errors carry a fault name ("AuthError", "RetrieveError", ...).
type Namer interface {
	FaultName() string
}

// NewFault converts any error into the serializable fault payload.
func NewFault(err error) Fault {
	name := "Error"
	var namer Namer
	if errors.As(err, &namer) {
		name = namer.FaultName()
	}
	return Fault{
		Message: err.Error(),
		Name:    name,
	}
}
