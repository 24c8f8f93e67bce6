package ocppj

import (
	nanoid "github.com/matoous/go-nanoid"

	"github.com/joomcode/errorx"
)

// NewMessageID generates a unique OCPP-J message id for a Call that the
// caller has not assigned one itself, the same nanoid scheme the teacher
// uses for its own transmission ids.
func NewMessageID() (string, error) {
	id, err := nanoid.Nanoid()
	if err != nil {
		return "", errorx.Decorate(err, "failed to generate message id")
	}
	return id, nil
}
