package calendar

import "github.com/google/uuid"

// Conference create requests must carry a client-generated id that is
// unique per attempt, or the API silently reuses the prior result.
func newRequestID() string {
	return "booking-" + uuid.NewString()
}
