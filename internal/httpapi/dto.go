package httpapi

import (
	"encoding/json"

	"github.com/tinoosan/chrono/internal/dataset"
)

// messageResponse is the banner payload of the base and heartbeat routes.
type messageResponse struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}

type participantsResponse struct {
	Course         string           `json:"course"`
	NbParticipants int              `json:"nb_participants"`
	Participants   []dataset.Record `json:"participants"`
}

// postParticipantRequest is accepted as-is; raw is never inspected.
type postParticipantRequest struct {
	Raw json.RawMessage `json:"raw"`
}
