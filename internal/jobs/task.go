package jobs

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// TypeRateVideo is the asynq task type for a single rating job.
const TypeRateVideo = "captionsync:rate"

// Payload describes one rating job.
type Payload struct {
	JobID string `json:"jobId"`
	// VideoPath is rated with the full pipeline unless ObservationsPath is set.
	VideoPath string `json:"videoPath"`
	// ObservationsPath, when set, rates a replay file without external engines.
	ObservationsPath string `json:"observationsPath,omitempty"`
	// SaveObservations writes the extracted observations beside the report.
	SaveObservations bool `json:"saveObservations,omitempty"`
}

// Input returns the path the job rates.
func (p Payload) Input() string {
	if p.ObservationsPath != "" {
		return p.ObservationsPath
	}
	return p.VideoPath
}

// NewRateTask builds the task for payload, assigning a job ID when missing.
func NewRateTask(payload Payload) (*asynq.Task, Payload, error) {
	payload.VideoPath = strings.TrimSpace(payload.VideoPath)
	payload.ObservationsPath = strings.TrimSpace(payload.ObservationsPath)
	if payload.Input() == "" {
		return nil, payload, fmt.Errorf("rate task requires a video or observations path")
	}
	if payload.JobID == "" {
		payload.JobID = uuid.NewString()
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, payload, fmt.Errorf("marshal payload: %w", err)
	}
	return asynq.NewTask(TypeRateVideo, data), payload, nil
}

// ParsePayload decodes a rate task payload.
func ParsePayload(task *asynq.Task) (Payload, error) {
	var payload Payload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return Payload{}, fmt.Errorf("decode %s payload: %w", task.Type(), err)
	}
	if payload.Input() == "" {
		return Payload{}, fmt.Errorf("%s payload has no input path", task.Type())
	}
	return payload, nil
}
