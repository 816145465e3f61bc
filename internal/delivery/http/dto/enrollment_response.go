package dto

import (
	"time"

	"github.com/google/uuid"
)

type EnrollmentResponse struct {
	ID              uuid.UUID  `json:"id"`
	SeekerID        uuid.UUID  `json:"seeker_id"`
	TaskID          uuid.UUID  `json:"task_id"`
	Status          string     `json:"status"`
	InitiatedBy     uuid.UUID  `json:"initiated_by"`
	Message         *string    `json:"message"`
	ResponseMessage *string    `json:"response_message"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	ApprovedAt      *time.Time `json:"approved_at"`
}

type EnrollmentDetailResponse struct {
	EnrollmentResponse
	SeekerName  string `json:"seeker_name"`
	SeekerEmail string `json:"seeker_email"`
	TaskName    string `json:"task_name"`
}

type EnrollmentStatusResponse struct {
	Enrolled bool   `json:"enrolled"`
	Status   string `json:"status,omitempty"`
}
