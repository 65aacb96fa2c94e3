package jobqueue

import (
	"encoding/json"
	"time"
)

// JobType defines the type of job
type JobType string

const (
	JobTypePurchaseConfirmation JobType = "purchase_confirmation"
	JobTypeRefundReview         JobType = "refund_review"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// Job represents a background job
type Job struct {
	ID          string                 `json:"id"`
	Type        JobType                `json:"type"`
	Status      JobStatus              `json:"status"`
	Payload     map[string]interface{} `json:"payload"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	ProcessedAt *time.Time             `json:"processed_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
	RetryCount  int                    `json:"retry_count"`
	MaxRetries  int                    `json:"max_retries"`
}

// PurchaseConfirmationPayload is the receipt email sent after fulfillment.
type PurchaseConfirmationPayload struct {
	Kind        string `json:"kind"` // ticket or membership
	Reference   string `json:"reference"`
	UserID      uint   `json:"user_id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	MatchTitle  string `json:"match_title,omitempty"`
	Quantity    int    `json:"quantity,omitempty"`
	Category    string `json:"category,omitempty"`
	PlanID      string `json:"plan_id,omitempty"`
	AmountCents int64  `json:"amount_cents,omitempty"`
}

// ToMap converts the payload to a map for storage
func (p PurchaseConfirmationPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"kind":         p.Kind,
		"reference":    p.Reference,
		"user_id":      p.UserID,
		"email":        p.Email,
		"name":         p.Name,
		"match_title":  p.MatchTitle,
		"quantity":     p.Quantity,
		"category":     p.Category,
		"plan_id":      p.PlanID,
		"amount_cents": p.AmountCents,
	}
}

// PurchaseConfirmationPayloadFromMap creates a payload from a map
func PurchaseConfirmationPayloadFromMap(data map[string]interface{}) (*PurchaseConfirmationPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload PurchaseConfirmationPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// RefundReviewPayload asks the club office to refund a purchase that could
// not be honored.
type RefundReviewPayload struct {
	RefundRequestID   uint   `json:"refund_request_id"`
	CheckoutSessionID string `json:"checkout_session_id"`
	MatchID           uint   `json:"match_id"`
	MatchTitle        string `json:"match_title"`
	UserID            uint   `json:"user_id"`
	Email             string `json:"email"`
	Quantity          int    `json:"quantity"`
	Reason            string `json:"reason"`
}

// ToMap converts the payload to a map for storage
func (p RefundReviewPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"refund_request_id":   p.RefundRequestID,
		"checkout_session_id": p.CheckoutSessionID,
		"match_id":            p.MatchID,
		"match_title":         p.MatchTitle,
		"user_id":             p.UserID,
		"email":               p.Email,
		"quantity":            p.Quantity,
		"reason":              p.Reason,
	}
}

func RefundReviewPayloadFromMap(data map[string]interface{}) (*RefundReviewPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var payload RefundReviewPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// IsRetryable checks if the job can be retried
func (j *Job) IsRetryable() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// MarkAsProcessing updates the job status to processing
func (j *Job) MarkAsProcessing() {
	now := time.Now()
	j.Status = JobStatusProcessing
	j.UpdatedAt = now
	j.ProcessedAt = &now
}

// MarkAsCompleted updates the job status to completed
func (j *Job) MarkAsCompleted() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.UpdatedAt = now
	j.CompletedAt = &now
	j.ErrorMsg = ""
}

// MarkAsFailed updates the job status to failed
func (j *Job) MarkAsFailed(errorMsg string) {
	j.Status = JobStatusFailed
	j.UpdatedAt = time.Now()
	j.ErrorMsg = errorMsg
	j.RetryCount++
}

// MarkAsRetrying updates the job status to retrying
func (j *Job) MarkAsRetrying() {
	j.Status = JobStatusRetrying
	j.UpdatedAt = time.Now()
}
