package models

// Error messages written onto rejected notification requests
const (
	ErrMsgMissingFields = "Missing required fields"
	ErrMsgUserNotFound  = "User not found"
	ErrMsgNoTokens      = "No FCM tokens"
)

// DeliveryCounts summarizes a completed fan-out
type DeliveryCounts struct {
	SuccessCount         int `json:"successCount"`
	TotalTokens          int `json:"totalTokens"`
	InvalidTokensRemoved int `json:"invalidTokensRemoved"`
}

// DeliveryStatus is the single write the dispatcher makes onto a notification request.
// Stores translate it into a partial update and fill the timestamps server side.
type DeliveryStatus struct {
	Sent bool
	// Counts is set only when Sent is true.
	Counts *DeliveryCounts
	Error  string
	// StampError adds a server-assigned errorAt next to Error.
	StampError bool
}

// StatusDelivered marks the request as sent, including partial success
func StatusDelivered(counts DeliveryCounts) DeliveryStatus {
	return DeliveryStatus{Sent: true, Counts: &counts}
}

// StatusRejected records a validation or lookup failure
func StatusRejected(reason string) DeliveryStatus {
	return DeliveryStatus{Error: reason}
}

// StatusFailed records an unexpected failure with a server timestamp
func StatusFailed(reason string) DeliveryStatus {
	return DeliveryStatus{Error: reason, StampError: true}
}

// DeliveryOutcome is the result of one send to one device. It is never persisted.
type DeliveryOutcome struct {
	Token        string
	Success      bool
	MessageID    string
	Err          error
	InvalidToken bool
}

// DispatchResult is what a dispatch invocation reports back to its caller
type DispatchResult struct {
	NotificationID string `json:"notificationId"`
	Success        bool   `json:"success"`
	SentCount      int    `json:"sentCount"`
	TotalTokens    int    `json:"totalTokens"`
	Skipped        bool   `json:"skipped,omitempty"`
	Error          string `json:"error,omitempty"`
}
