package models

// GenerateRequest asks for a new batch of post versions.
type GenerateRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

// GenerateResponse carries one complete batch.
type GenerateResponse struct {
	Versions []Candidate `json:"versions"`
}

// SelectRequest picks one candidate from the current batch.
type SelectRequest struct {
	Index int `json:"index"`
}

// ConnectRequest submits a platform access token (manual-token path or the
// token obtained by a client-side SDK handshake).
type ConnectRequest struct {
	AccessToken string `json:"access_token" binding:"required"`
}

// ScheduleRequest schedules the selected candidate. Date is required,
// time defaults when unspecified.
type ScheduleRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// ScheduledPostView is a ScheduledPost plus derived display fields.
type ScheduledPostView struct {
	ScheduledPost
	Overdue   bool   `json:"overdue"`
	TimeUntil string `json:"time_until"`
}
