package request

// RegisterRequest represents the request body for creating an account.
type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	PushoverKey string `json:"pushoverKey,omitempty"`
}

// LoginRequest represents the request body for starting a session.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UpdateSettingsRequest represents the request body for updating account settings.
// All fields are optional (use pointers). Only provided fields will be updated.
type UpdateSettingsRequest struct {
	PushoverKey *string `json:"pushoverKey,omitempty"`
	NotifyFreq  *string `json:"notifyFreq,omitempty"`
}
