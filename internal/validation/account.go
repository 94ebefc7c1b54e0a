package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ndewijer/stock-tracker/internal/api/request"
	"github.com/ndewijer/stock-tracker/internal/model"
)

const minPasswordLength = 8

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,32}$`)

// ValidateRegister validates an account creation request.
func ValidateRegister(req request.RegisterRequest) error {
	errors := make(map[string]string)

	if !usernamePattern.MatchString(req.Username) {
		errors["username"] = "username must be 3-32 letters, digits, '.', '_' or '-'"
	}

	if len(req.Password) < minPasswordLength {
		errors["password"] = fmt.Sprintf("password must be at least %d characters", minPasswordLength)
	}

	return result(errors)
}

// ValidateLogin validates a login request.
func ValidateLogin(req request.LoginRequest) error {
	errors := make(map[string]string)

	if strings.TrimSpace(req.Username) == "" {
		errors["username"] = "username is required"
	}
	if req.Password == "" {
		errors["password"] = "password is required"
	}

	return result(errors)
}

// ValidateUpdateSettings validates a settings update. At least one field must be set.
func ValidateUpdateSettings(req request.UpdateSettingsRequest) error {
	errors := make(map[string]string)

	if req.PushoverKey == nil && req.NotifyFreq == nil {
		errors["request"] = "at least one field must be provided"
	}

	if req.NotifyFreq != nil && !model.ValidNotifyFrequency[model.NotifyFrequency(*req.NotifyFreq)] {
		errors["notifyFreq"] = fmt.Sprintf("invalid notification frequency: %s", *req.NotifyFreq)
	}

	return result(errors)
}
