package bootstrap

import (
	"github.com/core-tools/hsu-bootstrap/pkg/errors"
)

// ValidateStepID validates step ID format and constraints
func ValidateStepID(id string) error {
	if id == "" {
		return errors.NewValidationError("step ID cannot be empty", nil)
	}

	if len(id) > 64 {
		return errors.NewValidationError("step ID cannot exceed 64 characters", nil)
	}

	for _, char := range id {
		if !isValidIDChar(char) {
			return errors.NewValidationError("step ID contains invalid characters: only letters, numbers, hyphens, and underscores are allowed", nil).WithContext("step_id", id)
		}
	}

	return nil
}

func isValidIDChar(char rune) bool {
	return (char >= 'a' && char <= 'z') ||
		(char >= 'A' && char <= 'Z') ||
		(char >= '0' && char <= '9') ||
		char == '-' || char == '_'
}
