package usecase

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/flyerkit/backend/internal/domain"
)

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// validateThemeColor accepts an empty color (meaning "use the default") or #rrggbb
func validateThemeColor(color string) error {
	if color == "" || hexColorPattern.MatchString(color) {
		return nil
	}
	return fmt.Errorf("%w: theme color must look like #0f4c18, got %q", domain.ErrInvalidRequest, color)
}

func requireText(value, field string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("%w: %s is required", domain.ErrInvalidRequest, field)
	}
	return trimmed, nil
}
