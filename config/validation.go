package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult holds the result of config validation.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// Validate checks the config for invalid values.
func (c *Config) Validate() ValidationResult {
	var errors []ValidationError

	errors = append(errors, validateMonitor(&c.Monitor)...)
	errors = append(errors, validatePush(&c.Push)...)
	errors = append(errors, validateDashboard(&c.Dashboard)...)
	errors = append(errors, validateTerminal(&c.Terminal)...)
	errors = append(errors, validateStatusServer(&c.StatusServer)...)

	return ValidationResult{
		Valid:  len(errors) == 0,
		Errors: errors,
	}
}

// Err returns a *ConfigValidationError when the result is invalid, nil otherwise.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return &ConfigValidationError{Errors: r.Errors}
}

func validateMonitor(m *MonitorConfig) []ValidationError {
	var errors []ValidationError

	u, err := url.Parse(m.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		errors = append(errors, ValidationError{
			Field:   "monitor.base_url",
			Message: fmt.Sprintf("must be an absolute http(s) URL, got %q", m.BaseURL),
		})
	}

	if m.RequestTimeout < 0 {
		errors = append(errors, ValidationError{
			Field:   "monitor.request_timeout",
			Message: "must be non-negative",
		})
	}

	return errors
}

func validatePush(p *PushConfig) []ValidationError {
	var errors []ValidationError

	if !strings.HasPrefix(p.Path, "/") {
		errors = append(errors, ValidationError{
			Field:   "push.path",
			Message: "must start with /",
		})
	}

	if p.HandshakeTimeout < 1*time.Second {
		errors = append(errors, ValidationError{
			Field:   "push.handshake_timeout",
			Message: "must be at least 1 second",
		})
	}

	if p.ReconnectDelay < 10*time.Millisecond {
		errors = append(errors, ValidationError{
			Field:   "push.reconnect_delay",
			Message: "must be at least 10 milliseconds",
		})
	}

	if p.MaxReconnectDelay < p.ReconnectDelay {
		errors = append(errors, ValidationError{
			Field:   "push.max_reconnect_delay",
			Message: "must not be less than reconnect_delay",
		})
	}

	return errors
}

func validateDashboard(d *DashboardConfig) []ValidationError {
	var errors []ValidationError

	if d.TickInterval < 100*time.Millisecond {
		errors = append(errors, ValidationError{
			Field:   "dashboard.tick_interval",
			Message: "must be at least 100 milliseconds",
		})
	}

	if d.ErrorBannerTTL <= 0 {
		errors = append(errors, ValidationError{
			Field:   "dashboard.error_banner_ttl",
			Message: "must be positive",
		})
	}

	if d.SuccessBannerTTL <= 0 {
		errors = append(errors, ValidationError{
			Field:   "dashboard.success_banner_ttl",
			Message: "must be positive",
		})
	}

	if strings.TrimSpace(d.TimeLayout) == "" {
		errors = append(errors, ValidationError{
			Field:   "dashboard.time_layout",
			Message: "must not be empty",
		})
	}

	if strings.TrimSpace(d.DateLayout) == "" {
		errors = append(errors, ValidationError{
			Field:   "dashboard.date_layout",
			Message: "must not be empty",
		})
	}

	tz := strings.TrimSpace(d.Timezone)
	if tz != "" && !strings.EqualFold(tz, "local") {
		if _, err := time.LoadLocation(tz); err != nil {
			errors = append(errors, ValidationError{
				Field:   "dashboard.timezone",
				Message: fmt.Sprintf("unknown timezone %q", tz),
			})
		}
	}

	return errors
}

func validateTerminal(t *TerminalConfig) []ValidationError {
	var errors []ValidationError

	if !t.Enabled {
		return nil
	}

	if t.Width < 40 {
		errors = append(errors, ValidationError{
			Field:   "terminal.width",
			Message: "must be at least 40",
		})
	}

	if t.Refresh < 10*time.Millisecond {
		errors = append(errors, ValidationError{
			Field:   "terminal.refresh",
			Message: "must be at least 10 milliseconds",
		})
	}

	return errors
}

func validateStatusServer(s *StatusServerConfig) []ValidationError {
	var errors []ValidationError

	if s.Port < 1 || s.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "status_server.port",
			Message: fmt.Sprintf("must be between 1 and 65535, got %d", s.Port),
		})
	}

	return errors
}

// ConfigValidationError is returned when config validation fails.
type ConfigValidationError struct {
	Errors []ValidationError
}

func (e *ConfigValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "config validation failed"
	}
	return "config validation failed: " + e.Errors[0].Field + ": " + e.Errors[0].Message
}
