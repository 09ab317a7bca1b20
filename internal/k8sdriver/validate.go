package k8sdriver

import (
	"regexp"

	"github.com/deploypilot/node-agent/internal/agenterrors"
)

// namePattern is the RFC-1123-ish subset spec §7 requires every
// namespace/appName to satisfy before it is interpolated into any shell
// invocation.
var namePattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9\-.]*[a-z0-9])?$`)

// ValidateName rejects a namespace or app name that doesn't match the
// pattern, classified InputValidation so dispatch can fail fast before
// any shell call is attempted.
func ValidateName(field, value string) error {
	if !namePattern.MatchString(value) {
		return agenterrors.Classify(agenterrors.InputValidation, agenterrors.ValidationError(field, "must match "+namePattern.String()))
	}
	return nil
}
