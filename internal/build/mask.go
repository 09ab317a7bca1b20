package build

import "regexp"

// credentialPattern matches the two credential forms clone.go embeds in
// a rewritten git URL, so any captured output or error string can be
// scrubbed before it's logged or relayed to the control plane.
var credentialPattern = regexp.MustCompile(`(x-access-token|oauth2):[^@]+@`)

// maskTokens replaces embedded git credentials with a masked form.
// Token strings must never appear in a transmitted log line.
func maskTokens(s string) string {
	return credentialPattern.ReplaceAllString(s, "$1:***@")
}
