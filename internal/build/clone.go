package build

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/deploypilot/node-agent/internal/agenterrors"
	"github.com/deploypilot/node-agent/internal/shellrunner"
)

const cloneTimeout = 2 * time.Minute

// cloneURL rewrites repoURL to carry gitToken as basic-auth credentials.
// github.com gets the x-access-token convention; every other host gets
// oauth2, matching how GitLab and Bitbucket personal-access tokens are
// conventionally passed. When repoURL doesn't parse as a URL, fall back
// to a single substitution that only works for the github.com case.
func cloneURL(repoURL, gitToken string) string {
	if gitToken == "" {
		return repoURL
	}
	u, err := url.Parse(repoURL)
	if err != nil || u.Host == "" {
		return strings.Replace(repoURL, "https://github.com/", fmt.Sprintf("https://x-access-token:%s@github.com/", gitToken), 1)
	}
	user := "oauth2"
	if u.Host == "github.com" {
		user = "x-access-token"
	}
	u.User = url.UserPassword(user, gitToken)
	return u.String()
}

// clone shallow, single-branch clones spec into dir. All captured output
// and any error string are masked before being returned, so a caller
// that logs or relays them never leaks the embedded token.
func clone(ctx context.Context, shell *shellrunner.Runner, spec Spec, dir string) shellrunner.Result {
	authedURL := cloneURL(spec.GitRepoURL, spec.GitToken)
	args := []string{"clone", "--depth", "1", "--single-branch"}
	if spec.GitBranch != "" {
		args = append(args, "--branch", spec.GitBranch)
	}
	args = append(args, authedURL, dir)

	res := shell.Run(ctx, "git", args, cloneTimeout)
	res.Stdout = maskTokens(res.Stdout)
	res.Stderr = maskTokens(res.Stderr)
	res.Error = maskTokens(res.Error)
	if !res.Success {
		res.Error = agenterrors.Classify(agenterrors.ExternalToolFailure, agenterrors.FailedToWithDetails("clone repository", "build", spec.AppName, errors.New(res.Error))).Error()
	}
	return res
}
