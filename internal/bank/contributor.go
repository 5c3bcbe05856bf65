package bank

import (
	"os"
	"strings"

	"github.com/go-git/go-git/v5/config"
)

// contributorEnv are checked in order for a contributor name.
var contributorEnv = []string{"GIT_AUTHOR_NAME", "USER", "USERNAME"}

// Seams for tests.
var (
	getenv   = os.Getenv
	hostname = os.Hostname
	gitUser  = func() string {
		cfg, err := config.LoadConfig(config.GlobalScope)
		if err != nil {
			return ""
		}
		return cfg.User.Name
	}
)

// ResolveContributor names whoever is making changes. Priority: override →
// GIT_AUTHOR_NAME, USER, USERNAME → git global user.name →
// "user-<hostname>" → "unknown-user".
func ResolveContributor(override string) string {
	if v := strings.TrimSpace(override); v != "" {
		return v
	}
	for _, key := range contributorEnv {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
	}
	if v := strings.TrimSpace(gitUser()); v != "" {
		return v
	}
	if h, err := hostname(); err == nil && h != "" {
		return "user-" + h
	}
	return "unknown-user"
}
