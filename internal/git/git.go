package git

import (
	"fmt"
	"os/exec"
	"strings"
)

// GitStatus describes how the vault files relate to a dotfiles repository
// rooted at (or above) the home directory.
type GitStatus struct {
	IsRepo           bool
	Encrypted        string
	EncryptedTracked bool
	TrackedPlain     []string // Plaintext paths committed to git (bad)
	IgnoredPlain     []string // Plaintext paths excluded by .gitignore (good)
	UnignoredPlain   []string // Plaintext paths git would pick up (warning)
}

// IsGitRepo checks if the working directory is inside a git repository
func IsGitRepo(workDir string) bool {
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = workDir
	return cmd.Run() == nil
}

// IsTracked checks if a path (file or directory) has tracked content
func IsTracked(workDir, path string) bool {
	cmd := exec.Command("git", "ls-files", "--", path)
	cmd.Dir = workDir
	output, err := cmd.Output()
	if err != nil {
		return false
	}
	return len(strings.TrimSpace(string(output))) > 0
}

// IsIgnored checks if a path is ignored by git (handles all .gitignore files)
func IsIgnored(workDir, path string) bool {
	cmd := exec.Command("git", "check-ignore", "-q", "--", path)
	cmd.Dir = workDir
	// exit code 0 means ignored
	return cmd.Run() == nil
}

// CheckGitIntegration inspects the plaintext vault paths and the encrypted
// archive relative to workDir.
func CheckGitIntegration(workDir string, plaintext []string, encrypted string) (*GitStatus, error) {
	status := &GitStatus{Encrypted: encrypted}

	if _, err := exec.LookPath("git"); err != nil {
		return status, nil
	}
	if !IsGitRepo(workDir) {
		return status, nil
	}
	status.IsRepo = true
	status.EncryptedTracked = IsTracked(workDir, encrypted)

	for _, p := range plaintext {
		if IsTracked(workDir, p) {
			status.TrackedPlain = append(status.TrackedPlain, p)
		}
		if IsIgnored(workDir, p) {
			status.IgnoredPlain = append(status.IgnoredPlain, p)
		} else {
			status.UnignoredPlain = append(status.UnignoredPlain, p)
		}
	}

	return status, nil
}

// FormatGitStatus formats git status for display
func FormatGitStatus(status *GitStatus) string {
	if status == nil || !status.IsRepo {
		return ""
	}

	var result strings.Builder
	result.WriteString("\nGit Integration:\n")

	if status.EncryptedTracked {
		result.WriteString(fmt.Sprintf("   ok: %s is tracked by git\n", status.Encrypted))
	} else {
		result.WriteString(fmt.Sprintf("   info: %s not tracked (run: git add %s)\n", status.Encrypted, status.Encrypted))
	}

	if len(status.TrackedPlain) > 0 {
		result.WriteString(fmt.Sprintf("   error: %d plaintext path(s) tracked by git:\n", len(status.TrackedPlain)))
		for _, p := range status.TrackedPlain {
			result.WriteString(fmt.Sprintf("      - %s (run: git rm -r --cached %s)\n", p, p))
		}
	} else {
		result.WriteString("   ok: no plaintext vault files tracked by git\n")
	}

	tracked := make(map[string]bool, len(status.TrackedPlain))
	for _, p := range status.TrackedPlain {
		tracked[p] = true
	}
	for _, p := range status.UnignoredPlain {
		if !tracked[p] {
			result.WriteString(fmt.Sprintf("   warning: %s not in .gitignore\n", p))
		}
	}
	if len(status.UnignoredPlain) == 0 && len(status.IgnoredPlain) > 0 {
		result.WriteString(fmt.Sprintf("   ok: %d plaintext path(s) in .gitignore\n", len(status.IgnoredPlain)))
	}

	return result.String()
}
