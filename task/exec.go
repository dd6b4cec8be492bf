package task

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sort"
	"strings"
)

// runShell executes command via "sh -c" with the given working directory,
// environment, and stream wiring, blocking until the child exits.
//
// A non-zero exit status is returned as the code with a nil error; only a
// failure to run the shell at all is an error.
func runShell(dir, command string, env []string, stdin io.Reader, stdout, stderr io.Writer) (int, error) {
	cmd := exec.Command("sh", "-c", command)
	cmd.Dir = dir
	cmd.Env = env
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return 0, fmt.Errorf("run %q: %w", command, err)
	}
	return 0, nil
}

// buildEnv layers overlay variables onto an inherited environment.
// Inherited variables win: the overlay only fills gaps, so a project
// .env cannot silently shadow the caller's environment.
func buildEnv(base []string, overlay map[string]string) []string {
	if len(overlay) == 0 {
		return base
	}

	seen := make(map[string]bool, len(base))
	for _, kv := range base {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			seen[kv[:i]] = true
		}
	}

	keys := make([]string, 0, len(overlay))
	for key := range overlay {
		if !seen[key] {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	env := make([]string, len(base), len(base)+len(keys))
	copy(env, base)
	for _, key := range keys {
		env = append(env, key+"="+overlay[key])
	}
	return env
}

// ShellQuote wraps s in single quotes when needed so it survives sh
// interpolation as a single word.
func ShellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n\"'\\$`&|;<>()*?[]#~%!{}^") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// ShellJoin renders args as a single sh-safe command-line fragment,
// quoting each argument individually.
func ShellJoin(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = ShellQuote(a)
	}
	return strings.Join(quoted, " ")
}
