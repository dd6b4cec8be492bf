package builtins

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedConfirmer answers prompts from a fixed script, recording each
// prompt. Once the script runs out, every further answer is no.
type scriptedConfirmer struct {
	answers []bool
	prompts []string
}

func (s *scriptedConfirmer) Confirm(prompt string) bool {
	s.prompts = append(s.prompts, prompt)
	if len(s.answers) == 0 {
		return false
	}
	answer := s.answers[0]
	s.answers = s.answers[1:]
	return answer
}

func alwaysYes(n int) *scriptedConfirmer {
	answers := make([]bool, n)
	for i := range answers {
		answers[i] = true
	}
	return &scriptedConfirmer{answers: answers}
}

// seedEditor accepts whatever content it is seeded with, the equivalent
// of saving the editor buffer unchanged.
type seedEditor struct{}

func (seedEditor) LongInput(initial string) (string, error) { return initial, nil }

func TestStripComments(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "Keep me", "Keep me"},
		{"leading comment", "# Enter a message:\nKeep me\n", "Keep me"},
		{"indented comment", "  # noise\nKeep me", "Keep me"},
		{"interleaved comments", "# a\nfirst\n# b\nsecond\n", "first\nsecond"},
		{"only comments", "# one\n# two\n", ""},
		{"interior blank lines survive", "first\n\nsecond", "first\n\nsecond"},
		{"hash mid-line is content", "see issue #42", "see issue #42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripComments(tt.in))
		})
	}
}

func TestReleaseArgumentValidation(t *testing.T) {
	t.Run("Should demand exactly one version argument", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "gofer.cfg", "[release]\n")

		res, _, stderr, err := runBuiltin(t, dir, "release")
		require.NoError(t, err)
		assert.Equal(t, 1, res.Code)
		assert.Contains(t, stderr, "Expected exactly one argument: the version number to release.")
	})

	t.Run("Should reject a malformed version number", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "gofer.cfg", "[release]\n")

		res, _, stderr, err := runBuiltin(t, dir, "release", "banana")
		require.NoError(t, err)
		assert.Equal(t, 1, res.Code)
		assert.Contains(t, stderr, `Invalid version number "banana"`)
	})
}

// gitSandbox creates a working repository with a local bare origin and
// returns the work tree path plus a helper that runs shell commands in it.
func gitSandbox(t *testing.T) (string, func(string) string) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available on PATH")
	}

	root := t.TempDir()
	work := filepath.Join(root, "work")
	require.NoError(t, os.Mkdir(work, 0o755))

	sh := func(command string) string {
		t.Helper()
		cmd := exec.Command("sh", "-c", command)
		cmd.Dir = work
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "%s\n%s", command, out)
		return string(out)
	}

	init := exec.Command("git", "init", "--bare", "--quiet", "origin.git")
	init.Dir = root
	out, err := init.CombinedOutput()
	require.NoError(t, err, "%s", out)

	sh("git init --quiet -b main")
	sh("git config user.email gofer@example.invalid")
	sh("git config user.name Gofer")
	sh("git config commit.gpgsign false")
	sh("git config tag.gpgSign false")
	sh("git remote add origin ../origin.git")
	return work, sh
}

// seedTaggedRepo commits version.txt and the given settings at version
// 1.0.0 and pushes everything to origin.
func seedTaggedRepo(t *testing.T, work string, sh func(string) string, cfg string) {
	t.Helper()
	writeFile(t, work, "version.txt", "version = 1.0.0\n")
	writeFile(t, work, "gofer.cfg", cfg)
	sh("git add -A")
	sh("git commit --quiet -m 'Initial state'")
	sh("git tag -a v1.0.0 -m 'Version 1.0.0.'")
	sh("git push --quiet -u origin main --tags")
}

func TestReleaseVerifyState(t *testing.T) {
	t.Run("Should halt on uncommitted changes", func(t *testing.T) {
		work, sh := gitSandbox(t)
		seedTaggedRepo(t, work, sh, "[release]\n")
		writeFile(t, work, "version.txt", "version = 1.0.0 but dirty\n")

		res, _, stderr, err := runBuiltinWith(t, work, "release", []string{"1.1.0"}, alwaysYes(5), seedEditor{})
		require.NoError(t, err)
		assert.Equal(t, 1, res.Code)
		assert.Contains(t, stderr, "Uncommitted changes detected.")
	})

	t.Run("Should halt on unpushed changes", func(t *testing.T) {
		work, sh := gitSandbox(t)
		seedTaggedRepo(t, work, sh, "[release]\n")
		sh("git commit --quiet --allow-empty -m 'Local only'")

		res, _, stderr, err := runBuiltinWith(t, work, "release", []string{"1.1.0"}, alwaysYes(5), seedEditor{})
		require.NoError(t, err)
		assert.Equal(t, 1, res.Code)
		assert.Contains(t, stderr, "Unpushed changes detected.")
	})

	t.Run("Should require the test suite to pass when configured", func(t *testing.T) {
		work, sh := gitSandbox(t)
		seedTaggedRepo(t, work, sh, "[release]\nrun_tests = true\n\n[test]\ncommand = false\n")

		res, _, stderr, err := runBuiltinWith(t, work, "release", []string{"1.1.0"}, alwaysYes(5), seedEditor{})
		require.NoError(t, err)
		assert.Equal(t, 1, res.Code)
		assert.Contains(t, stderr, "Tests failed.")
		assert.Contains(t, stderr, "Test suite must pass before releasing.")
	})
}

func TestReleaseVersionChecks(t *testing.T) {
	t.Run("Should refuse a version that does not advance", func(t *testing.T) {
		work, sh := gitSandbox(t)
		seedTaggedRepo(t, work, sh, "[release]\n")

		res, _, stderr, err := runBuiltinWith(t, work, "release", []string{"0.9.0"}, alwaysYes(5), seedEditor{})
		require.NoError(t, err)
		assert.Equal(t, 1, res.Code)
		assert.Contains(t, stderr, "Version 0.9.0 does not advance the current version 1.0.0.")
	})

	t.Run("Should stop silently when the operator declines", func(t *testing.T) {
		work, sh := gitSandbox(t)
		seedTaggedRepo(t, work, sh, "[release]\nbump_paths = version.txt\n")

		confirmer := &scriptedConfirmer{answers: []bool{false}}
		res, stdout, _, err := runBuiltinWith(t, work, "release", []string{"1.1.0"}, confirmer, seedEditor{})
		require.NoError(t, err)
		assert.Equal(t, 0, res.Code)
		assert.NotContains(t, stdout, "Done!")
		require.Len(t, confirmer.prompts, 1)
		assert.Equal(t, "Confirm moving from 1.0.0 to 1.1.0", confirmer.prompts[0])

		content, readErr := os.ReadFile(filepath.Join(work, "version.txt"))
		require.NoError(t, readErr)
		assert.Equal(t, "version = 1.0.0\n", string(content))
	})

	t.Run("Should revert bumped files when the diff is declined", func(t *testing.T) {
		work, sh := gitSandbox(t)
		seedTaggedRepo(t, work, sh, "[release]\nbump_paths = version.txt\n")

		confirmer := &scriptedConfirmer{answers: []bool{true, false}}
		res, stdout, _, err := runBuiltinWith(t, work, "release", []string{"1.1.0"}, confirmer, seedEditor{})
		require.NoError(t, err)
		assert.Equal(t, 0, res.Code)
		assert.NotContains(t, stdout, "Done!")

		content, readErr := os.ReadFile(filepath.Join(work, "version.txt"))
		require.NoError(t, readErr)
		assert.Equal(t, "version = 1.0.0\n", string(content), "declining reverts the bump")
		assert.Empty(t, sh("git tag -l v1.1.0"))
	})

	t.Run("Should halt when a bump path does not carry the current version", func(t *testing.T) {
		work, sh := gitSandbox(t)
		seedTaggedRepo(t, work, sh, "[release]\nbump_paths = notes.txt\n")
		writeFile(t, work, "notes.txt", "no version here\n")
		sh("git add -A && git commit --quiet -m 'Add notes' && git push --quiet origin main")

		res, _, stderr, err := runBuiltinWith(t, work, "release", []string{"1.1.0"}, alwaysYes(5), seedEditor{})
		require.NoError(t, err)
		assert.Equal(t, 1, res.Code)
		assert.Contains(t, stderr, "Could not detect version in notes.txt.")
	})
}

func TestReleaseHappyPath(t *testing.T) {
	work, sh := gitSandbox(t)
	seedTaggedRepo(t, work, sh, "[release]\nbump_paths = version.txt\n")

	res, stdout, stderr, err := runBuiltinWith(t, work, "release", []string{"1.1.0"}, alwaysYes(5), seedEditor{})
	require.NoError(t, err)
	require.Equal(t, 0, res.Code, "stdout:\n%s\nstderr:\n%s", stdout, stderr)
	assert.Contains(t, stdout, "Verifying state...")
	assert.Contains(t, stdout, "All good")
	assert.Contains(t, stdout, "Done!")

	content, readErr := os.ReadFile(filepath.Join(work, "version.txt"))
	require.NoError(t, readErr)
	assert.Equal(t, "version = 1.1.0\n", string(content))

	assert.Contains(t, sh("git tag -l"), "v1.1.0")
	assert.Contains(t, sh("git log -1 --format=%s"), "Bumped version to 1.1.0.")
	assert.Contains(t, sh("git ls-remote --tags origin"), "v1.1.0", "tag was pushed")
}

func TestReleaseOnDedicatedBranch(t *testing.T) {
	work, sh := gitSandbox(t)
	seedTaggedRepo(t, work, sh, "[release]\nbump_paths = version.txt\nrelease_branch_format = release-{version}\n")
	t.Setenv("GIT_MERGE_AUTOEDIT", "no")

	res, stdout, stderr, err := runBuiltinWith(t, work, "release", []string{"1.1.0"}, alwaysYes(5), seedEditor{})
	require.NoError(t, err)
	require.Equal(t, 0, res.Code, "stdout:\n%s\nstderr:\n%s", stdout, stderr)
	assert.Contains(t, stdout, "Creating release branch")
	assert.Contains(t, stdout, "Merging version bump back to main")

	assert.Equal(t, "release-1.1.0\n", sh("git branch --show-current"), "finishes back on the release branch")
	assert.Contains(t, sh("git log main --format=%s"), "Bumped version to 1.1.0.", "bump was merged to main")
	assert.Contains(t, sh("git ls-remote --heads origin"), "release-1.1.0")
}
