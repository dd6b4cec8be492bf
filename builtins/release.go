package builtins

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"

	"gofer/output"
	"gofer/task"
)

var commentLineRE = regexp.MustCompile(`(?m)^ *#.*\n?`)

// stripComments removes whole comment lines and surrounding whitespace
// from text collected through an editor.
func stripComments(text string) string {
	return strings.TrimSpace(commentLineRE.ReplaceAllString(text, ""))
}

// Release walks an interactive release: verify the repository state, bump
// versioned files, then commit, tag, and push. The new version number is
// the task's single positional argument, e.g. "gofer release 1.4.0".
//
// Settings: main_branch, remote, release_branch_format (with {version}
// and {major_version} placeholders), bump_paths, and run_tests.
type Release struct{}

func (t *Release) Help() string {
	return "Issue a new release of the project.\n" +
		"Verifies the repository state, bumps versioned files, then commits,\n" +
		"tags, and pushes. Takes the version number to release as its argument."
}

func (t *Release) Handle(c *task.Context) error {
	if len(c.Tail) != 1 {
		return task.Halt("Expected exactly one argument: the version number to release.")
	}

	newVersion, err := semver.NewVersion(strings.TrimPrefix(c.Tail[0], "v"))
	if err != nil {
		return task.Haltf("Invalid version number %q: %v.", c.Tail[0], err)
	}

	currentBranch, err := t.verifyState(c)
	if err != nil {
		return err
	}

	currentVersion, err := t.currentVersion(c)
	if err != nil {
		return err
	}
	if currentVersion != nil && !newVersion.GreaterThan(currentVersion) {
		return task.Haltf("Version %s does not advance the current version %s.", newVersion, currentVersion)
	}

	current := "none"
	if currentVersion != nil {
		current = currentVersion.String()
	}
	prompt := fmt.Sprintf("Confirm moving from %s to %s",
		c.Styler.Apply(output.Label, current),
		c.Styler.Apply(output.Label, newVersion.String()))
	if !c.Confirm(prompt) {
		return nil
	}

	branch, err := t.createBranch(c, currentBranch, newVersion)
	if err != nil {
		return err
	}

	paths := c.Settings.GetList("bump_paths", nil)
	if len(paths) > 0 {
		proceed, err := t.bumpVersion(c, paths, currentVersion, newVersion)
		if err != nil {
			return err
		}
		if !proceed {
			return nil
		}
	} else {
		c.Stdout.Print("Warning: no paths provided for version bumping.", output.Style(output.Warning))
	}

	if err := t.commitAndTag(c, branch, newVersion, paths); err != nil {
		return err
	}
	if err := t.merge(c, branch); err != nil {
		return err
	}

	c.Stdout.Print("\nDone!", output.Style(output.Label))
	return nil
}

// verifyState confirms the working tree is clean and fully pushed, and
// optionally runs the project's test task first. Returns the current
// branch name.
func (t *Release) verifyState(c *task.Context) (string, error) {
	c.Stdout.Print("Verifying state...", output.Style(output.Label))

	check, err := c.Run("git diff-index --quiet HEAD --", true)
	if err != nil {
		return "", err
	}
	if check.Code != 0 {
		return "", task.Halt("Uncommitted changes detected.")
	}

	lookup, err := c.Run("git branch --show-current", true)
	if err != nil {
		return "", err
	}
	branch := strings.TrimSpace(lookup.Stdout)
	if branch == "" {
		return "", task.Halt("Could not determine the current branch.")
	}

	update, err := c.Run("git remote update", true)
	if err != nil {
		return "", err
	}
	if update.Code != 0 {
		c.Stderr.Print(update.Stderr, output.Style(""))
		return "", task.Halt("Could not update remotes.")
	}

	remote := c.Settings.GetString("remote", "origin")
	count, err := c.Run(fmt.Sprintf("git rev-list --count %s/%s..%s", remote, branch, branch), true)
	if err != nil {
		return "", err
	}
	if count.Code != 0 {
		c.Stderr.Print(count.Stderr, output.Style(""))
		return "", task.Halt("Could not complete check for unpushed changes.")
	}
	unpushed, convErr := strconv.Atoi(strings.TrimSpace(count.Stdout))
	if convErr != nil {
		return "", task.Halt("Could not complete check for unpushed changes.")
	}
	if unpushed > 0 {
		return "", task.Halt("Unpushed changes detected.")
	}

	if c.Settings.GetBool("run_tests", false) {
		proxy, err := c.TaskProxy("test")
		if err != nil {
			return "", err
		}
		res, err := proxy.Execute()
		if err != nil {
			return "", err
		}
		if res.Code != 0 {
			return "", task.Halt("Test suite must pass before releasing.")
		}
	}

	c.Stdout.Print("All good")
	return branch, nil
}

// currentVersion reads the latest version tag. A repository with no tags
// yet has no current version, which is not an error.
func (t *Release) currentVersion(c *task.Context) (*semver.Version, error) {
	res, err := c.Run("git describe --tags --abbrev=0", true)
	if err != nil {
		return nil, err
	}
	if res.Code != 0 {
		return nil, nil
	}

	raw := strings.TrimSpace(res.Stdout)
	v, parseErr := semver.NewVersion(strings.TrimPrefix(raw, "v"))
	if parseErr != nil {
		return nil, task.Haltf("Latest tag %q is not a version number.", raw)
	}
	return v, nil
}

func (t *Release) createBranch(c *task.Context, currentBranch string, v *semver.Version) (string, error) {
	format := c.Settings.GetString("release_branch_format", "")
	if format == "" {
		return currentBranch, nil
	}

	name := strings.ReplaceAll(format, "{version}", v.String())
	name = strings.ReplaceAll(name, "{major_version}", fmt.Sprintf("%d.%d", v.Major(), v.Minor()))

	c.Stdout.Print(fmt.Sprintf("\nCurrently on branch: %s", c.Styler.Apply(output.Label, currentBranch)))
	prompt := fmt.Sprintf("Create release branch %s from %s",
		c.Styler.Apply(output.Label, name),
		c.Styler.Apply(output.Label, currentBranch))
	if !c.Confirm(prompt) {
		return currentBranch, nil
	}

	c.Stdout.Print("Creating release branch", output.Style(output.Label))
	res, err := c.Run("git checkout -b "+task.ShellQuote(name), false)
	if err != nil {
		return "", err
	}
	if res.Code != 0 {
		return "", task.Halt("Failed to create release branch.")
	}
	return name, nil
}

// bumpVersion replaces the current version with the next one in each
// configured path, shows the diff, and stages the changes once confirmed.
// Returns false when the operator declines and the changes are reverted.
func (t *Release) bumpVersion(c *task.Context, paths []string, current, next *semver.Version) (bool, error) {
	if current == nil {
		return false, task.Halt("Cannot bump versioned files: no current version tag to replace.")
	}

	c.Stdout.Print("Bumping version", output.Style(output.Label))
	for _, path := range paths {
		full := path
		if !filepath.IsAbs(full) {
			full = filepath.Join(c.Dir, full)
		}

		content, err := os.ReadFile(full)
		if err != nil {
			return false, fmt.Errorf("bump %s: %w", path, err)
		}
		if !strings.Contains(string(content), current.String()) {
			return false, task.Haltf("Could not detect version in %s.", path)
		}

		updated := strings.ReplaceAll(string(content), current.String(), next.String())
		if err := os.WriteFile(full, []byte(updated), 0o644); err != nil {
			return false, fmt.Errorf("bump %s: %w", path, err)
		}
	}

	pathsArg := task.ShellJoin(paths)
	if _, err := c.Run("git --no-pager diff "+pathsArg, false); err != nil {
		return false, err
	}

	c.Stdout.Print("Check if the above diff is correct. If you proceed, these files " +
		"will be staged and you will be prompted to enter a commit message. " +
		"If you do not proceed, the above changes will be reverted.")

	if !c.Confirm("Proceed with committing these changes") {
		_, err := c.Run("git restore "+pathsArg, false)
		return false, err
	}

	if _, err := c.Run("git add "+pathsArg, false); err != nil {
		return false, err
	}
	return true, nil
}

func (t *Release) commitAndTag(c *task.Context, branch string, v *semver.Version, paths []string) error {
	c.Stdout.Print("Committing and tagging version bump", output.Style(output.Label))

	if len(paths) > 0 {
		summary, err := c.Run("git diff --compact-summary --staged --line-prefix=#", true)
		if err != nil {
			return err
		}

		defaultMsg := fmt.Sprintf(
			"# Committing version bump. Enter a commit message below:\nBumped version to %s.\n\n# Summary of changes:\n%s",
			v, summary.Stdout)
		msg, err := c.LongInput(defaultMsg)
		if err != nil {
			return err
		}
		msg = stripComments(msg)
		if msg == "" {
			return task.Halt("Aborting: empty commit message.")
		}
		if _, err := c.Run("git commit -m "+task.ShellQuote(msg), false); err != nil {
			return err
		}
	}

	tag := "v" + v.String()
	tagMsg, err := c.LongInput(fmt.Sprintf("# Tagging new version. Enter a tag message below:\nVersion %s.", v))
	if err != nil {
		return err
	}
	tagMsg = stripComments(tagMsg)
	if tagMsg == "" {
		tagMsg = fmt.Sprintf("Version %s.", v)
	}
	if _, err := c.Run(fmt.Sprintf("git tag -a %s -m %s", task.ShellQuote(tag), task.ShellQuote(tagMsg)), false); err != nil {
		return err
	}

	remote := c.Settings.GetString("remote", "origin")
	res, err := c.Run(fmt.Sprintf("git push %s %s --tags", task.ShellQuote(remote), task.ShellQuote(branch)), false)
	if err != nil {
		return err
	}
	if res.Code != 0 {
		return task.Halt("Failed to push the release.")
	}
	return nil
}

// merge folds the release branch back into the main branch, then returns
// to the release branch. No-op when already on the main branch.
func (t *Release) merge(c *task.Context, branch string) error {
	main := c.Settings.GetString("main_branch", "main")
	if branch == main {
		return nil
	}

	c.Stdout.Print(fmt.Sprintf("Merging version bump back to %s", main), output.Style(output.Label))
	for _, step := range []string{
		"git checkout " + task.ShellQuote(main),
		"git merge --no-ff " + task.ShellQuote(branch),
		"git checkout " + task.ShellQuote(branch),
	} {
		res, err := c.Run(step, false)
		if err != nil {
			return err
		}
		if res.Code != 0 {
			return task.Haltf("Release branch merge failed at %q.", step)
		}
	}
	return nil
}
