package merge3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// ExternalService shells out to a diff3-compatible executable for text
// merges (the `diff3Command` option lets a caller substitute GNU diff3 or a
// vendor equivalent for DefaultService's built-in line merge), and delegates
// property merging to a fallback Service since diff3 only ever reconciles
// text.
type ExternalService struct {
	command  string
	fallback Service
}

// NewExternalService constructs an ExternalService invoking command with the
// conventional diff3 argument order (mine, older, yours), falling back to
// fallback for MergeProps.
func NewExternalService(command string, fallback Service) *ExternalService {
	return &ExternalService{command: command, fallback: fallback}
}

func (s *ExternalService) MergeText(in TextInput, style ConflictStyle, out io.Writer) (TextResult, error) {
	local, err := writeTemp("wcedit-diff3-mine-", in.Local)
	if err != nil {
		return TextResult{}, err
	}
	defer os.Remove(local)

	base, err := writeTemp("wcedit-diff3-older-", in.Base)
	if err != nil {
		return TextResult{}, err
	}
	defer os.Remove(base)

	latest, err := writeTemp("wcedit-diff3-yours-", in.Latest)
	if err != nil {
		return TextResult{}, err
	}
	defer os.Remove(latest)

	args := []string{"-m"}
	if style == ConflictStyleMarkersWithOriginal {
		args = append(args, "-A")
	} else {
		args = append(args, "-E")
	}
	args = append(args, "-L", defaultLabel(in.LocalLabel, "MINE"))
	args = append(args, "-L", defaultLabel(in.BaseLabel, "ORIGINAL"))
	args = append(args, "-L", defaultLabel(in.LatestLabel, "THEIRS"))
	args = append(args, local, base, latest)

	cmd := exec.CommandContext(context.Background(), s.command, args...)
	cmd.Stdout = out
	var stderr strings.Builder
	cmd.Stderr = &stderr

	result := TextResult{}
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			// diff3 -m exits 1 when conflicts were found but still
			// writes the merged (conflict-marked) output.
			result.Conflicted = true
			return result, nil
		}
		return result, fmt.Errorf("merge3: run %s: %w: %s", s.command, err, stderr.String())
	}

	return result, nil
}

func (s *ExternalService) MergeProps(base, local, latest map[string]string, conflict PropConflictFunc) (map[string]string, []string, error) {
	return s.fallback.MergeProps(base, local, latest, conflict)
}

func writeTemp(prefix string, r io.Reader) (string, error) {
	f, err := os.CreateTemp("", prefix)
	if err != nil {
		return "", fmt.Errorf("merge3: stage external-diff3 input: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("merge3: write external-diff3 input: %w", err)
	}
	return f.Name(), nil
}
