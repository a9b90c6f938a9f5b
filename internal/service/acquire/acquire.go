// Package acquire downloads a single-channel audio rendition of a remote video.
package acquire

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
)

// Artifact is a downloaded audio file owned by one request.
type Artifact struct {
	Path string
	Size int64
	dir  string
	rm   func(string) error
}

// NewArtifact wraps an audio file whose working directory dir is removed on Cleanup.
func NewArtifact(path string, size int64, dir string) *Artifact {
	return &Artifact{Path: path, Size: size, dir: dir, rm: os.RemoveAll}
}

// Cleanup removes the artifact and its working directory. Safe to call twice.
func (a *Artifact) Cleanup() error {
	if a == nil || a.dir == "" {
		return nil
	}
	if err := a.rm(a.dir); err != nil {
		return err
	}
	a.dir = ""
	return nil
}

// Acquirer fetches audio for a source reference.
type Acquirer interface {
	Acquire(ctx context.Context, sourceURI, videoID string) (*Artifact, error)
}

// CommandError is a failed external command with its captured output.
type CommandError struct {
	Command  string
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

// Error formats the failure for operator logs.
func (e *CommandError) Error() string {
	return fmt.Sprintf("%s exited with code %d: %v", e.Command, e.ExitCode, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// commandResult is an internal process execution response.
type commandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// commandRunner abstracts process execution for testability.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (commandResult, error)
}

// execRunner executes commands via os/exec.
type execRunner struct{}

// Run executes one command and captures stdout/stderr and exit code.
func (r *execRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := commandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}
	return result, nil
}

// Config holds yt-dlp settings.
type Config struct {
	YtDlpPath  string
	FFmpegPath string
	WorkDir    string
}

// YtDlp acquires audio by running yt-dlp with ffmpeg post-processing.
type YtDlp struct {
	cfg       Config
	runner    commandRunner
	mkdirTemp func(dir, pattern string) (string, error)
	removeAll func(path string) error
	stat      func(name string) (os.FileInfo, error)
}

// NewYtDlp constructs the production acquirer with OS dependencies.
func NewYtDlp(cfg Config) *YtDlp {
	if cfg.YtDlpPath == "" {
		cfg.YtDlpPath = "yt-dlp"
	}
	return &YtDlp{
		cfg:       cfg,
		runner:    &execRunner{},
		mkdirTemp: os.MkdirTemp,
		removeAll: os.RemoveAll,
		stat:      os.Stat,
	}
}

// Acquire downloads the audio track into a fresh temporary directory.
// On error nothing is left on disk.
func (y *YtDlp) Acquire(ctx context.Context, sourceURI, videoID string) (*Artifact, error) {
	dir, err := y.mkdirTemp(y.cfg.WorkDir, "acquire-*")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}

	outPath := filepath.Join(dir, fileName(videoID)+".mp3")
	args := buildYtDlpArgs(sourceURI, outPath, y.cfg.FFmpegPath)

	res, runErr := y.runner.Run(ctx, y.cfg.YtDlpPath, args...)
	if runErr != nil {
		_ = y.removeAll(dir)
		return nil, &CommandError{
			Command:  y.cfg.YtDlpPath,
			Args:     args,
			ExitCode: res.ExitCode,
			Stderr:   res.Stderr,
			Err:      runErr,
		}
	}

	info, err := y.stat(outPath)
	if err != nil {
		_ = y.removeAll(dir)
		return nil, fmt.Errorf("yt-dlp completed but audio file is missing: %w", err)
	}

	return &Artifact{
		Path: outPath,
		Size: info.Size(),
		dir:  dir,
		rm:   y.removeAll,
	}, nil
}

// buildYtDlpArgs extracts mono mp3 audio to outPath.
func buildYtDlpArgs(sourceURI, outPath, ffmpegPath string) []string {
	args := []string{
		"--no-playlist",
		"--no-progress",
		"--extract-audio",
		"--audio-format", "mp3",
		"--postprocessor-args", "ffmpeg:-ac 1",
		"--output", outPath,
	}
	if ffmpegPath != "" {
		args = append(args, "--ffmpeg-location", ffmpegPath)
	}
	return append(args, "--", sourceURI)
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// fileName keeps caller-supplied IDs from escaping the work directory.
func fileName(videoID string) string {
	name := strings.Trim(unsafeName.ReplaceAllString(videoID, "_"), "._")
	if name == "" {
		return "audio"
	}
	return name
}
