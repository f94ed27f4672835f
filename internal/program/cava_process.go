package program

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/lightshow/internal/config"
)

// cavaConfigTemplate makes cava print ascii frames on stdout.
const cavaConfigTemplate = `[general]
bars = %d
framerate = %d

[output]
method = raw
raw_target = /dev/stdout
data_format = ascii
ascii_max_range = %d
bar_delimiter = 59
frame_delimiter = 10
`

// ProcessAnalyzer runs the cava binary as the audio analyser.
type ProcessAnalyzer struct {
	// Binary is the cava executable name or path.
	Binary string
	// Bars is the number of bars requested.
	Bars int
	// Framerate is the number of frames per second requested.
	Framerate int
}

// NewProcessAnalyzer builds an analyser from configuration.
func NewProcessAnalyzer(cfg config.CavaConfig, ups int) *ProcessAnalyzer {
	return &ProcessAnalyzer{
		Binary:    cfg.Binary,
		Bars:      cfg.Bars,
		Framerate: ups,
	}
}

// processStream is cava's stdout; closing it waits for the process and
// removes its config file.
type processStream struct {
	io.ReadCloser

	// cmd is the running cava process.
	cmd *exec.Cmd
	// configPath is the temporary config file.
	configPath string
}

// Close waits for the killed process and removes the config file. Reads
// must have finished, since Wait closes stdout.
func (s *processStream) Close() error {
	waitErr := s.cmd.Wait()
	removeErr := os.Remove(s.configPath)

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		waitErr = nil
	}

	return errors.Join(waitErr, removeErr)
}

// Start reaps stale cava processes, writes a config file and launches cava.
// Cancelling ctx kills the process.
func (a *ProcessAnalyzer) Start(ctx context.Context) (io.ReadCloser, error) {
	binary, err := exec.LookPath(a.Binary)
	if err != nil {
		return nil, fmt.Errorf("find cava: %w", err)
	}

	if err = terminateProcessByName(filepath.Base(binary)); err != nil {
		return nil, fmt.Errorf("terminate stale cava: %w", err)
	}

	configFile, err := os.CreateTemp("", "lightshow-cava-*.conf")
	if err != nil {
		return nil, fmt.Errorf("create cava config: %w", err)
	}

	configPath := configFile.Name()

	_, err = fmt.Fprintf(configFile, cavaConfigTemplate, a.Bars, a.Framerate, MaxLevel)
	if closeErr := configFile.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(configPath)

		return nil, fmt.Errorf("write cava config: %w", err)
	}

	cmd := exec.CommandContext(ctx, binary, "-p", configPath)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		_ = os.Remove(configPath)

		return nil, fmt.Errorf("pipe cava output: %w", err)
	}

	if err = cmd.Start(); err != nil {
		_ = os.Remove(configPath)

		return nil, fmt.Errorf("start cava: %w", err)
	}

	return &processStream{ReadCloser: stdout, cmd: cmd, configPath: configPath}, nil
}

// terminateProcessByName kills other processes with the given executable name.
func terminateProcessByName(processName string) error {
	processList, err := ps.Processes()
	if err != nil {
		return err
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID || process.Executable() != processName {
			continue
		}

		runningProcess, err := os.FindProcess(process.Pid())
		if err != nil {
			return err
		}

		if err = runningProcess.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			return err
		}
	}

	return nil
}
