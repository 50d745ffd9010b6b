package flac

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

// Converter turns WAV files written by the converter into FLAC using ffmpeg
type Converter struct {
	ffmpegPath string
	debug      bool
	keepWAV    bool
}

// NewConverter locates ffmpeg and returns a FLAC converter. With keepWAV the
// source WAV files are left in place.
func NewConverter(debug, keepWAV bool) (*Converter, error) {
	ffmpegPath, err := findFFmpeg()
	if err != nil {
		return nil, err
	}
	return &Converter{
		ffmpegPath: ffmpegPath,
		debug:      debug,
		keepWAV:    keepWAV,
	}, nil
}

// commonPaths lists install locations checked when ffmpeg is not on PATH.
func commonPaths(goos string) []string {
	switch goos {
	case "windows":
		return []string{
			`C:\Program Files\ffmpeg\bin\ffmpeg.exe`,
			`C:\Program Files (x86)\ffmpeg\bin\ffmpeg.exe`,
		}
	case "darwin":
		return []string{
			"/usr/local/bin/ffmpeg",
			"/opt/homebrew/bin/ffmpeg",
			"/opt/local/bin/ffmpeg",
		}
	}
	return []string{
		"/usr/bin/ffmpeg",
		"/usr/local/bin/ffmpeg",
		"/opt/ffmpeg/bin/ffmpeg",
	}
}

func findFFmpeg() (string, error) {
	if path, err := exec.LookPath("ffmpeg"); err == nil {
		return path, nil
	}
	for _, path := range commonPaths(runtime.GOOS) {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("ffmpeg not found. Please install ffmpeg to use the FLAC conversion feature")
}

// flacName returns the FLAC path for a WAV path.
func flacName(wavFile string) string {
	ext := filepath.Ext(wavFile)
	if strings.EqualFold(ext, ".wav") {
		return strings.TrimSuffix(wavFile, ext) + ".flac"
	}
	return wavFile + ".flac"
}

// ConvertToFlac converts a WAV file to FLAC format and returns the FLAC path
func (c *Converter) ConvertToFlac(wavFile string) (string, error) {
	if _, err := os.Stat(wavFile); err != nil {
		return "", fmt.Errorf("input file: %w", err)
	}

	flacFile := flacName(wavFile)
	cmd := exec.Command(
		c.ffmpegPath,
		"-i", wavFile,
		"-c:a", "flac",
		"-compression_level", "8",
		"-y",
		flacFile,
	)
	if c.debug {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		logrus.Debugf("Running: %s", cmd.String())
	}

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("error converting to FLAC: %w", err)
	}

	if !c.keepWAV {
		if err := os.Remove(wavFile); err != nil {
			return flacFile, fmt.Errorf("error removing original WAV file: %w", err)
		}
	}
	return flacFile, nil
}

// ConvertFiles converts each listed WAV file, logging and skipping failures.
// It returns the number of files converted.
func (c *Converter) ConvertFiles(wavFiles []string) int {
	converted := 0
	for _, wavFile := range wavFiles {
		if _, err := c.ConvertToFlac(wavFile); err != nil {
			logrus.Errorf("Error converting %s: %v", wavFile, err)
			continue
		}
		converted++
	}
	return converted
}

// ConvertDirectory converts all WAV files in a directory tree to FLAC,
// skipping the errors/ folders written by the converter.
func (c *Converter) ConvertDirectory(dir string) (int, error) {
	var wavFiles []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "errors" && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".wav") {
			wavFiles = append(wavFiles, path)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("error finding WAV files: %w", err)
	}
	return c.ConvertFiles(wavFiles), nil
}
