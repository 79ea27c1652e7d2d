package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/meganame/megacheck/internal/core"
)

// resolveNames gathers candidate names from positional arguments, a names
// file and stdin, in that order. Validation is left to the checker so that
// invalid entries still get a result row.
func resolveNames(positional []string, namesFile string, fromStdin bool, stdin io.Reader) ([]string, error) {
	names := make([]string, 0, len(positional))
	for _, raw := range positional {
		names = append(names, core.SplitNames(raw)...)
	}

	if trimmed := strings.TrimSpace(namesFile); trimmed != "" {
		fileNames, err := readNamesFile(trimmed, stdin)
		if err != nil {
			return nil, err
		}
		names = append(names, fileNames...)
	}

	if fromStdin && namesFile != "-" {
		stdinNames, err := readNames(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		names = append(names, stdinNames...)
	}

	if len(names) == 0 {
		return nil, fmt.Errorf("at least one name is required")
	}
	return names, nil
}

func readNamesFile(path string, stdin io.Reader) ([]string, error) {
	if path == "-" {
		return readNames(stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close() // nolint:errcheck

	names, err := readNames(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return names, nil
}

// readNames reads one or more names per line. Blank lines and lines starting
// with # are skipped.
func readNames(reader io.Reader) ([]string, error) {
	names := make([]string, 0)
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		names = append(names, core.SplitNames(raw)...)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return names, nil
}
