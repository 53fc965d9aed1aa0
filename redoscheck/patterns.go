package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// literalFlags are the flags a /source/flags literal may carry.
const literalFlags = "dgimsuvy"

// readPatterns reads one pattern per line. Blank lines and lines starting with # are skipped.
func readPatterns(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return patterns, nil
}

// isLiteral reports whether s looks like /source/flags.
func isLiteral(s string) bool {
	if !strings.HasPrefix(s, "/") {
		return false
	}
	end := strings.LastIndexByte(s, '/')
	if end == 0 {
		return false
	}
	for _, c := range s[end+1:] {
		if !strings.ContainsRune(literalFlags, c) {
			return false
		}
	}
	return true
}
