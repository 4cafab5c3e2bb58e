package sources

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"
)

// Credential is one credential directory entry.
type Credential struct {
	Hash   string
	Module string
}

// ParseCredentials reads `id:hash:module` lines. Blank lines are skipped; a
// repeated id keeps its last entry. Any malformed line fails the parse.
func ParseCredentials(text []byte) (map[string]Credential, error) {
	out := make(map[string]Credential)
	scanner := bufio.NewScanner(bytes.NewReader(text))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Split(line, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("credentials: %w", &ParseError{Line: lineNo, Value: line, Reason: "expected id:hash:module"})
		}
		id := strings.TrimSpace(parts[0])
		hash := strings.TrimSpace(parts[1])
		if id == "" || hash == "" {
			return nil, fmt.Errorf("credentials: %w", &ParseError{Line: lineNo, Value: line, Reason: "empty id or hash"})
		}
		out[id] = Credential{Hash: hash, Module: strings.TrimSpace(parts[2])}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("credentials: scan: %w", err)
	}
	return out, nil
}

func LoadCredentialsFile(path string) (map[string]Credential, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials %s: %w", path, err)
	}
	creds, err := ParseCredentials(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return creds, nil
}
