package platform

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/conn-castle/m/internal/messages"
)

// parseOSRelease reads os-release(5) content into a key/value map.
// Unquoted, single-quoted, and double-quoted values are accepted.
func parseOSRelease(content string) (map[string]string, error) {
	fields := make(map[string]string)
	scanner := bufio.NewScanner(strings.NewReader(content))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		key, value, ok, err := parseLine(scanner.Text())
		if err != nil {
			return nil, fmt.Errorf(messages.PlatformLineErrorFmt, lineNo, err)
		}
		if ok {
			fields[key] = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return fields, nil
}

// parseLine returns the key/value on line, or ok=false for blanks and comments.
func parseLine(line string) (string, string, bool, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", "", false, nil
	}
	idx := strings.Index(trimmed, "=")
	if idx <= 0 {
		return "", "", false, fmt.Errorf(messages.PlatformExpectedKeyValue)
	}
	key := strings.TrimSpace(trimmed[:idx])
	value := strings.TrimSpace(trimmed[idx+1:])
	if len(value) > 0 && (value[0] == '"' || value[0] == '\'') {
		quote := value[0]
		end := strings.LastIndexByte(value, quote)
		if end == 0 {
			return "", "", false, fmt.Errorf(messages.PlatformUnterminatedQuote)
		}
		value = value[1:end]
		if quote == '"' {
			value = strings.NewReplacer(`\"`, `"`, `\\`, `\`, `\$`, `$`, "\\`", "`").Replace(value)
		}
	}
	return key, value, true, nil
}
