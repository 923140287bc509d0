package command

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// MalformedCommandError reports a message that carries no usable token.
type MalformedCommandError struct {
	Message string
	Reason  string
}

func (e *MalformedCommandError) Error() string {
	return fmt.Sprintf("malformed command %q: %s", e.Message, e.Reason)
}

// ParseToken extracts the command token from a wire message. Messages are
// colon-separated and the token is the second-to-last field, so clients send
// "<prefix>:<token>:" (for example "L:walk0:").
func ParseToken(msg string) (string, error) {
	trimmed := strings.TrimSpace(msg)
	fields := strings.Split(trimmed, ":")
	if len(fields) < 2 {
		return "", &MalformedCommandError{Message: msg, Reason: "expected at least two colon-separated fields"}
	}
	token := strings.TrimSpace(fields[len(fields)-2])
	if token == "" {
		return "", &MalformedCommandError{Message: msg, Reason: "empty token"}
	}
	return token, nil
}

// MaxMessageSize bounds one line on a stream transport.
const MaxMessageSize = 4096

// NewMessageScanner frames a byte stream into messages, one per non-empty
// line. A line split across reads is returned whole; an unterminated final
// line is returned at EOF.
func NewMessageScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 256), MaxMessageSize)
	sc.Split(scanMessages)
	return sc
}

func scanMessages(data []byte, atEOF bool) (int, []byte, error) {
	advance, line, err := bufio.ScanLines(data, atEOF)
	if err == nil && line != nil && len(bytes.TrimSpace(line)) == 0 {
		return advance, nil, nil
	}
	return advance, line, err
}
