package command

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseToken(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"L:walk0:", "walk0"},
		{"L:walk0:\n", "walk0"},
		{"client:7:standby:", "standby"},
		{"standby:", "standby"},
		{"x:jump:y", "jump"},
		{" :twist: ", "twist"},
		{"L:Standby:", "Standby"},
	}

	for _, tt := range tests {
		got, err := ParseToken(tt.msg)
		if assert.NoError(t, err, tt.msg) {
			assert.Equal(t, tt.want, got, tt.msg)
		}
	}
}

func TestParseToken_Malformed(t *testing.T) {
	for _, msg := range []string{"", "walk0", "\n", "L::", ":"} {
		_, err := ParseToken(msg)

		var malformed *MalformedCommandError
		if assert.True(t, errors.As(err, &malformed), "%q", msg) {
			assert.Equal(t, msg, malformed.Message)
		}
	}
}

func TestMessageScanner(t *testing.T) {
	tests := []struct {
		stream string
		want   []string
	}{
		{"L:walk0:", []string{"L:walk0:"}},
		{"L:walk0:\nL:standby:\n", []string{"L:walk0:", "L:standby:"}},
		{"L:walk0:\r\n\r\n  \nL:twist:", []string{"L:walk0:", "L:twist:"}},
		{"\n\n", nil},
	}

	for _, tt := range tests {
		sc := NewMessageScanner(strings.NewReader(tt.stream))
		var got []string
		for sc.Scan() {
			got = append(got, sc.Text())
		}
		assert.NoError(t, sc.Err(), "%q", tt.stream)
		assert.Equal(t, tt.want, got, "%q", tt.stream)
	}
}

func TestMessageScanner_JoinsSplitReads(t *testing.T) {
	pr, pw := io.Pipe()
	go func() {
		pw.Write([]byte("L:wa"))
		pw.Write([]byte("lk0:\nL:st"))
		pw.Write([]byte("andby:"))
		pw.Close()
	}()

	sc := NewMessageScanner(pr)
	var got []string
	for sc.Scan() {
		got = append(got, sc.Text())
	}
	assert.NoError(t, sc.Err())
	assert.Equal(t, []string{"L:walk0:", "L:standby:"}, got)
}

func TestMessageScanner_TooLong(t *testing.T) {
	sc := NewMessageScanner(strings.NewReader(strings.Repeat("x", MaxMessageSize+1) + "\n"))
	assert.False(t, sc.Scan())
	assert.ErrorIs(t, sc.Err(), bufio.ErrTooLong)
}
