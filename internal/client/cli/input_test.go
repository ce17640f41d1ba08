package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSimpleText(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("hello world\n"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
	assert.Equal(t, "Name?\n> ", out.String())
}

func TestGetSimpleTextEOF(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("lastline"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "", &out)
	require.NoError(t, err)
	assert.Equal(t, "lastline", got)
	assert.Empty(t, out.String())
}

func TestGetSimpleText_Empty(t *testing.T) {
	_, err := GetSimpleText(bufio.NewReader(strings.NewReader("")), "", &bytes.Buffer{})
	require.Error(t, err)
}

func TestGetSecret(t *testing.T) {
	old := readPassword
	defer func() { readPassword = old }()

	readPassword = func(int) ([]byte, error) { return []byte(" tok \n"), nil }
	var out bytes.Buffer
	got, err := GetSecret(&out, "Token: ")
	require.NoError(t, err)
	assert.Equal(t, "tok", got)
	assert.Equal(t, "Token: \n", out.String())

	readPassword = func(int) ([]byte, error) { return nil, errors.New("boom") }
	_, err = GetSecret(&out, "Token: ")
	require.Error(t, err)
}

func TestParseAssignments(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		want    [][2]string
		wantErr bool
	}{
		{"simple", []string{"file=a.png"}, [][2]string{{"file", "a.png"}}, false},
		{"repeated keys kept in order", []string{"files=a.pdf", "files=b.pdf"}, [][2]string{{"files", "a.pdf"}, {"files", "b.pdf"}}, false},
		{"value with equals", []string{"q=a=b"}, [][2]string{{"q", "a=b"}}, false},
		{"empty value", []string{"note="}, [][2]string{{"note", ""}}, false},
		{"missing equals", []string{"file"}, nil, true},
		{"empty key", []string{"=x"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAssignments("file", tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
