package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type report struct {
	Target string `json:"target" yaml:"target" toml:"target"`
	State  string `json:"state" yaml:"state" toml:"state"`
}

func (r report) String() string {
	return r.Target + ": " + r.State
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"toml", FormatTOML, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriterFormats(t *testing.T) {
	r := report{Target: "my-plugin", State: "injected"}

	tests := []struct {
		format Format
		want   string
	}{
		{FormatText, "my-plugin: injected\n"},
		{FormatJSON, "{\n  \"target\": \"my-plugin\",\n  \"state\": \"injected\"\n}\n"},
		{FormatYAML, "target: my-plugin\nstate: injected\n"},
		{FormatTOML, "target = 'my-plugin'\nstate = 'injected'\n"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			w := NewWriter(&buf, tt.format)
			require.NoError(t, w.Write(r))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestWriterIsText(t *testing.T) {
	assert.True(t, NewWriter(nil, FormatText).IsText())
	assert.True(t, NewWriter(nil, "").IsText())
	assert.False(t, NewWriter(nil, FormatJSON).IsText())
}
