package output

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type subject struct {
	Name     string `json:"name" yaml:"name"`
	Versions int    `json:"versions" yaml:"versions"`
}

func TestPrinter_Print(t *testing.T) {
	color.NoColor = true
	data := []subject{{Name: "memorial-vectorizing-response-value", Versions: 2}}
	rows := func() [][]string { return [][]string{{"memorial-vectorizing-response-value", "2"}} }

	tests := []struct {
		name   string
		format string
		want   []string
	}{
		{name: "json", format: "json", want: []string{`"name": "memorial-vectorizing-response-value"`, `"versions": 2`}},
		{name: "yaml", format: "YAML", want: []string{"- name: memorial-vectorizing-response-value", "versions: 2"}},
		{name: "table", format: "table", want: []string{"SUBJECT", "VERSIONS", "memorial-vectorizing-response-value"}},
		{name: "unknown falls back to table", format: "xml", want: []string{"SUBJECT"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			err := NewPrinter(tt.format, &buf).Print(data, []string{"Subject", "Versions"}, rows)

			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestPrinter_TableWithoutRowsPrintsJSON(t *testing.T) {
	var buf bytes.Buffer

	err := NewPrinter("table", &buf).Print(map[string]int{"id": 7}, nil, nil)

	require.NoError(t, err)
	assert.JSONEq(t, `{"id": 7}`, buf.String())
}

func TestPrinter_Success(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer

	NewPrinter("table", &buf).Success("registered %s as id %d", "topic-value", 3)

	assert.Equal(t, "✓ registered topic-value as id 3\n", buf.String())
}
