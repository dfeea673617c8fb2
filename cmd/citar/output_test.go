package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/citation-service/internal/domain"
)

func TestReadDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "borrador.txt")
	require.NoError(t, os.WriteFile(path, []byte("desde archivo"), 0o600))

	tests := []struct {
		name    string
		stdin   string
		args    []string
		file    string
		want    string
		wantErr bool
	}{
		{name: "argument", args: []string{"desde argumento"}, file: path, want: "desde argumento"},
		{name: "file", file: path, want: "desde archivo"},
		{name: "stdin", stdin: "desde stdin\n", want: "desde stdin\n"},
		{name: "empty stdin", stdin: "  \n", wantErr: true},
		{name: "missing file", file: filepath.Join(t.TempDir(), "nope.txt"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readDocument(strings.NewReader(tt.stdin), tt.args, tt.file)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteTopic(t *testing.T) {
	res := &domain.TopicResult{
		Topic:    "asma infantil",
		Analysis: domain.Analysis{Domain: "respiratorio", Terms: []string{"asma infantil"}},
		References: []domain.ReferenceEntry{
			{Number: 1, Citation: "Pérez, M. (2022). Asma en niños. *Pediatría*."},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, writeTopic(&buf, res))
	assert.Contains(t, buf.String(), "Área: respiratorio")
	assert.Contains(t, buf.String(), "1. Pérez, M. (2022). Asma en niños. *Pediatría*.")

	buf.Reset()
	require.NoError(t, writeTopicJSON(&buf, res))
	var out topicOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, []string{"Pérez, M. (2022). Asma en niños. *Pediatría*."}, out.References)
}

func TestWriteTopic_NoReferences(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeTopicJSON(&buf, &domain.TopicResult{Topic: "x"}))
	assert.Contains(t, buf.String(), `"citas": []`)
	assert.Contains(t, buf.String(), `"terminos": []`)
}

func TestWriteCitation(t *testing.T) {
	t.Run("with references", func(t *testing.T) {
		res := &domain.TextCitationResult{
			CitedText:      "Texto (Smith, 2023).",
			References:     []domain.ReferenceEntry{{Number: 1, Citation: "Smith, J. A. (2023)."}},
			ReferenceBlock: "Referencias\n1. Smith, J. A. (2023).",
		}
		var buf bytes.Buffer
		require.NoError(t, writeCitation(&buf, res))
		assert.Equal(t, "Texto (Smith, 2023).\n\nReferencias\n1. Smith, J. A. (2023).\n", buf.String())
	})

	t.Run("with message", func(t *testing.T) {
		res := &domain.TextCitationResult{CitedText: "Texto.", Message: "sin artículos"}
		var buf bytes.Buffer
		require.NoError(t, writeCitation(&buf, res))
		assert.Equal(t, "Texto.\n\nsin artículos\n", buf.String())

		buf.Reset()
		require.NoError(t, writeCitationJSON(&buf, res))
		var out citationOutput
		require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
		assert.Equal(t, "sin artículos", out.Message)
		assert.Empty(t, out.References)
	})
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "citar dev\n", buf.String())
}
