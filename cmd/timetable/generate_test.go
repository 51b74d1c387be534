package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/pkg/config"
)

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	err := writeTable(&buf, []models.TimetableEntry{
		{Day: "Monday", TimeSlot: "09:00-10:00", ClassName: "10A", SubjectName: "Math", TeacherName: "Alice", RoomName: "R1"},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "DAY"))
	assert.Equal(t, []string{"Monday", "09:00-10:00", "10A", "Math", "Alice", "R1"}, strings.Fields(lines[1]))
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}
	for _, name := range []string{"serve", "generate", "worker", "token", "migrate"} {
		assert.True(t, names[name], name)
	}
}

func TestCSVOptionsFromConfig(t *testing.T) {
	cases := map[string]rune{"": 0, ",": 0, ";": ';', "tab": '\t', `\t`: '\t', "|x": '|'}
	for delimiter, want := range cases {
		opts := csvOptions(config.ExportConfig{CSVDelimiter: delimiter, CSVByteOrderMark: true})
		assert.Equal(t, want, opts.Comma, delimiter)
		assert.True(t, opts.ByteOrderMark)
	}
}
