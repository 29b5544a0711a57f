package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/minicloud/internal/models"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		line string
		want models.Command
		err  error
	}{
		{
			name: "list",
			line: "LIST",
			want: models.Command{Verb: models.VerbList},
		},
		{
			name: "quit",
			line: "QUIT",
			want: models.Command{Verb: models.VerbQuit},
		},
		{
			name: "upload",
			line: "UPLOAD notes.txt 1024",
			want: models.Command{Verb: models.VerbUpload, Name: "notes.txt", Size: 1024},
		},
		{
			name: "upload zero size",
			line: "UPLOAD empty.bin 0",
			want: models.Command{Verb: models.VerbUpload, Name: "empty.bin", Size: 0},
		},
		{
			name: "download",
			line: "DOWNLOAD notes.txt",
			want: models.Command{Verb: models.VerbDownload, Name: "notes.txt"},
		},
		{
			name: "rename",
			line: "RENAME a.txt b.txt",
			want: models.Command{Verb: models.VerbRename, Name: "a.txt", NewName: "b.txt"},
		},
		{
			name: "delete",
			line: "DELETE a.txt",
			want: models.Command{Verb: models.VerbDelete, Name: "a.txt"},
		},
		{
			name: "extra whitespace tolerated",
			line: "  UPLOAD   a.txt   7  ",
			want: models.Command{Verb: models.VerbUpload, Name: "a.txt", Size: 7},
		},
		{
			name: "unknown verb",
			line: "FROBNICATE a.txt",
			err:  models.ErrUnknownCommand,
		},
		{
			name: "lowercase verb is unknown",
			line: "list",
			err:  models.ErrUnknownCommand,
		},
		{
			name: "list with argument",
			line: "LIST everything",
			err:  models.ErrUnknownCommand,
		},
		{
			name: "upload missing size",
			line: "UPLOAD a.txt",
			err:  models.ErrUnknownCommand,
		},
		{
			name: "upload non-integer size",
			line: "UPLOAD a.txt lots",
			err:  models.ErrUnknownCommand,
		},
		{
			name: "upload negative size",
			line: "UPLOAD a.txt -5",
			err:  models.ErrInvalidSize,
		},
		{
			name: "rename missing destination",
			line: "RENAME a.txt",
			err:  models.ErrUnknownCommand,
		},
		{
			name: "delete extra argument",
			line: "DELETE a.txt b.txt",
			err:  models.ErrUnknownCommand,
		},
		{
			name: "blank",
			line: "   ",
			err:  models.ErrUnknownCommand,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := models.ParseCommand(tt.line)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cmd)
		})
	}
}
