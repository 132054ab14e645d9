package bot

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadFileID(t *testing.T) {
	var handlerCalled bool
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/foo.jpeg" {
			t.Errorf("invalid request to test server: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		handlerCalled = true
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("123"))
	}))
	defer ts.Close()

	getFileDirectURL := func(fileID string) (string, error) {
		return fmt.Sprintf("%s/%s.jpeg", ts.URL, fileID), nil
	}

	data, err := downloadFileID(getFileDirectURL, "foo")
	require.NoError(t, err)
	assert.Equal(t, []byte("123"), data)
	assert.True(t, handlerCalled)
}

func TestDownloadFileID_Errors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	_, err := downloadFileID(func(string) (string, error) { return ts.URL + "/gone", nil }, "gone")
	assert.Error(t, err)

	_, err = downloadFileID(func(string) (string, error) { return "", errors.New("no such file") }, "x")
	assert.ErrorContains(t, err, "no such file")
}

func TestLargestPhoto(t *testing.T) {
	sizes := []tgbotapi.PhotoSize{
		{FileID: "small", Width: 90, Height: 67},
		{FileID: "large", Width: 1280, Height: 960},
		{FileID: "medium", Width: 320, Height: 240},
	}
	assert.Equal(t, "large", largestPhoto(sizes).FileID)
	assert.Equal(t, "only", largestPhoto([]tgbotapi.PhotoSize{{FileID: "only"}}).FileID)
}

func TestImageFileID(t *testing.T) {
	tests := []struct {
		name     string
		message  *tgbotapi.Message
		fileID   string
		mimeType string
		ok       bool
	}{
		{
			name:    "photo",
			message: &tgbotapi.Message{Photo: []tgbotapi.PhotoSize{{FileID: "a", Width: 1, Height: 1}, {FileID: "b", Width: 2, Height: 2}}},
			fileID:  "b",
			ok:      true,
		},
		{
			name:     "image document",
			message:  &tgbotapi.Message{Document: &tgbotapi.Document{FileID: "doc", MimeType: "image/png"}},
			fileID:   "doc",
			mimeType: "image/png",
			ok:       true,
		},
		{
			name:    "pdf document",
			message: &tgbotapi.Message{Document: &tgbotapi.Document{FileID: "doc", MimeType: "application/pdf"}},
		},
		{
			name:    "text",
			message: &tgbotapi.Message{Text: "hello"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fileID, mimeType, ok := imageFileID(tt.message)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.fileID, fileID)
			assert.Equal(t, tt.mimeType, mimeType)
		})
	}
}

func TestParseCommand(t *testing.T) {
	cmd, args := parseCommand("/estimate@scrapify_bot now please")
	assert.Equal(t, "/estimate", cmd)
	assert.Equal(t, []string{"now", "please"}, args)

	cmd, args = parseCommand("   ")
	assert.Equal(t, "", cmd)
	assert.Empty(t, args)
}
