package resolver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsURL(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"http://example.com/stream", true},
		{"www.example.com", true},
		{"youtu.be/dQw4w9WgXcQ", true},
		{"never gonna give you up", false},
		{"rick astley", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsURL(tt.input), tt.input)
	}
}

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"watch url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"watch url with list", "https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PL123", "dQw4w9WgXcQ"},
		{"short url", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"short url with params", "https://youtu.be/dQw4w9WgXcQ?t=42", "dQw4w9WgXcQ"},
		{"embed url", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"garbage", "https://www.youtube.com/watch", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractVideoID(tt.input))
		})
	}
}

func TestIsPlaylistURL(t *testing.T) {
	assert.True(t, IsPlaylistURL("https://www.youtube.com/playlist?list=PL123"))
	assert.True(t, IsPlaylistURL("https://www.youtube.com/watch?v=abc&list=PL123"))
	assert.False(t, IsPlaylistURL("https://www.youtube.com/watch?v=dQw4w9WgXcQ"))
	assert.False(t, IsPlaylistURL("https://example.com/playlist?list=PL123"))
}

func TestParsePlaylistJSON(t *testing.T) {
	data := []byte(`{
		"title": "Road Trip Mix",
		"entries": [
			{"id": "aaaaaaaaaaa", "title": "First Song", "duration": 215.0, "uploader": "ChannelA"},
			{"id": "bbbbbbbbbbb", "title": "[Private video]", "duration": 0},
			{"id": "ccccccccccc", "title": "Third Song", "duration": 187.5, "uploader": "ChannelC"}
		]
	}`)

	info, items, err := parsePlaylistJSON("https://www.youtube.com/playlist?list=PL1", data)
	require.NoError(t, err)

	assert.Equal(t, "Road Trip Mix", info.Title)
	assert.Equal(t, 2, info.Count, "private entries are skipped")
	require.Len(t, items, 2)

	assert.Equal(t, "First Song", items[0].Title)
	assert.Equal(t, 215*time.Second, items[0].Duration)
	assert.Equal(t, "ChannelA", items[0].Uploader)
	require.NotNil(t, items[0].Conversion, "stream extraction is deferred to play time")
	assert.Equal(t, "https://www.youtube.com/watch?v=aaaaaaaaaaa", items[0].Conversion.Query)
	assert.Empty(t, items[0].URL)

	assert.Equal(t, "Third Song", items[1].Title)
}

func TestParsePlaylistJSON_Empty(t *testing.T) {
	_, _, err := parsePlaylistJSON("u", []byte(`{"title": "x", "entries": []}`))
	assert.Error(t, err)

	_, _, err = parsePlaylistJSON("u", []byte(`{"title": "x"}`))
	assert.Error(t, err)

	_, _, err = parsePlaylistJSON("u", []byte(`not json`))
	assert.Error(t, err)
}

func TestParseDurationSeconds(t *testing.T) {
	assert.Equal(t, 90*time.Second, parseDurationSeconds("90"))
	assert.Equal(t, 90500*time.Millisecond, parseDurationSeconds("90.5"))
	assert.Equal(t, time.Duration(0), parseDurationSeconds("None"))
	assert.Equal(t, time.Duration(0), parseDurationSeconds(""))
	assert.Equal(t, time.Duration(0), parseDurationSeconds("garbage"))
}

func TestThumbnailURL(t *testing.T) {
	assert.Equal(t,
		"https://img.youtube.com/vi/dQw4w9WgXcQ/maxresdefault.jpg",
		ThumbnailURL("dQw4w9WgXcQ"))
	assert.Empty(t, ThumbnailURL(""))
}
