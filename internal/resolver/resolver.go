// Package resolver turns queries, links and conversion hints into playable
// items: a direct YouTube extraction first, with yt-dlp as the fallback
// and as the search/playlist backend.
package resolver

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/bitly/go-simplejson"
	"github.com/kkdai/youtube/v2"

	"github.com/auroramusic/aurora/pkg/logging"
	"github.com/auroramusic/aurora/pkg/player"
	"github.com/auroramusic/aurora/pkg/queue"
)

// Resolver implements the playback engine's resolution interface.
type Resolver struct {
	yt        youtube.Client
	ytdlpPath string
	log       logging.Logger
}

// New creates a resolver using the given yt-dlp binary, or "yt-dlp" from
// PATH when empty.
func New(ytdlpPath string, log logging.Logger) *Resolver {
	if ytdlpPath == "" {
		ytdlpPath = "yt-dlp"
	}
	return &Resolver{
		ytdlpPath: ytdlpPath,
		log:       log.With(logging.String("component", "resolver")),
	}
}

// Resolve turns a search query, video link or conversion hint into a
// playable item carrying a direct stream URL.
func (r *Resolver) Resolve(ctx context.Context, query string) (*queue.Item, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty query")
	}

	if !IsURL(query) {
		return r.resolveSearch(ctx, query)
	}

	if IsYouTubeURL(query) {
		item, err := r.resolveYouTube(ctx, query)
		if err == nil {
			return item, nil
		}
		r.log.Debug("direct extraction failed, falling back to yt-dlp",
			logging.String("url", query), logging.Error(err))
	}
	return r.resolveWithYtdlp(ctx, query)
}

// resolveYouTube extracts a stream URL without spawning a subprocess,
// preferring Opus formats the way a passthrough pipeline would.
func (r *Resolver) resolveYouTube(ctx context.Context, urlStr string) (*queue.Item, error) {
	video, err := r.yt.GetVideoContext(ctx, urlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch video: %v", err)
	}

	formats := video.Formats.WithAudioChannels().Type("audio")
	var best *youtube.Format
	for i, f := range formats {
		if f.ItagNo == 251 { // Opus 160kbps
			best = &formats[i]
			break
		}
	}
	if best == nil {
		for i, f := range formats {
			if strings.Contains(f.MimeType, "opus") {
				best = &formats[i]
				break
			}
		}
	}
	if best == nil && len(formats) > 0 {
		formats.Sort()
		best = &formats[0]
	}
	if best == nil {
		return nil, fmt.Errorf("no audio formats for %s", video.ID)
	}

	streamURL, err := r.yt.GetStreamURLContext(ctx, video, best)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream URL: %v", err)
	}

	return &queue.Item{
		ID:       video.ID,
		Title:    video.Title,
		URL:      streamURL,
		Duration: video.Duration,
		Uploader: video.Author,
	}, nil
}

// Extraction strategies tried in order when yt-dlp resolves a stream URL.
var streamStrategies = [][]string{
	{"-f", "bestaudio[ext=m4a]/bestaudio[ext=webm]/bestaudio[ext=mp4]/bestaudio"},
	{"-f", "bestaudio", "--extractor-args", "youtube:player_client=android"},
	{"-f", "bestaudio", "--extractor-args", "youtube:player_client=web"},
	{"-f", "worst[ext=m4a]/worst"},
}

func (r *Resolver) resolveWithYtdlp(ctx context.Context, urlStr string) (*queue.Item, error) {
	title, duration, uploader, err := r.fetchMetadata(ctx, urlStr)
	if err != nil {
		r.log.Warn("metadata extraction failed",
			logging.String("url", urlStr), logging.Error(err))
		title = "Unknown Title"
	}

	var streamURL string
	for i, strategy := range streamStrategies {
		args := append([]string{"--no-playlist", "--no-warnings", "-g"}, strategy...)
		args = append(args, urlStr)

		out, err := r.run(ctx, args)
		if err != nil {
			r.log.Debug("extraction strategy failed",
				logging.Int("strategy", i+1), logging.Error(err))
			continue
		}
		if lines := strings.Split(out, "\n"); len(lines) > 0 && lines[0] != "" {
			streamURL = lines[0]
			break
		}
	}
	if streamURL == "" {
		return nil, fmt.Errorf("failed to extract stream URL for %s", urlStr)
	}

	item := &queue.Item{
		ID:       ExtractVideoID(urlStr),
		Title:    title,
		URL:      streamURL,
		Duration: duration,
		Uploader: uploader,
	}
	if item.ID == "" {
		item.ID = queue.NewItem(title, streamURL).ID
	}
	return item, nil
}

func (r *Resolver) fetchMetadata(ctx context.Context, urlStr string) (title string, duration time.Duration, uploader string, err error) {
	out, err := r.run(ctx, []string{
		"--no-playlist", "--no-warnings",
		"--print", "title",
		"--print", "duration",
		"--print", "uploader",
		urlStr,
	})
	if err != nil {
		return "", 0, "", err
	}

	lines := strings.Split(out, "\n")
	if len(lines) >= 1 {
		title = strings.TrimSpace(lines[0])
	}
	if len(lines) >= 2 {
		duration = parseDurationSeconds(lines[1])
	}
	if len(lines) >= 3 {
		uploader = strings.TrimSpace(lines[2])
		if uploader == "NA" {
			uploader = ""
		}
	}
	return title, duration, uploader, nil
}

// resolveSearch finds the first YouTube result for free-text and resolves
// it like a direct link.
func (r *Resolver) resolveSearch(ctx context.Context, query string) (*queue.Item, error) {
	out, err := r.run(ctx, []string{
		"--no-playlist", "--no-warnings",
		"--print", "webpage_url",
		"ytsearch1:" + query,
	})
	if err != nil {
		return nil, fmt.Errorf("search failed: %v", err)
	}

	lines := strings.Split(out, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return nil, fmt.Errorf("no results for %q", query)
	}
	return r.Resolve(ctx, strings.TrimSpace(lines[0]))
}

// ResolvePlaylist lists a playlist's entries without resolving streams.
// Each entry defers its stream extraction to play time through a
// conversion hint, so enqueueing a hundred tracks stays fast.
func (r *Resolver) ResolvePlaylist(ctx context.Context, urlStr string) (*player.PlaylistInfo, []*queue.Item, error) {
	cmd := exec.CommandContext(ctx, r.ytdlpPath,
		"-J", "--flat-playlist", "--no-warnings", urlStr)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return nil, nil, fmt.Errorf("failed to list playlist: %v", err)
	}
	return parsePlaylistJSON(urlStr, out.Bytes())
}

func parsePlaylistJSON(urlStr string, data []byte) (*player.PlaylistInfo, []*queue.Item, error) {
	js, err := simplejson.NewJson(data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse playlist JSON: %v", err)
	}

	entries := js.Get("entries")
	arr, err := entries.Array()
	if err != nil {
		return nil, nil, fmt.Errorf("playlist has no entries")
	}

	items := make([]*queue.Item, 0, len(arr))
	for i := range arr {
		entry := entries.GetIndex(i)
		id := entry.Get("id").MustString()
		if id == "" {
			continue
		}
		title := entry.Get("title").MustString()
		if title == "" || title == "[Private video]" || title == "[Deleted video]" {
			continue
		}
		items = append(items, &queue.Item{
			ID:       id,
			Title:    title,
			Duration: time.Duration(entry.Get("duration").MustFloat64()) * time.Second,
			Uploader: entry.Get("uploader").MustString(),
			Conversion: &queue.Conversion{
				Query: WatchURL(id),
			},
		})
	}
	if len(items) == 0 {
		return nil, nil, fmt.Errorf("playlist contains no playable entries")
	}

	info := &player.PlaylistInfo{
		Title: js.Get("title").MustString("Untitled playlist"),
		URL:   urlStr,
		Count: len(items),
	}
	return info, items, nil
}

func (r *Resolver) run(ctx context.Context, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, r.ytdlpPath, args...)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%v: %s", err, msg)
		}
		return "", err
	}
	return strings.TrimSpace(out.String()), nil
}

func parseDurationSeconds(s string) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" || s == "None" || s == "NA" {
		return 0
	}
	seconds, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}
