// Package main tests document the expected behavior of the nycinsight CLI.
//
// These are BLACK BOX tests - they build the binary once and check its
// stdout, stderr and exit code.
//
// External dependencies mocked:
// - NewsAPI, YouTube and TikTok via NEWS_API_URL, YOUTUBE_API_URL and TIKTOK_API_URL
// - .env loading via ENV_FILE pointing at a missing file
//
// Test requirements (this file serves as documentation):
// - CLI has root command with version info
// - "feed" merges every provider newest first
// - "feed" flags select providers and filter results
// - "config" prints the effective configuration with keys masked
// - Errors are helpful
package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

var binaryPath string

// TestMain builds the binary once before running tests.
func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "nycinsight-test")
	if err != nil {
		panic(err)
	}

	binaryPath = filepath.Join(dir, "nycinsight")
	cmd := exec.Command("go", "build", "-o", binaryPath, ".")
	cmd.Dir = "."
	if err := cmd.Run(); err != nil {
		_ = os.RemoveAll(dir)
		panic("failed to build binary: " + err.Error())
	}

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

// runCLI executes the CLI binary with given arguments and environment.
func runCLI(t *testing.T, env map[string]string, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)

	cmd.Env = append(os.Environ(), "ENV_FILE="+filepath.Join(t.TempDir(), "missing.env"))
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	var outBuf, errBuf strings.Builder
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	exitCode = 0
	if exitErr, ok := err.(*exec.ExitError); ok {
		exitCode = exitErr.ExitCode()
	} else if err != nil {
		t.Fatalf("failed to run command: %v", err)
	}

	return outBuf.String(), errBuf.String(), exitCode
}

// runCLISimple runs CLI without custom environment.
func runCLISimple(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	return runCLI(t, nil, args...)
}

// newProviderServer serves canned NewsAPI, YouTube and TikTok responses.
func newProviderServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch {
		case strings.HasPrefix(r.URL.Path, "/v2/everything"):
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":       "ok",
				"totalResults": 1,
				"articles": []map[string]interface{}{
					{
						"source":      map[string]interface{}{"name": "Gothamist"},
						"title":       "Subway service changes this weekend",
						"description": "Expect delays on the L train.",
						"url":         "https://gothamist.com/news/subway",
						"publishedAt": "2024-03-01T09:00:00Z",
					},
				},
			})
		case strings.HasPrefix(r.URL.Path, "/youtube/v3/search"):
			json.NewEncoder(w).Encode(map[string]interface{}{
				"items": []map[string]interface{}{
					{
						"id": map[string]interface{}{"videoId": "yt123"},
						"snippet": map[string]interface{}{
							"title":       "Walking Fifth Avenue",
							"description": "4K walking tour",
							"publishedAt": "2024-03-01T11:00:00Z",
						},
					},
				},
			})
		case strings.HasPrefix(r.URL.Path, "/challenge/posts"):
			json.NewEncoder(w).Encode(map[string]interface{}{
				"code": 0,
				"msg":  "success",
				"data": map[string]interface{}{
					"videos": []map[string]interface{}{
						{
							"video_id":    "tt456",
							"title":       "Best bagel in Queens",
							"create_time": 1709287200, // 2024-03-01T10:00:00Z
							"author":      map[string]interface{}{"unique_id": "nycfood"},
						},
					},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func providerEnv(url string) map[string]string {
	return map[string]string{
		"NEWS_API_KEY":    "news-key-1234",
		"NEWS_API_URL":    url,
		"YOUTUBE_API_KEY": "yt-key-5678",
		"YOUTUBE_API_URL": url,
		"RAPIDAPI_KEY":    "rapid-key-9012",
		"TIKTOK_API_URL":  url,
		"LOG_LEVEL":       "error",
	}
}

// TestRootCommand_Help verifies help output shows available commands.
func TestRootCommand_Help(t *testing.T) {
	stdout, _, _ := runCLISimple(t, "--help")
	output := strings.ToLower(stdout)

	expects := []string{"nycinsight", "usage", "feed", "serve", "config"}
	for _, want := range expects {
		if !strings.Contains(output, want) {
			t.Errorf("help should contain %q, got:\n%s", want, stdout)
		}
	}
}

// TestRootCommand_Version verifies version output.
func TestRootCommand_Version(t *testing.T) {
	stdout, _, _ := runCLISimple(t, "--version")

	if !strings.HasPrefix(stdout, "nycinsight version ") {
		t.Errorf("version should show nycinsight and version, got:\n%s", stdout)
	}
}

// TestFeedCommand_Help verifies feed help shows selection and filter options.
func TestFeedCommand_Help(t *testing.T) {
	stdout, _, _ := runCLISimple(t, "feed", "--help")
	output := strings.ToLower(stdout)

	expects := []string{"articles", "videos", "shorts", "limit", "source", "json"}
	for _, want := range expects {
		if !strings.Contains(output, want) {
			t.Errorf("feed help should contain %q, got:\n%s", want, stdout)
		}
	}
}

// TestFeedCommand_DisplaysMergedItems verifies feed fetches every provider and
// displays the newest item first.
func TestFeedCommand_DisplaysMergedItems(t *testing.T) {
	server := newProviderServer(t)

	stdout, stderr, exitCode := runCLI(t, providerEnv(server.URL), "feed", "Manhattan")

	if exitCode != 0 {
		t.Fatalf("feed command should succeed, got exit code %d, stderr:\n%s", exitCode, stderr)
	}

	titles := []string{"Walking Fifth Avenue", "Best bagel in Queens", "Subway service changes this weekend"}
	last := -1
	for _, title := range titles {
		idx := strings.Index(stdout, title)
		if idx < 0 {
			t.Fatalf("output should contain %q, got:\n%s", title, stdout)
		}
		if idx < last {
			t.Errorf("%q should appear after the newer items, got:\n%s", title, stdout)
		}
		last = idx
	}
	if !strings.Contains(stdout, "https://www.youtube.com/watch?v=yt123") {
		t.Errorf("output should contain the video link, got:\n%s", stdout)
	}
}

// TestFeedCommand_JSON verifies --json prints the records.
func TestFeedCommand_JSON(t *testing.T) {
	server := newProviderServer(t)

	stdout, stderr, exitCode := runCLI(t, providerEnv(server.URL), "feed", "--json", "--articles=false")
	if exitCode != 0 {
		t.Fatalf("feed --json should succeed, got exit code %d, stderr:\n%s", exitCode, stderr)
	}

	var records []map[string]interface{}
	if err := json.Unmarshal([]byte(stdout), &records); err != nil {
		t.Fatalf("output should be a JSON array: %v\n%s", err, stdout)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 video records, got %d", len(records))
	}
	if records[0]["id"] != "yt123" || records[1]["id"] != "tt456" {
		t.Errorf("records should be newest first, got %v, %v", records[0]["id"], records[1]["id"])
	}
	for _, rec := range records {
		if rec["type"] != "video" {
			t.Errorf("expected only videos, got %v", rec["type"])
		}
	}
}

// TestFeedCommand_ShortsFollowVideos verifies --videos=false also drops short videos
// unless --shorts is given.
func TestFeedCommand_ShortsFollowVideos(t *testing.T) {
	server := newProviderServer(t)

	stdout, _, _ := runCLI(t, providerEnv(server.URL), "feed", "--videos=false")
	if strings.Contains(stdout, "Best bagel in Queens") {
		t.Errorf("short videos should follow --videos, got:\n%s", stdout)
	}

	stdout, _, _ = runCLI(t, providerEnv(server.URL), "feed", "--videos=false", "--shorts")
	if !strings.Contains(stdout, "Best bagel in Queens") {
		t.Errorf("--shorts should select short videos, got:\n%s", stdout)
	}
	if strings.Contains(stdout, "Walking Fifth Avenue") {
		t.Errorf("--shorts should not bring back long videos, got:\n%s", stdout)
	}
}

// TestFeedCommand_NothingSelected verifies an empty selection shows the empty message.
func TestFeedCommand_NothingSelected(t *testing.T) {
	stdout, _, exitCode := runCLISimple(t, "feed", "--articles=false", "--videos=false")

	if exitCode != 0 {
		t.Errorf("empty selection is not an error, got exit code %d", exitCode)
	}
	if !strings.Contains(strings.ToLower(stdout), "no content") {
		t.Errorf("should tell the user there is nothing to show, got:\n%s", stdout)
	}
}

// TestFeedCommand_ProvidersDown verifies failing providers degrade to an empty feed.
func TestFeedCommand_ProvidersDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	stdout, _, exitCode := runCLI(t, providerEnv(server.URL), "feed")

	if exitCode != 0 {
		t.Errorf("provider failures should not fail the command, got exit code %d", exitCode)
	}
	if !strings.Contains(strings.ToLower(stdout), "no content") {
		t.Errorf("should show the empty feed, got:\n%s", stdout)
	}
}

// TestFeedCommand_RejectsInvalidType verifies --type is validated.
func TestFeedCommand_RejectsInvalidType(t *testing.T) {
	_, stderr, exitCode := runCLISimple(t, "feed", "--type", "podcast")

	if exitCode == 0 {
		t.Error("should fail with invalid type")
	}
	if !strings.Contains(strings.ToLower(stderr), "invalid type") {
		t.Errorf("error should mention invalid type, got:\n%s", stderr)
	}
}

// TestFeedCommand_RejectsInvalidConfig verifies config bounds are enforced.
func TestFeedCommand_RejectsInvalidConfig(t *testing.T) {
	_, stderr, exitCode := runCLI(t, map[string]string{"YOUTUBE_MAX_RESULTS": "51"}, "feed")

	if exitCode == 0 {
		t.Error("should fail with out-of-range max results")
	}
	if !strings.Contains(stderr, "YOUTUBE_MAX_RESULTS") {
		t.Errorf("error should name the setting, got:\n%s", stderr)
	}
}

// TestConfigCommand_MasksKeys verifies config prints the effective settings without secrets.
func TestConfigCommand_MasksKeys(t *testing.T) {
	env := map[string]string{
		"NEWS_API_KEY":  "supersecret-news-abcd",
		"DEFAULT_QUERY": "Harlem",
	}

	stdout, stderr, exitCode := runCLI(t, env, "config")

	if exitCode != 0 {
		t.Fatalf("config should succeed, got exit code %d, stderr:\n%s", exitCode, stderr)
	}
	if strings.Contains(stdout, "supersecret") {
		t.Errorf("config output must not leak API keys, got:\n%s", stdout)
	}
	if !strings.Contains(stdout, "****abcd") {
		t.Errorf("config output should show the masked key, got:\n%s", stdout)
	}
	if !strings.Contains(stdout, "Harlem") {
		t.Errorf("config output should show the default query, got:\n%s", stdout)
	}
}
