package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"BuggyFM/logger"
	"BuggyFM/model"
)

// maxGeneratedSongs caps how many entries a playlist generation may yield.
const maxGeneratedSongs = 20

// chatPersonaPrompt frames every conversational turn.
const chatPersonaPrompt = `You are BuggyAI, a friendly and enthusiastic music assistant that helps users discover music.

IMPORTANT INSTRUCTIONS:
1. ALWAYS be enthusiastic about creating playlists
2. When users mention ANY mood, feeling, genre, activity, or ask for music, ALWAYS say you're creating a playlist
3. Keep responses short and engaging (1-2 sentences)
4. Use emojis to make responses fun
5. ALWAYS mention creating/generating a playlist when users ask for music
6. If the user is editing an existing playlist, acknowledge the changes you'll make

Be conversational, excited, and always ready to create playlists!`

// Config configures the assistant client.
type Config struct {
	APIBaseURL  string
	APIKeys     []string
	Model       string
	MaxTokens   int
	Temperature float64
}

// Agent talks to an OpenAI-compatible chat-completions API. Like the catalog
// client it carries several keys and tries each once per request.
type Agent struct {
	config     *Config
	httpClient *http.Client

	mu       sync.Mutex
	keyIndex int
}

// NewAgent creates an assistant client.
func NewAgent(config *Config) *Agent {
	return &Agent{
		config:     config,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (a *Agent) nextKey() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	key := a.config.APIKeys[a.keyIndex]
	a.keyIndex = (a.keyIndex + 1) % len(a.config.APIKeys)
	return key
}

// complete runs one chat completion, rotating through the key pool.
func (a *Agent) complete(ctx context.Context, messages []model.OpenAIChatMessage) (string, error) {
	a.mu.Lock()
	n := len(a.config.APIKeys)
	a.mu.Unlock()
	if n == 0 {
		return "", errors.New("no assistant api keys configured")
	}

	var lastErr error
	for i := 0; i < n; i++ {
		key := a.nextKey()
		content, err := a.completeWithKey(ctx, key, messages)
		if err != nil {
			lastErr = err
			logger.Warn("assistant api key failed",
				logger.Int("attempt", i+1),
				logger.ErrorField(err))
			continue
		}
		return content, nil
	}
	return "", lastErr
}

func (a *Agent) completeWithKey(ctx context.Context, apiKey string, messages []model.OpenAIChatMessage) (string, error) {
	reqBody := model.OpenAIChatRequest{
		Model:       a.config.Model,
		Messages:    messages,
		MaxTokens:   a.config.MaxTokens,
		Temperature: a.config.Temperature,
		Stream:      false,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.config.APIBaseURL+"/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp model.OpenAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", errors.New("no response choices returned")
	}
	return chatResp.Choices[0].Message.Content, nil
}

// GeneratePlaylist asks for songs matching a mood and returns them as
// "Title - Artist" entries, at most 20. A total API failure yields an empty
// list rather than an error.
func (a *Agent) GeneratePlaylist(ctx context.Context, mood, preferences, source string) []string {
	platform := "YouTube"
	if source == string(model.OriginRemoteSession) || strings.EqualFold(source, "spotify") {
		platform = "Spotify"
	}
	prefClause := ""
	if preferences != "" {
		prefClause = fmt.Sprintf(" and preferences: %q", preferences)
	}
	prompt := fmt.Sprintf(`You are a music expert and playlist curator. Based on the user's request: %q%s, suggest 15-20 popular and well-known songs that would match this mood, feeling, genre, or activity.

IMPORTANT RULES:
1. You MUST return ONLY a JSON array of songs in the format: ["Song Title - Artist Name", "Song Title - Artist Name"]
2. Do NOT include any explanations, markdown, or extra text
3. Focus on popular songs available on %s
4. Each song must be in the format "Song Title - Artist Name"
5. Return exactly 15-20 songs`, mood, prefClause, platform)

	text, err := a.complete(ctx, []model.OpenAIChatMessage{{Role: "user", Content: prompt}})
	if err != nil {
		logger.Error("playlist generation failed on all keys", logger.ErrorField(err))
		return []string{}
	}
	return ParseSongList(text)
}

// GeneratePlaylistName asks for a short name for the generated playlist.
// Failures fall back to a mood-derived name.
func (a *Agent) GeneratePlaylistName(ctx context.Context, mood string, songs []string) string {
	sample := songs
	if len(sample) > 5 {
		sample = sample[:5]
	}
	prompt := fmt.Sprintf(`Based on the user's request: %q and these songs: %s,
create a short, creative playlist name that captures the mood and vibe.
Return only the playlist name, nothing else. Keep it under 50 characters.`,
		mood, strings.Join(sample, ", "))

	text, err := a.complete(ctx, []model.OpenAIChatMessage{{Role: "user", Content: prompt}})
	if err != nil {
		logger.Warn("playlist name generation failed", logger.ErrorField(err))
		return "Mood: " + mood
	}
	return strings.NewReplacer(`"`, "", "'", "").Replace(strings.TrimSpace(text))
}

// Chat answers a conversational turn with the assistant persona, carrying
// the stored history. Failures degrade to an apology string.
func (a *Agent) Chat(ctx context.Context, history []*model.ChatMessage, message string) string {
	messages := make([]model.OpenAIChatMessage, 0, len(history)+2)
	messages = append(messages, model.OpenAIChatMessage{Role: "system", Content: chatPersonaPrompt})
	for _, msg := range history {
		messages = append(messages, model.OpenAIChatMessage{Role: msg.Role, Content: msg.Content})
	}
	messages = append(messages, model.OpenAIChatMessage{Role: "user", Content: message})

	text, err := a.complete(ctx, messages)
	if err != nil {
		logger.Error("assistant chat failed", logger.ErrorField(err))
		return "Sorry, I encountered an error. Please try again later."
	}
	return text
}

// GeneratePlaylistEdit asks for editing instructions for an existing
// playlist. Returns nil when the model's reply holds no usable JSON.
func (a *Agent) GeneratePlaylistEdit(ctx context.Context, userRequest string, playlist model.Playlist) *model.PlaylistEdit {
	sample := make([]string, 0, 10)
	for _, s := range playlist.Songs {
		if len(sample) == 10 {
			break
		}
		sample = append(sample, s.Title+" - "+s.Artist)
	}

	prompt := fmt.Sprintf(`You are a music expert helping to edit a playlist based on user requests.

Current playlist: %q
Current songs (first 10): %s
Total songs: %d

User request: %q

Based on the user's request, provide editing instructions in JSON format:

{
  "songsToAdd": ["Song Title - Artist", "Song Title - Artist"],
  "songsToRemove": ["partial song title or artist name to match"],
  "newDescription": "optional new description for the playlist"
}

RULES:
1. For "songsToAdd": Suggest 3-8 specific songs that match the user's request
2. For "songsToRemove": Use partial titles or artist names that would match existing songs to remove
3. Return ONLY valid JSON, no explanations`,
		playlist.Name, strings.Join(sample, ", "), len(playlist.Songs), userRequest)

	text, err := a.complete(ctx, []model.OpenAIChatMessage{{Role: "user", Content: prompt}})
	if err != nil {
		logger.Error("playlist edit generation failed", logger.ErrorField(err))
		return nil
	}

	cleaned := strings.TrimSpace(stripMarkdownFences(text))
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || start >= end {
		logger.Warn("no JSON object in edit reply")
		return nil
	}

	var edit model.PlaylistEdit
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &edit); err != nil {
		logger.Warn("unparseable edit instructions", logger.ErrorField(err))
		return nil
	}
	return &edit
}

var (
	markdownFencePattern = regexp.MustCompile("```(?:json)?")
	lineNoisePattern     = regexp.MustCompile(`^["'\d.\-*\s]+|["']$`)
)

func stripMarkdownFences(s string) string {
	return markdownFencePattern.ReplaceAllString(s, "")
}

// ParseSongList extracts "Title - Artist" entries from a model reply. It
// expects a JSON array, tolerating markdown fences and surrounding prose;
// when no array parses it falls back to scraping the reply line by line.
func ParseSongList(text string) []string {
	cleaned := strings.TrimSpace(stripMarkdownFences(text))

	if start, end := strings.Index(cleaned, "["), strings.LastIndex(cleaned, "]"); start != -1 && end != -1 && start < end {
		var list []string
		if err := json.Unmarshal([]byte(cleaned[start:end+1]), &list); err == nil {
			songs := make([]string, 0, len(list))
			for _, s := range list {
				if strings.Contains(s, " - ") && len(s) > 5 {
					songs = append(songs, s)
				}
			}
			if len(songs) > maxGeneratedSongs {
				songs = songs[:maxGeneratedSongs]
			}
			return songs
		}
	}

	return scrapeSongLines(text)
}

// scrapeSongLines is the lenient fallback for replies that refuse to be JSON.
func scrapeSongLines(text string) []string {
	songs := []string{}
	for _, line := range strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == ',' }) {
		trimmed := lineNoisePattern.ReplaceAllString(strings.TrimSpace(line), "")
		lower := strings.ToLower(trimmed)
		if !strings.Contains(trimmed, " - ") || len(trimmed) <= 5 ||
			strings.Contains(lower, "example") || strings.Contains(lower, "format") {
			continue
		}
		cleaned := strings.NewReplacer(`"`, "", "[", "", "]", "").Replace(trimmed)
		if len(cleaned) > 5 && len(strings.Split(cleaned, " - ")) == 2 {
			songs = append(songs, cleaned)
		}
		if len(songs) == maxGeneratedSongs {
			break
		}
	}
	return songs
}
