package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	synchub "animehub/internal/sync"
	"animehub/pkg/models"
)

const defaultBaseURL = "http://localhost:8080"

type tokenData struct {
	Token string `json:"token"`
}

type authResponse struct {
	Token string `json:"token"`
}

type snapshotListResponse struct {
	Total  int                    `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
	Items  []models.AnimeSnapshot `json:"items"`
}

type api struct {
	client    *http.Client
	baseURL   string
	tokenPath string
}

func main() {
	global := flag.NewFlagSet("animehub", flag.ExitOnError)
	baseURL := global.String("api", defaultBaseURL, "API base URL")
	tokenPath := global.String("token", defaultTokenPath(), "token file path")
	if err := global.Parse(os.Args[1:]); err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	args := global.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	cmd := args[0]
	sub := ""
	rest := []string{}
	if len(args) > 1 {
		sub = args[1]
		rest = args[2:]
	}

	a := &api{
		client:    &http.Client{Timeout: 30 * time.Second},
		baseURL:   strings.TrimRight(*baseURL, "/"),
		tokenPath: *tokenPath,
	}

	switch cmd {
	case "auth":
		a.handleAuth(ctx, sub, rest)
	case "anime":
		a.handleAnime(ctx, sub, rest)
	case "watchlist":
		a.handleWatchlist(ctx, sub, rest)
	case "favorites":
		a.handleFavorites(ctx, sub, rest)
	case "history":
		a.handleHistory(ctx, sub, rest)
	case "review":
		a.handleReview(ctx, sub, rest)
	case "me":
		a.get(ctx, "/users/me", nil, true)
	case "recommend":
		a.get(ctx, "/users/recommendations", nil, true)
	case "sync":
		handleSync(sub, rest)
	case "notify":
		a.handleNotify(sub, rest)
	case "export":
		a.handleExport(ctx, sub, rest)
	default:
		printUsage()
		os.Exit(1)
	}
}

func (a *api) token(required bool) string {
	if !required {
		return ""
	}
	return mustToken(a.tokenPath)
}

func (a *api) get(ctx context.Context, path string, q url.Values, auth bool) {
	endpoint := a.baseURL + path
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp any
	if err := doJSON(ctx, a.client, http.MethodGet, endpoint, a.token(auth), nil, &resp); err != nil {
		log.Fatalf("request failed: %v", err)
	}
	printJSON(resp)
}

func (a *api) send(ctx context.Context, method, path string, payload any) {
	var resp any
	if err := doJSON(ctx, a.client, method, a.baseURL+path, a.token(true), payload, &resp); err != nil {
		log.Fatalf("request failed: %v", err)
	}
	printJSON(resp)
}

func (a *api) handleAuth(ctx context.Context, sub string, args []string) {
	switch sub {
	case "login":
		fs := flag.NewFlagSet("auth login", flag.ExitOnError)
		email := fs.String("email", "", "email address")
		password := fs.String("password", "", "password")
		_ = fs.Parse(args)

		if *email == "" || *password == "" {
			log.Fatal("email and password are required")
		}

		payload := map[string]string{"email": *email, "password": *password}
		var resp authResponse
		if err := doJSON(ctx, a.client, http.MethodPost, a.baseURL+"/auth/login", "", payload, &resp); err != nil {
			log.Fatalf("login failed: %v", err)
		}
		if err := saveToken(a.tokenPath, resp.Token); err != nil {
			log.Fatalf("save token: %v", err)
		}
		fmt.Println("logged in")
	case "register":
		fs := flag.NewFlagSet("auth register", flag.ExitOnError)
		username := fs.String("username", "", "username")
		email := fs.String("email", "", "email address")
		password := fs.String("password", "", "password")
		_ = fs.Parse(args)

		if *username == "" || *email == "" || *password == "" {
			log.Fatal("username, email, and password are required")
		}

		payload := map[string]string{"username": *username, "email": *email, "password": *password}
		var resp authResponse
		if err := doJSON(ctx, a.client, http.MethodPost, a.baseURL+"/auth/register", "", payload, &resp); err != nil {
			log.Fatalf("register failed: %v", err)
		}
		if err := saveToken(a.tokenPath, resp.Token); err != nil {
			log.Fatalf("save token: %v", err)
		}
		fmt.Println("registered and logged in")
	case "logout":
		if token, err := readToken(a.tokenPath); err == nil && token != "" {
			// server side invalidation is best effort
			_ = doJSON(ctx, a.client, http.MethodPost, a.baseURL+"/auth/logout", token, nil, nil)
		}
		if err := clearToken(a.tokenPath); err != nil {
			log.Fatalf("logout failed: %v", err)
		}
		fmt.Println("logged out")
	default:
		log.Fatal("usage: animehub auth <login|register|logout>")
	}
}

func (a *api) handleAnime(ctx context.Context, sub string, args []string) {
	fs := flag.NewFlagSet("anime "+sub, flag.ExitOnError)
	id := fs.Int("id", 0, "anime id")
	query := fs.String("q", "", "search query")
	page := fs.Int("page", 1, "result page")
	limit := fs.Int("limit", 10, "max results")
	genre := fs.String("genre", "", "genre name")
	_ = fs.Parse(args)

	q := url.Values{}
	q.Set("limit", strconv.Itoa(*limit))

	needID := func() string {
		if *id <= 0 {
			log.Fatal("-id is required")
		}
		return strconv.Itoa(*id)
	}

	switch sub {
	case "search":
		if strings.TrimSpace(*query) == "" {
			log.Fatal("-q is required")
		}
		a.get(ctx, "/anime/search", url.Values{"q": {*query}, "page": {strconv.Itoa(*page)}}, false)
	case "show":
		a.get(ctx, "/anime/"+needID(), nil, false)
	case "details":
		a.get(ctx, "/anime/"+needID()+"/details", nil, false)
	case "characters":
		a.get(ctx, "/anime/"+needID()+"/characters", nil, false)
	case "similar":
		a.get(ctx, "/anime/"+needID()+"/recommendations", nil, false)
	case "comments":
		a.get(ctx, "/anime/"+needID()+"/comments", nil, false)
	case "top":
		a.get(ctx, "/anime/top", q, false)
	case "popular":
		a.get(ctx, "/anime/popular", q, false)
	case "season":
		a.get(ctx, "/anime/season/now", nil, false)
	case "genres":
		a.get(ctx, "/anime/genres", nil, false)
	case "genre":
		if *genre == "" {
			log.Fatal("-genre is required")
		}
		a.get(ctx, "/anime/genre/"+url.PathEscape(*genre), q, false)
	default:
		log.Fatal("usage: animehub anime <search|show|details|characters|similar|comments|top|popular|season|genres|genre>")
	}
}

func (a *api) handleWatchlist(ctx context.Context, sub string, args []string) {
	fs := flag.NewFlagSet("watchlist "+sub, flag.ExitOnError)
	animeID := fs.Int("anime-id", 0, "anime id")
	status := fs.String("status", "plan_to_watch", "watch status")
	limit := fs.Int("limit", 20, "page size")
	offset := fs.Int("offset", 0, "offset")
	_ = fs.Parse(args)

	switch sub {
	case "add":
		if *animeID <= 0 {
			log.Fatal("anime-id is required")
		}
		a.send(ctx, http.MethodPost, "/users/watchlist", map[string]any{"anime_id": *animeID, "status": *status})
	case "remove":
		if *animeID <= 0 {
			log.Fatal("anime-id is required")
		}
		a.send(ctx, http.MethodDelete, "/users/watchlist/"+strconv.Itoa(*animeID), nil)
	case "list":
		q := url.Values{"limit": {strconv.Itoa(*limit)}, "offset": {strconv.Itoa(*offset)}}
		if fs.Lookup("status").Value.String() != fs.Lookup("status").DefValue {
			q.Set("status", *status)
		}
		a.get(ctx, "/users/watchlist", q, true)
	case "hydrated":
		a.get(ctx, "/users/watchlist/hydrated", nil, true)
	default:
		log.Fatal("usage: animehub watchlist <add|remove|list|hydrated>")
	}
}

func (a *api) handleFavorites(ctx context.Context, sub string, args []string) {
	fs := flag.NewFlagSet("favorites "+sub, flag.ExitOnError)
	animeID := fs.Int("anime-id", 0, "anime id")
	_ = fs.Parse(args)

	switch sub {
	case "add":
		a.send(ctx, http.MethodPost, "/users/favorites", map[string]any{"anime_id": *animeID})
	case "remove":
		a.send(ctx, http.MethodDelete, "/users/favorites/"+strconv.Itoa(*animeID), nil)
	case "list":
		a.get(ctx, "/users/favorites", nil, true)
	case "hydrated":
		a.get(ctx, "/users/favorites/hydrated", nil, true)
	default:
		log.Fatal("usage: animehub favorites <add|remove|list|hydrated>")
	}
}

func (a *api) handleHistory(ctx context.Context, sub string, args []string) {
	fs := flag.NewFlagSet("history "+sub, flag.ExitOnError)
	animeID := fs.Int("anime-id", 0, "anime id")
	episode := fs.Int("episode", 0, "episode watched")
	limit := fs.Int("limit", 20, "page size")
	_ = fs.Parse(args)

	switch sub {
	case "add":
		if *animeID <= 0 {
			log.Fatal("anime-id is required")
		}
		payload := map[string]any{"anime_id": *animeID}
		if *episode > 0 {
			payload["episode"] = *episode
		}
		a.send(ctx, http.MethodPost, "/users/history", payload)
	case "list":
		a.get(ctx, "/users/history", url.Values{"limit": {strconv.Itoa(*limit)}}, true)
	default:
		log.Fatal("usage: animehub history <add|list>")
	}
}

func (a *api) handleReview(ctx context.Context, sub string, args []string) {
	fs := flag.NewFlagSet("review "+sub, flag.ExitOnError)
	animeID := fs.Int("anime-id", 0, "anime id")
	rating := fs.Int("rating", 0, "rating 1-10")
	text := fs.String("text", "", "comment text")
	id := fs.String("id", "", "comment id")
	_ = fs.Parse(args)

	switch sub {
	case "rate":
		a.send(ctx, http.MethodPut, "/users/ratings/"+strconv.Itoa(*animeID), map[string]any{"rating": *rating})
	case "ratings":
		a.get(ctx, "/users/ratings", nil, true)
	case "comment":
		payload := map[string]any{"anime_id": *animeID, "text": *text}
		if *rating > 0 {
			payload["rating"] = *rating
		}
		a.send(ctx, http.MethodPost, "/users/comments", payload)
	case "delete":
		if *id == "" {
			log.Fatal("-id is required")
		}
		a.send(ctx, http.MethodDelete, "/users/comments/"+url.PathEscape(*id), nil)
	default:
		log.Fatal("usage: animehub review <rate|ratings|comment|delete>")
	}
}

func handleSync(sub string, args []string) {
	switch sub {
	case "listen":
		fs := flag.NewFlagSet("sync listen", flag.ExitOnError)
		addr := fs.String("addr", "127.0.0.1:7070", "TCP sync server address")
		_ = fs.Parse(args)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		for ctx.Err() == nil {
			if err := synchub.Subscribe(ctx, *addr, func(ev synchub.ActivityEvent) { printJSON(ev) }); err != nil {
				log.Printf("[sync] disconnected: %v", err)
			}
			select {
			case <-ctx.Done():
			case <-time.After(1 * time.Second):
			}
		}
	default:
		log.Fatal("usage: animehub sync listen")
	}
}

func (a *api) handleNotify(sub string, args []string) {
	switch sub {
	case "subscribe":
		fs := flag.NewFlagSet("notify subscribe", flag.ExitOnError)
		wsURL := fs.String("ws", "", "WebSocket URL (defaults to /ws on API host)")
		_ = fs.Parse(args)

		endpoint := *wsURL
		if endpoint == "" {
			var err error
			endpoint, err = websocketURL(a.baseURL, "/ws")
			if err != nil {
				log.Fatalf("ws url: %v", err)
			}
		}
		if err := runWebSocket(endpoint); err != nil {
			log.Fatalf("subscribe failed: %v", err)
		}
	default:
		log.Fatal("usage: animehub notify subscribe")
	}
}

func (a *api) handleExport(ctx context.Context, sub string, args []string) {
	fs := flag.NewFlagSet("export "+sub, flag.ExitOnError)
	out := fs.String("out", "data/anime."+sub, "output path")
	limit := fs.Int("limit", 200, "max titles to export")
	_ = fs.Parse(args)

	items, err := a.fetchSnapshots(ctx, *limit)
	if err != nil {
		log.Fatalf("export failed: %v", err)
	}

	switch sub {
	case "json":
		err = writeJSON(*out, items)
	case "csv":
		err = writeCSV(*out, items)
	default:
		log.Fatal("usage: animehub export <json|csv>")
	}
	if err != nil {
		log.Fatalf("write %s failed: %v", sub, err)
	}
	log.Printf("exported %d titles to %s", len(items), *out)
}

func runWebSocket(wsURL string) error {
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Printf("[notify] connected to %s", wsURL)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		fmt.Println(string(msg))
	}
}

func (a *api) fetchSnapshots(ctx context.Context, limit int) ([]models.AnimeSnapshot, error) {
	if limit <= 0 {
		return nil, errors.New("limit must be > 0")
	}

	var out []models.AnimeSnapshot
	offset := 0
	for len(out) < limit {
		pageSize := 50
		if remaining := limit - len(out); remaining < pageSize {
			pageSize = remaining
		}
		q := url.Values{"limit": {strconv.Itoa(pageSize)}, "offset": {strconv.Itoa(offset)}}

		var resp snapshotListResponse
		if err := doJSON(ctx, a.client, http.MethodGet, a.baseURL+"/anime/snapshot?"+q.Encode(), "", nil, &resp); err != nil {
			return nil, err
		}
		if len(resp.Items) == 0 {
			break
		}
		out = append(out, resp.Items...)
		offset += len(resp.Items)
		if offset >= resp.Total {
			break
		}
	}

	return out, nil
}

func writeJSON(path string, items []models.AnimeSnapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func writeCSV(path string, items []models.AnimeSnapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{
		"id", "title", "status", "episodes", "score", "year", "genres", "image_url",
	}); err != nil {
		return err
	}
	for _, item := range items {
		if err := writer.Write([]string{
			strconv.Itoa(item.ID),
			item.Title,
			item.Status,
			strconv.Itoa(item.Episodes),
			strconv.FormatFloat(item.Score, 'f', -1, 64),
			strconv.Itoa(item.Year),
			strings.Join(item.Genres, ","),
			item.ImageURL,
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func doJSON(ctx context.Context, client *http.Client, method, endpoint, token string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = strings.NewReader(string(b))
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s failed: %s", method, endpoint, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("json: %v", err)
	}
	fmt.Println(string(b))
}

func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./.animehub-token.json"
	}
	return filepath.Join(home, ".animehub", "token.json")
}

func saveToken(path, token string) error {
	if token == "" {
		return errors.New("empty token")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(tokenData{Token: token}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func readToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var td tokenData
	if err := json.Unmarshal(data, &td); err != nil {
		return "", err
	}
	return strings.TrimSpace(td.Token), nil
}

func mustToken(path string) string {
	token, err := readToken(path)
	if err != nil {
		log.Fatalf("token not found, please login: %v", err)
	}
	if token == "" {
		log.Fatal("token empty, please login")
	}
	return token
}

func clearToken(path string) error {
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

func websocketURL(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return (&url.URL{
		Scheme: scheme,
		Host:   u.Host,
		Path:   path,
	}).String(), nil
}

func printUsage() {
	fmt.Println("animehub [-api URL] [-token PATH] <command> [subcommand] [flags]")
	fmt.Println("commands:")
	fmt.Println("  auth login|register|logout")
	fmt.Println("  anime search|show|details|characters|similar|comments|top|popular|season|genres|genre")
	fmt.Println("  watchlist add|remove|list|hydrated")
	fmt.Println("  favorites add|remove|list|hydrated")
	fmt.Println("  history add|list")
	fmt.Println("  review rate|ratings|comment|delete")
	fmt.Println("  me")
	fmt.Println("  recommend")
	fmt.Println("  sync listen")
	fmt.Println("  notify subscribe")
	fmt.Println("  export json|csv")
}
