// admin-repl is an interactive client for the operator REST surface
// (internal/api): login, pull live stats, and register accounts without
// hand-writing curl commands. Grounded on the teacher's
// cmd/tools/event-cli for its flag-driven single-binary-tool shape and on
// dm-vev-adamant's server/console for the go-prompt-driven interactive
// loop (history, tab completion over a fixed command set).
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	prompt "github.com/c-bata/go-prompt"
)

const defaultPromptPrefix = "admin> "

var commandNames = []string{"login", "register", "stats", "server", "user", "health", "help", "exit"}

type session struct {
	baseURL string
	client  *http.Client
	token   string
	history []string
}

func main() {
	addr := flag.String("addr", "http://localhost:8088", "base URL of the admin REST API")
	flag.Parse()

	s := &session{
		baseURL: strings.TrimRight(*addr, "/"),
		client:  &http.Client{Timeout: 5 * time.Second},
	}

	fmt.Printf("connected to %s — type 'help' for commands\n", s.baseURL)
	for {
		line := prompt.Input(defaultPromptPrefix, s.complete,
			prompt.OptionTitle("mmo-game admin console"),
			prompt.OptionHistory(s.history),
			prompt.OptionPrefix(defaultPromptPrefix),
		)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		s.history = append(s.history, line)
		if line == "exit" || line == "quit" {
			return
		}
		s.execute(line)
	}
}

func (s *session) complete(doc prompt.Document) []prompt.Suggest {
	word := doc.GetWordBeforeCursor()
	suggestions := make([]prompt.Suggest, 0, len(commandNames))
	for _, name := range commandNames {
		suggestions = append(suggestions, prompt.Suggest{Text: name})
	}
	sort.Slice(suggestions, func(i, j int) bool { return suggestions[i].Text < suggestions[j].Text })
	return prompt.FilterHasPrefix(suggestions, word, true)
}

func (s *session) execute(line string) {
	fields := strings.Fields(line)
	cmd := fields[0]
	args := fields[1:]

	switch cmd {
	case "help":
		fmt.Println("login <username> <password>   authenticate and store a JWT")
		fmt.Println("register <username> <password> [admin]   create an account (admin-only)")
		fmt.Println("stats                          live engine + process stats")
		fmt.Println("server                         server identity/uptime info")
		fmt.Println("user <id>                      look up an account by id")
		fmt.Println("health                         unauthenticated liveness check")
		fmt.Println("exit                           quit")
	case "login":
		if len(args) != 2 {
			fmt.Println("usage: login <username> <password>")
			return
		}
		s.login(args[0], args[1])
	case "register":
		if len(args) < 2 {
			fmt.Println("usage: register <username> <password> [admin]")
			return
		}
		isAdmin := len(args) >= 3 && args[2] == "admin"
		s.post("/api/admin/register", map[string]interface{}{
			"username": args[0],
			"password": args[1],
			"is_admin": isAdmin,
		}, true)
	case "stats":
		s.get("/api/stats", true)
	case "server":
		s.get("/api/server", true)
	case "user":
		if len(args) != 1 {
			fmt.Println("usage: user <id>")
			return
		}
		s.get("/api/admin/users/"+args[0], true)
	case "health":
		s.get("/health", false)
	default:
		fmt.Printf("unknown command %q — type 'help'\n", cmd)
	}
}

func (s *session) login(username, password string) {
	body, status, err := s.doRequest(http.MethodPost, "/api/auth/login", map[string]interface{}{
		"username": username,
		"password": password,
	}, false)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	if status != http.StatusOK {
		fmt.Printf("login failed (%d): %s\n", status, body)
		return
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || resp.Token == "" {
		fmt.Println("login succeeded but no token in response:", string(body))
		return
	}
	s.token = resp.Token
	fmt.Println("authenticated, token stored for this session")
}

func (s *session) get(path string, auth bool) {
	body, status, err := s.doRequest(http.MethodGet, path, nil, auth)
	s.printResult(body, status, err)
}

func (s *session) post(path string, payload interface{}, auth bool) {
	body, status, err := s.doRequest(http.MethodPost, path, payload, auth)
	s.printResult(body, status, err)
}

func (s *session) printResult(body []byte, status int, err error) {
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	var pretty bytes.Buffer
	if json.Indent(&pretty, body, "", "  ") == nil {
		fmt.Printf("[%d]\n%s\n", status, pretty.String())
		return
	}
	fmt.Printf("[%d] %s\n", status, body)
}

func (s *session) doRequest(method, path string, payload interface{}, auth bool) ([]byte, int, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, err
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, s.baseURL+path, reqBody)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if auth {
		if s.token == "" {
			return nil, 0, fmt.Errorf("not authenticated — run 'login <username> <password>' first")
		}
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}
