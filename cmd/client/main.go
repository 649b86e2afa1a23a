// Package main is the terminal client for the refind lost-and-found
// registry: an interactive shell over the session store and the
// registry API.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/dsmolkin/refind/internal/client/api"
	"github.com/dsmolkin/refind/internal/client/session"
	"github.com/dsmolkin/refind/internal/client/storage"
	"github.com/dsmolkin/refind/internal/models"
)

var (
	version   string
	buildDate string
)

// shell bundles what the REPL commands need.
type shell struct {
	store  *session.Store
	client *api.Client
	in     *bufio.Scanner
	// loggingOut suppresses the "session expired" notice while a
	// user-initiated logout is in progress.
	loggingOut atomic.Bool
}

// prompt reads one line of input for the given field label.
func (sh *shell) prompt(label string) string {
	fmt.Printf("%s: ", label)
	if !sh.in.Scan() {
		return ""
	}
	return strings.TrimSpace(sh.in.Text())
}

// guard consults the access gate for the command's requirement and
// reports whether it may run, printing where the user was sent instead.
func (sh *shell) guard(req session.Requirement) bool {
	d := session.Decide(sh.store.Current(), req)
	if d.Allow {
		return true
	}
	switch d.Target {
	case session.RedirectLogin:
		fmt.Println("Please log in first (\"login\").")
	default:
		fmt.Println("Admins only; back to search.")
	}
	return false
}

// watchSession reports silent invalidation: if the session drops to
// unauthenticated without the user asking for it, say so once.
func (sh *shell) watchSession() {
	ch := sh.store.Subscribe()
	wasLive := sh.store.Current().State != session.Unauthenticated
	for snap := range ch {
		live := snap.State != session.Unauthenticated
		if wasLive && !live && !sh.loggingOut.Load() {
			fmt.Println("\nSession expired, please log in again.")
		}
		wasLive = live
	}
}

func (sh *shell) register() {
	name := sh.prompt("name")
	email := sh.prompt("email")
	password := sh.prompt("password")

	user, err := sh.client.Register(context.Background(), name, email, password)
	if err != nil {
		fmt.Println("Registration failed:", err)
		return
	}
	fmt.Printf("Registered %s (id %d). You can now log in.\n", user.Email, user.ID)
}

func (sh *shell) login() {
	email := sh.prompt("email")
	password := sh.prompt("password")

	token, err := sh.client.Login(context.Background(), email, password)
	if err != nil {
		fmt.Println("Login failed:", err)
		return
	}
	sh.store.Login(token)
	fmt.Println("Logged in; resolving profile...")
}

func (sh *shell) whoami() {
	snap := sh.store.Current()
	switch snap.State {
	case session.Authenticated:
		fmt.Printf("%s <%s> (role %s)\n", snap.User.Name, snap.User.Email, snap.User.Role)
	case session.Resolving:
		fmt.Println("Signed in, profile still resolving (try \"retry\" if this persists).")
	default:
		fmt.Println("Not signed in.")
	}
}

func (sh *shell) postItem(itemType models.ItemType) {
	item := api.NewItem{
		Type:        itemType,
		Title:       sh.prompt("title"),
		Description: sh.prompt("description"),
		Category:    sh.prompt("category"),
		Location:    sh.prompt("location"),
	}
	if item.Title == "" {
		fmt.Println("Title is required.")
		return
	}
	item.DateReported = time.Now()

	created, err := sh.client.CreateItem(context.Background(), item)
	if err != nil {
		fmt.Println("Posting failed:", err)
		return
	}
	fmt.Printf("Posted %s item #%d: %s\n", created.Type, created.ID, created.Title)
}

func (sh *shell) search(args []string) {
	q := api.SearchQuery{Query: strings.Join(args, " ")}
	items, err := sh.client.Search(context.Background(), q)
	if err != nil {
		fmt.Println("Search failed:", err)
		return
	}
	if len(items) == 0 {
		fmt.Println("No open listings found.")
		return
	}
	printItems(items)
}

func (sh *shell) item(args []string) {
	id, ok := parseID(args)
	if !ok {
		fmt.Println("Usage: item <id>")
		return
	}
	detail, err := sh.client.Item(context.Background(), id)
	if err != nil {
		fmt.Println("Lookup failed:", err)
		return
	}
	b, _ := json.MarshalIndent(detail, "", "  ")
	fmt.Println(string(b))
}

func (sh *shell) matches(args []string) {
	id, ok := parseID(args)
	if !ok {
		fmt.Println("Usage: matches <id>")
		return
	}
	matches, err := sh.client.Matches(context.Background(), id)
	if err != nil {
		fmt.Println("Matching failed:", err)
		return
	}
	if len(matches) == 0 {
		fmt.Println("No similar listings yet.")
		return
	}
	for _, m := range matches {
		fmt.Printf("item #%d  score %.2f\n", m.ItemID, m.Score)
	}
}

func (sh *shell) adminList() {
	items, err := sh.client.AdminListItems(context.Background())
	if err != nil {
		fmt.Println("Listing failed:", err)
		return
	}
	printItems(items)
}

func (sh *shell) adminStatus(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: admin-status <id> <open|matched|resolved>")
		return
	}
	id, ok := parseID(args[:1])
	if !ok {
		fmt.Println("Usage: admin-status <id> <open|matched|resolved>")
		return
	}
	if err := sh.client.AdminUpdateStatus(context.Background(), id, models.ItemStatus(args[1])); err != nil {
		fmt.Println("Update failed:", err)
		return
	}
	fmt.Println("Status updated.")
}

func (sh *shell) adminDelete(args []string) {
	id, ok := parseID(args)
	if !ok {
		fmt.Println("Usage: admin-delete <id>")
		return
	}
	if err := sh.client.AdminDeleteItem(context.Background(), id); err != nil {
		fmt.Println("Delete failed:", err)
		return
	}
	fmt.Println("Listing deleted.")
}

func parseID(args []string) (int64, bool) {
	if len(args) < 1 {
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	return id, err == nil
}

func printItems(items []models.Item) {
	for _, it := range items {
		fmt.Printf("#%-4d %-6s %-9s %s", it.ID, it.Type, it.Status, it.Title)
		if it.Location != "" {
			fmt.Printf("  @ %s", it.Location)
		}
		fmt.Println()
	}
}

// repl runs the interactive loop, accepting commands to use the registry.
func (sh *shell) repl() {
	go sh.watchSession()

	for {
		fmt.Print("refind> ")
		if !sh.in.Scan() {
			break
		}
		line := strings.TrimSpace(sh.in.Text())
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "help":
			fmt.Println("Available commands: help, register, login, logout, whoami, retry,")
			fmt.Println("  post-lost, post-found, search [words], item <id>, matches <id>,")
			fmt.Println("  admin-list, admin-status <id> <status>, admin-delete <id>, exit")
		case "register":
			sh.register()
		case "login":
			sh.login()
		case "logout":
			sh.loggingOut.Store(true)
			sh.store.Logout()
			sh.loggingOut.Store(false)
			fmt.Println("Logged out.")
		case "whoami":
			sh.whoami()
		case "retry":
			sh.store.Retry()
		case "post-lost":
			if sh.guard(session.RequireAuth) {
				sh.postItem(models.ItemLost)
			}
		case "post-found":
			if sh.guard(session.RequireAuth) {
				sh.postItem(models.ItemFound)
			}
		case "search":
			sh.search(args[1:])
		case "item":
			sh.item(args[1:])
		case "matches":
			if sh.guard(session.RequireAuth) {
				sh.matches(args[1:])
			}
		case "admin-list":
			if sh.guard(session.RequireAdmin) {
				sh.adminList()
			}
		case "admin-status":
			if sh.guard(session.RequireAdmin) {
				sh.adminStatus(args[1:])
			}
		case "admin-delete":
			if sh.guard(session.RequireAdmin) {
				sh.adminDelete(args[1:])
			}
		case "exit":
			fmt.Println("Bye")
			return
		default:
			fmt.Println("Unknown command. Type 'help' for a list of commands.")
		}
	}
}

// main parses command-line flags and starts the shell.
func main() {
	var (
		baseURL     string
		sessionFile string
		showVer     bool
	)

	flag.StringVar(&baseURL, "url", "http://localhost:8080", "server base URL")
	flag.StringVar(&sessionFile, "session", "session.json", "path to the persisted session file")
	flag.BoolVar(&showVer, "version", false, "show build version and date")
	flag.Parse()

	if showVer {
		fmt.Printf("refind Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return
	}

	creds := &storage.FileStore{Path: sessionFile}

	// The API client reads the live token from the store; the store
	// resolves identities through the API client. Wire the token source
	// through a late-bound pointer so both can be constructed.
	var store *session.Store
	client := api.New(baseURL, func() string {
		if store == nil {
			return ""
		}
		return store.Current().Token
	})
	store = session.New(creds, client, zap.NewNop())

	sh := &shell{store: store, client: client, in: bufio.NewScanner(os.Stdin)}
	sh.repl()
}
