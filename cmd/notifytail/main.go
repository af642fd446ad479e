// Command notifytail logs in, opens the notification socket and prints every
// event it receives. With -clients above one it opens that many sockets and
// reports connection and message counts instead, as a load test.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

type counters struct {
	dialed   atomic.Int64
	open     atomic.Int64
	failed   atomic.Int64
	received atomic.Int64
}

func (c *counters) report() {
	log.Printf("sockets dialed=%d open=%d failed=%d, events received=%d",
		c.dialed.Load(), c.open.Load(), c.failed.Load(), c.received.Load())
}

// api talks to one vidtube server as one user.
type api struct {
	host  string
	token string
	http  *http.Client
}

func main() {
	host := flag.String("host", "localhost:8000", "API server host")
	email := flag.String("email", "", "login email")
	username := flag.String("username", "", "login username, used when -email is empty")
	password := flag.String("password", "password123", "login password")
	clients := flag.Int("clients", 1, "concurrent sockets")
	duration := flag.Duration("duration", 0, "stop after this long; 0 runs until interrupted")
	flag.Parse()

	if *email == "" && *username == "" {
		log.Fatal("one of -email or -username is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	a := &api{host: *host, http: &http.Client{Timeout: 5 * time.Second}}
	if err := a.login(ctx, *email, *username, *password); err != nil {
		log.Fatalf("login: %v", err)
	}

	verbose := *clients == 1
	var stats counters
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < *clients; i++ {
		g.Go(func() error {
			if err := a.tail(gctx, &stats, verbose); err != nil {
				stats.failed.Add(1)
				if verbose {
					return err
				}
			}
			return nil
		})
		if *clients > 1 {
			time.Sleep(50 * time.Millisecond) // spread ticket requests over the rate limit window
		}
	}

	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
	if !verbose {
		stats.report()
	}
}

// post sends body as JSON and decodes the data field of the success envelope.
func (a *api) post(ctx context.Context, path string, body, data any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://"+a.host+"/api/v1"+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	var env struct {
		Data    json.RawMessage `json:"data"`
		Message string          `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%s: status %d: %w", path, resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: status %d: %s", path, resp.StatusCode, env.Message)
	}
	return json.Unmarshal(env.Data, data)
}

func (a *api) login(ctx context.Context, email, username, password string) error {
	creds := map[string]string{"password": password}
	if email != "" {
		creds["email"] = email
	} else {
		creds["username"] = username
	}
	var out struct {
		AccessToken string `json:"accessToken"`
	}
	if err := a.post(ctx, "/users/login", creds, &out); err != nil {
		return err
	}
	if out.AccessToken == "" {
		return errors.New("no access token in login response")
	}
	a.token = out.AccessToken
	return nil
}

// tail opens one socket and reads until ctx ends or the server hangs up.
func (a *api) tail(ctx context.Context, stats *counters, verbose bool) error {
	stats.dialed.Add(1)

	var ticket struct {
		Ticket string `json:"ticket"`
	}
	if err := a.post(ctx, "/notifications/ticket", nil, &ticket); err != nil {
		return err
	}

	u := url.URL{
		Scheme:   "ws",
		Host:     a.host,
		Path:     "/api/v1/notifications/ws",
		RawQuery: url.Values{"ticket": {ticket.Ticket}}.Encode(),
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer func() { _ = conn.Close() }()
	stats.open.Add(1)

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			stats.received.Add(1)
			if verbose {
				fmt.Println(string(msg))
			}
		}
	}()

	select {
	case <-ctx.Done():
		bye := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = conn.WriteControl(websocket.CloseMessage, bye, time.Now().Add(time.Second))
	case <-closed:
		if verbose {
			log.Println("server closed the socket")
		}
	}
	return nil
}
