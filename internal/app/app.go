// Package app wires the client together and drives the interactive
// terminal session: login, room selection, live chat.
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ethoschat/ethoschat/internal/api"
	"github.com/ethoschat/ethoschat/internal/auth"
	"github.com/ethoschat/ethoschat/internal/chat"
	"github.com/ethoschat/ethoschat/internal/config"
	"github.com/ethoschat/ethoschat/internal/controller"
	"github.com/ethoschat/ethoschat/internal/score"
	"github.com/ethoschat/ethoschat/internal/socket"
)

// App is the interactive chat client.
type App struct {
	cfg        config.Config
	log        *zerolog.Logger
	apiClient  *api.Client
	authSvc    *auth.Service
	controller *controller.Controller
}

// New constructs the client with all collaborators wired.
func New(cfg config.Config, logger *zerolog.Logger) *App {
	apiClient := api.New(cfg.ServerURL, logger)
	scores := score.New(cfg.ScoreURL, logger)

	sessions := socket.NewManager(socket.ManagerConfig{
		BaseURL: cfg.ServerURL,
		Backoff: socket.Backoff{
			Base:        cfg.Reconnect.BaseDelay,
			Cap:         cfg.Reconnect.MaxDelay,
			MaxAttempts: cfg.Reconnect.MaxAttempts,
		},
		Logger: logger,
	})

	ctrl := controller.New(apiClient, chat.NewStore(), sessions, cfg.HistoryLimit, logger)

	return &App{
		cfg:        cfg,
		log:        logger,
		apiClient:  apiClient,
		authSvc:    auth.NewService(scores, logger),
		controller: ctrl,
	}
}

// Run drives the terminal session until the context is cancelled or the
// user quits.
func (a *App) Run(ctx context.Context) error {
	if !a.apiClient.Health(ctx) {
		fmt.Printf("warning: chat server at %s is not responding\n", a.cfg.ServerURL)
	}

	scanner := bufio.NewScanner(os.Stdin)

	fmt.Print("Username: ")
	if !scanner.Scan() {
		return scanner.Err()
	}
	user, err := a.authSvc.Login(ctx, scanner.Text())
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	a.controller.Start(user)
	defer a.controller.Logout()

	a.controller.OnUpdate(func(roomID string) {
		msgs := a.controller.Messages(roomID)
		if len(msgs) == 0 {
			return
		}
		last := msgs[len(msgs)-1]
		fmt.Printf("[%s] %s: %s\n", roomID, last.Username, last.Text)
	})

	fmt.Printf("Logged in as %s (score %d)\n", user.Username, user.Score)
	a.printRooms(user)

	// Drop the user straight into their home room, like the UI does.
	if home, ok := chat.RoomForScore(user.Score); ok {
		a.enterRoom(ctx, home.ID)
	}

	fmt.Println("Type messages and press Enter to send. /rooms /join <room> /leave /quit")

	lines := make(chan string)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := a.handleLine(ctx, line); quit {
				return nil
			}
		}
	}
}

// handleLine dispatches one line of input. Returns true on /quit.
func (a *App) handleLine(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if !strings.HasPrefix(line, "/") {
		if err := a.controller.Send(ctx, line); err != nil {
			if errors.Is(err, controller.ErrSendFailed) {
				// Hand the text back so the user can retry.
				fmt.Printf("message not sent, try again: %s\n", line)
			} else {
				fmt.Printf("cannot send: %v\n", err)
			}
		}
		return false
	}

	cmd, arg, _ := strings.Cut(line, " ")
	switch cmd {
	case "/quit":
		return true
	case "/rooms":
		a.printRooms(a.controller.User())
	case "/join":
		a.enterRoom(ctx, strings.TrimSpace(arg))
	case "/leave":
		a.controller.Leave()
		fmt.Println("left room")
	default:
		fmt.Printf("unknown command: %s\n", cmd)
	}
	return false
}

func (a *App) enterRoom(ctx context.Context, roomID string) {
	err := a.controller.SetActiveRoom(ctx, roomID)
	switch {
	case errors.Is(err, controller.ErrUnknownRoom):
		fmt.Printf("no such room: %s\n", roomID)
		return
	case errors.Is(err, controller.ErrAccessDenied):
		fmt.Printf("your score does not qualify for %s\n", roomID)
		return
	case err != nil:
		fmt.Printf("cannot join %s: %v\n", roomID, err)
		return
	}

	msgs := a.controller.Messages(roomID)
	fmt.Printf("-- %s (%d messages) --\n", roomID, len(msgs))
	for _, m := range msgs {
		fmt.Printf("[%s] %s: %s\n", roomID, m.Username, m.Text)
	}
}

func (a *App) printRooms(user *chat.User) {
	if user == nil {
		return
	}
	fmt.Println("Rooms:")
	for _, room := range chat.Rooms {
		marker := " "
		if chat.CanAccess(user.Score, room) {
			marker = "*"
		}
		fmt.Printf("  %s %-12s %4d-%-4d %s\n", marker, room.ID, room.MinScore, room.MaxScore, room.Name)
	}
}
