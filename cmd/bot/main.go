// Command bot plays battleship against a running server over WebSocket.
//
// It either joins an existing room (--room) or creates one (--ruleset).
// With --self-play it seats two bots in a fresh room and plays them against
// each other, which is a quick end-to-end check of a deployment.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/battleship-server/game/engine"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "bot: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "bot",
		Usage: "Play battleship automatically",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "Game server URL", Sources: cli.EnvVars("BATTLESHIP_URL")},
			&cli.StringFlag{Name: "room", Usage: "Join this room instead of creating one"},
			&cli.StringFlag{Name: "ruleset", Usage: "Ruleset for a newly created room (server default when empty)"},
			&cli.StringFlag{Name: "player", Usage: "Player id (random when empty)"},
			&cli.BoolFlag{Name: "self-play", Usage: "Create a room and play two bots against each other"},
			&cli.Int64Flag{Name: "seed", Usage: "Random seed (time based when zero)"},
			&cli.DurationFlag{Name: "delay", Usage: "Pause before each attack"},
			&cli.BoolFlag{Name: "v", Usage: "Verbose output"},
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	level := slog.LevelInfo
	if cmd.Bool("v") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	baseURL := cmd.String("url")
	seed := cmd.Int64("seed")
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	roomID := cmd.String("room")
	if roomID == "" || cmd.Bool("self-play") {
		id, err := CreateRoom(ctx, &http.Client{Timeout: 10 * time.Second}, baseURL, cmd.String("ruleset"))
		if err != nil {
			return err
		}
		roomID = id
		logger.Info("room created", "room_id", roomID)
	}

	if cmd.Bool("self-play") {
		results, err := SelfPlay(ctx, baseURL, roomID, seed, cmd.Duration("delay"), logger)
		if err != nil {
			return err
		}
		for _, r := range results {
			if r.Won {
				logger.Info("winner", "room_id", r.RoomID, "player", string(r.Winner), "shots", r.Shots)
			}
		}
		return nil
	}

	player := cmd.String("player")
	if player == "" {
		player = "bot-" + uuid.NewString()[:8]
	}

	bot := NewBot(baseURL, engine.PlayerID(player), seed, cmd.Duration("delay"), logger)
	result, err := bot.Play(ctx, roomID)
	if err != nil {
		return err
	}
	if !result.Won {
		return fmt.Errorf("lost to %s after %d shots", result.Winner, result.Shots)
	}
	return nil
}

// SelfPlay seats two bots in roomID and plays them to the end
func SelfPlay(ctx context.Context, baseURL, roomID string, seed int64, delay time.Duration, logger *slog.Logger) ([]*Result, error) {
	players := []engine.PlayerID{"bot-a", "bot-b"}
	results := make([]*Result, len(players))
	errs := make([]error, len(players))

	var wg sync.WaitGroup
	for i, p := range players {
		wg.Add(1)
		go func(i int, p engine.PlayerID) {
			defer wg.Done()
			results[i], errs[i] = NewBot(baseURL, p, seed+int64(i), delay, logger).Play(ctx, roomID)
		}(i, p)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("%s: %w", players[i], err)
		}
	}
	return results, nil
}
