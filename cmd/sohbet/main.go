package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ledzpl/sohbet/internal/chat"
	"github.com/ledzpl/sohbet/pkg/wsclient"
)

type config struct {
	ServerURL string `env:"SOHBET_SERVER_URL" envDefault:"ws://localhost:8000/ws"`
	Username  string `env:"SOHBET_USERNAME"`
	LogLevel  string `env:"SOHBET_LOG_LEVEL" envDefault:"warn"`
}

var rootCmd = &cobra.Command{
	Use:   "sohbet",
	Short: "Terminal client for the sohbet chat server",
	Long: `sohbet connects to a sohbet chat server over one persistent websocket,
tracks who is online and who is typing, and renders the message timeline
in the terminal.

Input lines are sent as chat messages. Commands:
  /to <user>    address subsequent messages to one participant
  /to           go back to broadcasting
  /delete <id>  delete one of your own stored messages
  /quit         leave`,
	RunE: runClient,
}

var (
	flagServerURL string
	flagUsername  string
	flagLogLevel  string
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagServerURL, "server-url", "", "websocket endpoint, e.g. wss://chat.example.org/ws (overrides SOHBET_SERVER_URL)")
	flags.StringVar(&flagUsername, "username", "", "participant name issued by the server (overrides SOHBET_USERNAME)")
	flags.StringVar(&flagLogLevel, "log-level", "", "zerolog level (overrides SOHBET_LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("execute sohbet command")
	}
}

func runClient(cmd *cobra.Command, args []string) error {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if flagServerURL != "" {
		cfg.ServerURL = flagServerURL
	}
	if flagUsername != "" {
		cfg.Username = flagUsername
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if cfg.Username == "" {
		return errors.New("no username: set --username or SOHBET_USERNAME")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	origin, err := chat.OriginFromWS(cfg.ServerURL)
	if err != nil {
		return fmt.Errorf("derive http origin: %w", err)
	}

	renderer := chat.NewTerminalRenderer(os.Stdout, cfg.Username)
	renderer.ClearScreen()

	sess := chat.NewSession(cfg.Username, renderer, chat.NewHTTPDeleter(origin),
		chat.WithSessionLogger(logger.With().Str("component", "session").Logger()))
	channel := wsclient.New(cfg.ServerURL, sess,
		wsclient.WithLogger(logger.With().Str("component", "wsclient").Logger()))
	sess.AttachTransport(channel)

	if err := sess.Start(); err != nil {
		return err
	}

	go pumpInput(sess, cfg.Username, cancel)

	<-ctx.Done()
	sess.Stop()
	logger.Info().Msg("session closed")
	return nil
}

// pumpInput translates stdin lines into session intents. The terminal is
// line-buffered, so typing activity is reported per rune as each submitted
// line is replayed into the compose buffer.
func pumpInput(sess *chat.Session, username string, quit context.CancelFunc) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "/quit":
			quit()
			return
		case line == "/to":
			sess.SelectRecipient("")
		case strings.HasPrefix(line, "/to "):
			sess.SelectRecipient(strings.TrimSpace(strings.TrimPrefix(line, "/to ")))
		case strings.HasPrefix(line, "/delete "):
			id := strings.TrimSpace(strings.TrimPrefix(line, "/delete "))
			sess.DeleteMessage(chat.Message{ID: chat.MessageID(id), Sender: username})
		default:
			for _, r := range line {
				sess.TypeRune(r)
			}
			sess.Submit()
		}
	}
	quit()
}
