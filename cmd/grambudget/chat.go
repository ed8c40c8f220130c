package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/grambudget/grambudget/internal/transport"
	"github.com/grambudget/grambudget/internal/tui"
	"github.com/grambudget/grambudget/internal/widget"
	"github.com/spf13/cobra"
)

var (
	chatEndpoint string
	chatLogFile  string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant from the terminal",
	Long: `Opens the chat panel against a running grambudget server.

Keys: enter sends, tab fills a suggested question, esc closes the panel and
cancels a pending answer, ctrl+o toggles the panel, ctrl+c quits.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatEndpoint, "endpoint", "http://localhost:8080/api/chat", "Chat endpoint URL")
	chatCmd.Flags().StringVar(&chatLogFile, "log-file", "", "Write logs to this file (default: discard)")
}

func runChat(cmd *cobra.Command, _ []string) error {
	var out io.Writer = io.Discard
	if chatLogFile != "" {
		f, err := os.OpenFile(chatLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("error opening log file: %w", err)
		}
		defer f.Close()
		out = f
	}
	level := slog.LevelInfo
	if logLevel != "" {
		level = config{LogLevel: logLevel}.logLevel()
	}
	logger := newLogger(out, level)

	w := widget.New(transport.New(chatEndpoint, nil, logger), logger)
	defer w.Shutdown()

	p := tea.NewProgram(tui.New(w), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running chat: %w", err)
	}
	return nil
}
