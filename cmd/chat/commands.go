package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MegaGrindStone/portfolio-chat/internal/models"
	"github.com/MegaGrindStone/portfolio-chat/internal/tui"
	"github.com/MegaGrindStone/portfolio-chat/internal/widget"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func runTUI(ctx context.Context, opts *options) error {
	c, logger, closer, err := opts.client()
	if err != nil {
		return err
	}
	defer closer.Close()

	p := tea.NewProgram(tui.New(ctx, c, opts.title, logger), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return errors.Wrap(err, "run terminal ui")
	}
	return nil
}

func newAskCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a single question and print the transcript",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, logger, closer, err := opts.client()
			if err != nil {
				return err
			}
			defer closer.Close()

			ctrl := widget.New(widget.WithLogger(logger), widget.WithOpen())
			if !ctrl.Ask(cmd.Context(), c, strings.Join(args, " ")) {
				return errors.New("question is empty")
			}

			printTranscript(cmd, ctrl.Transcript())
			return nil
		},
	}
}

func printTranscript(cmd *cobra.Command, transcript []models.Message) {
	boldCyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	boldGreen := color.New(color.FgGreen, color.Bold).SprintFunc()

	out := cmd.OutOrStdout()
	for _, msg := range transcript {
		switch msg.Sender {
		case models.SenderUser:
			fmt.Fprintf(out, "%s %s\n", boldCyan("You:"), msg.Text)
		case models.SenderBot:
			fmt.Fprintf(out, "%s %s\n", boldGreen("Bot:"), msg.Text)
		}
	}
}

func newHealthCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the chat API health endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, _, closer, err := opts.client()
			if err != nil {
				return err
			}
			defer closer.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			h, err := c.Health(ctx)
			if err != nil {
				color.New(color.FgRed, color.Bold).Fprintln(cmd.ErrOrStderr(), "unhealthy")
				return errors.Wrap(err, "health check")
			}

			status := color.New(color.FgGreen, color.Bold).SprintFunc()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "status: %s\n", status(h.Status))
			if h.Message != "" {
				fmt.Fprintf(out, "message: %s\n", h.Message)
			}
			if h.Environment != "" {
				fmt.Fprintf(out, "environment: %s\n", h.Environment)
			}
			if h.LLMConfigured != nil {
				fmt.Fprintf(out, "llm configured: %t\n", *h.LLMConfigured)
			}
			if h.Timestamp != nil {
				fmt.Fprintf(out, "timestamp: %s\n", h.Timestamp.Format(time.RFC3339))
			}
			return nil
		},
	}
}
