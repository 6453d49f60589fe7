package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ewilliams-labs/moodmusic/internal/core/services"
	"github.com/spf13/cobra"
)

var detectCmd = &cobra.Command{
	Use:     "detect",
	Short:   "Detect the mood in an image file and print matching videos",
	Example: `  moodmusic detect --image selfie.jpg`,
	RunE:    runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)

	detectCmd.Flags().String("image", "", "Path to a JPEG, PNG, BMP or WebP image")
	_ = detectCmd.MarkFlagRequired("image")
}

func runDetect(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("image")
	frame, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.loader.Load(ctx); err != nil {
		return fmt.Errorf("load models: %w", err)
	}

	s, err := a.svc.StartSession(ctx)
	if err != nil {
		return err
	}
	if _, err := a.svc.CameraGranted(ctx, s.ID); err != nil {
		return err
	}

	s, err = a.svc.DetectMood(ctx, s.ID, frame)
	if s.Mood != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Detected Mood: %s\n", s.Mood)
		fmt.Fprintf(cmd.OutOrStdout(), "Query: %s\n", s.Query)
	}
	if err != nil {
		var cerr *services.CycleError
		if errors.As(err, &cerr) && s.Err != nil {
			return fmt.Errorf("%s (%w)", s.Err.Message, err)
		}
		return err
	}
	for _, u := range s.EmbedURLs {
		fmt.Fprintln(cmd.OutOrStdout(), u)
	}
	return nil
}
