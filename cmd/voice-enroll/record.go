package main

import (
	"fmt"
	"os"

	"github.com/abhishekpandeykyndryl/multi-model-recognition-project/internal/capture"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	recordOut      string
	recordDuration int
	recordFromFile string
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a voice sample to a file without submitting it",
	RunE: func(cmd *cobra.Command, args []string) error {
		rec := capture.NewRecorder(captureDuration(recordDuration))
		rec.OnState = logState

		fmt.Fprintf(os.Stderr, "Recording for %s...\n", rec.Duration)
		clip, err := rec.Record(cmd.Context(), newSource(recordFromFile))
		if err != nil {
			return err
		}
		if clip.Empty() {
			return capture.ErrEmptyCapture
		}

		if err := os.WriteFile(recordOut, clip.Data, 0o600); err != nil {
			return fmt.Errorf("failed to write clip: %w", err)
		}
		fmt.Printf("Wrote %d bytes (%s) to %s\n", clip.Size(), clip.MIMEType, recordOut)
		return nil
	},
}

func logState(s capture.State) {
	log.Debug("state", zap.String("state", string(s)))
}

func init() {
	recordCmd.Flags().StringVarP(&recordOut, "out", "o", "voice.wav", "output file")
	recordCmd.Flags().IntVar(&recordDuration, "duration", 0, "recording length in seconds (default from config)")
	recordCmd.Flags().StringVar(&recordFromFile, "from-file", "", "replay a prepared recording instead of the microphone")

	rootCmd.AddCommand(recordCmd)
}
