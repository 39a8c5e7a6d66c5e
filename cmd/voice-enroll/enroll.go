package main

import (
	"errors"
	"fmt"

	"github.com/abhishekpandeykyndryl/multi-model-recognition-project/internal/archive"
	"github.com/abhishekpandeykyndryl/multi-model-recognition-project/internal/capture"
	"github.com/abhishekpandeykyndryl/multi-model-recognition-project/internal/enroll"
	"github.com/abhishekpandeykyndryl/multi-model-recognition-project/internal/session"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	enrollEmail    string
	enrollFromFile string
	enrollDuration int
	enrollImage    string
)

var enrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Enroll a biometric factor with the backend",
}

var enrollVoiceCmd = &cobra.Command{
	Use:   "voice",
	Short: "Record a voice sample and submit it for enrollment",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		store, err := archive.New(ctx, cfg.Archive)
		if err != nil {
			return err
		}
		if store != nil {
			defer func() {
				if err := store.Close(); err != nil {
					log.Warn("failed to close archive", zap.Error(err))
				}
			}()
		}

		cycle := &session.Cycle{
			Source:        newSource(enrollFromFile),
			Duration:      captureDuration(enrollDuration),
			Submitter:     newClient(),
			Notifier:      &session.WriterNotifier{W: cmd.OutOrStdout()},
			Archive:       store,
			ArchivePrefix: cfg.Archive.Prefix,
			OnState: func(s capture.State) {
				logState(s)
				if s == capture.StateRecording {
					fmt.Fprintln(cmd.ErrOrStderr(), "Recording... speak now.")
				}
			},
		}

		_, err = cycle.Run(ctx, resolveEmail(cmd, enrollEmail))
		if errors.Is(err, enroll.ErrNetwork) {
			// The cycle notified the error text already.
			return &reportedError{err: err}
		}
		return err
	},
}

var enrollFaceCmd = &cobra.Command{
	Use:   "face",
	Short: "Submit a face image for enrollment",
	RunE: func(cmd *cobra.Command, args []string) error {
		image, err := capture.LoadFile(enrollImage)
		if err != nil {
			return fmt.Errorf("failed to read image: %w", err)
		}

		reply, err := newClient().EnrollFace(cmd.Context(), resolveEmail(cmd, enrollEmail), image)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), reply.Body)
		return nil
	},
}

func init() {
	enrollCmd.PersistentFlags().StringVar(&enrollEmail, "email", "", "account email (default from config)")

	enrollVoiceCmd.Flags().StringVar(&enrollFromFile, "from-file", "", "replay a prepared recording instead of the microphone")
	enrollVoiceCmd.Flags().IntVar(&enrollDuration, "duration", 0, "recording length in seconds (default from config)")

	enrollFaceCmd.Flags().StringVar(&enrollImage, "image", "", "face image file")
	_ = enrollFaceCmd.MarkFlagRequired("image")

	enrollCmd.AddCommand(enrollVoiceCmd)
	enrollCmd.AddCommand(enrollFaceCmd)
	rootCmd.AddCommand(enrollCmd)
}
