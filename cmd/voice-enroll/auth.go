package main

import (
	"fmt"

	"github.com/abhishekpandeykyndryl/multi-model-recognition-project/internal/capture"
	"github.com/abhishekpandeykyndryl/multi-model-recognition-project/internal/enroll"
	"github.com/spf13/cobra"
)

var (
	authEmail    string
	authPassword string

	loginFace        string
	loginVoice       string
	loginRecordVoice bool
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account with a password",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := newClient().Register(cmd.Context(), resolveEmail(cmd, authEmail), authPassword)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Registered user %s\n", res.UserID)
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with a password plus a face image and/or voice sample",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		req := enroll.LoginRequest{
			Email:    resolveEmail(cmd, authEmail),
			Password: authPassword,
		}

		if loginFace != "" {
			face, err := capture.LoadFile(loginFace)
			if err != nil {
				return fmt.Errorf("failed to read face image: %w", err)
			}
			req.Face = &face
		}

		switch {
		case loginVoice != "":
			voice, err := capture.LoadFile(loginVoice)
			if err != nil {
				return fmt.Errorf("failed to read voice sample: %w", err)
			}
			req.Voice = &voice
		case loginRecordVoice:
			rec := capture.NewRecorder(captureDuration(0))
			rec.OnState = logState
			fmt.Fprintln(cmd.ErrOrStderr(), "Recording... speak now.")
			voice, err := rec.Record(ctx, newSource(""))
			if err != nil {
				return err
			}
			if voice.Empty() {
				return capture.ErrEmptyCapture
			}
			req.Voice = &voice
		}

		res, err := newClient().Login(ctx, req)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Login granted (face score %.2f, voice ok %t)\n", res.FaceScore, res.VoiceOK)
		if claims, err := enroll.ParseToken(res.Token); err == nil {
			fmt.Fprintf(out, "User: %s\nExpires: %s\n", claims.Subject, claims.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
		}
		fmt.Fprintf(out, "Token: %s\n", res.Token)
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the backend is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		reply, err := newClient().Health(cmd.Context())
		if err != nil {
			return err
		}
		if !reply.OK() {
			return fmt.Errorf("backend unhealthy: status %d: %s", reply.Status, reply.Body)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Server %s is healthy\n", cfg.ServerURL)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{registerCmd, loginCmd} {
		c.Flags().StringVar(&authEmail, "email", "", "account email (default from config)")
		c.Flags().StringVar(&authPassword, "password", "", "account password")
		_ = c.MarkFlagRequired("password")
	}

	loginCmd.Flags().StringVar(&loginFace, "face", "", "face image file")
	loginCmd.Flags().StringVar(&loginVoice, "voice", "", "prepared voice sample file")
	loginCmd.Flags().BoolVar(&loginRecordVoice, "record-voice", false, "record a voice sample from the microphone")
	loginCmd.MarkFlagsMutuallyExclusive("voice", "record-voice")

	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(healthCmd)
}
