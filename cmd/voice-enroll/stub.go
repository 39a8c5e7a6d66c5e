package main

import (
	"github.com/abhishekpandeykyndryl/multi-model-recognition-project/internal/stubserver"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var stubListen string

var stubServerCmd = &cobra.Command{
	Use:   "stub-server",
	Short: "Run an in-memory backend for local testing",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := stubListen
		if addr == "" {
			addr = cfg.Stub.ListenAddr
		}
		if cfg.Stub.JWTSecret == "changeme" {
			log.Warn("stub server is using the default JWT secret")
		}

		gin.SetMode(gin.ReleaseMode)
		return stubserver.New(cfg.Stub.JWTSecret).ListenAndServe(cmd.Context(), addr)
	},
}

func init() {
	stubServerCmd.Flags().StringVar(&stubListen, "listen", "", "listen address (default from config)")
	rootCmd.AddCommand(stubServerCmd)
}
