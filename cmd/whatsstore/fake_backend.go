package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"whatsstore/internal/gateway/gatewaytest"
)

var fakeAddr string

var fakeBackendCmd = &cobra.Command{
	Use:   "fake-backend",
	Short: "Serve an in-memory Backend Gateway for local development",
	Long: `Serves a seeded catalog, OTP login (code ` + gatewaytest.OTP + `) and order storage
with the same JSON contract as the real backend. Data lives in memory only.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srv := &http.Server{Addr: fakeAddr, Handler: gatewaytest.Seeded().Router(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			<-ctx.Done()
			shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdown)
		}()
		log.Printf("[fake-backend] listening on %s", fakeAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	fakeBackendCmd.Flags().StringVar(&fakeAddr, "addr", ":8090", "listen address")
}
