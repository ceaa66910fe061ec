package main

import (
	"fmt"
	"os"

	"github.com/martinemde/turing/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve machines over HTTP",
	Long:  "Start an HTTP server exposing machine creation, execution and word acceptance, with server-sent events for step streams.",
	RunE:  serveMachines,
}

func init() {
	serveCmd.Flags().String("addr", ":8714", "Listen address")

	_ = viper.BindPFlag("addr", serveCmd.Flags().Lookup("addr"))

	rootCmd.AddCommand(serveCmd)
}

func serveMachines(cmd *cobra.Command, args []string) error {
	addr := viper.GetString("addr")
	s := server.New(addr)
	fmt.Fprintf(os.Stderr, "[serve] Listening on %s\n", addr)
	return s.ListenAndServe()
}
