// cmd/coordctl is an operator CLI built with Cobra (SPEC_FULL.md §3.3),
// grounded on the teacher's cmd/client/main.go: a persistent --server flag,
// one subcommand per admin operation, and a prettyPrint helper for JSON
// responses. Unlike the teacher's client, this talks only to a replica's
// admin HTTP surface (internal/adminapi) — it is an operator convenience,
// not a participant in the diner/courier/restaurant wire protocol.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	serverAddr string
	timeout    time.Duration
)

func main() {
	root := &cobra.Command{
		Use:   "coordctl",
		Short: "Operator CLI for a delivery-coordinator replica",
	}

	root.PersistentFlags().StringVarP(&serverAddr, "server", "s",
		"http://127.0.0.1:9080", "Replica admin API address")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Second,
		"HTTP request timeout")

	root.AddCommand(healthCmd(), leaderCmd(), storageCmd(), electCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show this replica's id, election role, and peer count",
		RunE: func(cmd *cobra.Command, args []string) error {
			return getAndPrint("/health")
		},
	}
}

func leaderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leader",
		Short: "Show the replica believed to be coordinator",
		RunE: func(cmd *cobra.Command, args []string) error {
			return getAndPrint("/leader")
		},
	}
}

func storageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "storage",
		Short: "Dump diners/restaurants/couriers known to this replica",
		RunE: func(cmd *cobra.Command, args []string) error {
			return getAndPrint("/storage")
		},
	}
}

func electCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "elect",
		Short: "Force this replica to start a new election",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := &http.Client{Timeout: timeout}
			resp, err := client.Post(serverAddr+"/election", "application/json", nil)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			prettyPrint(body)
			return nil
		},
	}
}

func getAndPrint(path string) error {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(serverAddr + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	prettyPrint(body)
	return nil
}

func prettyPrint(raw []byte) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		fmt.Println(string(raw))
		return
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Println(string(raw))
		return
	}
	fmt.Println(string(data))
}
