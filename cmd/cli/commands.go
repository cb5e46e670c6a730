package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mauv0809/matchqueue/internal/auth"
	"github.com/mauv0809/matchqueue/internal/orchestrator"
	"github.com/spf13/cobra"
)

var (
	submitInput orchestrator.SubmitInput
	region      string
	skill       int
	pingMs      int
	maxPingMs   int

	sweepLimit int
	sweepAsync bool
	sweepToken string

	tokenSecret string
	tokenTTL    time.Duration
)

func init() {
	submitCmd.Flags().StringVar(&submitInput.GameID, "game", "", "The game to queue for")
	submitCmd.Flags().StringVar(&region, "region", "", "Preferred region")
	submitCmd.Flags().IntVar(&skill, "skill", 0, "Skill rating from 1 to 10")
	submitCmd.Flags().IntVar(&pingMs, "ping", -1, "Measured ping in milliseconds")
	submitCmd.Flags().IntVar(&maxPingMs, "max-ping", -1, "Highest acceptable ping in milliseconds")
	submitCmd.MarkFlagRequired("game")

	sweepCmd.Flags().IntVar(&sweepLimit, "limit", orchestrator.DefaultSweepLimit, "Maximum sessions to expire")
	sweepCmd.Flags().BoolVar(&sweepAsync, "async", false, "Hand the sweep to the background worker")
	sweepCmd.Flags().StringVar(&sweepToken, "sweep-token", "", "The server's SWEEP_TOKEN")

	tokenCmd.Flags().StringVar(&tokenSecret, "secret", "", "The server's JWT_SECRET")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "Token lifetime")
	tokenCmd.MarkFlagRequired("secret")

	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(acceptCmd)
	rootCmd.AddCommand(declineCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(tokenCmd)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/health", nil)
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/metrics", nil)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Get lifetime matchmaking counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/stats", nil)
	},
}

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Queue a match request",
	RunE: func(cmd *cobra.Command, args []string) error {
		input := submitInput
		if cmd.Flags().Changed("region") {
			input.Region = &region
		}
		if cmd.Flags().Changed("skill") {
			input.Skill = &skill
		}
		if cmd.Flags().Changed("ping") {
			input.PingMs = &pingMs
		}
		if cmd.Flags().Changed("max-ping") {
			input.MaxPingMs = &maxPingMs
		}
		return performRequest(http.MethodPost, "/matchmaking/requests", input)
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <request-id>",
	Short: "Withdraw a queued match request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodDelete, "/matchmaking/requests/"+url.PathEscape(args[0]), nil)
	},
}

var sessionCmd = &cobra.Command{
	Use:   "session <session-id>",
	Short: "Show a match session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/matchmaking/sessions/"+url.PathEscape(args[0]), nil)
	},
}

var acceptCmd = &cobra.Command{
	Use:   "accept <session-id>",
	Short: "Accept a match offer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/matchmaking/sessions/"+url.PathEscape(args[0])+"/accept", nil)
	},
}

var declineCmd = &cobra.Command{
	Use:   "decline <session-id>",
	Short: "Decline a match offer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/matchmaking/sessions/"+url.PathEscape(args[0])+"/decline", nil)
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Expire pending sessions whose accept window closed",
	RunE: func(cmd *cobra.Command, args []string) error {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(sweepLimit))
		if sweepAsync {
			query.Set("async", "true")
		}
		header := http.Header{}
		if sweepToken != "" {
			header.Set(auth.SweepTokenHeader, sweepToken)
		}
		return sendRequest(http.MethodPost, "/scheduled/sweep?"+query.Encode(), nil, header)
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for --user",
	RunE: func(cmd *cobra.Command, args []string) error {
		if userID == "" {
			return fmt.Errorf("--user is required")
		}
		signed, err := auth.NewVerifier(tokenSecret).Issue(userID, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Println(signed)
		return nil
	},
}

func performRequest(method, endpoint string, payload any) error {
	return sendRequest(method, endpoint, payload, nil)
}

func sendRequest(method, endpoint string, payload any, header http.Header) error {
	target := host + endpoint
	fmt.Printf("Making %s request to %s\n", method, target)

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, target, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	switch {
	case token != "":
		req.Header.Set("Authorization", "Bearer "+token)
	case userID != "":
		req.Header.Set(auth.UserHeader, userID)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	fmt.Println(string(respBody))

	return nil
}
