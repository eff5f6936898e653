// Command paymentctl is an operator tool for driving payment operations
// against a running API instance.
//
// Usage:
//
//	paymentctl [-api URL] capture <payment-id> [-amount 10.00]
//	paymentctl [-api URL] refund  <payment-id> [-amount 10.00]
//	paymentctl [-api URL] void    <payment-id>
//	paymentctl [-api URL] status  <payment-id>
//
// Exit codes: 0 success, 2 bad arguments, 3 gateway unavailable,
// 4 payment not found, 5 invalid payment state.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const (
	exitOK           = 0
	exitBadArgs      = 2
	exitGatewayDown  = 3
	exitNotFound     = 4
	exitInvalidState = 5
)

func main() {
	apiBase := flag.String("api", envOr("PAYCORE_API", "http://localhost:8080"), "Base URL of the payments API")
	flag.Parse()

	args := flag.Args()
	if len(args) < 2 {
		usage()
		os.Exit(exitBadArgs)
	}
	command, paymentID := args[0], args[1]

	sub := flag.NewFlagSet(command, flag.ContinueOnError)
	amount := sub.String("amount", "", "Amount to act on (defaults to the operation's full amount)")
	if err := sub.Parse(args[2:]); err != nil {
		os.Exit(exitBadArgs)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	base := fmt.Sprintf("%s/api/v1/payments/%s", *apiBase, paymentID)

	var (
		status int
		body   []byte
		err    error
	)
	switch command {
	case "capture":
		status, body, err = post(client, base+"/capture", amountBody(*amount))
	case "refund":
		status, body, err = post(client, base+"/refund", amountBody(*amount))
	case "void":
		status, body, err = post(client, base+"/void", nil)
	case "status":
		status, body, err = get(client, base)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		usage()
		os.Exit(exitBadArgs)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
		os.Exit(exitGatewayDown)
	}

	printResponse(body)
	os.Exit(exitCodeFor(status))
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: paymentctl [-api URL] <capture|refund|void|status> <payment-id> [-amount 10.00]")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func amountBody(amount string) []byte {
	if amount == "" {
		return nil
	}
	b, _ := json.Marshal(map[string]string{"amount": amount})
	return b
}

func post(client *http.Client, url string, body []byte) (int, []byte, error) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return do(client, req)
}

func get(client *http.Client, url string) (int, []byte, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, err
	}
	return do(client, req)
}

func do(client *http.Client, req *http.Request) (int, []byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

func printResponse(body []byte) {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		os.Stdout.Write(body)
		fmt.Println()
		return
	}
	fmt.Println(pretty.String())
}

func exitCodeFor(status int) int {
	switch {
	case status >= 200 && status < 300:
		return exitOK
	case status == http.StatusNotFound:
		return exitNotFound
	case status == http.StatusConflict:
		return exitInvalidState
	case status == http.StatusBadGateway, status == http.StatusServiceUnavailable, status == http.StatusPaymentRequired:
		return exitGatewayDown
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return exitBadArgs
	default:
		return 1
	}
}
