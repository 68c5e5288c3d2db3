package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tkingovr/reqguard/api"
)

var (
	checkReq     api.CheckRequest
	checkHeaders map[string]string
	checkJSON    bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Dry-run a request through the pipeline without a running proxy",
	Long: `Check what decision a request would receive without running the proxy.
Useful for testing country lists, size ceilings and CORS behaviour. The rate
gate counts only this one request.`,
	Example: `  reqguard check --method GET --ip 203.0.113.7 -c reqguard.yaml
  reqguard check --method DELETE --body '{"id":4}'
  reqguard check --method POST --content-length 20000000 --json`,
	RunE: runCheck,
}

func init() {
	f := checkCmd.Flags()
	f.StringVar(&checkReq.Method, "method", "GET", "HTTP method")
	f.StringVar(&checkReq.Path, "path", "/", "request path")
	f.StringVar(&checkReq.ClientIP, "ip", "127.0.0.1", "caller address")
	f.StringVar(&checkReq.ContentLength, "content-length", "", "declared Content-Length header")
	f.StringVar(&checkReq.Body, "body", "", "request body")
	f.StringToStringVarP(&checkHeaders, "header", "H", nil, "extra request header (name=value)")
	f.BoolVar(&checkJSON, "json", false, "print the decision as JSON")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	resolver, closeGeo, err := cfg.OpenResolver()
	if err != nil {
		return fmt.Errorf("opening geo resolver: %w", err)
	}
	defer closeGeo()

	req := checkReq
	req.Headers = checkHeaders
	resp, err := newDryRunChecker(cfg, resolver).Evaluate(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("evaluation error: %w", err)
	}

	if checkJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	printDecision(cmd.OutOrStdout(), req, resp)
	return nil
}

func printDecision(w io.Writer, req api.CheckRequest, resp *api.CheckResponse) {
	label := color.New(color.Bold)
	var outcome *color.Color
	switch resp.Outcome {
	case api.OutcomeAccepted:
		outcome = color.New(color.FgGreen, color.Bold)
	case api.OutcomeRejected:
		outcome = color.New(color.FgRed, color.Bold)
	default:
		outcome = color.New(color.FgCyan, color.Bold)
	}

	fmt.Fprintf(w, "%s %s %s from %s\n", label.Sprint("request:"), req.Method, req.Path, req.ClientIP)
	fmt.Fprintf(w, "%s %s (%d)\n", label.Sprint("outcome:"), outcome.Sprint(resp.Outcome), resp.Status)
	if resp.Filter != "" {
		fmt.Fprintf(w, "%s %s\n", label.Sprint("filter: "), resp.Filter)
	}
	if resp.Message != "" {
		fmt.Fprintf(w, "%s %s\n", label.Sprint("message:"), resp.Message)
	}
	if resp.Country != "" {
		fmt.Fprintf(w, "%s %s\n", label.Sprint("country:"), resp.Country)
	}

	names := make([]string, 0, len(resp.Headers))
	for k := range resp.Headers {
		names = append(names, k)
	}
	sort.Strings(names)
	if len(names) > 0 {
		fmt.Fprintln(w, label.Sprint("headers:"))
	}
	for _, k := range names {
		fmt.Fprintf(w, "  %s: %s\n", color.CyanString(k), resp.Headers[k])
	}
}
