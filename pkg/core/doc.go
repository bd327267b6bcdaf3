// Package core provides a small, stable facade over promptscan's internal
// engine for gateways and other integrations that embed the scanner.
//
// Example:
//
//	res, err := core.Scan(ctx, prompt, nil)
//	if err != nil { /* handle */ }
//	if res.ShouldBlock { /* reject the request */ }
//	_ = core.MarshalSummary(os.Stdout, core.Summarize(res))
package core
