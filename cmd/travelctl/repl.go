package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"travelagent/internal/model"
)

// asker is what the interactive session needs from the query service
type asker interface {
	Query(ctx context.Context, req *model.QueryRequest) (*model.QueryResponse, error)
	ListModes() []model.ModeInfo
	ClearRouter()
}

const replHelp = `Ask a travel question, or use one of:
  modes        list generation modes
  clear        drop cached specialists
  exit, quit   leave the session`

// runREPL reads questions line by line until EOF, exit or ctx is done. A
// failed question is reported and the session continues.
func runREPL(ctx context.Context, in io.Reader, out io.Writer, queries asker, mode, deployment string) error {
	fmt.Fprintln(out, replHelp)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\n> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if err := ctx.Err(); err != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "help":
			fmt.Fprintln(out, replHelp)
			continue
		case "clear":
			queries.ClearRouter()
			fmt.Fprintln(out, "Router cache cleared")
			continue
		case "modes":
			for _, info := range queries.ListModes() {
				fmt.Fprintf(out, "  %-20s %s\n", info.Mode, info.Description)
			}
			continue
		}

		resp, err := queries.Query(ctx, &model.QueryRequest{Query: line, Mode: mode, Deployment: deployment})
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}
		printResponse(out, resp)
	}
}

func printResponse(out io.Writer, resp *model.QueryResponse) {
	fmt.Fprintf(out, "[%s]\n", resp.Mode)
	fmt.Fprintln(out, resp.Response)
	if !resp.Success && resp.Error != "" {
		fmt.Fprintf(out, "\nWarning: %s\n", resp.Error)
	}
}
