package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/beka-birhanu/vinom-relay-server/api"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printPlayers(w io.Writer, players []api.PlayerInfo) error {
	if cfg.Output == "json" {
		return printJSON(w, players)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tLIFE\tADDR\tSESSION")
	for _, p := range players {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", p.ID, p.Name, p.Life, p.Addr, p.SessionID)
	}
	return tw.Flush()
}

func printInfo(w io.Writer, info api.Info) error {
	if cfg.Output == "json" {
		return printJSON(w, info)
	}
	fmt.Fprintf(w, "addr:          %s\n", info.Addr)
	fmt.Fprintf(w, "level:         %d\n", info.Level)
	fmt.Fprintf(w, "canconnect:    %t\n", info.CanConnect)
	fmt.Fprintf(w, "players:       %d\n", info.Players)
	fmt.Fprintf(w, "processed:     %d\n", info.Processed)
	fmt.Fprintf(w, "decode errors: %d\n", info.DecodeErrors)
	fmt.Fprintf(w, "unknown types: %d\n", info.UnknownTypes)
	return nil
}
