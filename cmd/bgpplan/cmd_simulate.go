package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/netreconf/bgpplan/pkg/cli"
	"github.com/netreconf/bgpplan/pkg/model"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Build a scenario and print its converged BGP state",
	Long: `simulate builds the scenario's network, runs it to convergence, and
prints the selected route every internal router holds for every
prefix. It never touches a main_command — use decompose or run for
that.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := scenarioPath()
		if err != nil {
			return err
		}
		p, err := buildPlan(path, app.horizon, app.tempBudget, app.cache)
		if err != nil {
			return err
		}

		snap := p.live.Snapshot()
		prefixes := allPrefixes(snap, snap)

		if app.jsonOutput {
			return printSimulateJSON(p, prefixes)
		}
		printSimulateTable(p, prefixes)
		return nil
	},
}

func printSimulateTable(p *plan, prefixes []model.Prefix) {
	fmt.Printf("%s: %s\n\n", bold("scenario"), p.scenario.Name)

	var routers []model.RouterId
	for _, r := range p.live.Topology().InternalRouters() {
		routers = append(routers, r)
	}
	sort.Slice(routers, func(i, j int) bool { return routers[i] < routers[j] })

	for _, prefix := range prefixes {
		t := cli.NewTable("ROUTER", "NEXT HOP", "AS PATH", "LOCAL PREF")
		state := p.live.GetBgpState(prefix)
		for _, r := range routers {
			entry, ok := state[r]
			if !ok {
				continue
			}
			t.Row(r.String(), entry.BestNeighbor.String(), fmt.Sprint(entry.BestRoute.AsPath), fmt.Sprint(entry.BestRoute.EffectiveLocalPref()))
		}
		fmt.Printf("%s %s\n", green("prefix"), prefix.String())
		t.Flush()
		fmt.Println()
	}
}

func printSimulateJSON(p *plan, prefixes []model.Prefix) error {
	type row struct {
		Router    string `json:"router"`
		NextHop   string `json:"next_hop"`
		AsPath    []uint32 `json:"as_path"`
		LocalPref int    `json:"local_pref"`
	}
	out := make(map[string][]row, len(prefixes))
	for _, prefix := range prefixes {
		state := p.live.GetBgpState(prefix)
		var rows []row
		for r, entry := range state {
			asPath := make([]uint32, len(entry.BestRoute.AsPath))
			for i, a := range entry.BestRoute.AsPath {
				asPath[i] = uint32(a)
			}
			rows = append(rows, row{
				Router:    r.String(),
				NextHop:   entry.BestNeighbor.String(),
				AsPath:    asPath,
				LocalPref: entry.BestRoute.EffectiveLocalPref(),
			})
		}
		out[prefix.String()] = rows
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
