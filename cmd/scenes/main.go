// Command scenes validates scene prefabs and prints what each one contains.
// It exits non-zero when any scene fails to load.
package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/milk9111/locationgame/prefabs"
)

func main() {
	dir := flag.String("dir", prefabs.Dir, "prefab directory that shadows the embedded scenes")
	flag.Parse()
	prefabs.Dir = *dir

	names := flag.Args()
	if len(names) == 0 {
		names = prefabs.Scenes()
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCENE\tLOOK\tSTEP\tCOLLISION\tBOXES\tPRODUCTS\tNPCS\tSTATUS")

	failed := 0
	for _, name := range names {
		spec, err := prefabs.LoadScene(name)
		if err != nil {
			failed++
			fmt.Fprintf(tw, "%s\t\t\t\t\t\t\t%v\n", name, err)
			continue
		}
		cfg := spec.ControllerConfig()
		fmt.Fprintf(tw, "%s\t%s\t%s\t%v\t%d\t%d\t%d\tok\n",
			name, cfg.LookPolicy, cfg.Stepping, spec.Collision.Enabled,
			len(spec.Collision.Boxes), len(spec.Products())+len(spec.Pickups), len(spec.NPCs))
		for _, npc := range spec.NPCs {
			if npc.Script == "" {
				continue
			}
			if _, err := prefabs.LoadScript(npc.Script); err != nil {
				failed++
				fmt.Fprintf(tw, "  %s\t\t\t\t\t\t\t%v\n", npc.Name, err)
			}
		}
	}
	_ = tw.Flush()

	if failed > 0 {
		os.Exit(1)
	}
}
