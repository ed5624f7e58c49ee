package main

import (
	"flag"
	"log"

	"github.com/danmuck/mfrlink/internal/config"
	"github.com/danmuck/mfrlink/internal/scenario"
)

func main() {
	kind := flag.String("kind", config.KindMFR, "config kind: mfr|sim|console|scenario")
	output := flag.String("output", "", "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", "", "config path for validation (defaults to per-kind cmd path)")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *kind == "scenario" {
		if !*validate || *input == "" {
			log.Fatal("scenario kind supports only -validate -input <file.yaml>")
		}
		sc, err := scenario.LoadFile(*input)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("Validated scenario %q at %s (targets=%d launchers=%d)", sc.Name, *input, len(sc.Targets), len(sc.Launchers))
		return
	}

	if *validate {
		path := *input
		if path == "" {
			p, err := config.DefaultPath(*kind)
			if err != nil {
				log.Fatal(err)
			}
			path = p
		}
		if err := config.Load(*kind, path); err != nil {
			log.Fatal(err)
		}
		log.Printf("Validated %s config at %s", *kind, path)
		return
	}

	target := *output
	if target == "" {
		p, err := config.DefaultPath(*kind)
		if err != nil {
			log.Fatal(err)
		}
		target = p
	}

	if err := config.WriteTemplate(target, *kind, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %s config template to %s", *kind, target)
}
