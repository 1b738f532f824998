package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/goliatone/go-databind"
	"github.com/goliatone/go-databind/internal/config"
	"github.com/goliatone/go-databind/pkg/fetch"
	"github.com/goliatone/go-databind/pkg/forms"
	"github.com/goliatone/go-databind/pkg/session"
)

func main() {
	input := flag.String("input", "page.html", "HTML document to bind")
	dataPath := flag.String("data", "", "JSON file with a combined data object")
	itemsPath := flag.String("items", "", "JSON file mapping template names to item lists")
	configPath := flag.String("config", "", "YAML binding config; enables live endpoint fetching")
	output := flag.String("output", "", "output file (stdout if empty)")
	flag.Parse()

	// Local .env is optional; absence is not an error.
	_ = godotenv.Load()

	page, err := os.Open(*input)
	if err != nil {
		log.Fatalf("Failed to open input: %v", err)
	}
	defer func() {
		_ = page.Close()
	}()

	options := []databind.Option{
		databind.WithSession(session.Static{
			Authenticated: os.Getenv("DATABIND_TOKEN") != "",
			Token:         os.Getenv("DATABIND_TOKEN"),
		}),
	}

	var cfg *config.Config
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		options = append(options,
			databind.WithClient(fetch.NewClient(cfg.BaseURL)),
			databind.WithFormActions(actionTable(cfg)),
		)
	}

	engine, err := databind.New(page, options...)
	if err != nil {
		log.Fatalf("Failed to build binder: %v", err)
	}

	ctx := context.Background()

	if cfg != nil && len(cfg.Endpoints) > 0 {
		if err := engine.LoadAndBind(ctx, cfg.Endpoints); err != nil {
			log.Fatalf("Failed to load endpoints: %v", err)
		}
	}
	if *dataPath != "" {
		data := map[string]any{}
		if err := readJSON(*dataPath, &data); err != nil {
			log.Fatalf("Failed to read data: %v", err)
		}
		engine.Apply(data)
	}
	if *itemsPath != "" {
		items := map[string][]map[string]any{}
		if err := readJSON(*itemsPath, &items); err != nil {
			log.Fatalf("Failed to read items: %v", err)
		}
		if err := engine.BindTemplates(items); err != nil {
			log.Fatalf("Failed to render templates: %v", err)
		}
	}

	bound, err := engine.HTML()
	if err != nil {
		log.Fatalf("Failed to serialise document: %v", err)
	}

	if *output != "" {
		if err := os.WriteFile(*output, []byte(bound), 0o644); err != nil {
			log.Fatalf("Failed to write output: %v", err)
		}
		fmt.Printf("Bound document written to %s\n", *output)
	} else {
		fmt.Println(bound)
	}
}

func readJSON(path string, dest any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

func actionTable(cfg *config.Config) forms.ActionTable {
	table := forms.ActionTable{}
	for action, endpoint := range cfg.Actions {
		table[action] = forms.Endpoint{Method: endpoint.Method, Path: endpoint.Path}
	}
	return table
}
