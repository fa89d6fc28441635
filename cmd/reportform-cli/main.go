package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/goliatone/go-reportform/pkg/composer"
	"github.com/goliatone/go-reportform/pkg/form"
	"github.com/goliatone/go-reportform/pkg/preview"
	"github.com/goliatone/go-reportform/pkg/report"
	"github.com/goliatone/go-reportform/pkg/submit"
	"github.com/goliatone/go-reportform/pkg/template"
)

func main() {
	game := flag.String("game", "", "game name the report is for")
	source := flag.String("template", "", "report template path or URL")
	output := flag.String("output", "", "output file (stdout if empty)")
	html := flag.Bool("html", false, "emit a sanitized HTML preview instead of markdown")
	interactive := flag.Bool("interactive", false, "fill the form in with terminal prompts")
	doSubmit := flag.Bool("submit", false, "dispatch the report after composing it")
	flag.Parse()

	// Optional .env; missing file is fine, explicit env always wins.
	_ = godotenv.Load()

	if *game == "" {
		log.Fatal("missing -game")
	}
	src := parseSource(*source)
	if src == nil {
		log.Fatalf("invalid template source: %q", *source)
	}

	ctx := context.Background()

	engine := form.New(*game, engineOptions()...)
	if err := engine.Init(ctx, src, nil); err != nil {
		log.Fatalf("Failed to initialise form: %v", err)
	}

	if *interactive {
		if err := composer.New().Run(ctx, engine); err != nil {
			log.Fatalf("Compose failed: %v", err)
		}
	}

	if *doSubmit {
		result, err := engine.Submit(ctx, form.SubmitRequest{})
		if err != nil {
			log.Fatalf("Submit failed: %v", err)
		}
		if result.Issue != nil {
			fmt.Printf("Created issue #%d: %s\n", result.Issue.Number, result.Issue.HTMLURL)
		} else {
			fmt.Printf("Open this URL to file the report:\n%s\n", result.RedirectURL)
		}
		return
	}

	var out []byte
	if *html {
		renderer, err := preview.New()
		if err != nil {
			log.Fatalf("Failed to build preview renderer: %v", err)
		}
		page, err := renderer.Render(report.Title(engine.Store().Values()), engine.Markdown())
		if err != nil {
			log.Fatalf("Failed to render preview: %v", err)
		}
		out = page
	} else {
		out = []byte(engine.Markdown())
	}

	if *output != "" {
		if err := os.WriteFile(*output, out, 0o644); err != nil {
			log.Fatalf("Failed to write output: %v", err)
		}
		fmt.Printf("Report written to %s\n", *output)
	} else {
		fmt.Println(string(out))
	}
}

// engineOptions wires the dispatch targets from the environment. Without a
// token the engine falls back to the prefilled new-issue redirect.
func engineOptions() []form.Option {
	var opts []form.Option

	token := os.Getenv("REPORTFORM_TOKEN")
	if issuesURL := os.Getenv("REPORTFORM_ISSUES_URL"); issuesURL != "" && token != "" {
		client, err := submit.NewIssueClient(issuesURL, token, http.DefaultClient)
		if err != nil {
			log.Fatalf("Invalid issues configuration: %v", err)
		}
		opts = append(opts, form.WithIssueClient(client))
	}
	if uploadURL := os.Getenv("REPORTFORM_UPLOAD_URL"); uploadURL != "" {
		uploader, err := submit.NewUploader(uploadURL, token, http.DefaultClient)
		if err != nil {
			log.Fatalf("Invalid upload configuration: %v", err)
		}
		opts = append(opts, form.WithUploader(uploader))
	}
	if newIssueURL := os.Getenv("REPORTFORM_NEW_ISSUE_URL"); newIssueURL != "" {
		opts = append(opts, form.WithNewIssueBase(newIssueURL))
	}
	return opts
}

func parseSource(raw string) template.Source {
	path := strings.TrimSpace(raw)
	if path == "" {
		return nil
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return template.SourceFromURL(path)
	}
	return template.SourceFromFile(path)
}
