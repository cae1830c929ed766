// Command exportpages renders a submission's annotated pages to PNG files
// without the GUI: it replays a saved annotation session against the
// original page scans and writes one flattened export per page.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"sheet-marker/internal/export"
	imageloader "sheet-marker/internal/image"
	"sheet-marker/internal/pagestore"
	"sheet-marker/internal/submission"
	"sheet-marker/pkg/geometry"
)

func main() {
	submissionPath := flag.String("submission", "", "Path to submission descriptor (JSON)")
	sessionPath := flag.String("session", "", "Path to saved annotation session (JSON)")
	outDir := flag.String("out", ".", "Directory for exported PNGs")
	width := flag.Float64("width", 1280, "Display container width the session was edited at")
	height := flag.Float64("height", 800, "Display container height the session was edited at")
	flag.Parse()

	if *submissionPath == "" || *sessionPath == "" {
		fmt.Println("Usage: exportpages -submission <path> -session <path> [-out dir] [-width 1280] [-height 800]")
		os.Exit(1)
	}

	data, err := os.ReadFile(*submissionPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read submission: %v\n", err)
		os.Exit(1)
	}
	sub, err := submission.Parse(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse submission: %v\n", err)
		os.Exit(1)
	}

	store := pagestore.New()
	if err := store.ReadFile(*sessionPath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read session: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Submission %s: %d pages, %d annotated\n", sub.ID, len(sub.Pages), len(store.Pages()))

	comp, err := export.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up compositor: %v\n", err)
		os.Exit(1)
	}

	container := geometry.NewSize(*width, *height)
	results := comp.All(sub, store, imageloader.NewLoader(), container)

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(os.Stderr, "Page %d failed: %v\n", r.PageIndex, r.Err)
			failed++
			continue
		}
		png, err := export.EncodePNG(r.Image)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Page %d encode failed: %v\n", r.PageIndex, err)
			failed++
			continue
		}
		path := filepath.Join(*outDir, fmt.Sprintf("%s-page-%d.png", sub.ID, r.PageIndex))
		if err := os.WriteFile(path, png, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Page %d write failed: %v\n", r.PageIndex, err)
			failed++
			continue
		}
		fmt.Printf("Wrote %s (%dx%d)\n", path, r.Image.Bounds().Dx(), r.Image.Bounds().Dy())
	}

	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d pages failed\n", failed, len(results))
		os.Exit(1)
	}
}
