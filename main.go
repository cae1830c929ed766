// Package main provides the entry point for the Sheet Marker application.
package main

import (
	"flag"
	"log"
	"os"

	fyneapp "fyne.io/fyne/v2/app"

	"sheet-marker/internal/app"
	"sheet-marker/internal/publish"
	"sheet-marker/internal/submission"
	"sheet-marker/internal/version"
	"sheet-marker/ui/mainwindow"
	"sheet-marker/ui/prefs"
)

const appTitle = "Sheet Marker"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting %s v%s", appTitle, version.Version)

	submissionPath := flag.String("submission", "", "path to a submission descriptor (JSON)")
	backendURL := flag.String("backend", "", "base URL of the publish backend")
	flag.Parse()

	if *submissionPath == "" {
		log.Fatal("a -submission descriptor is required")
	}
	data, err := os.ReadFile(*submissionPath)
	if err != nil {
		log.Fatalf("read submission: %v", err)
	}
	sub, err := submission.Parse(data)
	if err != nil {
		log.Fatalf("parse submission: %v", err)
	}
	log.Printf("Loaded submission %s with %d pages", sub.ID, len(sub.Pages))

	fyneApp := fyneapp.New()
	fyneApp.Settings().SetTheme(&app.MarkerTheme{})

	appState := app.NewState()
	appState.SetSubmission(sub)
	appPrefs := prefs.Load()

	var backend *publish.Client
	if *backendURL != "" {
		backend = publish.NewClient(*backendURL)
	} else {
		log.Print("No -backend given, publishing disabled")
	}

	win, err := mainwindow.New(fyneApp, appState, appPrefs, backend)
	if err != nil {
		log.Fatalf("create window: %v", err)
	}

	win.Show()
	win.OpenFirstPage()
	fyneApp.Run()
}
