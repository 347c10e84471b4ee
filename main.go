package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"zenai/config"
	"zenai/gateway"
	"zenai/model"
	"zenai/storage"
	"zenai/ui"
)

const Version = "v0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize debug logging after config is loaded
	config.InitDebugLog(cfg.DataDir())

	historyStore, err := storage.NewHistoryStore(cfg.DataDir())
	if err != nil {
		fmt.Printf("Failed to initialize history storage: %v\n", err)
		os.Exit(1)
	}

	prefsStore, err := storage.NewPrefsStore(cfg.DataDir())
	if err != nil {
		fmt.Printf("Failed to initialize preferences storage: %v\n", err)
		os.Exit(1)
	}

	provider := cfg.DefaultProvider
	gw, err := gateway.NewGateway(gateway.Config{
		Type:    gateway.MapProviderID(provider),
		BaseURL: cfg.ProviderSettings(provider).BaseURL,
		APIKey:  cfg.Credentials.Get(provider),
	})
	if err != nil {
		fmt.Printf("Failed to initialize %s gateway: %v\n", provider, err)
		os.Exit(1)
	}

	dataModel := model.NewModel(cfg, gw, historyStore, prefsStore, Version)

	p := tea.NewProgram(
		ui.NewAppView(cfg, dataModel),
		tea.WithAltScreen(),
	)

	// Streaming chunks arrive from request goroutines; route them back
	// through the bubbletea event loop.
	dataModel.Publish = func(msg any) { p.Send(msg) }

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running zen: %v\n", err)
		os.Exit(1)
	}
}
