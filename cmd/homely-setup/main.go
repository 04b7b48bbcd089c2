package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/john-mcs/homely/config"
	"github.com/john-mcs/homely/internal/homely"
)

// homely-setup verifies Homely account credentials, discovers the
// account's locations and writes a ready-to-use homelyd config file.
func main() {
	username := flag.String("username", "", "Homely account username (required)")
	password := flag.String("password", "", "Homely account password (required)")
	locationID := flag.String("location", "", "Location ID to monitor (optional when the account has a single location)")
	baseURL := flag.String("url", "", "Override the Homely API base URL")
	out := flag.String("out", "config.json", "Path to write the generated config file")
	flag.Parse()

	if *username == "" || *password == "" {
		log.Fatal("Error: -username and -password are required")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	client := homely.NewClient(homely.Config{
		Username: *username,
		Password: *password,
		BaseURL:  *baseURL,
	}, logger)

	ctx := context.Background()

	if err := client.Login(ctx); err != nil {
		if errors.Is(err, homely.ErrInvalidCredentials) {
			log.Fatal("Login failed: the Homely cloud rejected the username or password")
		}
		log.Fatalf("Login failed: %v", err)
	}
	fmt.Println("Authenticated with Homely cloud")

	locations, err := client.ListLocations(ctx)
	if err != nil {
		log.Fatalf("Failed to list locations: %v", err)
	}
	if len(locations) == 0 {
		log.Fatal("The account has no locations")
	}

	selected := *locationID
	if selected == "" {
		if len(locations) > 1 {
			fmt.Println("The account has multiple locations, pick one with -location:")
			for _, loc := range locations {
				fmt.Printf("  %s  %s (gateway %s, role %s)\n", loc.LocationID, loc.Name, loc.GatewaySerial, loc.Role)
			}
			os.Exit(1)
		}
		selected = locations[0].LocationID
		fmt.Printf("Using location %q (%s)\n", locations[0].Name, selected)
	} else {
		found := false
		for _, loc := range locations {
			if loc.LocationID == selected {
				found = true
				fmt.Printf("Using location %q (%s)\n", loc.Name, selected)
				break
			}
		}
		if !found {
			log.Fatalf("Location %s does not belong to this account", selected)
		}
	}

	cfg := &config.Config{
		Server: config.ServerConfig{
			Host: "127.0.0.1",
			Port: 8089,
		},
		Homely: config.HomelyConfig{
			Username:         *username,
			Password:         *password,
			LocationID:       selected,
			BaseURL:          *baseURL,
			PollIntervalSecs: 30,
		},
		Logging: config.LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Generated config is invalid: %v", err)
	}

	if err := cfg.Save(*out); err != nil {
		log.Fatalf("Failed to write config: %v", err)
	}
	fmt.Printf("Wrote %s\n", *out)
}
