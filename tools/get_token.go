package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"voicemail-relay-go/internal/auth"
	"voicemail-relay-go/internal/config"
)

// Exchanges the configured JWT for an access token to check credentials
// before deploying.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Unable to load configuration: %v", err)
	}

	var missing []string
	for env, value := range map[string]string{
		"RC_CLIENT_ID":     cfg.RingCentral.ClientID,
		"RC_CLIENT_SECRET": cfg.RingCentral.ClientSecret,
		"RC_JWT":           cfg.RingCentral.JWT,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		log.Fatalf("Please set %s", strings.Join(missing, ", "))
	}

	provider := auth.NewProvider(auth.Config{
		Server:       cfg.RingCentral.Server,
		ClientID:     cfg.RingCentral.ClientID,
		ClientSecret: cfg.RingCentral.ClientSecret,
		Assertion:    cfg.RingCentral.JWT,
		Timeout:      cfg.RingCentral.Timeout(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RingCentral.Timeout())
	defer cancel()

	tok, err := provider.TokenContext(ctx)
	if err != nil {
		log.Fatalf("Unable to retrieve token: %v", err)
	}

	fmt.Printf("Server: %s\n", cfg.RingCentral.Server)
	fmt.Printf("Token Type: %s\n", tok.Type())
	fmt.Printf("Expiry: %v (in %v)\n", tok.Expiry.Format(time.RFC3339), time.Until(tok.Expiry).Round(time.Second))
	fmt.Println("\nCredentials are valid.")
}
