package commands

import (
	"fmt"

	"campusdual-backend/internal/components/telemetry"
	"campusdual-backend/internal/scrapers/campusdual"
	"campusdual-backend/internal/session"
	"campusdual-backend/lib/serviceutil"
)

// mustSealer creates the session sealer from the environment, the process exits if the
// key is missing or too short.
func mustSealer() session.Sealer {
	key, err := session.KeyFromEnv()
	if err != nil {
		serviceutil.Fatal("failed to read session key", err)
	}
	sealer, err := session.NewSealer(key)
	if err != nil {
		serviceutil.Fatal("failed to create session sealer", err)
	}
	return sealer
}

// newPortalClient creates a portal client authenticated with the sealed session.
func newPortalClient(config Config, tel telemetry.API) (*campusdual.Client, error) {
	sealer := mustSealer()

	sealed, err := session.ReadFile(config.Session.File)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	payload, err := sealer.Open(sealed)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}

	opts, err := config.Portal.clientOptions(payload.Cookie)
	if err != nil {
		return nil, err
	}
	return campusdual.NewClient(opts, tel)
}
