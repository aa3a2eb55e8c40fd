package cli

import (
	"context"
	"fmt"

	"github.com/YaniYesh22/snot/internal/client/notebooks"
)

// Debug prints the client's internal state. The route is public so it
// works logged out too.
func (a *App) Debug(ctx context.Context) error {
	if !a.enterRoute(ctx, "/debug") {
		return nil
	}

	printlnFn("API base URL:  ", a.config.APIBaseURL)
	printlnFn("Region:        ", a.config.AWSRegion)
	printlnFn("Local store:   ", a.config.DatabasePath)
	printlnFn("Reconcile delay:", a.config.ReconcileDelay.String())

	session, err := a.gateway.CurrentSession(ctx)
	if err != nil {
		printlnFn("Session:        error:", err.Error())
	} else if session.IsAuthenticated() {
		printlnFn(fmt.Sprintf("Session:        %s, expires %s",
			session.Identity.Email, session.Tokens.Expiry.Format("15:04:05")))
	} else {
		printlnFn("Session:        none")
	}

	records, degraded := a.notes.View()
	pending := 0
	for _, record := range records {
		if notebooks.IsLocalID(record.ID) {
			pending++
		}
	}
	printlnFn(fmt.Sprintf("Notebooks:      %d loaded, %d pending sync, %d failed writes, degraded=%v",
		len(records), pending, len(a.notes.FailedOps()), degraded))
	return nil
}
