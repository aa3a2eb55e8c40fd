package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
)

func (a *App) getStatus() string {
	if a.userName == "" {
		return ""
	}
	return fmt.Sprintf("(%s) ", a.userName)
}

// Root greets the user, restores a cached identity if the lifecycle check
// lets it through, and hands control to the REPL until exit.
func (a *App) Root(ctx context.Context) {
	printlnFn("Notebook CLI (type 'help' for commands)")

	// Entry route: the lifecycle decides whether anything cached survives.
	if a.enterRouteSilently(ctx, "/") {
		if s, err := a.gateway.CurrentSession(ctx); err == nil && s.IsAuthenticated() {
			a.userName = s.Identity.Email
		}
	}

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}

// enterRouteSilently is enterRoute without the login nag, for startup.
func (a *App) enterRouteSilently(ctx context.Context, route string) bool {
	d := a.lifecycle.Evaluate(ctx, route)
	return d.Redirect == ""
}
