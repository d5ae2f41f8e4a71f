package cli

import (
	"fmt"
	"io"

	"github.com/adanyl0v/go-todo-client/internal/session"
)

// printer shows notifications and navigation hints in the terminal.
type printer struct {
	out    io.Writer
	errOut io.Writer
}

func newPrinter(out, errOut io.Writer) *printer {
	return &printer{out: out, errOut: errOut}
}

func (p *printer) Success(title, description string) {
	if description == "" {
		fmt.Fprintf(p.out, "✓ %s\n", title)
		return
	}
	fmt.Fprintf(p.out, "✓ %s: %s\n", title, description)
}

func (p *printer) Error(title, description string) {
	if description == "" {
		fmt.Fprintf(p.errOut, "✗ %s\n", title)
		return
	}
	fmt.Fprintf(p.errOut, "✗ %s: %s\n", title, description)
}

// Navigate turns a route change into the command that shows that page.
func (p *printer) Navigate(route session.Route) {
	switch route {
	case session.RouteTasks:
		fmt.Fprintln(p.out, "Run 'todo tasks list' to see your tasks.")
	case session.RouteEntry:
		fmt.Fprintln(p.out, "Run 'todo login' to sign in.")
	case session.RouteSignUp:
		fmt.Fprintln(p.out, "Run 'todo signup' to create an account.")
	}
}
