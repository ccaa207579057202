package demo

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	okMark   = color.New(color.FgGreen).SprintFunc()
	failMark = color.New(color.FgRed).SprintFunc()
	dim      = color.New(color.Faint).SprintFunc()
	heading  = color.New(color.Bold).SprintFunc()
)

// narrator prints the human readable trace of a demo run.
type narrator struct {
	out io.Writer
}

func (n narrator) section(icon, format string, args ...interface{}) {
	fmt.Fprintf(n.out, "\n%s %s\n", icon, heading(fmt.Sprintf(format, args...)))
}

func (n narrator) info(format string, args ...interface{}) {
	fmt.Fprintf(n.out, format+"\n", args...)
}

func (n narrator) ok(format string, args ...interface{}) {
	fmt.Fprintf(n.out, "%s %s\n", okMark("✅"), fmt.Sprintf(format, args...))
}

func (n narrator) fail(format string, args ...interface{}) {
	fmt.Fprintf(n.out, "%s %s\n", failMark("❌"), fmt.Sprintf(format, args...))
}

func (n narrator) reason(reason string) {
	if reason == "" {
		return
	}
	fmt.Fprintf(n.out, "   %s %s\n", dim("↳"), reason)
}
