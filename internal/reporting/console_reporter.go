package reporting

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

// ConsoleReporter prints bus events for CLI commands, coloring by severity.
type ConsoleReporter struct {
	out io.Writer
	sub *Subscription
	wg  sync.WaitGroup

	warn  *color.Color
	err   *color.Color
	state *color.Color
	dim   *color.Color
}

// NewConsoleReporter subscribes to bus and starts printing to out until Close.
func NewConsoleReporter(bus *Bus, out io.Writer) *ConsoleReporter {
	c := &ConsoleReporter{
		out:   out,
		sub:   bus.Subscribe(1024, nil),
		warn:  color.New(color.FgYellow),
		err:   color.New(color.FgRed, color.Bold),
		state: color.New(color.FgCyan),
		dim:   color.New(color.Faint),
	}
	c.wg.Add(1)
	go c.loop()
	return c
}

func (c *ConsoleReporter) loop() {
	defer c.wg.Done()
	lastPct := -1
	for e := range c.sub.C {
		switch e.Type {
		case EventTypeDownloadProgress:
			// one line per 10% keeps piped output readable
			pct := int(e.Progress.Percent() * 10)
			if e.Progress.Total > 0 && pct == lastPct {
				continue
			}
			lastPct = pct
			c.dim.Fprintln(c.out, e.String())
		case EventTypeStateChanged:
			c.state.Fprintln(c.out, e.String())
		case EventTypeStepFinished:
			if e.Step.OK {
				fmt.Fprintln(c.out, e.String())
			} else {
				c.err.Fprintln(c.out, e.String())
			}
		default:
			c.printLine(e)
		}
	}
}

func (c *ConsoleReporter) printLine(e Event) {
	switch e.Severity {
	case SeverityWarn:
		c.warn.Fprintln(c.out, e.Line)
	case SeverityError:
		c.err.Fprintln(c.out, e.Line)
	case SeverityOutput:
		c.dim.Fprintln(c.out, e.Line)
	default:
		fmt.Fprintln(c.out, e.Line)
	}
}

// Close unsubscribes and waits for pending output to be printed.
func (c *ConsoleReporter) Close() {
	c.sub.Close()
	c.wg.Wait()
}
