package delivery

import (
	"context"
	"fmt"
	"io"

	"github.com/justDance-everybody/web3-info-denoise/internal/digest"
	"github.com/justDance-everybody/web3-info-denoise/internal/selector"
)

// Console writes digests to a writer instead of delivering them, for dry
// runs and local debugging.
type Console struct {
	out io.Writer
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) Send(_ context.Context, sub *digest.Subscriber, items []selector.Selected, summary string) error {
	fmt.Fprintf(c.out, "=== digest for %s (%d items) ===\n", sub.ID, len(items))
	if summary != "" {
		fmt.Fprintf(c.out, "%s\n\n", summary)
	}
	for _, it := range items {
		fmt.Fprintf(c.out, "[%s] %s\n", it.Section, it.Title)
		if it.Reason != "" {
			fmt.Fprintf(c.out, "    %s\n", it.Reason)
		}
		if it.Link != "" {
			fmt.Fprintf(c.out, "    %s\n", it.Link)
		}
	}
	return nil
}
