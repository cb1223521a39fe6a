package web

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/intake/internal/core"
	"github.com/JonMunkholm/intake/internal/pricing"
)

// HTMX fragments. They are small enough to write directly against
// templ.ComponentFunc instead of generated .templ files.

// ErrorAlert renders a user-facing error with its suggested action.
func ErrorAlert(msg core.UserMessage) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<div class="alert alert-error" role="alert"><p class="alert-message">%s</p><p class="alert-action">%s</p><span class="alert-code">%s</span></div>`,
			templ.EscapeString(msg.Message),
			templ.EscapeString(msg.Action),
			templ.EscapeString(msg.Code),
		)
		return err
	})
}

// ImportSummary renders the counts of a finished import.
func ImportSummary(result *core.ImportResult) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		st := result.Stats
		_, err := fmt.Fprintf(w,
			`<div class="import-summary" data-import-id="%s"><h3>%s</h3><ul>`+
				`<li>Imported: %d</li><li>Incomplete: %d</li><li>Malformed rows: %d</li><li>Unmatched rows: %d</li>`+
				`</ul></div>`,
			templ.EscapeString(result.ImportID),
			templ.EscapeString(result.FileName),
			st.Imported, st.Incomplete, st.Malformed, st.Orphans,
		)
		return err
	})
}

// QuoteSummary renders the subtotals and total of a quote.
func QuoteSummary(q pricing.Quote) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<table class="quote"><tbody>`); err != nil {
			return err
		}
		for _, st := range q.Subtotals {
			if _, err := fmt.Fprintf(w, `<tr><td>%s</td><td>%d &times; $%s</td><td>$%s</td></tr>`,
				templ.EscapeString(string(st.ServiceType)), st.Count,
				st.UnitPrice.StringFixed(2), st.Amount.StringFixed(2),
			); err != nil {
				return err
			}
		}
		tier := ""
		if q.Tier != nil {
			tier = fmt.Sprintf(` <small>(%s tier)</small>`, templ.EscapeString(q.Tier.Name))
		}
		_, err := fmt.Fprintf(w, `</tbody><tfoot><tr><th colspan="2">Total%s</th><th>$%s</th></tr></tfoot></table>`,
			tier, q.Total.StringFixed(2))
		return err
	})
}
