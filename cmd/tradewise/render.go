package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mikeboe/tradewise/pkg/search"
)

func writeJSON(w io.Writer, snap search.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap.Products)
}

func writeText(w io.Writer, snap search.Snapshot) {
	if len(snap.Products) == 0 {
		fmt.Fprintln(w, "No products found for your query. Try being more specific or general.")
		return
	}

	for i, p := range snap.Products {
		fmt.Fprintf(w, "\n%d. %s (%s)\n", i+1, p.Name, p.Category)
		fmt.Fprintf(w, "   Price: %s\n", p.EstimatedPrice)
		if len(p.KeySpecs) > 0 {
			fmt.Fprintf(w, "   Specs: %s\n", strings.Join(p.KeySpecs, " | "))
		}
		fmt.Fprintf(w, "   Why:   %s\n", p.Reasoning)

		switch {
		case p.BuyingOptions.Pending():
			fmt.Fprintln(w, "   Buy:   Searching for retailers...")
		case p.BuyingOptions.Len() == 0:
			fmt.Fprintln(w, "   Buy:   No online buying options found.")
		default:
			for _, option := range p.BuyingOptions.Items() {
				fmt.Fprintf(w, "   Buy:   %s <%s>\n", option.Title, option.URI)
			}
		}
	}
}
