package worksheet

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

func init() { Register("txt", textWriter{}) }

var rule = strings.Repeat("-", 70)

// textWriter odtwarza stały układ kolumn 15/25/15/10/15.
type textWriter struct{}

func (textWriter) Ext() string { return "txt" }

func (textWriter) Write(w io.Writer, s *Sheet) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Projekti Number: %d\n", s.ProjectID)
	fmt.Fprintf(bw, "Projekti Nimi: %s\n", s.ProjectName)
	fmt.Fprintf(bw, "Kirjeldus: %s\n\n", s.Description)
	fmt.Fprintf(bw, "Vajalikud Osad:\n%s\n", rule)
	fmt.Fprintf(bw, "%-15s %-25s %-15s %-10s %-15s\n", "Materjali ID", "Materjali Nimi", "Vajalik Kogus", "Tüüp", "Materjali Tüüp")
	fmt.Fprintf(bw, "%s\n", rule)
	for _, ln := range s.Lines {
		fmt.Fprintf(bw, "%-15d %-25s %-15d %-10s %-15s\n", ln.MaterialID, ln.MaterialName, ln.Quantity, ln.Kind, ln.MaterialType)
	}
	fmt.Fprintf(bw, "%s\n", rule)
	return bw.Flush()
}
