package render

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/Noofbiz/contours/gaussian"
)

var (
	heaviestColor = color.New(color.FgGreen, color.Bold)
	lightColor    = color.New(color.FgHiBlack)
)

// lightWeight is the probability weight under which a component is dimmed.
const lightWeight = 0.05

// PrintComponents writes one row per mixture component: its weights, mean
// and covariance ellipse.
func PrintComponents(w io.Writer, m *gaussian.Mixture, ellipses []gaussian.Ellipse) error {
	if len(ellipses) != m.Len() {
		return fmt.Errorf("%d ellipses for %d components", len(ellipses), m.Len())
	}
	table := tablewriter.NewWriter(w)
	table.Header([]string{"#", "Weight", "Display", "Mean X", "Mean Y", "Width", "Height", "Angle"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	heaviest := 0
	for i, c := range m.Components {
		if c.Weight > m.Components[heaviest].Weight {
			heaviest = i
		}
	}

	var data [][]string
	for i, c := range m.Components {
		e := ellipses[i]
		data = append(data, []string{
			strconv.Itoa(i),
			weightLabel(c.Weight, i == heaviest),
			fmtFloat(m.Display[i]),
			fmtFloat(c.Mean[0]),
			fmtFloat(c.Mean[1]),
			fmtFloat(e.Width),
			fmtFloat(e.Height),
			fmt.Sprintf("%.1f°", e.Angle),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func weightLabel(w float64, heaviest bool) string {
	s := fmtFloat(w)
	switch {
	case heaviest:
		return heaviestColor.Sprint(s)
	case w < lightWeight:
		return lightColor.Sprint(s)
	default:
		return s
	}
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
