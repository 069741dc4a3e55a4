package diagnostics

import (
	"fmt"
	"io"

	"methodsplit/colors"
)

// Emitter renders diagnostics as text
type Emitter struct {
	writer io.Writer
}

// NewEmitter creates an emitter that writes to a specific writer
func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{writer: w}
}

// Emit writes one diagnostic:
//
//	error[O0001]: message
//	  --> module::function
//	   |  at location: label
//	   = note: ...
//	   = help: ...
func (e *Emitter) Emit(diag *Diagnostic) {
	e.printHeader(diag)

	if diag.Module != "" || diag.Function != "" {
		where := diag.Module
		if diag.Function != "" {
			where += "::" + diag.Function
		}
		colors.BLUE.Fprintf(e.writer, "  --> ")
		fmt.Fprintln(e.writer, where)
	}

	for _, label := range diag.Labels {
		marker := "^"
		if label.Style == Secondary {
			marker = "-"
		}
		loc := "<unknown>"
		if label.Location != nil {
			loc = label.Location.String()
		}
		colors.BLUE.Fprintf(e.writer, "   %s ", marker)
		fmt.Fprintf(e.writer, "%s", loc)
		if label.Message != "" {
			fmt.Fprintf(e.writer, ": %s", label.Message)
		}
		fmt.Fprintln(e.writer)
	}

	for _, note := range diag.Notes {
		colors.BLUE.Fprintf(e.writer, "   = ")
		fmt.Fprintf(e.writer, "note: %s\n", note.Message)
	}

	if diag.Help != "" {
		colors.BLUE.Fprintf(e.writer, "   = ")
		colors.GREEN.Fprintf(e.writer, "help: ")
		fmt.Fprintln(e.writer, diag.Help)
	}
	fmt.Fprintln(e.writer)
}

func (e *Emitter) printHeader(diag *Diagnostic) {
	c := severityColor(diag.Severity)
	if diag.Code != "" {
		c.Fprintf(e.writer, "%s[%s]", diag.Severity, diag.Code)
	} else {
		c.Fprint(e.writer, diag.Severity.String())
	}
	fmt.Fprintf(e.writer, ": %s\n", diag.Message)
}

func severityColor(s Severity) colors.COLOR {
	switch s {
	case Error:
		return colors.RED
	case Warning:
		return colors.YELLOW
	case Info:
		return colors.CYAN
	default:
		return colors.GREY
	}
}
