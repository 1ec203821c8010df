package workflow

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Failed returns the first stage that did not pass or continue, or nil.
func (s *Summary) Failed() *StageResult {
	for i := range s.Stages {
		switch s.Stages[i].Status {
		case StatusFail, StatusError:
			return &s.Stages[i]
		}
	}
	return nil
}

// String renders the summary as one line per stage followed by the
// unreachable hosts.
func (s *Summary) String() string {
	title := cases.Title(language.English)

	var b strings.Builder
	fmt.Fprintf(&b, "Run %s\n", s.RunID)
	for _, st := range s.Stages {
		fmt.Fprintf(&b, "  %-12s %s", title.String(st.Name), st.Status)
		switch st.Status {
		case StatusUnreachable:
			fmt.Fprintf(&b, " (exit %d, %d hosts)", st.ExitCode, len(st.Unreachable))
		case StatusFail:
			fmt.Fprintf(&b, " (exit %d, %s)", st.ExitCode, st.Reason)
		case StatusError:
			fmt.Fprintf(&b, " (%s)", st.Detail)
		}
		if st.RecordID != "" {
			fmt.Fprintf(&b, " [%s]", st.RecordID)
		}
		b.WriteByte('\n')
	}
	if len(s.Unreachable) > 0 {
		fmt.Fprintf(&b, "Unreachable hosts: %s\n", strings.Join(s.Unreachable, ", "))
	}
	fmt.Fprintf(&b, "Exit code: %d\n", s.ExitCode)
	return b.String()
}
