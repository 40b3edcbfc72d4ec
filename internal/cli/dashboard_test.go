package cli

import (
	"strings"
	"testing"

	"github.com/existflow/taskhub/internal/model"
)

func TestRenderSummary(t *testing.T) {
	out := renderSummary("Demo User", model.Summary{Total: 10, Todo: 5, InProgress: 3, Done: 2})
	for _, want := range []string{"Demo User", "10", "todo", "in progress", "done"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary output missing %q:\n%s", want, out)
		}
	}
}
