package narration

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/teslashibe/go-wayfinder/pkg/speaker"
)

// Label is one entry of a labeling response.
type Label struct {
	Text string `json:"label"`
}

// ParseLabels extracts the first JSON array of label objects embedded in
// text. Surrounding prose and code fences are ignored. Entries without a
// label become "Speaker N" (1-based). It returns ErrNoStructuredData when no
// such array exists.
func ParseLabels(text string) ([]Label, error) {
	for i := strings.IndexByte(text, '['); i >= 0; {
		if labels, ok := decodeLabels(text[i:]); ok {
			return labels, nil
		}
		next := strings.IndexByte(text[i+1:], '[')
		if next < 0 {
			break
		}
		i += next + 1
	}
	return nil, ErrNoStructuredData
}

func decodeLabels(s string) ([]Label, bool) {
	var entries []*Label
	if err := json.NewDecoder(strings.NewReader(s)).Decode(&entries); err != nil {
		return nil, false
	}
	labels := make([]Label, len(entries))
	for i, e := range entries {
		if e == nil || strings.TrimSpace(e.Text) == "" {
			labels[i] = Label{Text: fmt.Sprintf("Speaker %d", i+1)}
			continue
		}
		labels[i] = Label{Text: strings.TrimSpace(e.Text)}
	}
	return labels, true
}

// ApplyLabels returns a copy of segs with labels assigned by position.
// Segments beyond the label count keep an unset label; extra labels are
// ignored.
func ApplyLabels(segs []speaker.Segment, labels []Label) []speaker.Segment {
	out := make([]speaker.Segment, len(segs))
	copy(out, segs)
	for i := range min(len(out), len(labels)) {
		out[i].SpatialLabel = labels[i].Text
	}
	return out
}
