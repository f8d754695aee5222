package sink

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/term"

	"telemachus-dash/internal/status"
	"telemachus-dash/internal/view"
)

const (
	colorReset  = "\x1b[0m"
	colorRed    = "\x1b[31m"
	colorGreen  = "\x1b[32m"
	colorYellow = "\x1b[33m"
	colorBlue   = "\x1b[34m"
	colorCyan   = "\x1b[36m"
	colorGray   = "\x1b[90m"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Writer prints presentation events as lines, either human readable text
// (colorized on a terminal) or one JSON object per line.
type Writer struct {
	mu    sync.Mutex
	out   io.Writer
	json  bool
	color bool
	now   func() time.Time
}

// NewWriter writes to out. format is "text" or "json".
func NewWriter(out io.Writer, format string) *Writer {
	return &Writer{
		out:   out,
		json:  format == "json",
		color: format != "json" && isTerminal(out),
		now:   time.Now,
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (w *Writer) paint(color, s string) string {
	if !w.color {
		return s
	}
	return color + s + colorReset
}

type event struct {
	Time    time.Time       `json:"ts"`
	Kind    string          `json:"kind"`
	State   *view.State     `json:"state,omitempty"`
	Overlay *status.Overlay `json:"overlay,omitempty"`
	Channel status.Channel  `json:"channel,omitempty"`
	Action  string          `json:"action,omitempty"`
}

func (w *Writer) emit(ev event, text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.json {
		b, err := json.Marshal(ev)
		if err != nil {
			return
		}
		_, _ = w.out.Write(append(b, '\n'))
		return
	}
	fmt.Fprintf(w.out, "%s %s\n", w.paint(colorGray, "["+ev.Time.Format(time.TimeOnly)+"]"), text)
}

func (w *Writer) OnViewStateChanged(st view.State) {
	ev := event{Time: w.now(), Kind: "state", State: &st}
	if w.json {
		w.emit(ev, "")
		return
	}
	body := w.paint(colorCyan, "body="+st.BodyName)
	if !st.BodyKnown {
		body = w.paint(colorGray, "body=?")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", w.paint(colorBlue, "T+"+st.MissionClock), body)
	for _, id := range st.ResourceOrder {
		g := st.Resources[id]
		fmt.Fprintf(&b, " %s", w.paint(gaugeColor(g), id+"="+FormatPercent(g)))
	}
	statusColor := colorGreen
	if st.GameStatus != status.Running {
		statusColor = colorRed
	}
	fmt.Fprintf(&b, " %s frames=%s", w.paint(statusColor, "status="+st.GameStatus.String()), humanize.Comma(int64(st.Frames)))
	if st.DecodeErrors > 0 {
		fmt.Fprintf(&b, " %s", w.paint(colorYellow, "decode_errors="+humanize.Comma(int64(st.DecodeErrors))))
	}
	if st.Stale() {
		b.WriteString(" " + w.paint(colorGray, "(stale)"))
	}
	w.emit(ev, b.String())
}

func (w *Writer) OnOverlay(o status.Overlay) {
	text := w.paint(colorRed, "ALERT "+o.Title) + " " + o.Subtitle
	if o.HelpURL != "" {
		text += " (" + o.HelpURL + ")"
	}
	w.emit(event{Time: w.now(), Kind: "overlay", Overlay: &o}, text)
}

func (w *Writer) OnOverlayHidden() {
	w.emit(event{Time: w.now(), Kind: "overlay_hidden"}, w.paint(colorGreen, "ALERT cleared"))
}

func (w *Writer) OnAudioChannel(ch status.Channel, action Action) {
	w.emit(event{Time: w.now(), Kind: "audio", Channel: ch, Action: action.String()},
		w.paint(colorYellow, fmt.Sprintf("AUDIO %s %s", action, ch)))
}

// FormatPercent renders a gauge level for text output.
func FormatPercent(g view.Gauge) string {
	if !g.PercentKnown {
		return "--%"
	}
	return fmt.Sprintf("%d%%", g.Percent)
}

func gaugeColor(g view.Gauge) string {
	switch {
	case !g.PercentKnown:
		return colorGray
	case g.Percent < 10:
		return colorRed
	case g.Percent < 25:
		return colorYellow
	}
	return colorGreen
}
