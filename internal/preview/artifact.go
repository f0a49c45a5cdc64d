package preview

import (
	"image"
	"strings"

	"github.com/babarot/tana/internal/core/errs"
	"github.com/babarot/tana/internal/entry"
)

// Kind tags the variant held by an Artifact
type Kind uint8

const (
	Text Kind = iota
	Image
	External
	Unsupported
	Error
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Image:
		return "image"
	case External:
		return "external"
	case Unsupported:
		return "unsupported"
	case Error:
		return "error"
	}
	return "unknown"
}

// Artifact is the rendered preview of one fingerprint. It is never
// modified after the generator returns it.
type Artifact struct {
	Kind        Kind
	Fingerprint entry.Fingerprint
	Mime        string

	// Text and directory listings
	Lines     []string
	Truncated bool

	// Image holds the decoded bitmap already scaled to the preview bounds
	Image image.Image

	// External holds raw tool output
	Output string

	// Reason explains Unsupported and Error artifacts
	Reason  string
	ErrKind errs.Kind
}

const baseCost = 64

// Cost approximates the memory held by the artifact in bytes
func (a *Artifact) Cost() int64 {
	cost := int64(baseCost + len(a.Output) + len(a.Reason) + len(a.Mime))
	for _, l := range a.Lines {
		cost += int64(len(l)) + 16
	}
	if a.Image != nil {
		b := a.Image.Bounds()
		cost += int64(b.Dx()) * int64(b.Dy()) * 4
	}
	return cost
}

// String renders text-like artifacts; images are rendered by the UI
func (a *Artifact) String() string {
	switch a.Kind {
	case Text:
		return strings.Join(a.Lines, "\n")
	case External:
		return a.Output
	case Unsupported, Error:
		return a.Reason
	}
	return ""
}

func newText(fp entry.Fingerprint, mime string, lines []string, truncated bool) *Artifact {
	return &Artifact{Kind: Text, Fingerprint: fp, Mime: mime, Lines: lines, Truncated: truncated}
}

func newImage(fp entry.Fingerprint, mime string, img image.Image) *Artifact {
	return &Artifact{Kind: Image, Fingerprint: fp, Mime: mime, Image: img}
}

func newExternal(fp entry.Fingerprint, mime, out string) *Artifact {
	return &Artifact{Kind: External, Fingerprint: fp, Mime: mime, Output: out}
}

func newUnsupported(fp entry.Fingerprint, mime, reason string) *Artifact {
	return &Artifact{Kind: Unsupported, Fingerprint: fp, Mime: mime, Reason: reason}
}

// newError turns a failure into a displayable artifact
func newError(fp entry.Fingerprint, mime string, err error) *Artifact {
	kind := errs.KindOf(err)
	return &Artifact{Kind: Error, Fingerprint: fp, Mime: mime, Reason: kind.String() + ": " + shortReason(err), ErrKind: kind}
}

// shortReason keeps the innermost message of a wrapped error chain
func shortReason(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "); i >= 0 && i+2 < len(msg) {
		msg = msg[i+2:]
	}
	return msg
}
