package build

import (
	"github.com/davecgh/go-spew/spew"
)

var dumpConfig = spew.ConfigState{Indent: "  ", SortKeys: true, DisablePointerAddresses: true}

// frameDump is the debug snapshot of one live frame.
type frameDump struct {
	Seg         string
	Kind        string
	Type        string
	Initialized int
	Slots       int
	Variant     string `json:",omitempty"`
	Started     bool
	EntryOpen   bool
}

// builderDump is the debug snapshot rendered by Dump.
type builderDump struct {
	State  string
	Path   string
	Frames []frameDump
}

// Dump renders the builder's live frame stack for debugging. The output
// format is not stable; do not parse it.
func (b *Builder) Dump() string {
	d := builderDump{
		State:  b.State().String(),
		Path:   b.Path(),
		Frames: make([]frameDump, 0, len(b.frames)),
	}
	for _, f := range b.frames {
		fd := frameDump{
			Seg:         f.seg,
			Kind:        f.shape.Kind.String(),
			Type:        f.shape.Type.String(),
			Initialized: f.tracker.countSet(),
			Slots:       f.tracker.n,
			Started:     f.started,
			EntryOpen:   f.entryOpen,
		}
		if f.variant != nil {
			fd.Variant = f.variant.Name
		}
		d.Frames = append(d.Frames, fd)
	}
	return dumpConfig.Sdump(d)
}
