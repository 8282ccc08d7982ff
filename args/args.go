// Package args constructs values of struct shapes from command-line style
// "--flag=value" arguments. Every scalar leaf of the shape becomes a flag
// named by its dotted path ("--server.port"); list-of-scalar fields accept
// the flag repeatedly. Values arrive as strings and go through each scalar
// shape's parse operation via the builder's write path.
package args

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/vk/shapecraft/build"
	"github.com/vk/shapecraft/internal/ctxlog"
	"github.com/vk/shapecraft/shape"
)

// Build parses argv against flags derived from the shape and constructs a
// value. Fields without a matching flag fall back to their shape's default
// operation; fields with neither a flag nor a default make Materialize fail
// with the field's path.
func Build(ctx context.Context, s *shape.Shape, argv []string) (any, error) {
	if s == nil || s.Kind != shape.Struct {
		return nil, fmt.Errorf("args: flag construction needs a struct shape, got %s", s)
	}
	logger := ctxlog.FromContext(ctx)

	fs := pflag.NewFlagSet("args", pflag.ContinueOnError)
	if err := register(fs, s, ""); err != nil {
		return nil, err
	}
	if err := fs.Parse(argv); err != nil {
		return nil, fmt.Errorf("args: %w", err)
	}

	b, err := build.Alloc(s)
	if err != nil {
		return nil, err
	}
	if err := fill(fs, b, s, ""); err != nil {
		b.Abandon()
		return nil, err
	}
	out, err := b.Materialize()
	if err != nil {
		b.Abandon()
		return nil, err
	}
	logger.Debug("args built value", "shape", s.String(), "flags", fs.NFlag())
	return out, nil
}

// register declares one flag per scalar leaf reachable from the struct shape.
func register(fs *pflag.FlagSet, s *shape.Shape, prefix string) error {
	for i := range s.Fields {
		f := &s.Fields[i]
		path := f.Name
		if prefix != "" {
			path = prefix + "." + f.Name
		}
		switch target := derefOption(f.Shape); target.Kind {
		case shape.Scalar:
			fs.String(path, "", fmt.Sprintf("%s (%s)", path, target.Type))
		case shape.List:
			if target.Elem.Kind != shape.Scalar {
				return fmt.Errorf("args: %s: only lists of scalars can be flags", path)
			}
			fs.StringArray(path, nil, fmt.Sprintf("%s (repeatable, %s)", path, target.Elem.Type))
		case shape.Struct:
			if err := register(fs, target, path); err != nil {
				return err
			}
		default:
			return fmt.Errorf("args: %s: %s shapes cannot be built from flags", path, target.Kind)
		}
	}
	return nil
}

// fill drives the builder for the current struct frame from parsed flags.
func fill(fs *pflag.FlagSet, b *build.Builder, s *shape.Shape, prefix string) error {
	for i := range s.Fields {
		f := &s.Fields[i]
		path := f.Name
		if prefix != "" {
			path = prefix + "." + f.Name
		}
		if err := fillField(fs, b, f, path); err != nil {
			return err
		}
	}
	return nil
}

func fillField(fs *pflag.FlagSet, b *build.Builder, f *shape.Field, path string) error {
	optional := f.Shape.Kind == shape.Option
	target := derefOption(f.Shape)

	switch target.Kind {
	case shape.Scalar:
		if !fs.Changed(path) {
			return fillAbsent(b, f)
		}
		raw, err := fs.GetString(path)
		if err != nil {
			return fmt.Errorf("args: %w", err)
		}
		if err := b.Descend(build.Field(f.Name)); err != nil {
			return err
		}
		if optional {
			if err := b.Descend(build.Inner()); err != nil {
				return err
			}
		}
		if err := b.WriteScalar(raw); err != nil {
			return err
		}
		if optional {
			if err := b.Ascend(); err != nil {
				return err
			}
		}
		return b.Ascend()

	case shape.List:
		raws, err := fs.GetStringArray(path)
		if err != nil {
			return fmt.Errorf("args: %w", err)
		}
		if len(raws) == 0 && !fs.Changed(path) {
			return fillAbsent(b, f)
		}
		if err := b.Descend(build.Field(f.Name)); err != nil {
			return err
		}
		if optional {
			if err := b.Descend(build.Inner()); err != nil {
				return err
			}
		}
		if err := b.BeginList(); err != nil {
			return err
		}
		for _, raw := range raws {
			if err := b.AppendItem(); err != nil {
				return err
			}
			if err := b.WriteScalar(raw); err != nil {
				return err
			}
			if err := b.Ascend(); err != nil {
				return err
			}
		}
		if optional {
			if err := b.Ascend(); err != nil {
				return err
			}
		}
		return b.Ascend()

	case shape.Struct:
		if optional && !anyChanged(fs, path) {
			return fillAbsent(b, f)
		}
		if err := b.Descend(build.Field(f.Name)); err != nil {
			return err
		}
		if optional {
			if err := b.Descend(build.Inner()); err != nil {
				return err
			}
		}
		if err := fill(fs, b, target, path); err != nil {
			return err
		}
		if optional {
			if err := b.Ascend(); err != nil {
				return err
			}
		}
		return b.Ascend()
	}

	return fmt.Errorf("args: %s: %s shapes cannot be built from flags", path, target.Kind)
}

// fillAbsent handles a field with no flag provided: use the shape's default
// when there is one, otherwise leave the slot unset so materialization
// reports it.
func fillAbsent(b *build.Builder, f *shape.Field) error {
	if f.Shape.Ops.Default == nil {
		return nil
	}
	if err := b.Descend(build.Field(f.Name)); err != nil {
		return err
	}
	if err := b.SetDefault(); err != nil {
		return err
	}
	return b.Ascend()
}

// derefOption looks through a single Option layer so optional fields expose
// the same flags as required ones.
func derefOption(s *shape.Shape) *shape.Shape {
	if s.Kind == shape.Option {
		return s.Elem
	}
	return s
}

// anyChanged reports whether any flag underneath the dotted prefix was set.
func anyChanged(fs *pflag.FlagSet, prefix string) bool {
	changed := false
	fs.Visit(func(fl *pflag.Flag) {
		if fl.Name == prefix || len(fl.Name) > len(prefix) && fl.Name[:len(prefix)+1] == prefix+"." {
			changed = true
		}
	})
	return changed
}
