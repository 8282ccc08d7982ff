/*
Package build incrementally constructs values of runtime-described shapes.

A Builder is a stack of frames mirroring the nesting of the value under
construction; the top frame always receives the writes. The caller repeatedly
addresses a sub-slot of the current frame (Descend, or one of the container
entry points), writes a scalar or recursively builds a nested value, and
Ascends, which commits the finished child into its parent slot and marks that
slot initialized. Once the root frame is complete, Materialize hands the value
out and disarms the builder.

The protocol in one sitting:

	b, _ := build.Alloc(shape.MustFor[Server]())
	_ = b.Descend(build.Field("Host"))
	_ = b.WriteScalar("localhost")
	_ = b.Ascend()
	_ = b.Descend(build.Field("Port"))
	_ = b.WriteScalar("8080") // parsed into the field's integer type
	_ = b.Ascend()
	v, err := b.Materialize()

Containers layer on the same mechanics: BeginList/AppendItem for sequences,
BeginMap/BeginEntry/BeginKey/BeginValue for the two-phase map entry protocol,
SelectVariant for enums, Inner()/BeginIndirection for options and pointers.
Entering a list or map and ascending without adding items commits an empty
collection.

Safety rules, enforced at every step: a slot is only ever overwritten after
its previous value has been dropped; a frame only ascends once its kind's
completion rule holds; abandoning the builder (Abandon, or any error path
that discards it) releases exactly the initialized slots, in reverse
initialization order, and never touches uninitialized storage. After
Materialize or Abandon the builder is disarmed and every operation reports
ErrPoisoned.

Builders are single-threaded; shapes they reference are immutable and freely
shared.
*/
package build
