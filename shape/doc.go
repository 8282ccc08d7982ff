/*
Package shape describes Go types at runtime in the form the build package
consumes: a Kind (scalar, struct, tuple, array, enum, list, map, option,
pointer), the decomposition into sub-slots for that kind, and an operation
table (drop, default, clone, parse, equal, display, iterate) whose entries
may be absent when a type does not support them.

Shapes come from two places:

 1. Derivation: Of / For walk an existing Go type reflectively and cache the
    result in a process-wide registry. Interface types must be declared as
    enums first (RegisterEnum); pointer types derive as Option unless opted
    into Pointer semantics (RegisterPointer); opaque leaf types can override
    structural derivation with RegisterScalar.

 2. Factories: StructOf, TupleOf, ArrayOf, ListOf, MapOf, OptionOf, PointerOf
    and EnumOf assemble descriptors by hand, synthesizing the backing Go type
    where needed. This is how shape-first consumers (for example the
    ctybridge package) describe values that have no pre-existing Go type.

A *Shape is deeply immutable once returned and may be shared freely across
builders.
*/
package shape
