/*
Package ctybridge connects shapecraft to the cty dynamic type system. It
derives shape descriptors from cty types (ImpliedShape), drives a builder
from a cty value through the public construction protocol (Build, FromValue),
and renders finished values back into cty (ToValue).

The bridge is an in-memory consumer of the builder: it calls only the
exported descend/write/ascend surface, exactly like any other driver would.
cty sum types do not exist, so Enum shapes are out of the bridge's reach in
both directions.
*/
package ctybridge
