package build_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/shapecraft/build"
	"github.com/vk/shapecraft/shape"
)

// mustAlloc is a test helper to start a builder for T.
func mustAlloc[T any](t *testing.T) *build.Typed[T] {
	t.Helper()
	b, err := build.AllocFor[T]()
	require.NoError(t, err)
	return b
}

func TestBuildStruct_TwoFields(t *testing.T) {
	b := mustAlloc[user](t)

	require.NoError(t, b.Descend(build.Field("ID")))
	require.NoError(t, b.WriteScalar(uint32(42)))
	require.NoError(t, b.Ascend())
	require.NoError(t, b.Descend(build.Field("Name")))
	require.NoError(t, b.WriteScalar("alice"))
	require.NoError(t, b.Ascend())

	v, err := b.Materialize()
	require.NoError(t, err)
	require.Equal(t, user{ID: 42, Name: "alice"}, v)
}

func TestBuildStruct_FieldsByIndex(t *testing.T) {
	b := mustAlloc[user](t)

	require.NoError(t, b.Descend(build.Index(1)))
	require.NoError(t, b.WriteScalar("bob"))
	require.NoError(t, b.Ascend())
	require.NoError(t, b.Descend(build.Index(0)))
	require.NoError(t, b.WriteScalar(uint32(7)))
	require.NoError(t, b.Ascend())

	v, err := b.Materialize()
	require.NoError(t, err)
	require.Equal(t, user{ID: 7, Name: "bob"}, v)
}

func TestBuildStruct_IncompleteFrameNamesMissingField(t *testing.T) {
	b := mustAlloc[user](t)

	require.NoError(t, b.Descend(build.Field("ID")))
	require.NoError(t, b.WriteScalar(uint32(1)))
	require.NoError(t, b.Ascend())

	_, err := b.Materialize()
	require.ErrorIs(t, err, build.ErrIncompleteFrame)
	require.ErrorContains(t, err, "Name")

	// The error is recoverable: finish the missing field and retry.
	require.NoError(t, b.Descend(build.Field("Name")))
	require.NoError(t, b.WriteScalar("carol"))
	require.NoError(t, b.Ascend())

	v, err := b.Materialize()
	require.NoError(t, err)
	require.Equal(t, user{ID: 1, Name: "carol"}, v)
}

func TestWriteScalar_ParsesStrings(t *testing.T) {
	b := mustAlloc[user](t)

	require.NoError(t, b.Descend(build.Field("ID")))
	err := b.WriteScalar("not a number")
	require.ErrorIs(t, err, build.ErrParse)

	// Still positioned at the same slot; a valid write succeeds.
	require.NoError(t, b.WriteScalar("42"))
	require.NoError(t, b.Ascend())
	require.NoError(t, b.Descend(build.Field("Name")))
	require.NoError(t, b.WriteScalar("alice"))
	require.NoError(t, b.Ascend())

	v, err := b.Materialize()
	require.NoError(t, err)
	require.Equal(t, user{ID: 42, Name: "alice"}, v)
}

func TestWriteScalar_TypeMismatch(t *testing.T) {
	b := mustAlloc[user](t)

	// Writing while the frame is a struct, not a scalar.
	require.ErrorIs(t, b.WriteScalar("x"), build.ErrTypeMismatch)

	require.NoError(t, b.Descend(build.Field("Name")))
	require.ErrorIs(t, b.WriteScalar(12), build.ErrTypeMismatch)
	require.ErrorIs(t, b.WriteScalar(nil), build.ErrTypeMismatch)
}

func TestWriteScalar_RejectsLossyNumericConversion(t *testing.T) {
	b := mustAlloc[user](t)

	require.NoError(t, b.Descend(build.Field("ID")))
	require.ErrorIs(t, b.WriteScalar(-1), build.ErrTypeMismatch)
	require.ErrorIs(t, b.WriteScalar(int64(1)<<40), build.ErrTypeMismatch)
	require.NoError(t, b.WriteScalar(99)) // fits, converts
	require.NoError(t, b.Ascend())
}

func TestAlloc_RejectsInvalidShape(t *testing.T) {
	_, err := build.Alloc(nil)
	require.Error(t, err)
	// Allocation failure is not a selector problem; the sentinels are
	// reserved for protocol errors on a live builder.
	require.NotErrorIs(t, err, build.ErrInvalidSelector)

	_, err = build.Alloc(&shape.Shape{})
	require.Error(t, err)
}

func TestDescend_InvalidSelector(t *testing.T) {
	b := mustAlloc[user](t)

	require.ErrorIs(t, b.Descend(build.Field("nope")), build.ErrInvalidSelector)
	require.ErrorIs(t, b.Descend(build.Index(5)), build.ErrInvalidSelector)
	require.ErrorIs(t, b.Descend(build.Inner()), build.ErrInvalidSelector)
	require.ErrorIs(t, b.BeginList(), build.ErrInvalidSelector)
	require.ErrorIs(t, b.BeginMap(), build.ErrInvalidSelector)
	require.ErrorIs(t, b.SelectVariant("card"), build.ErrInvalidSelector)
}

func TestAscend_AtRootFails(t *testing.T) {
	b := mustAlloc[user](t)
	require.ErrorIs(t, b.Ascend(), build.ErrInvalidSelector)
}

func TestAscend_IncompleteChildFails(t *testing.T) {
	b := mustAlloc[profile](t)

	require.NoError(t, b.Descend(build.Field("User")))
	require.NoError(t, b.Descend(build.Field("ID")))
	require.NoError(t, b.WriteScalar(uint32(1)))
	require.NoError(t, b.Ascend())

	err := b.Ascend() // user.Name still unset
	require.ErrorIs(t, err, build.ErrIncompleteFrame)
	require.ErrorContains(t, err, "Name")
}

func TestNestedStruct_WithOption(t *testing.T) {
	b := mustAlloc[profile](t)

	require.NoError(t, b.Descend(build.Field("User")))
	require.NoError(t, b.Descend(build.Field("ID")))
	require.NoError(t, b.WriteScalar(uint32(3)))
	require.NoError(t, b.Ascend())
	require.NoError(t, b.Descend(build.Field("Name")))
	require.NoError(t, b.WriteScalar("dora"))
	require.NoError(t, b.Ascend())
	require.NoError(t, b.Ascend())

	// Option set to a value.
	require.NoError(t, b.Descend(build.Field("Note")))
	require.NoError(t, b.Descend(build.Inner()))
	require.NoError(t, b.WriteScalar("vip"))
	require.NoError(t, b.Ascend())
	require.NoError(t, b.Ascend())

	v, err := b.Materialize()
	require.NoError(t, err)
	require.Equal(t, user{ID: 3, Name: "dora"}, v.User)
	require.NotNil(t, v.Note)
	require.Equal(t, "vip", *v.Note)
}

func TestOption_EmptyByEnteringAndAscending(t *testing.T) {
	b := mustAlloc[profile](t)

	require.NoError(t, b.Descend(build.Field("User")))
	require.NoError(t, b.SetDefault())
	require.NoError(t, b.Ascend())

	require.NoError(t, b.Descend(build.Field("Note")))
	require.NoError(t, b.Ascend()) // no inner: finalizes empty

	v, err := b.Materialize()
	require.NoError(t, err)
	require.Nil(t, v.Note)
}

func TestList_ThreeItems(t *testing.T) {
	b := mustAlloc[[]uint32](t)

	require.NoError(t, b.BeginList())
	for i := 0; i < 3; i++ {
		require.NoError(t, b.AppendItem())
		require.NoError(t, b.WriteScalar(uint32(1)))
		require.NoError(t, b.Ascend())
	}

	v, err := b.Materialize()
	require.NoError(t, err)
	require.Equal(t, []uint32{1, 1, 1}, v)
}

func TestList_EmptyFinalization(t *testing.T) {
	b := mustAlloc[[]uint32](t)
	require.NoError(t, b.BeginList())

	v, err := b.Materialize()
	require.NoError(t, err)
	require.NotNil(t, v)
	require.Len(t, v, 0)
}

func TestList_AppendBeforeBeginFails(t *testing.T) {
	b := mustAlloc[[]uint32](t)
	require.ErrorIs(t, b.AppendItem(), build.ErrInvalidSelector)
	require.NoError(t, b.BeginList())
	require.ErrorIs(t, b.BeginList(), build.ErrSlotAlreadyOwned)
}

func TestList_NotBegunIsIncomplete(t *testing.T) {
	b := mustAlloc[[]uint32](t)
	_, err := b.Materialize()
	require.ErrorIs(t, err, build.ErrIncompleteFrame)
}

func TestMap_SingleEntry(t *testing.T) {
	b := mustAlloc[map[string]uint32](t)

	require.NoError(t, b.BeginMap())
	require.NoError(t, b.BeginEntry())
	require.NoError(t, b.BeginKey())
	require.NoError(t, b.WriteScalar("a"))
	require.NoError(t, b.Ascend())
	require.NoError(t, b.BeginValue())
	require.NoError(t, b.WriteScalar(uint32(1)))
	require.NoError(t, b.Ascend())

	v, err := b.Materialize()
	require.NoError(t, err)
	require.Equal(t, map[string]uint32{"a": 1}, v)
}

func TestMap_EmptyFinalization(t *testing.T) {
	b := mustAlloc[map[string]uint32](t)
	require.NoError(t, b.BeginMap())

	v, err := b.Materialize()
	require.NoError(t, err)
	require.NotNil(t, v)
	require.Len(t, v, 0)
}

func TestMap_ProtocolEnforcement(t *testing.T) {
	b := mustAlloc[map[string]uint32](t)

	require.ErrorIs(t, b.BeginEntry(), build.ErrInvalidSelector) // before BeginMap
	require.NoError(t, b.BeginMap())
	require.ErrorIs(t, b.BeginKey(), build.ErrInvalidSelector)   // no open entry
	require.ErrorIs(t, b.BeginValue(), build.ErrInvalidSelector) // no open entry

	require.NoError(t, b.BeginEntry())
	require.ErrorIs(t, b.BeginEntry(), build.ErrSlotAlreadyOwned)
	require.ErrorIs(t, b.BeginValue(), build.ErrInvalidSelector) // key not committed

	// An open entry blocks materialization.
	_, err := b.Materialize()
	require.ErrorIs(t, err, build.ErrIncompleteFrame)
}

func TestMap_RekeyReplacesStagedKey(t *testing.T) {
	b := mustAlloc[map[string]uint32](t)

	require.NoError(t, b.BeginMap())
	require.NoError(t, b.BeginEntry())
	require.NoError(t, b.BeginKey())
	require.NoError(t, b.WriteScalar("first"))
	require.NoError(t, b.Ascend())

	// Change of heart: stage a different key before the value.
	require.NoError(t, b.BeginKey())
	require.NoError(t, b.WriteScalar("second"))
	require.NoError(t, b.Ascend())
	require.NoError(t, b.BeginValue())
	require.NoError(t, b.WriteScalar(uint32(2)))
	require.NoError(t, b.Ascend())

	v, err := b.Materialize()
	require.NoError(t, err)
	require.Equal(t, map[string]uint32{"second": 2}, v)
}

func TestEnum_BuildVariant(t *testing.T) {
	b := mustAlloc[payment](t)

	require.NoError(t, b.SelectVariant("cash"))
	require.NoError(t, b.Descend(build.Field("Amount")))
	require.NoError(t, b.WriteScalar(uint32(250)))
	require.NoError(t, b.Ascend())

	v, err := b.Materialize()
	require.NoError(t, err)
	require.Equal(t, cash{Amount: 250}, v)
}

func TestEnum_SelectVariantIndex(t *testing.T) {
	b := mustAlloc[payment](t)

	require.NoError(t, b.SelectVariantIndex(0)) // card
	require.NoError(t, b.Descend(build.Field("Number")))
	require.NoError(t, b.WriteScalar("4111"))
	require.NoError(t, b.Ascend())
	require.NoError(t, b.Descend(build.Field("Expiry")))
	require.NoError(t, b.WriteScalar("12/30"))
	require.NoError(t, b.Ascend())

	v, err := b.Materialize()
	require.NoError(t, err)
	require.Equal(t, card{Number: "4111", Expiry: "12/30"}, v)
}

func TestEnum_Errors(t *testing.T) {
	b := mustAlloc[payment](t)

	require.ErrorIs(t, b.Descend(build.Field("Amount")), build.ErrInvalidSelector) // no variant yet
	require.ErrorIs(t, b.SelectVariant("check"), build.ErrUnknownVariant)
	require.ErrorIs(t, b.SelectVariantIndex(9), build.ErrUnknownVariant)

	_, err := b.Materialize()
	require.ErrorIs(t, err, build.ErrIncompleteFrame)
}

func TestEnum_SwitchEqualsDirectBuild(t *testing.T) {
	// Select card, partially fill it, switch to cash: the result must be
	// indistinguishable from building cash directly.
	switched := mustAlloc[payment](t)
	require.NoError(t, switched.SelectVariant("card"))
	require.NoError(t, switched.Descend(build.Field("Number")))
	require.NoError(t, switched.WriteScalar("4111"))
	require.NoError(t, switched.Ascend())
	require.NoError(t, switched.SelectVariant("cash"))
	require.NoError(t, switched.Descend(build.Field("Amount")))
	require.NoError(t, switched.WriteScalar(uint32(10)))
	require.NoError(t, switched.Ascend())
	got, err := switched.Materialize()
	require.NoError(t, err)

	direct := mustAlloc[payment](t)
	require.NoError(t, direct.SelectVariant("cash"))
	require.NoError(t, direct.Descend(build.Field("Amount")))
	require.NoError(t, direct.WriteScalar(uint32(10)))
	require.NoError(t, direct.Ascend())
	want, err := direct.Materialize()
	require.NoError(t, err)

	require.Equal(t, want, got)
}

func TestPointer_BeginIndirection(t *testing.T) {
	b := mustAlloc[*node](t)

	require.NoError(t, b.BeginIndirection())
	require.NoError(t, b.Descend(build.Field("Label")))
	require.NoError(t, b.WriteScalar("leaf"))
	require.NoError(t, b.Ascend())
	require.NoError(t, b.Ascend())

	v, err := b.Materialize()
	require.NoError(t, err)
	require.NotNil(t, v)
	require.Equal(t, "leaf", v.Label)
}

func TestPointer_NilIsNeverComplete(t *testing.T) {
	b := mustAlloc[*node](t)
	_, err := b.Materialize()
	require.ErrorIs(t, err, build.ErrIncompleteFrame)
}

func TestArray_AllElementsRequired(t *testing.T) {
	b := mustAlloc[[3]uint8](t)

	for i := 0; i < 2; i++ {
		require.NoError(t, b.Descend(build.Index(i)))
		require.NoError(t, b.WriteScalar(uint8(i+1)))
		require.NoError(t, b.Ascend())
	}
	_, err := b.Materialize()
	require.ErrorIs(t, err, build.ErrIncompleteFrame)
	require.ErrorContains(t, err, "[2]")

	require.NoError(t, b.Descend(build.Index(2)))
	require.NoError(t, b.WriteScalar(uint8(3)))
	require.NoError(t, b.Ascend())

	v, err := b.Materialize()
	require.NoError(t, err)
	require.Equal(t, [3]uint8{1, 2, 3}, v)
}

func TestTuple_PositionalSlots(t *testing.T) {
	intShape, err := shape.ScalarOf(reflect.TypeOf(0))
	require.NoError(t, err)
	strShape, err := shape.ScalarOf(reflect.TypeOf(""))
	require.NoError(t, err)
	tup, err := shape.TupleOf(intShape, strShape)
	require.NoError(t, err)

	b, err := build.Alloc(tup)
	require.NoError(t, err)
	require.NoError(t, b.Descend(build.Index(0)))
	require.NoError(t, b.WriteScalar(41))
	require.NoError(t, b.Ascend())
	require.NoError(t, b.Descend(build.Field("1"))) // positional name
	require.NoError(t, b.WriteScalar("answer-ish"))
	require.NoError(t, b.Ascend())

	v, err := b.Materialize()
	require.NoError(t, err)
	rv := reflect.ValueOf(v)
	require.Equal(t, int64(41), rv.Field(0).Int())
	require.Equal(t, "answer-ish", rv.Field(1).String())
}

func TestSetDefault(t *testing.T) {
	b := mustAlloc[user](t)
	require.NoError(t, b.SetDefault())

	v, err := b.Materialize()
	require.NoError(t, err)
	require.Equal(t, user{}, v)
}

func TestSetDefault_NoDefault(t *testing.T) {
	// The registered handle scalar has no default operation.
	b := mustAlloc[handle](t)
	require.ErrorIs(t, b.SetDefault(), build.ErrNoDefault)
}

func TestMaterialize_PoisonsBuilder(t *testing.T) {
	b := mustAlloc[user](t)
	require.NoError(t, b.SetDefault())
	_, err := b.Materialize()
	require.NoError(t, err)

	require.Equal(t, build.StateMaterialized, b.State())
	require.ErrorIs(t, b.Descend(build.Field("ID")), build.ErrPoisoned)
	require.ErrorIs(t, b.WriteScalar(1), build.ErrPoisoned)
	_, err = b.Materialize()
	require.ErrorIs(t, err, build.ErrPoisoned)
}

func TestAbandon_PoisonsBuilder(t *testing.T) {
	b := mustAlloc[user](t)
	require.NoError(t, b.Descend(build.Field("ID")))
	b.Abandon()

	require.Equal(t, build.StatePoisoned, b.State())
	require.ErrorIs(t, b.WriteScalar(1), build.ErrPoisoned)
	b.Abandon() // idempotent
	require.Equal(t, build.StatePoisoned, b.State())
}

func TestStateTransitions(t *testing.T) {
	b := mustAlloc[user](t)
	require.Equal(t, build.StateEmpty, b.State())

	require.NoError(t, b.Descend(build.Field("ID")))
	require.Equal(t, build.StateInProgress, b.State())
	require.NoError(t, b.WriteScalar(uint32(1)))
	require.NoError(t, b.Ascend())
	require.Equal(t, build.StateInProgress, b.State())

	require.NoError(t, b.Descend(build.Field("Name")))
	require.NoError(t, b.WriteScalar("x"))
	require.NoError(t, b.Ascend())
	require.Equal(t, build.StateComplete, b.State())

	_, err := b.Materialize()
	require.NoError(t, err)
	require.Equal(t, build.StateMaterialized, b.State())
}

func TestInto_BuildsIntoCallerStorage(t *testing.T) {
	var u user
	b, err := build.Into(&u)
	require.NoError(t, err)

	require.NoError(t, b.Descend(build.Field("ID")))
	require.NoError(t, b.WriteScalar(uint32(5)))
	require.NoError(t, b.Ascend())
	require.NoError(t, b.Descend(build.Field("Name")))
	require.NoError(t, b.WriteScalar("eve"))
	require.NoError(t, b.Ascend())

	_, err = b.Materialize()
	require.NoError(t, err)
	require.Equal(t, user{ID: 5, Name: "eve"}, u)
}

func TestInto_RejectsNonPointer(t *testing.T) {
	_, err := build.Into(user{})
	require.ErrorIs(t, err, build.ErrTypeMismatch)
}

func TestPath_TracksPosition(t *testing.T) {
	b := mustAlloc[handleBag](t)
	require.Equal(t, "$", b.Path())

	require.NoError(t, b.Descend(build.Field("Items")))
	require.Equal(t, "$.Items", b.Path())
	require.NoError(t, b.BeginList())
	require.NoError(t, b.AppendItem())
	require.Equal(t, "$.Items[0]", b.Path())
	b.Abandon()
}

func TestDump_RendersFrameStack(t *testing.T) {
	b := mustAlloc[user](t)
	require.NoError(t, b.Descend(build.Field("Name")))

	out := b.Dump()
	require.Contains(t, out, "in-progress")
	require.Contains(t, out, "$.Name")
	b.Abandon()
}
