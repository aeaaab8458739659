package xmss

import (
	"reflect"
	"testing"
)

func TestBinaryUnmarshalingNamedParams(t *testing.T) {
	for _, name := range ListNames() {
		params := ParamsFromName(name)
		if params == nil {
			t.Fatalf("ParamsFromName(%s) is nil", name)
		}
		buf, err := params.MarshalBinary()
		if err != nil {
			t.Fatalf("ParamsFromName(%s).MarshalBinary(): %v ", name, err)
		}
		var params2 Params
		err = params2.UnmarshalBinary(buf)
		if err != nil {
			t.Fatalf("%s: UnmarshalBinary(): %v ", name, err)
		}
		name2, _ := params2.LookupNameAndOid()
		if name2 != name {
			t.Fatalf("%s unmarshaled improperly to %s", name, name2)
		}
	}
}

func testBinaryUnmarshalingCustomParams(params *Params, t *testing.T) {
	buf, err := params.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary(): %v ", err)
	}
	var params2 Params
	err = params2.UnmarshalBinary(buf)
	if err != nil {
		t.Fatalf("UnmarshalBinary(): %v ", err)
	}
	if !reflect.DeepEqual(*params, params2) {
		t.Fatalf("Unmarshaling failed")
	}
}

func TestBinaryUnmarshalingCustomParams(t *testing.T) {
	for _, name := range ListNames() {
		params := ParamsFromName(name)
		if params == nil {
			t.Fatalf("ParamsFromName(%s) is nil", name)
		}
		params.WotsW = 4
		testBinaryUnmarshalingCustomParams(params, t)
		params.WotsW = 256
		testBinaryUnmarshalingCustomParams(params, t)
	}
}

func TestParamIDRoundTrip(t *testing.T) {
	for _, name := range ListNames() {
		params := ParamsFromName(name)
		id := params.ParamID()
		if id == 0 {
			t.Fatalf("%s has no parameter id", name)
		}
		ctx, err := NewContextFromParamID(id)
		if err != nil {
			t.Fatalf("NewContextFromParamID(%d): %v", id, err)
		}
		if ctx.Name() != name {
			t.Fatalf("parameter id %d resolves to %s instead of %s",
				id, ctx.Name(), name)
		}
		if ctx.ParamID() != id {
			t.Fatalf("%s: parameter id changed from %d to %d",
				name, id, ctx.ParamID())
		}
		params2 := ctx.Params()
		if !reflect.DeepEqual(params2, *params) {
			t.Fatalf("%s: parameters do not round trip", name)
		}
	}
}

func TestUnknownParamID(t *testing.T) {
	for _, id := range []uint32{0, 0x2d, 0xdeadbeef} {
		_, err := NewContextFromParamID(id)
		if err == nil {
			t.Fatalf("parameter id %d should be unknown", id)
		}
		if err.Code() != InvalidInput {
			t.Errorf("wrong error code for parameter id %d: %v", id, err.Code())
		}
	}
}

// Multi-tree instances are serialized under their RFC 8391 oid; the
// single-tree oids overlap those, so their parameter ids are offset.  No
// two named instances may end up with the same id.
func TestParamIDOffset(t *testing.T) {
	mt := NewContextFromName("XMSSMT-SHA2_20/2_256")
	if mt.Oid() != 1 || mt.ParamID() != 1 {
		t.Errorf("multi-tree parameter ids should equal their oid")
	}
	single := NewContextFromName("XMSS-SHA2_10_256")
	if single.Oid() != 1 {
		t.Errorf("XMSS-SHA2_10_256 should have oid 1")
	}
	if single.ParamID() != 1+paramIDXMSSOffset {
		t.Errorf("single-tree parameter ids should be offset")
	}

	seen := make(map[uint32]string)
	for _, name := range ListNames() {
		id := ParamsFromName(name).ParamID()
		if other, ok := seen[id]; ok {
			t.Errorf("%s and %s share parameter id %d", name, other, id)
		}
		seen[id] = name
	}
}

func TestNewContextValidation(t *testing.T) {
	bad := []Params{
		{Func: SHA2, N: 24, FullHeight: 10, D: 1, WotsW: 16},
		{Func: SHA2, N: 32, FullHeight: 10, D: 1, WotsW: 5},
		{Func: SHA2, N: 32, FullHeight: 10, D: 3, WotsW: 16},
		{Func: SHA2, N: 32, FullHeight: 10, D: 0, WotsW: 16},
		{Func: SHA2, N: 32, FullHeight: 64, D: 1, WotsW: 16},
		{Func: SHA2, N: 32, FullHeight: 0, D: 1, WotsW: 16},
	}
	for i, params := range bad {
		_, err := NewContext(params)
		if err == nil {
			t.Errorf("params %d should be rejected", i)
			continue
		}
		if err.Code() != InvalidInput {
			t.Errorf("params %d: wrong error code %v", i, err.Code())
		}
	}
}

func TestParamSizes(t *testing.T) {
	params := ParamsFromName("XMSSMT-SHA2_20/4_256")
	if params.MaxSignatureSeqNo() != (1<<20)-1 {
		t.Errorf("wrong maximum sequence number")
	}
	if params.PrivateKeySize() != 96 {
		t.Errorf("container private key should be the three seeds")
	}
	if params.CachedSubTreeSize() != 4160 {
		t.Errorf("CachedSubTreeSize is %d", params.CachedSubTreeSize())
	}

	ctx := NewContextFromName("XMSSMT-SHA2_20/4_256")
	if ctx.NumSignatures() != 1<<20 {
		t.Errorf("wrong number of signatures")
	}
	// 3 index bytes, the randomizer and four layers of WOTS+ signature
	// plus auth path.
	if ctx.SignatureSize() != 3+32+4*(67*32+5*32) {
		t.Errorf("SignatureSize is %d", ctx.SignatureSize())
	}
	if ctx.PublicKeySize() != 4+2*32 {
		t.Errorf("PublicKeySize is %d", ctx.PublicKeySize())
	}
	if ctx.PrivateKeySize() != 4+3+4*32 {
		t.Errorf("PrivateKeySize is %d", ctx.PrivateKeySize())
	}
}
