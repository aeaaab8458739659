package xmss

import (
	"reflect"
)

type HashFunc uint32

const (
	SHA2  HashFunc = 0
	SHAKE          = 1
)

// Parameters of an XMSS[MT] instance
type Params struct {
	Func       HashFunc // which hash function to use
	N          uint32   // security parameter: influences length of hashes
	FullHeight uint32   // full height of the hypertree
	D          uint32   // number of layers; 1 for XMSS, >1 for XMSSMT

	// WOTS+ Winternitz parameter.  Only 4, 16 and 256 are supported.
	WotsW uint16
}

// Serialized parameter ids of single-tree instances are offset by this
// amount, so that they share one id space with the multi-tree oids.
const paramIDXMSSOffset = 0x20

// Entry in the registry of algorithms
type regEntry struct {
	name   string // name, eg. XMSSMT-SHA2_20/2_256
	mt     bool   // whether its XMSSMT (instead of XMSS)
	oid    uint32 // oid of the algorithm
	params Params // parameters of the algorithm
}

// The id under which this instance appears in serialized keys and
// signatures.  Multi-tree instances use their RFC 8391 oid as-is; the
// single-tree oids overlap those, so they are offset.
func (entry *regEntry) paramID() uint32 {
	if entry.mt {
		return entry.oid
	}
	return entry.oid + paramIDXMSSOffset
}

// Registry of named XMSS[MT] algorithms
var registry []regEntry = []regEntry{
	regEntry{"XMSSMT-SHA2_20/2_256", true, 0x00000001,
		Params{SHA2, 32, 20, 2, 16}},
	regEntry{"XMSSMT-SHA2_20/4_256", true, 0x00000002,
		Params{SHA2, 32, 20, 4, 16}},
	regEntry{"XMSSMT-SHA2_40/2_256", true, 0x00000003,
		Params{SHA2, 32, 40, 2, 16}},
	regEntry{"XMSSMT-SHA2_40/4_256", true, 0x00000004,
		Params{SHA2, 32, 40, 4, 16}},
	regEntry{"XMSSMT-SHA2_40/8_256", true, 0x00000005,
		Params{SHA2, 32, 40, 8, 16}},
	regEntry{"XMSSMT-SHA2_60/3_256", true, 0x00000006,
		Params{SHA2, 32, 60, 3, 16}},
	regEntry{"XMSSMT-SHA2_60/6_256", true, 0x00000007,
		Params{SHA2, 32, 60, 6, 16}},
	regEntry{"XMSSMT-SHA2_60/12_256", true, 0x00000008,
		Params{SHA2, 32, 60, 12, 16}},

	regEntry{"XMSSMT-SHA2_20/2_512", true, 0x00000009,
		Params{SHA2, 64, 20, 2, 16}},
	regEntry{"XMSSMT-SHA2_20/4_512", true, 0x0000000a,
		Params{SHA2, 64, 20, 4, 16}},
	regEntry{"XMSSMT-SHA2_40/2_512", true, 0x0000000b,
		Params{SHA2, 64, 40, 2, 16}},
	regEntry{"XMSSMT-SHA2_40/4_512", true, 0x0000000c,
		Params{SHA2, 64, 40, 4, 16}},
	regEntry{"XMSSMT-SHA2_40/8_512", true, 0x0000000d,
		Params{SHA2, 64, 40, 8, 16}},
	regEntry{"XMSSMT-SHA2_60/3_512", true, 0x0000000e,
		Params{SHA2, 64, 60, 3, 16}},
	regEntry{"XMSSMT-SHA2_60/6_512", true, 0x0000000f,
		Params{SHA2, 64, 60, 6, 16}},
	regEntry{"XMSSMT-SHA2_60/12_512", true, 0x00000010,
		Params{SHA2, 64, 60, 12, 16}},

	regEntry{"XMSSMT-SHAKE_20/2_256", true, 0x00000011,
		Params{SHAKE, 32, 20, 2, 16}},
	regEntry{"XMSSMT-SHAKE_20/4_256", true, 0x00000012,
		Params{SHAKE, 32, 20, 4, 16}},
	regEntry{"XMSSMT-SHAKE_40/2_256", true, 0x00000013,
		Params{SHAKE, 32, 40, 2, 16}},
	regEntry{"XMSSMT-SHAKE_40/4_256", true, 0x00000014,
		Params{SHAKE, 32, 40, 4, 16}},
	regEntry{"XMSSMT-SHAKE_40/8_256", true, 0x00000015,
		Params{SHAKE, 32, 40, 8, 16}},
	regEntry{"XMSSMT-SHAKE_60/3_256", true, 0x00000016,
		Params{SHAKE, 32, 60, 3, 16}},
	regEntry{"XMSSMT-SHAKE_60/6_256", true, 0x00000017,
		Params{SHAKE, 32, 60, 6, 16}},
	regEntry{"XMSSMT-SHAKE_60/12_256", true, 0x00000018,
		Params{SHAKE, 32, 60, 12, 16}},

	regEntry{"XMSSMT-SHAKE_20/2_512", true, 0x00000019,
		Params{SHAKE, 64, 20, 2, 16}},
	regEntry{"XMSSMT-SHAKE_20/4_512", true, 0x0000001a,
		Params{SHAKE, 64, 20, 4, 16}},
	regEntry{"XMSSMT-SHAKE_40/2_512", true, 0x0000001b,
		Params{SHAKE, 64, 40, 2, 16}},
	regEntry{"XMSSMT-SHAKE_40/4_512", true, 0x0000001c,
		Params{SHAKE, 64, 40, 4, 16}},
	regEntry{"XMSSMT-SHAKE_40/8_512", true, 0x0000001d,
		Params{SHAKE, 64, 40, 8, 16}},
	regEntry{"XMSSMT-SHAKE_60/3_512", true, 0x0000001e,
		Params{SHAKE, 64, 60, 3, 16}},
	regEntry{"XMSSMT-SHAKE_60/6_512", true, 0x0000001f,
		Params{SHAKE, 64, 60, 6, 16}},
	regEntry{"XMSSMT-SHAKE_60/12_512", true, 0x00000020,
		Params{SHAKE, 64, 60, 12, 16}},

	regEntry{"XMSS-SHA2_10_256", false, 0x00000001,
		Params{SHA2, 32, 10, 1, 16}},
	regEntry{"XMSS-SHA2_16_256", false, 0x00000002,
		Params{SHA2, 32, 16, 1, 16}},
	regEntry{"XMSS-SHA2_20_256", false, 0x00000003,
		Params{SHA2, 32, 20, 1, 16}},
	regEntry{"XMSS-SHA2_10_512", false, 0x00000004,
		Params{SHA2, 64, 10, 1, 16}},
	regEntry{"XMSS-SHA2_16_512", false, 0x00000005,
		Params{SHA2, 64, 16, 1, 16}},
	regEntry{"XMSS-SHA2_20_512", false, 0x00000006,
		Params{SHA2, 64, 20, 1, 16}},

	regEntry{"XMSS-SHAKE_10_256", false, 0x00000007,
		Params{SHAKE, 32, 10, 1, 16}},
	regEntry{"XMSS-SHAKE_16_256", false, 0x00000008,
		Params{SHAKE, 32, 16, 1, 16}},
	regEntry{"XMSS-SHAKE_20_256", false, 0x00000009,
		Params{SHAKE, 32, 20, 1, 16}},
	regEntry{"XMSS-SHAKE_10_512", false, 0x0000000a,
		Params{SHAKE, 64, 10, 1, 16}},
	regEntry{"XMSS-SHAKE_16_512", false, 0x0000000b,
		Params{SHAKE, 64, 16, 1, 16}},
	regEntry{"XMSS-SHAKE_20_512", false, 0x0000000c,
		Params{SHAKE, 64, 20, 1, 16}},
}

var registryNameLut map[string]regEntry
var registryOidLut map[uint32]regEntry
var registryOidMTLut map[uint32]regEntry
var registryParamIDLut map[uint32]regEntry

// Initializes algorithm lookup tables.
func init() {
	registryNameLut = make(map[string]regEntry)
	registryOidLut = make(map[uint32]regEntry)
	registryOidMTLut = make(map[uint32]regEntry)
	registryParamIDLut = make(map[uint32]regEntry)
	for _, entry := range registry {
		registryNameLut[entry.name] = entry
		registryParamIDLut[entry.paramID()] = entry
		if entry.mt {
			registryOidMTLut[entry.oid] = entry
		} else {
			registryOidLut[entry.oid] = entry
		}
	}
}

// Returns parameters for the named XMSS[MT] instance (and nil if there is no
// such algorithm).
func ParamsFromName(name string) *Params {
	entry, ok := registryNameLut[name]
	if ok {
		return &entry.params
	}
	return nil
}

// Return new context for the given XMSS[MT] oid (and nil if it's unknown).
func NewContextFromOid(mt bool, oid uint32) *Context {
	var lut map[uint32]regEntry
	if mt {
		lut = registryOidMTLut
	} else {
		lut = registryOidLut
	}
	entry, ok := lut[oid]
	if !ok {
		return nil
	}
	ctx, _ := NewContext(entry.params)
	ctx.oid = entry.oid
	ctx.name = &entry.name
	return ctx
}

// Return new context for the given parameter id as it appears in serialized
// keys and signatures.  Fails with an InvalidInput error on ids missing
// from the registry.
func NewContextFromParamID(id uint32) (*Context, Error) {
	entry, ok := registryParamIDLut[id]
	if !ok {
		return nil, errorf(InvalidInput, "unknown parameter id %d", id)
	}
	ctx, err := NewContext(entry.params)
	if err != nil {
		return nil, err
	}
	ctx.oid = entry.oid
	ctx.name = &entry.name
	return ctx, nil
}

// Return new context for the given XMSS[MT] algorithm name (and nil if the
// algorithm name is unknown).
func NewContextFromName(name string) *Context {
	entry, ok := registryNameLut[name]
	if !ok {
		return nil
	}
	ctx, _ := NewContext(entry.params)
	ctx.oid = entry.oid
	ctx.name = &entry.name
	return ctx
}

// Returns the name of the XMSS[MT] instance and an empty string if it has
// no name.
func (ctx *Context) Name() string {
	if ctx.name == nil {
		for i, entry := range registry {
			if reflect.DeepEqual(entry.params, ctx.p) {
				ctx.name = &registry[i].name
				break
			}
		}
	}
	if ctx.name != nil {
		return *ctx.name
	}
	return ""
}

// Returns the name and oid of these parameters, or ("", 0) if the
// combination is not in the registry.
func (params *Params) LookupNameAndOid() (string, uint32) {
	for _, entry := range registry {
		if reflect.DeepEqual(entry.params, *params) {
			return entry.name, entry.oid
		}
	}
	return "", 0
}

// The parameter id under which keys and signatures for these parameters
// are serialized, or 0 if the combination is not in the registry.
func (params *Params) ParamID() uint32 {
	for _, entry := range registry {
		if reflect.DeepEqual(entry.params, *params) {
			return entry.paramID()
		}
	}
	return 0
}

// The sequence number of the last signature a fresh private key for these
// parameters can make.
func (params *Params) MaxSignatureSeqNo() uint64 {
	return (uint64(1) << params.FullHeight) - 1
}

// Returns the size of the subtrees for this parameter.
func (params *Params) BareSubTreeSize() int {
	height := (params.FullHeight / params.D) + 1
	return int(((1 << height) - 1) * params.N)
}

// Returns the size of the cached subtrees for this parameter.
func (params *Params) CachedSubTreeSize() int {
	// A cached subtree contains the merkle subtree and possibly
	// a WOTS+ signature of the subtree above it.
	return params.BareSubTreeSize() + int(params.WotsSignatureSize())
}

// Size of the private key as stored by PrivateKeyContainer.
// NOTE this is not equal to the size of a marshalled private key,
//      which also includes the parameter id, sequence number and root.
func (params *Params) PrivateKeySize() int {
	return int(params.N * 3) // skSeed + skPrf + pubSeed
}

// List all named XMSS[MT] instances
func ListNames() (names []string) {
	names = make([]string, len(registry))
	for i, entry := range registry {
		names[i] = entry.name
	}
	return
}
