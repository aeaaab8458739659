package xmss

// XMSS[MT] instance.
// Create one using NewContextFromName, NewContextFromOid,
// NewContextFromParamID or NewContext.
type Context struct {
	// Number of worker goroutines ("threads") to use for expensive operations.
	// Will guess an appropriate number if set to 0.
	Threads int

	p            Params  // parameters.
	mt           bool    // true for XMSSMT; false for XMSS
	oid          uint32  // OID of this configuration, if it has any
	paramID      uint32  // parameter id used in serialized keys, if any
	wotsLogW     uint8   // logarithm of the Winternitz parameter
	wotsLen1     uint32  // WOTS+ chains for message
	wotsLen2     uint32  // WOTS+ chains for checksum
	wotsLen      uint32  // total number of WOTS+ chains
	wotsSigBytes uint32  // length of WOTS+ signature
	treeHeight   uint32  // height of a subtree
	indexBytes   uint32  // size of an index
	sigBytes     uint32  // size of signature
	pkBytes      uint32  // size of public key
	skBytes      uint32  // size of secret key
	name         *string // name of algorithm
}

// Sequence number of signatures.
// (Corresponds with leaf indices in the implementation.)
type SignatureSeqNo uint64

// Creates a new context.
func NewContext(params Params) (ctx *Context, err Error) {
	ctx = new(Context)
	ctx.p = params
	ctx.mt = (params.D > 1)

	if params.N != 16 && params.N != 32 && params.N != 64 {
		return nil, errorf(InvalidInput,
			"N should be 16, 32 or 64 (and is %d)", params.N)
	}
	if params.WotsW != 4 && params.WotsW != 16 && params.WotsW != 256 {
		return nil, errorf(InvalidInput,
			"WotsW should be 4, 16 or 256 (and is %d)", params.WotsW)
	}
	if params.D == 0 || params.FullHeight%params.D != 0 {
		return nil, errorf(InvalidInput, "D should divide FullHeight")
	}
	if params.FullHeight > 60 {
		return nil, errorf(InvalidInput,
			"FullHeight should be at most 60 (and is %d)", params.FullHeight)
	}

	ctx.treeHeight = params.FullHeight / params.D
	if ctx.treeHeight == 0 {
		return nil, errorf(InvalidInput, "subtrees should have height at least 1")
	}

	ctx.wotsLogW = params.WotsLogW()
	ctx.wotsLen1 = params.WotsLen1()
	ctx.wotsLen2 = params.WotsLen2()
	ctx.wotsLen = params.WotsLen()
	ctx.wotsSigBytes = params.WotsSignatureSize()
	ctx.indexBytes = (params.FullHeight + 7) / 8
	ctx.sigBytes = (ctx.indexBytes + params.N +
		params.D*ctx.wotsSigBytes + params.FullHeight*params.N)
	ctx.pkBytes = 4 + 2*params.N
	ctx.skBytes = 4 + ctx.indexBytes + 4*params.N
	ctx.paramID = params.ParamID()

	return ctx, nil
}

// Returns the 2log of the Winternitz parameter
func (params *Params) WotsLogW() uint8 {
	switch params.WotsW {
	case 4:
		return 2
	case 16:
		return 4
	default:
		return 8
	}
}

// Returns the number of main WOTS+ chains
func (params *Params) WotsLen1() uint32 {
	return 8 * params.N / uint32(params.WotsLogW())
}

// Returns the number of WOTS+ checksum chains
func (params *Params) WotsLen2() uint32 {
	maxCsum := uint64(params.WotsLen1()) * uint64(params.WotsW-1)
	var len2 uint32 = 1
	for pow := uint64(params.WotsW); pow <= maxCsum; pow *= uint64(params.WotsW) {
		len2++
	}
	return len2
}

// Returns the total number of WOTS+ chains
func (params *Params) WotsLen() uint32 {
	return params.WotsLen1() + params.WotsLen2()
}

// Returns the size of a WOTS+ signature
func (params *Params) WotsSignatureSize() uint32 {
	return params.WotsLen() * params.N
}

// Returns the Oid of the XMSS[MT] instance and 0 if it has no Oid.
func (ctx *Context) Oid() uint32 {
	return ctx.oid
}

// Returns the parameter id under which keys and signatures of this
// instance are serialized and 0 if it has none.
func (ctx *Context) ParamID() uint32 {
	return ctx.paramID
}

// Returns whether this is an XMSSMT instance (as opposed to XMSS)
func (ctx *Context) MT() bool {
	return ctx.mt
}

// Get parameters of an XMSS[MT] instance
func (ctx *Context) Params() Params {
	return ctx.p
}

// Returns the size of signatures of this XMSS[MT] instance
func (ctx *Context) SignatureSize() uint32 {
	return ctx.sigBytes
}

// Returns the size of marshalled public keys of this XMSS[MT] instance
func (ctx *Context) PublicKeySize() uint32 {
	return ctx.pkBytes
}

// Returns the size of marshalled private keys of this XMSS[MT] instance
func (ctx *Context) PrivateKeySize() uint32 {
	return ctx.skBytes
}

// Returns the number of signatures a fresh private key of this XMSS[MT]
// instance can make.
func (ctx *Context) NumSignatures() uint64 {
	return ctx.p.MaxSignatureSeqNo() + 1
}

// A scratchpad used by a single goroutine to avoid memory allocation.
type scratchPad struct {
	buf []byte
	n   uint32

	hash hashScratchPad
}

func (pad scratchPad) fBuf() []byte {
	return pad.buf[:3*pad.n]
}

func (pad scratchPad) hBuf() []byte {
	return pad.buf[3*pad.n : 7*pad.n]
}

func (pad scratchPad) prfBuf() []byte {
	return pad.buf[7*pad.n : 9*pad.n+32]
}

func (pad scratchPad) prfAddrBuf() []byte {
	return pad.buf[9*pad.n+32 : 9*pad.n+64]
}

func (pad scratchPad) wotsSkSeedBuf() []byte {
	return pad.buf[9*pad.n+64 : 10*pad.n+64]
}

func (pad scratchPad) wotsBuf() []byte {
	return pad.buf[10*pad.n+64:]
}

func (ctx *Context) newScratchPad() scratchPad {
	n := ctx.p.N
	pad := scratchPad{
		buf:  make([]byte, 10*n+64+ctx.p.N*ctx.wotsLen),
		n:    n,
		hash: ctx.newHashScratchPad(),
	}
	return pad
}
