package xmss

// Expands seed into the WOTS+ chain starting values, writing them to out.
func (ctx *Context) wotsExpandSeedInto(pad scratchPad, seed, out []byte) {
	var i uint32
	for i = 0; i < ctx.wotsLen; i++ {
		ctx.prfUint64Into(pad, uint64(i), seed, out[i*ctx.p.N:(i+1)*ctx.p.N])
	}
}

// Converts a message into positions on the WOTS+ chains, which
// are called "chain lengths".
func (ctx *Context) wotsChainLengths(msg []byte) []uint8 {
	ret := make([]uint8, ctx.wotsLen)

	// compute the chain lengths for the message itself
	ctx.toBaseW(msg, ret[:ctx.wotsLen1])

	// compute the checksum
	var csum uint32 = 0
	for i := 0; i < int(ctx.wotsLen1); i++ {
		csum += uint32(ctx.p.WotsW) - 1 - uint32(ret[i])
	}
	csum = csum << ((8 - ((ctx.wotsLen2 * uint32(ctx.wotsLogW)) % 8)) % 8)

	// put checksum in buffer
	ctx.toBaseW(
		encodeUint64(
			uint64(csum),
			int((ctx.wotsLen2*uint32(ctx.wotsLogW)+7)/8)),
		ret[ctx.wotsLen1:])
	return ret
}

// Converts the given array of bytes into base w for the WOTS+ one-time
// signature scheme.  Only works if LogW divides into 8.
func (ctx *Context) toBaseW(input []byte, output []uint8) {
	var in uint32 = 0
	var out uint32 = 0
	var total uint8
	var bits uint8

	for consumed := 0; consumed < len(output); consumed++ {
		if bits == 0 {
			total = input[in]
			in++
			bits = 8
		}
		bits -= ctx.wotsLogW
		output[out] = uint8(uint16(total>>bits) & (ctx.p.WotsW - 1))
		out++
	}
}

// Compute the (start + steps)th value in the WOTS+ chain, given
// the start'th value in the chain.  in and out may overlap.
func (ctx *Context) wotsGenChainInto(pad scratchPad, in []byte,
	start, steps uint16, ph precomputedHashes, addr address, out []byte) {
	copy(out, in)
	var i uint16
	for i = start; i < (start+steps) && (i < ctx.p.WotsW); i++ {
		addr.setHash(uint32(i))
		ctx.fInto(pad, out, ph, addr, out)
	}
}

// Generate a WOTS+ public key for the keypair at addr, deriving its seed
// from the secret key seed in ph.
func (ctx *Context) wotsPkGenInto(pad scratchPad, ph precomputedHashes,
	addr address, out []byte) {
	seed := pad.wotsSkSeedBuf()
	ctx.getWotsSeedInto(pad, ph, addr, seed)
	ctx.wotsPkFromSeedInto(pad, seed, ph, addr, out)
}

// Same as wotsPkGenInto, but with an explicit WOTS+ seed instead of one
// derived from the secret key seed.
func (ctx *Context) wotsPkFromSeedInto(pad scratchPad, wotsSeed []byte,
	ph precomputedHashes, addr address, out []byte) {
	ctx.wotsExpandSeedInto(pad, wotsSeed, out)
	var i uint32
	for i = 0; i < ctx.wotsLen; i++ {
		addr.setChain(uint32(i))
		ctx.wotsGenChainInto(pad, out[ctx.p.N*i:ctx.p.N*(i+1)],
			0, ctx.p.WotsW-1, ph, addr,
			out[ctx.p.N*i:ctx.p.N*(i+1)])
	}
}

// Generate a WOTS+ public key for the keypair at addr.
func (ctx *Context) wotsPkGen(pad scratchPad, ph precomputedHashes,
	addr address) []byte {
	ret := make([]byte, ctx.wotsSigBytes)
	ctx.wotsPkGenInto(pad, ph, addr, ret)
	return ret
}

// Create a WOTS+ signature of the n-byte message for the keypair at addr,
// deriving the keypair's seed from the secret key seed in ph.
func (ctx *Context) wotsSignInto(pad scratchPad, msg []byte,
	ph precomputedHashes, addr address, out []byte) {
	seed := pad.wotsSkSeedBuf()
	ctx.getWotsSeedInto(pad, ph, addr, seed)
	ctx.wotsSignSeedInto(pad, msg, seed, ph, addr, out)
}

// Same as wotsSignInto, but with an explicit WOTS+ seed.
func (ctx *Context) wotsSignSeedInto(pad scratchPad, msg, wotsSeed []byte,
	ph precomputedHashes, addr address, out []byte) {
	lengths := ctx.wotsChainLengths(msg)
	ctx.wotsExpandSeedInto(pad, wotsSeed, out)
	var i uint32
	for i = 0; i < ctx.wotsLen; i++ {
		addr.setChain(uint32(i))
		ctx.wotsGenChainInto(pad, out[ctx.p.N*i:ctx.p.N*(i+1)],
			0, uint16(lengths[i]), ph, addr,
			out[ctx.p.N*i:ctx.p.N*(i+1)])
	}
}

// Create a WOTS+ signature of the n-byte message with the given seeds.
func (ctx *Context) wotsSign(pad scratchPad, msg, pubSeed, skSeed []byte,
	addr address) []byte {
	ret := make([]byte, ctx.wotsSigBytes)
	ctx.wotsSignInto(pad, msg, ctx.precomputeHashes(pubSeed, skSeed),
		addr, ret)
	return ret
}

// Computes the public key from a message and its WOTS+ signature into out.
func (ctx *Context) wotsPkFromSigInto(pad scratchPad, sig, msg []byte,
	ph precomputedHashes, addr address, out []byte) {
	lengths := ctx.wotsChainLengths(msg)
	var i uint32
	for i = 0; i < ctx.wotsLen; i++ {
		addr.setChain(uint32(i))
		ctx.wotsGenChainInto(pad, sig[ctx.p.N*i:ctx.p.N*(i+1)],
			uint16(lengths[i]), ctx.p.WotsW-1-uint16(lengths[i]),
			ph, addr,
			out[ctx.p.N*i:ctx.p.N*(i+1)])
	}
}

// Returns the public key from a message and its WOTS+ signature.
func (ctx *Context) wotsPkFromSig(pad scratchPad, sig, msg []byte,
	ph precomputedHashes, addr address) []byte {
	ret := make([]byte, ctx.wotsSigBytes)
	ctx.wotsPkFromSigInto(pad, sig, msg, ph, addr, ret)
	return ret
}
