package xmss

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"crypto/sha512"
	"encoding"
	"hash"
	"io"

	"github.com/templexxx/xor"
	"golang.org/x/crypto/sha3"
)

const (
	HASH_PADDING_F    = 0
	HASH_PADDING_H    = 1
	HASH_PADDING_HASH = 2
	HASH_PADDING_PRF  = 3
)

// Scratchpad for the hash primitives: a reusable SHA2 instance whose state
// is reloaded from a precomputed snapshot before each use.
type hashScratchPad struct {
	h   hash.Hash
	st  encoding.BinaryUnmarshaler // h's state loader
	sum []byte                     // scratch to which h.Sum appends
}

func (ctx *Context) newHashScratchPad() (pad hashScratchPad) {
	if ctx.p.Func != SHA2 {
		return
	}
	if ctx.p.N <= 32 {
		pad.h = sha256.New()
	} else {
		pad.h = sha512.New()
	}
	pad.st = pad.h.(encoding.BinaryUnmarshaler)
	pad.sum = make([]byte, 0, ctx.p.N)
	return
}

// PRF keyed with a seed, with the padding and key block already absorbed.
// For SHA2 the digest state is kept as a marshalled snapshot; for SHAKE
// the sponge itself is kept and cloned per call.
type precomputedPrf struct {
	fn    HashFunc
	n     uint32
	shake sha3.ShakeHash
	sha   []byte
}

// Precomputed PRF states for the two seeds nearly every hash application
// is keyed with.  prfSkSeed is left unset when the secret seed is not at
// hand (verification).
type precomputedHashes struct {
	prfPubSeed precomputedPrf
	prfSkSeed  precomputedPrf
}

func (ctx *Context) precomputedPrf(key []byte) (p precomputedPrf) {
	p.fn = ctx.p.Func
	p.n = ctx.p.N
	buf := make([]byte, 2*ctx.p.N)
	encodeUint64Into(HASH_PADDING_PRF, buf[:ctx.p.N])
	copy(buf[ctx.p.N:], key)
	if ctx.p.Func == SHA2 {
		var h hash.Hash
		if ctx.p.N <= 32 {
			h = sha256.New()
		} else {
			h = sha512.New()
		}
		h.Write(buf)
		p.sha, _ = h.(encoding.BinaryMarshaler).MarshalBinary()
	} else {
		var sh sha3.ShakeHash
		if ctx.p.N <= 32 {
			sh = sha3.NewShake128()
		} else {
			sh = sha3.NewShake256()
		}
		sh.Write(buf)
		p.shake = sh
	}
	return
}

func (ctx *Context) precomputeHashes(pubSeed, skSeed []byte) (ph precomputedHashes) {
	ph.prfPubSeed = ctx.precomputedPrf(pubSeed)
	if skSeed != nil {
		ph.prfSkSeed = ctx.precomputedPrf(skSeed)
	}
	return
}

func (p precomputedPrf) initialized() bool {
	return p.shake != nil || p.sha != nil
}

// Computes PRF(key, in) for the precomputed key into out.  in must be
// 32 bytes and out n bytes.
func (p precomputedPrf) prfInto(pad scratchPad, in, out []byte) {
	if p.fn == SHA2 {
		h := pad.hash.h
		if err := pad.hash.st.UnmarshalBinary(p.sha); err != nil {
			panic(err)
		}
		h.Write(in)
		copy(out, h.Sum(pad.hash.sum[:0]))
	} else {
		sh := p.shake.Clone()
		sh.Write(in)
		sh.Read(out[:p.n])
	}
}

// Computes the hash of in into out.
func (ctx *Context) hashInto(pad scratchPad, in, out []byte) {
	if ctx.p.Func == SHA2 {
		if ctx.p.N <= 32 {
			ret := sha256.Sum256(in)
			copy(out, ret[:ctx.p.N])
		} else { // N == 64
			ret := sha512.Sum512(in)
			copy(out, ret[:])
		}
	} else { // SHAKE
		if ctx.p.N <= 32 {
			sha3.ShakeSum128(out[:ctx.p.N], in)
		} else { // N == 64
			sha3.ShakeSum256(out[:64], in)
		}
	}
}

// Compute PRF(key, in) into out.  in must be 32 bytes.
func (ctx *Context) prfInto(pad scratchPad, in, key, out []byte) {
	buf := pad.prfBuf()
	encodeUint64Into(HASH_PADDING_PRF, buf[:ctx.p.N])
	copy(buf[ctx.p.N:], key)
	copy(buf[ctx.p.N*2:], in)
	ctx.hashInto(pad, buf, out)
}

// Compute PRF(key, addr) into out.
func (ctx *Context) prfAddrInto(pad scratchPad, addr address, key, out []byte) {
	addrBuf := pad.prfAddrBuf()
	addr.writeInto(addrBuf)
	ctx.prfInto(pad, addrBuf, key, out)
}

// Compute PRF(key, addr).
func (ctx *Context) prfAddr(pad scratchPad, addr address, key []byte) []byte {
	ret := make([]byte, ctx.p.N)
	ctx.prfAddrInto(pad, addr, key, ret)
	return ret
}

// Compute PRF(key, addr) into out for the precomputed key.
func (p precomputedPrf) prfAddrInto(pad scratchPad, addr address, out []byte) {
	addrBuf := pad.prfAddrBuf()
	addr.writeInto(addrBuf)
	p.prfInto(pad, addrBuf, out)
}

// Compute PRF(key, i) into out, where i is encoded as a 32 byte
// big endian integer.
func (ctx *Context) prfUint64Into(pad scratchPad, i uint64, key, out []byte) {
	addrBuf := pad.prfAddrBuf()
	encodeUint64Into(i, addrBuf)
	ctx.prfInto(pad, addrBuf, key, out)
}

// Compute PRF(key, i), where i is encoded as a 32 byte big endian integer.
func (ctx *Context) prfUint64(pad scratchPad, i uint64, key []byte) []byte {
	ret := make([]byte, ctx.p.N)
	ctx.prfUint64Into(pad, i, key, ret)
	return ret
}

// Compute the message hash H_msg(R ‖ root ‖ idx ‖ msg).
func (ctx *Context) hashMessage(pad scratchPad, msg io.Reader, R, root []byte,
	idx uint64) ([]byte, error) {
	var h io.Writer
	var digest func() []byte
	if ctx.p.Func == SHA2 {
		hsh := pad.hash.h
		hsh.Reset()
		h = hsh
		digest = func() []byte { return hsh.Sum(nil)[:ctx.p.N] }
	} else {
		var sh sha3.ShakeHash
		if ctx.p.N <= 32 {
			sh = sha3.NewShake128()
		} else {
			sh = sha3.NewShake256()
		}
		h = sh
		digest = func() []byte {
			ret := make([]byte, ctx.p.N)
			sh.Read(ret)
			return ret
		}
	}

	h.Write(encodeUint64(HASH_PADDING_HASH, int(ctx.p.N)))
	h.Write(R)
	h.Write(root)
	h.Write(encodeUint64(idx, int(ctx.p.N)))
	if _, err := io.Copy(h, msg); err != nil {
		return nil, err
	}
	return digest(), nil
}

// Compute the hash f used in WOTS+ chains into out.  in and out may
// overlap.
func (ctx *Context) fInto(pad scratchPad, in []byte, ph precomputedHashes,
	addr address, out []byte) {
	buf := pad.fBuf()
	encodeUint64Into(HASH_PADDING_F, buf[:ctx.p.N])
	addr.setKeyAndMask(0)
	ph.prfPubSeed.prfAddrInto(pad, addr, buf[ctx.p.N:ctx.p.N*2])
	addr.setKeyAndMask(1)
	ph.prfPubSeed.prfAddrInto(pad, addr, buf[ctx.p.N*2:])
	xor.BytesSameLen(buf[ctx.p.N*2:], in, buf[ctx.p.N*2:])
	ctx.hashInto(pad, buf, out)
}

// Compute the hash f used in WOTS+
func (ctx *Context) f(in, pubSeed []byte, addr address) []byte {
	pad := ctx.newScratchPad()
	ph := ctx.precomputeHashes(pubSeed, nil)
	ret := make([]byte, ctx.p.N)
	ctx.fInto(pad, in, ph, addr, ret)
	return ret
}

// Compute RAND_HASH used to hash up various trees into out.  out may
// overlap with left or right.
func (ctx *Context) hInto(pad scratchPad, left, right []byte,
	ph precomputedHashes, addr address, out []byte) {
	buf := pad.hBuf()
	encodeUint64Into(HASH_PADDING_H, buf[:ctx.p.N])
	addr.setKeyAndMask(0)
	ph.prfPubSeed.prfAddrInto(pad, addr, buf[ctx.p.N:ctx.p.N*2])
	addr.setKeyAndMask(1)
	ph.prfPubSeed.prfAddrInto(pad, addr, buf[ctx.p.N*2:ctx.p.N*3])
	xor.BytesSameLen(buf[ctx.p.N*2:ctx.p.N*3], left, buf[ctx.p.N*2:ctx.p.N*3])
	addr.setKeyAndMask(2)
	ph.prfPubSeed.prfAddrInto(pad, addr, buf[ctx.p.N*3:])
	xor.BytesSameLen(buf[ctx.p.N*3:], right, buf[ctx.p.N*3:])
	ctx.hashInto(pad, buf, out)
}

// Compute RAND_HASH used to hash up various trees
func (ctx *Context) h(left, right, pubSeed []byte, addr address) []byte {
	pad := ctx.newScratchPad()
	ph := ctx.precomputeHashes(pubSeed, nil)
	ret := make([]byte, ctx.p.N)
	ctx.hInto(pad, left, right, ph, addr, ret)
	return ret
}

// Expands out deterministically from key with AES-256 in counter mode.
// The key must be 32 bytes; iv may be up to 16 bytes and is zero-extended
// to a full counter block, so the 12 and 16 byte IV conventions coincide.
func ctrExpandInto(key, iv, out []byte) Error {
	if len(iv) > aes.BlockSize {
		return errorf(InvalidInput, "ctrExpandInto: iv is %d bytes, want at most %d",
			len(iv), aes.BlockSize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return wrapErrorf(InvalidInput, err, "ctrExpandInto: aes.NewCipher")
	}
	var ctrIV [aes.BlockSize]byte
	copy(ctrIV[:], iv)
	wipe(out)
	cipher.NewCTR(block, ctrIV[:]).XORKeyStream(out, out)
	return nil
}
