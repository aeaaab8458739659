package xmss

import (
	"bytes"
)

// Binary serialization of public keys, private keys and signatures.
//
// Public and private keys start with the big-endian uint32 parameter id
// of their algorithm, so they can be parsed without further context.
// Signatures carry no parameter id: XMSS[MT] signatures are only ever
// interpreted next to a public key.

// Number of bytes in the structural encoding of Params.
const paramsBufSize = 8

// Writes a structural encoding of the parameters into buf, which should
// have length paramsBufSize.  Used by private key containers, which have
// to store the parameters of the key they hold.
func (params *Params) writeInto(buf []byte) {
	buf[0] = byte(params.Func)
	buf[1] = byte(params.N)
	buf[2] = byte(params.FullHeight)
	buf[3] = byte(params.D)
	buf[4] = byte(params.WotsW >> 8)
	buf[5] = byte(params.WotsW)
	buf[6] = 0
	buf[7] = 0
}

// Returns the structural encoding of the parameters.  In contrast to the
// parameter id, this works for parameters that are not in the registry.
func (params *Params) MarshalBinary() ([]byte, error) {
	ret := make([]byte, paramsBufSize)
	params.writeInto(ret)
	return ret, nil
}

// Initializes the parameters from the output of MarshalBinary.
func (params *Params) UnmarshalBinary(buf []byte) error {
	p, err := paramsFromBytes(buf)
	if err != nil {
		return err
	}
	*params = *p
	return nil
}

// Parses a structural encoding of parameters written by writeInto.
func paramsFromBytes(buf []byte) (*Params, Error) {
	if len(buf) < paramsBufSize {
		return nil, errorf(InvalidInput,
			"%d bytes is too short for parameters", len(buf))
	}
	params := Params{
		Func:       HashFunc(buf[0]),
		N:          uint32(buf[1]),
		FullHeight: uint32(buf[2]),
		D:          uint32(buf[3]),
		WotsW:      uint16(buf[4])<<8 | uint16(buf[5]),
	}
	// NewContext performs the real validation.
	if _, err := NewContext(params); err != nil {
		return nil, err
	}
	return &params, nil
}

// Returns the public key as [param_id ‖ root ‖ pubSeed].
// Fails if the parameters are not in the registry: without a parameter
// id the key could not be parsed again.
func (pk *PublicKey) MarshalBinary() ([]byte, error) {
	if pk.ctx.paramID == 0 {
		return nil, errorf(InvalidInput,
			"parameters are not in the registry; the key cannot be serialized")
	}
	ret := make([]byte, pk.ctx.pkBytes)
	encodeUint64Into(uint64(pk.ctx.paramID), ret[:4])
	copy(ret[4:], pk.root)
	copy(ret[4+pk.ctx.p.N:], pk.pubSeed)
	return ret, nil
}

// Initializes the public key from the output of MarshalBinary.
func (pk *PublicKey) UnmarshalBinary(buf []byte) error {
	if len(buf) < 4 {
		return errorf(InvalidInput,
			"%d bytes is too short for a public key", len(buf))
	}
	ctx, err := NewContextFromParamID(uint32(decodeUint64(buf[:4])))
	if err != nil {
		return err
	}
	if uint32(len(buf)) != ctx.pkBytes {
		return errorf(InvalidInput,
			"public key should be %d bytes (and is %d)", ctx.pkBytes, len(buf))
	}
	n := ctx.p.N
	pk.ctx = ctx
	pk.root = make([]byte, n)
	pk.pubSeed = make([]byte, n)
	copy(pk.root, buf[4:4+n])
	copy(pk.pubSeed, buf[4+n:])
	pk.ph = ctx.precomputeHashes(pk.pubSeed, nil)
	return nil
}

// Parses the public key serialized by PublicKey.MarshalBinary.
func PublicKeyFromBytes(buf []byte) (*PublicKey, Error) {
	var pk PublicKey
	if err := pk.UnmarshalBinary(buf); err != nil {
		return nil, err.(Error)
	}
	return &pk, nil
}

// Returns a snapshot of the private key as
// [param_id ‖ seqNo ‖ skSeed ‖ skPrf ‖ pubSeed ‖ root].
// The holder of this snapshot can make every signature the key has not
// made yet, so treat it like the key itself.  Subkeys cannot be
// serialized; their window material has no place in this format.
func (sk *PrivateKey) MarshalBinary() ([]byte, error) {
	sk.mux.RLock()
	defer sk.mux.RUnlock()

	if sk.isSubKey() {
		return nil, errorf(InvalidInput, "subkeys cannot be serialized")
	}
	if sk.ctx.paramID == 0 {
		return nil, errorf(InvalidInput,
			"parameters are not in the registry; the key cannot be serialized")
	}

	n := sk.ctx.p.N
	ret := make([]byte, sk.ctx.skBytes)
	encodeUint64Into(uint64(sk.ctx.paramID), ret[:4])
	encodeUint64Into(uint64(sk.seqNo), ret[4:4+sk.ctx.indexBytes])
	off := 4 + sk.ctx.indexBytes
	copy(ret[off:], sk.skSeed)
	copy(ret[off+n:], sk.skPrf)
	copy(ret[off+2*n:], sk.pubSeed)
	copy(ret[off+3*n:], sk.root)
	return ret, nil
}

// Imports a private key serialized by PrivateKey.MarshalBinary into the
// given container and returns it together with its public key.
// The imported key continues at the serialized sequence number.
// NOTE Do not forget to Close() the returned PrivateKey
func ImportPrivateKey(buf []byte, ctr PrivateKeyContainer) (
	*PrivateKey, *PublicKey, Error) {
	if len(buf) < 4 {
		return nil, nil, errorf(InvalidInput,
			"%d bytes is too short for a private key", len(buf))
	}
	ctx, err := NewContextFromParamID(uint32(decodeUint64(buf[:4])))
	if err != nil {
		return nil, nil, err
	}
	if uint32(len(buf)) != ctx.skBytes {
		return nil, nil, errorf(InvalidInput,
			"private key should be %d bytes (and is %d)", ctx.skBytes, len(buf))
	}

	n := ctx.p.N
	seqNo := SignatureSeqNo(decodeUint64(buf[4 : 4+ctx.indexBytes]))
	if uint64(seqNo) > ctx.p.MaxSignatureSeqNo()+1 {
		return nil, nil, errorf(InvalidInput,
			"sequence number %d is out of range", uint64(seqNo))
	}
	off := 4 + ctx.indexBytes
	skSeed := append([]byte(nil), buf[off:off+n]...)
	skPrf := append([]byte(nil), buf[off+n:off+2*n]...)
	pubSeed := append([]byte(nil), buf[off+2*n:off+3*n]...)
	root := buf[off+3*n:]

	sk, pk, err := ctx.DeriveInto(ctr, pubSeed, skSeed, skPrf)
	if err != nil {
		return nil, nil, err
	}
	if !bytes.Equal(sk.root, root) {
		sk.Close()
		return nil, nil, errorf(InvalidInput,
			"the serialized root does not match the root derived from the seeds")
	}
	if seqNo != 0 {
		if err = ctr.SetSeqNo(seqNo); err != nil {
			sk.Close()
			return nil, nil, err
		}
		sk.seqNo = seqNo
	}
	return sk, pk, nil
}

// Returns representation of the signature as accepted by the reference
// implementation (without the message).
func (sig *Signature) MarshalBinary() ([]byte, error) {
	ret := make([]byte, sig.ctx.sigBytes)
	encodeUint64Into(uint64(sig.seqNo), ret[:sig.ctx.indexBytes])
	copy(ret[sig.ctx.indexBytes:], sig.drv)
	stOff := sig.ctx.indexBytes + sig.ctx.p.N
	stLen := sig.ctx.wotsSigBytes + sig.ctx.p.N*sig.ctx.treeHeight
	for i, stSig := range sig.sigs {
		copy(ret[stOff+uint32(i)*stLen:], stSig.wotsSig)
		copy(ret[stOff+uint32(i)*stLen+sig.ctx.wotsSigBytes:], stSig.authPath)
	}
	return ret, nil
}

// Parses a signature of this XMSS[MT] instance.  The layout carries no
// parameter id, so the context has to be known.
func (ctx *Context) SignatureFromBytes(buf []byte) (*Signature, Error) {
	if uint32(len(buf)) != ctx.sigBytes {
		return nil, errorf(InvalidInput,
			"signature should be %d bytes (and is %d)", ctx.sigBytes, len(buf))
	}

	sig := Signature{
		ctx:   ctx,
		seqNo: SignatureSeqNo(decodeUint64(buf[:ctx.indexBytes])),
		sigs:  make([]subTreeSig, ctx.p.D),
	}
	if uint64(sig.seqNo) > ctx.p.MaxSignatureSeqNo() {
		return nil, errorf(InvalidInput,
			"signature sequence number %d is out of range", uint64(sig.seqNo))
	}

	// One backing buffer, so the signature does not alias buf.
	dup := append([]byte(nil), buf...)
	sig.drv = dup[ctx.indexBytes : ctx.indexBytes+ctx.p.N]
	stOff := ctx.indexBytes + ctx.p.N
	stLen := ctx.wotsSigBytes + ctx.p.N*ctx.treeHeight
	var i uint32
	for i = 0; i < ctx.p.D; i++ {
		sig.sigs[i] = subTreeSig{
			wotsSig: dup[stOff+i*stLen : stOff+i*stLen+ctx.wotsSigBytes],
			authPath: dup[stOff+i*stLen+ctx.wotsSigBytes : stOff+
				(i+1)*stLen],
		}
	}
	return &sig, nil
}
