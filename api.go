// Go implementation of the XMSS[MT] post-quantum stateful hash-based signature
// scheme as described in RFC 8391
// https://datatracker.ietf.org/doc/rfc8391/
package xmss

// Contains majority of the API

import (
	"bytes"
	"crypto/rand"
	"crypto/subtle"
	"sync"
)

// XMSS[MT] private key
type PrivateKey struct {
	ctx *Context // context, which contains algorithm parameters.

	// Protects seqNo, borrowed and the container.  Sign holds it for the
	// full signing operation: the sequence number it reserved must not be
	// visible to others before the self-check passed and the key advanced
	// past it.
	mux sync.RWMutex

	pubSeed []byte
	skSeed  []byte // nil for derived subkeys
	skPrf   []byte
	root    []byte         // root node
	seqNo   SignatureSeqNo // first unused signature sequence number

	// First sequence number this key may not use: 2^FullHeight for
	// master keys; the end of the reserved window for subkeys.
	upperBound SignatureSeqNo

	// container that stores the secret key, signature sequence number
	// and caches the subtrees.  nil for derived subkeys.
	ctr PrivateKeyContainer

	// Number of signature sequence numbers borrowed from the container.
	// See PrivateKeyContainer.BorrowSeqNos()
	borrowed uint32

	// Subkey material; nil/empty on master keys.
	lowerBound SignatureSeqNo          // first sequence number of the window
	otsSeeds   [][]byte                // one WOTS+ seed per leaf in the window
	coPath     map[nodeID][]byte       // tree nodes covering the window
	tails      map[uint64][]subTreeSig // upper-layer signatures per bottom subtree

	// Windows handed out by DeriveSubKey.
	reservations []SubKeyReservation

	ph precomputedHashes
}

// XMSS[MT] public key
type PublicKey struct {
	ctx     *Context // context which contains algorithm parameters
	pubSeed []byte
	root    []byte // root node
	ph      precomputedHashes
}

// Represents a XMSS[MT] signature
type Signature struct {
	ctx   *Context       // context which contains algorithm parameters
	seqNo SignatureSeqNo // sequence number of this signature. (Same as index.)
	drv   []byte         // digest randomized value (R)

	// The signature consists of several barebones XMSS signatures.
	// sigs[0] signs hash, sigs[1] signs the root of the subtree for sigs[0],
	// sigs[2] signs the root of the subtree for sigs[1], ...
	// sigs[d-1] signs the root of the subtree for sigs[d-2].
	sigs []subTreeSig
}

// Represents a signature made by a subtree. This is basically
// an XMSS signature without all the decorations.
type subTreeSig struct {
	wotsSig  []byte
	authPath []byte
}

// Generates an XMSS[MT] public/private keypair from the OS random number
// generator and stores it at the given path on the filesystem.
// NOTE Do not forget to Close() the returned PrivateKey
func (ctx *Context) GenerateKeyPair(path string) (
	*PrivateKey, *PublicKey, Error) {
	ctr, err := OpenFSPrivateKeyContainer(path)
	if err != nil {
		return nil, nil, err
	}
	return ctx.GenerateKeyPairInto(ctr)
}

// Generates an XMSS[MT] public/private keypair from the OS random number
// generator and stores it in the given container.
// NOTE Do not forget to Close() the returned PrivateKey
func (ctx *Context) GenerateKeyPairInto(ctr PrivateKeyContainer) (
	*PrivateKey, *PublicKey, Error) {
	pubSeed := make([]byte, ctx.p.N)
	skSeed := make([]byte, ctx.p.N)
	skPrf := make([]byte, ctx.p.N)
	_, err := rand.Read(pubSeed)
	if err != nil {
		return nil, nil, wrapErrorf(AllocationFailure, err, "crypto.rand.Read()")
	}
	_, err = rand.Read(skSeed)
	if err != nil {
		return nil, nil, wrapErrorf(AllocationFailure, err, "crypto.rand.Read()")
	}
	_, err = rand.Read(skPrf)
	if err != nil {
		return nil, nil, wrapErrorf(AllocationFailure, err, "crypto.rand.Read()")
	}
	return ctx.DeriveInto(ctr, pubSeed, skSeed, skPrf)
}

// Derives an XMSS[MT] public/private keypair from the given seeds
// and stores it at the given path on the filesystem.
// NOTE Do not forget to Close() the returned PrivateKey
func (ctx *Context) Derive(path string, pubSeed, skSeed, skPrf []byte) (
	*PrivateKey, *PublicKey, Error) {
	ctr, err := OpenFSPrivateKeyContainer(path)
	if err != nil {
		return nil, nil, err
	}
	return ctx.DeriveInto(ctr, pubSeed, skSeed, skPrf)
}

// Derives an XMSS[MT] public/private keypair from the given seeds
// and stores it in the container.  pubSeed, skSeed and skPrf should be
// secret random ctx.p.N length byte slices.
func (ctx *Context) DeriveInto(ctr PrivateKeyContainer,
	pubSeed, skSeed, skPrf []byte) (*PrivateKey, *PublicKey, Error) {
	if len(pubSeed) != int(ctx.p.N) || len(skSeed) != int(ctx.p.N) ||
		len(skPrf) != int(ctx.p.N) {
		return nil, nil, errorf(InvalidInput,
			"skPrf, skSeed and pubSeed should have length %d", ctx.p.N)
	}

	concatSk := make([]byte, 3*ctx.p.N)
	copy(concatSk, skSeed)
	copy(concatSk[ctx.p.N:], skPrf)
	copy(concatSk[ctx.p.N*2:], pubSeed)
	err := ctr.Reset(concatSk, ctx.p)
	if err != nil {
		return nil, nil, err
	}

	sk := PrivateKey{
		ctx:        ctx,
		pubSeed:    pubSeed,
		ph:         ctx.precomputeHashes(pubSeed, skSeed),
		skSeed:     skSeed,
		seqNo:      0,
		upperBound: SignatureSeqNo(ctx.p.MaxSignatureSeqNo()) + 1,
		skPrf:      skPrf,
		ctr:        ctr,
	}

	pad := ctx.newScratchPad()
	mt, _, err := sk.getSubTree(pad, SubTreeAddress{Layer: ctx.p.D - 1})
	if err != nil {
		return nil, nil, err
	}
	sk.root = make([]byte, ctx.p.N)
	copy(sk.root, mt.Root())

	pk := PublicKey{
		ctx:     ctx,
		pubSeed: pubSeed,
		ph:      ctx.precomputeHashes(pubSeed, nil),
		root:    sk.root,
	}

	return &sk, &pk, nil
}

// Loads the private key from the filesystem container at the given path.
// Returns the private key and the number of signatures that might have
// been lost because the previous user of the container did not Close()
// it properly.
// NOTE Do not forget to Close() the returned PrivateKey
func LoadPrivateKey(path string) (*PrivateKey, uint32, Error) {
	ctr, err := OpenFSPrivateKeyContainer(path)
	if err != nil {
		return nil, 0, err
	}
	return LoadPrivateKeyFrom(ctr)
}

// Loads the private key from the given container.  See LoadPrivateKey.
func LoadPrivateKeyFrom(ctr PrivateKeyContainer) (*PrivateKey, uint32, Error) {
	params := ctr.Initialized()
	if params == nil {
		ctr.Close()
		return nil, 0, errorf(InvalidInput, "container is not initialized")
	}
	ctx, err := NewContext(*params)
	if err != nil {
		ctr.Close()
		return nil, 0, err
	}

	skBuf, err := ctr.GetPrivateKey()
	if err != nil {
		ctr.Close()
		return nil, 0, err
	}
	if len(skBuf) != params.PrivateKeySize() {
		ctr.Close()
		return nil, 0, errorf(InvalidInput,
			"container stores a %d byte secret key instead of %d bytes",
			len(skBuf), params.PrivateKeySize())
	}

	seqNo, lostSigs, err := ctr.GetSeqNo()
	if err != nil {
		ctr.Close()
		return nil, 0, err
	}

	n := ctx.p.N
	skSeed := make([]byte, n)
	skPrf := make([]byte, n)
	pubSeed := make([]byte, n)
	copy(skSeed, skBuf[:n])
	copy(skPrf, skBuf[n:n*2])
	copy(pubSeed, skBuf[n*2:])

	sk := PrivateKey{
		ctx:        ctx,
		pubSeed:    pubSeed,
		ph:         ctx.precomputeHashes(pubSeed, skSeed),
		skSeed:     skSeed,
		seqNo:      seqNo,
		upperBound: SignatureSeqNo(ctx.p.MaxSignatureSeqNo()) + 1,
		skPrf:      skPrf,
		ctr:        ctr,
	}

	if lostSigs != 0 {
		log.Logf("LoadPrivateKeyFrom(): %d signatures might have been lost",
			lostSigs)
		// We continue from the stored watermark; the possibly lost
		// sequence numbers are never handed out again.
		if err = ctr.SetSeqNo(seqNo); err != nil {
			ctr.Close()
			return nil, 0, err
		}
	}

	pad := ctx.newScratchPad()
	mt, _, err := sk.getSubTree(pad, SubTreeAddress{Layer: ctx.p.D - 1})
	if err != nil {
		ctr.Close()
		return nil, 0, err
	}
	sk.root = make([]byte, n)
	copy(sk.root, mt.Root())

	return &sk, lostSigs, nil
}

// Returns the public key corresponding to this private key.
func (sk *PrivateKey) PublicKey() *PublicKey {
	return &PublicKey{
		ctx:     sk.ctx,
		pubSeed: sk.pubSeed,
		ph:      sk.ctx.precomputeHashes(sk.pubSeed, nil),
		root:    sk.root,
	}
}

// Returns whether this private key is a subkey derived from a master key.
func (sk *PrivateKey) isSubKey() bool {
	return sk.ctr == nil
}

// Returns the given subtree, either by loading it from the cache,
// or generating it.  Also returns the cached WOTS+ signature linking
// the subtree to its parent, unless this is the root subtree.
func (sk *PrivateKey) getSubTree(pad scratchPad, sta SubTreeAddress) (
	mt *merkleTree, wotsSig []byte, err Error) {
	buf, exists, err := sk.ctr.GetSubTree(sta)
	if err != nil {
		return
	}

	treeBuf := buf[:sk.ctx.p.BareSubTreeSize()]
	mtDeref := merkleTreeFromBuf(treeBuf, sk.ctx.treeHeight+1, sk.ctx.p.N)
	mt = &mtDeref
	wotsSig = buf[sk.ctx.p.BareSubTreeSize():]

	if exists {
		return
	}

	sk.ctx.genSubTreeInto(pad, sk.ph, sta, mtDeref)

	// Sign our root with the parent subtree --- unless we are the root.
	if sta.Layer == sk.ctx.p.D-1 {
		return
	}

	parentSta := SubTreeAddress{
		Layer: sta.Layer + 1,
		Tree:  sta.Tree >> sk.ctx.treeHeight,
	}
	_, _, err = sk.getSubTree(pad, parentSta)
	if err != nil {
		return nil, nil, err
	}

	otsAddr := parentSta.address()
	leafIdx := uint32(sta.Tree & ((1 << sk.ctx.treeHeight) - 1))
	otsAddr.setOTS(leafIdx)
	sk.ctx.wotsSignInto(pad, mtDeref.Root(), sk.ph, otsAddr, wotsSig)
	return
}

// Signs the given message.
func (sk *PrivateKey) Sign(msg []byte) (*Signature, Error) {
	sk.mux.Lock()
	defer sk.mux.Unlock()
	pad := sk.ctx.newScratchPad()

	// An exhausted key must never sign again, so this check comes before
	// any other work.
	if sk.seqNo >= sk.upperBound {
		return nil, errorf(KeyExhausted,
			"no signatures left: every sequence number below %d has been used",
			uint64(sk.upperBound))
	}
	seqNo := sk.seqNo

	// Move the watermark in the container past the sequence number we are
	// about to use, so that a crash cannot make a future run reuse it.
	// With borrowed sequence numbers the watermark is already ahead.
	if !sk.isSubKey() && sk.borrowed == 0 {
		if err := sk.ctr.SetSeqNo(seqNo + 1); err != nil {
			return nil, err
		}
	}

	drv := sk.ctx.prfUint64(pad, uint64(seqNo), sk.skPrf)
	mhash, err2 := sk.ctx.hashMessage(pad, bytes.NewReader(msg), drv,
		sk.root, uint64(seqNo))
	if err2 != nil {
		return nil, wrapErrorf(InternalConsistencyError, err2,
			"failed to hash message")
	}

	sig := &Signature{
		ctx:   sk.ctx,
		seqNo: seqNo,
		drv:   drv,
		sigs:  make([]subTreeSig, sk.ctx.p.D),
	}

	var err Error
	if sk.isSubKey() {
		err = sk.fillSubKeySignature(pad, sig, mhash)
	} else {
		err = sk.fillSignature(pad, sig, mhash)
	}
	if err != nil {
		return nil, err
	}

	// Check the fresh signature against our own root before releasing it.
	// On a mismatch we refuse to advance: nothing of the one-time key has
	// left this function yet, so the sequence number is still unused.
	root := sk.ctx.rootFromSignature(pad, sig, mhash, sk.ph)
	if subtle.ConstantTimeCompare(root, sk.root) != 1 {
		return nil, errorf(InternalConsistencyError,
			"fresh signature %d does not verify against our own root",
			uint64(seqNo))
	}

	// Advancing past the used sequence number is the final action
	// of a successful sign.
	if !sk.isSubKey() && sk.borrowed > 0 {
		sk.borrowed--
	}
	sk.seqNo++

	if !sk.isSubKey() {
		sk.retireSubTrees(seqNo)
	}

	return sig, nil
}

// Fills in the subtree signatures for the given sequence number from the
// (possibly cached) subtrees along its path to the root.
func (sk *PrivateKey) fillSignature(pad scratchPad, sig *Signature,
	mhash []byte) Error {
	staPath, leafs := sk.ctx.subTreePathForSeqNo(sig.seqNo)

	// Fetch (or generate) the subtrees
	mts := make([]*merkleTree, len(staPath))
	wotsSigs := make([][]byte, len(staPath))
	var err Error
	for i := len(staPath) - 1; i >= 0; i-- {
		mts[i], wotsSigs[i], err = sk.getSubTree(pad, staPath[i])
		if err != nil {
			return err
		}
	}

	// The tail of the signature is already cached in the subtrees.  The
	// WOTS+ signatures are copied out of the cache buffers: a subtree may
	// be retired, and its buffer reused, while sig is still alive.
	for i := 1; i < len(staPath); i++ {
		authPath, err := mts[i].AuthPath(leafs[i])
		if err != nil {
			return err
		}
		sig.sigs[i] = subTreeSig{
			wotsSig:  append([]byte(nil), wotsSigs[i-1]...),
			authPath: authPath,
		}
	}

	// Create the part of the signature unique to this message
	authPath, err := mts[0].AuthPath(leafs[0])
	if err != nil {
		return err
	}
	sig.sigs[0] = subTreeSig{
		authPath: authPath,
		wotsSig:  make([]byte, sk.ctx.wotsSigBytes),
	}

	otsAddr := staPath[0].address()
	otsAddr.setOTS(leafs[0])
	sk.ctx.wotsSignInto(pad, mhash, sk.ph, otsAddr, sig.sigs[0].wotsSig)
	return nil
}

// Computes the root node that a signature on the given message hash implies.
// The result is compared against the known root: by the verifier when
// checking a signature and by the signer before releasing a fresh one.
func (ctx *Context) rootFromSignature(pad scratchPad, sig *Signature,
	mhash []byte, ph precomputedHashes) []byte {
	staPath, leafs := ctx.subTreePathForSeqNo(sig.seqNo)
	cur := mhash

	var layer uint32
	for layer = 0; layer < ctx.p.D; layer++ {
		var lTreeAddr, otsAddr address
		rxAddr := staPath[layer].address()
		otsAddr.setSubTreeFrom(rxAddr)
		otsAddr.setType(ADDR_TYPE_OTS)
		lTreeAddr.setSubTreeFrom(rxAddr)
		lTreeAddr.setType(ADDR_TYPE_LTREE)

		rxSig := sig.sigs[layer]
		offset := leafs[layer]
		otsAddr.setOTS(offset)
		lTreeAddr.setLTree(offset)

		wotsPk := ctx.wotsPkFromSig(pad, rxSig.wotsSig, cur, ph, otsAddr)
		leafHash := ctx.lTree(pad, wotsPk, ph, lTreeAddr)
		ctx.rootFromAuthPathInto(pad, leafHash, offset, rxSig.authPath,
			ph, staPath[layer], leafHash)
		cur = leafHash
	}

	return cur
}

// Check whether the sig is a valid signature of this public key
// for the given message.
func (pk *PublicKey) Verify(sig *Signature, msg []byte) (bool, Error) {
	if err := pk.ctx.checkSignatureShape(sig); err != nil {
		return false, err
	}

	pad := pk.ctx.newScratchPad()
	mhash, err := pk.ctx.hashMessage(pad, bytes.NewReader(msg), sig.drv,
		pk.root, uint64(sig.seqNo))
	if err != nil {
		return false, wrapErrorf(InvalidInput, err, "failed to hash message")
	}

	root := pk.ctx.rootFromSignature(pad, sig, mhash, pk.ph)
	if subtle.ConstantTimeCompare(root, pk.root) != 1 {
		return false, errorf(VerificationFailed, "invalid signature")
	}

	return true, nil
}

// Checks that the signature has the shape the parameters prescribe,
// so that the verification loop cannot index out of bounds.
func (ctx *Context) checkSignatureShape(sig *Signature) Error {
	if sig == nil {
		return errorf(InvalidInput, "signature is nil")
	}
	if uint64(sig.seqNo) > ctx.p.MaxSignatureSeqNo() {
		return errorf(InvalidInput,
			"signature sequence number %d is out of range", uint64(sig.seqNo))
	}
	if len(sig.drv) != int(ctx.p.N) {
		return errorf(InvalidInput, "randomizer has length %d instead of %d",
			len(sig.drv), ctx.p.N)
	}
	if len(sig.sigs) != int(ctx.p.D) {
		return errorf(InvalidInput,
			"signature has %d subtree signatures instead of %d",
			len(sig.sigs), ctx.p.D)
	}
	for i, stSig := range sig.sigs {
		if len(stSig.wotsSig) != int(ctx.wotsSigBytes) ||
			len(stSig.authPath) != int(ctx.treeHeight*ctx.p.N) {
			return errorf(InvalidInput,
				"subtree signature %d has the wrong shape", i)
		}
	}
	return nil
}

// Drops subtrees that can no longer contribute to signatures from the
// container cache.  seqNo is the sequence number that was just used.
func (sk *PrivateKey) retireSubTrees(seqNo SignatureSeqNo) {
	if uint64(sk.seqNo) > sk.ctx.p.MaxSignatureSeqNo() {
		return
	}
	oldPath, _ := sk.ctx.subTreePathForSeqNo(seqNo)
	newPath, _ := sk.ctx.subTreePathForSeqNo(sk.seqNo)
	for i, sta := range oldPath {
		if sta == newPath[i] {
			break
		}
		if err := sk.ctr.DropSubTree(sta); err != nil {
			log.Logf("retireSubTrees(): failed to drop subtree %v: %v",
				sta, err)
		}
	}
}

// Close the underlying container and wipe the secret key material.
func (sk *PrivateKey) Close() Error {
	sk.mux.Lock()
	defer sk.mux.Unlock()

	// The seeds are wiped however the shutdown goes.
	defer func() {
		wipe(sk.skSeed)
		wipe(sk.skPrf)
		for _, seed := range sk.otsSeeds {
			wipe(seed)
		}
	}()

	if sk.isSubKey() {
		return nil
	}

	// Return borrowed sequence numbers and clear the possibly-lost record.
	sk.borrowed = 0
	if err := sk.ctr.SetSeqNo(sk.seqNo); err != nil {
		sk.ctr.Close()
		return err
	}
	return sk.ctr.Close()
}

// Returns the context of this private key.
func (sk *PrivateKey) Context() *Context {
	return sk.ctx
}

// Returns the context of this public key.
func (pk *PublicKey) Context() *Context {
	return pk.ctx
}

// Returns the context of this signature.
func (sig *Signature) Context() *Context {
	return sig.ctx
}

// Returns the sequence number of this signature.
func (sig *Signature) SeqNo() SignatureSeqNo {
	return sig.seqNo
}

// Returns the root node of this public key.
func (pk *PublicKey) Root() []byte {
	return pk.root
}
