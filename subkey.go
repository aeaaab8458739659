package xmss

import (
	"encoding/binary"
)

// Domain separators for the PRF inputs used to derive subkey material.
// Sequence numbers never have the top bit set (FullHeight is at most 60),
// so these cannot collide with the inputs used for message randomizers.
const (
	subKeyDomainPrf0 uint64 = 1 << 63
	subKeyDomainPrf1 uint64 = 1<<63 | 1<<62
)

// Records a window of signature sequence numbers handed to a subkey
// derived with DeriveSubKey.
type SubKeyReservation struct {
	Start SignatureSeqNo // first sequence number of the window
	Count uint64         // number of sequence numbers in the window
}

// Derives a subkey that can make count signatures, all of which verify
// against this key's public key.
//
// The window of sequence numbers [seqNo, seqNo+count) is taken from this
// key and handed to the subkey: this key continues at seqNo+count and the
// two will never use the same sequence number, even if this key is lost
// and reloaded from its container.  Derivation is deterministic: deriving
// from the same key in the same state yields a subkey that produces the
// very same signatures.
//
// The subkey lives in memory only.  It carries no container and cannot
// sign outside its window; its seeds are wiped by Close() like those of
// an ordinary private key.
func (sk *PrivateKey) DeriveSubKey(count uint64) (*PrivateKey, Error) {
	sk.mux.Lock()
	defer sk.mux.Unlock()

	if count == 0 {
		return nil, errorf(InvalidInput,
			"a subkey should get at least one sequence number")
	}
	remaining := uint64(sk.upperBound-sk.seqNo) - uint64(sk.borrowed)
	if count > remaining {
		return nil, errorf(InsufficientCapacity,
			"subkey asks for %d sequence numbers, but only %d are left",
			count, remaining)
	}

	start := sk.seqNo
	pad := sk.ctx.newScratchPad()

	skPrf, err := sk.deriveSubKeyPrf(pad, start)
	if err != nil {
		return nil, err
	}
	otsSeeds, err := sk.deriveSubKeySeeds(pad, start, count)
	if err != nil {
		return nil, err
	}
	coPath, tails, err := sk.deriveSubKeyNodes(pad, start, count)
	if err != nil {
		return nil, err
	}

	sub := PrivateKey{
		ctx:        sk.ctx,
		pubSeed:    append([]byte(nil), sk.pubSeed...),
		skPrf:      skPrf,
		root:       append([]byte(nil), sk.root...),
		seqNo:      start,
		lowerBound: start,
		upperBound: start + SignatureSeqNo(count),
		otsSeeds:   otsSeeds,
		coPath:     coPath,
		tails:      tails,
		ph:         sk.ctx.precomputeHashes(sk.pubSeed, nil),
	}

	// Move the container watermark past the window before anything of the
	// subkey escapes, so that a crash cannot make this key reuse it.
	if !sk.isSubKey() {
		if uint64(sk.borrowed) >= count {
			sk.borrowed -= uint32(count)
		} else {
			if err := sk.ctr.SetSeqNo(start + SignatureSeqNo(count)); err != nil {
				return nil, err
			}
			sk.borrowed = 0
		}
	}
	sk.seqNo = start + SignatureSeqNo(count)
	sk.reservations = append(sk.reservations, SubKeyReservation{
		Start: start,
		Count: count,
	})

	if !sk.isSubKey() {
		sk.retireWindow(start, count)
	}

	return &sub, nil
}

// Lists the windows this key has handed to subkeys.
func (sk *PrivateKey) Reservations() []SubKeyReservation {
	sk.mux.RLock()
	defer sk.mux.RUnlock()
	ret := make([]SubKeyReservation, len(sk.reservations))
	copy(ret, sk.reservations)
	return ret
}

// Derives the PRF seed of a subkey whose window starts at the given
// sequence number.  The seed is read from a counter-mode keystream whose
// key is derived from our own PRF seed and whose IV encodes the window
// start, so two subkeys never share a randomizer stream.
func (sk *PrivateKey) deriveSubKeyPrf(pad scratchPad, start SignatureSeqNo) (
	[]byte, Error) {
	n := sk.ctx.p.N

	ctrKey := make([]byte, 32)
	defer wipe(ctrKey)
	if n >= 32 {
		tmp := make([]byte, n)
		defer wipe(tmp)
		sk.ctx.prfUint64Into(pad, subKeyDomainPrf0|uint64(start), sk.skPrf, tmp)
		copy(ctrKey, tmp[:32])
	} else {
		sk.ctx.prfUint64Into(pad, subKeyDomainPrf0|uint64(start),
			sk.skPrf, ctrKey[:n])
		sk.ctx.prfUint64Into(pad, subKeyDomainPrf1|uint64(start),
			sk.skPrf, ctrKey[n:2*n])
	}

	var iv [12]byte
	binary.BigEndian.PutUint64(iv[4:], uint64(start))

	skPrf := make([]byte, n)
	if err := ctrExpandInto(ctrKey, iv[:], skPrf); err != nil {
		return nil, err
	}
	return skPrf, nil
}

// Derives the WOTS+ seeds for the window [start, start+count).  These are
// the very seeds this key would use for those sequence numbers, so the
// subkey's signatures are the ones we would have made ourselves.
func (sk *PrivateKey) deriveSubKeySeeds(pad scratchPad,
	start SignatureSeqNo, count uint64) ([][]byte, Error) {
	seeds := make([][]byte, count)
	for i := uint64(0); i < count; i++ {
		seqNo := start + SignatureSeqNo(i)
		staPath, leafs := sk.ctx.subTreePathForSeqNo(seqNo)
		otsAddr := staPath[0].address()
		otsAddr.setOTS(leafs[0])

		seeds[i] = make([]byte, sk.ctx.p.N)
		if sk.isSubKey() {
			// Our own seeds cover the window; hand out copies, as
			// ours are wiped on Close().
			copy(seeds[i], sk.otsSeeds[seqNo-sk.lowerBound])
		} else {
			sk.ctx.getWotsSeedInto(pad, sk.ph, otsAddr, seeds[i])
		}
	}
	return seeds, nil
}

// Collects the tree nodes a subkey for the window [start, start+count)
// needs to build authentication paths, and for multi-tree instances the
// signatures of the layers above the bottom one.  The nodes are copied out
// of the subtree cache: the arena must stay valid after the cache buffers
// are retired or reused.
func (sk *PrivateKey) deriveSubKeyNodes(pad scratchPad,
	start SignatureSeqNo, count uint64) (
	map[nodeID][]byte, map[uint64][]subTreeSig, Error) {
	if sk.isSubKey() {
		// Our own arena covers the window and never changes;
		// the subkey can share it.
		return sk.coPath, sk.tails, nil
	}

	n := sk.ctx.p.N
	treeHeight := sk.ctx.treeHeight
	coPath := make(map[nodeID][]byte)
	tails := make(map[uint64][]subTreeSig)
	mts := make(map[uint64]*merkleTree)

	for i := uint64(0); i < count; i++ {
		seqNo := start + SignatureSeqNo(i)
		for _, id := range sk.ctx.authNodeIDs(seqNo) {
			if _, ok := coPath[id]; ok {
				continue
			}

			// The node at global index idx of height h lives in the
			// bottom subtree idx >> (treeHeight - h).
			tree := id.index >> (treeHeight - id.height)
			mt, ok := mts[tree]
			if !ok {
				var err Error
				mt, _, err = sk.getSubTree(pad,
					SubTreeAddress{Layer: 0, Tree: tree})
				if err != nil {
					return nil, nil, err
				}
				mts[tree] = mt
			}

			local := uint32(id.index & ((1 << (treeHeight - id.height)) - 1))
			node := make([]byte, n)
			copy(node, mt.Node(id.height, local))
			coPath[id] = node
		}

		if sk.ctx.p.D == 1 {
			continue
		}
		staPath, leafs := sk.ctx.subTreePathForSeqNo(seqNo)
		if _, ok := tails[staPath[0].Tree]; ok {
			continue
		}
		tail, err := sk.buildTail(pad, staPath, leafs)
		if err != nil {
			return nil, nil, err
		}
		tails[staPath[0].Tree] = tail
	}

	return coPath, tails, nil
}

// Builds the upper-layer part of a signature, which is the same for every
// sequence number in a bottom subtree.
func (sk *PrivateKey) buildTail(pad scratchPad, staPath []SubTreeAddress,
	leafs []uint32) ([]subTreeSig, Error) {
	d := len(staPath)
	mts := make([]*merkleTree, d)
	wotsSigs := make([][]byte, d)
	var err Error
	for i := d - 1; i >= 0; i-- {
		mts[i], wotsSigs[i], err = sk.getSubTree(pad, staPath[i])
		if err != nil {
			return nil, err
		}
	}

	tail := make([]subTreeSig, d-1)
	for i := 1; i < d; i++ {
		authPath, err := mts[i].AuthPath(leafs[i])
		if err != nil {
			return nil, err
		}
		tail[i-1] = subTreeSig{
			wotsSig:  append([]byte(nil), wotsSigs[i-1]...),
			authPath: authPath,
		}
	}
	return tail, nil
}

// Fills in the subtree signatures for a subkey from its window material:
// a fresh WOTS+ signature from the per-leaf seed, the authentication path
// from the co-path arena and the cached upper layers.
func (sk *PrivateKey) fillSubKeySignature(pad scratchPad, sig *Signature,
	mhash []byte) Error {
	n := sk.ctx.p.N
	staPath, leafs := sk.ctx.subTreePathForSeqNo(sig.seqNo)

	seed := sk.otsSeeds[sig.seqNo-sk.lowerBound]
	otsAddr := staPath[0].address()
	otsAddr.setOTS(leafs[0])
	wotsSig := make([]byte, sk.ctx.wotsSigBytes)
	sk.ctx.wotsSignSeedInto(pad, mhash, seed, sk.ph, otsAddr, wotsSig)

	authPath := make([]byte, sk.ctx.treeHeight*n)
	idx := uint64(sig.seqNo)
	var height uint32
	for height = 0; height < sk.ctx.treeHeight; height++ {
		node, ok := sk.coPath[nodeID{height: height, index: idx ^ 1}]
		if !ok {
			return errorf(InternalConsistencyError,
				"co-path is missing the height %d node for sequence number %d",
				height, uint64(sig.seqNo))
		}
		copy(authPath[height*n:], node)
		idx >>= 1
	}
	sig.sigs[0] = subTreeSig{wotsSig: wotsSig, authPath: authPath}

	if sk.ctx.p.D == 1 {
		return nil
	}
	tail, ok := sk.tails[staPath[0].Tree]
	if !ok {
		return errorf(InternalConsistencyError,
			"no upper-layer signatures for subtree %d", staPath[0].Tree)
	}
	for i := 1; i < int(sk.ctx.p.D); i++ {
		sig.sigs[i] = subTreeSig{
			wotsSig:  append([]byte(nil), tail[i-1].wotsSig...),
			authPath: append([]byte(nil), tail[i-1].authPath...),
		}
	}
	return nil
}

// Drops the bottom subtrees covered by a window handed to a subkey; this
// key will not touch them again.
func (sk *PrivateKey) retireWindow(start SignatureSeqNo, count uint64) {
	treeHeight := sk.ctx.treeHeight
	first := uint64(start) >> treeHeight
	last := (uint64(start) + count - 1) >> treeHeight
	var cur uint64
	haveCur := uint64(sk.seqNo) <= sk.ctx.p.MaxSignatureSeqNo()
	if haveCur {
		cur = uint64(sk.seqNo) >> treeHeight
	}
	for tree := first; tree <= last; tree++ {
		if haveCur && tree == cur {
			continue
		}
		if err := sk.ctr.DropSubTree(
			SubTreeAddress{Layer: 0, Tree: tree}); err != nil {
			log.Logf("retireWindow(): failed to drop subtree %d: %v", tree, err)
		}
	}
}
