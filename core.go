package xmss

import (
	"runtime"
	"sync"
)

// Represents a height t merkle tree of n-byte strings T[i,j] as
//
//                    T[t-1,0]
//                 /
//               (...)        (...)
//            /           \            \
//         T[1,0]        T[1,1]  ...  T[1,2^(t-2)-1]
//        /     \       /      \          \
//     T[0,0] T[0,1] T[0,2]  T[0,3]  ...  T[0,2^(t-1)-1]
//
// as an (2^t-1)*n byte array.
type merkleTree struct {
	height uint32
	n      uint32
	buf    []byte
}

// Allocates memory for a merkle tree of n-byte strings of the given height.
func newMerkleTree(height, n uint32) merkleTree {
	return merkleTree{
		height: height,
		n:      n,
		buf:    make([]byte, ((1<<height)-1)*n),
	}
}

// A merkle tree carried in an existing buffer, eg. a window of the mmap'd
// subtree cache of a private key container.
func merkleTreeFromBuf(buf []byte, height, n uint32) merkleTree {
	return merkleTree{
		height: height,
		n:      n,
		buf:    buf,
	}
}

// Returns a slice to the given node.
func (mt *merkleTree) Node(height, index uint32) []byte {
	ptr := mt.n * ((1 << mt.height) - (1 << (mt.height - height)) + index)
	return mt.buf[ptr : ptr+mt.n]
}

// Returns a slice to the root node.
func (mt *merkleTree) Root() []byte {
	return mt.Node(mt.height-1, 0)
}

// Returns the authentication path for the given leaf: the siblings of the
// nodes on its way up to the root.  Fails with an InvalidInput error if the
// leaf is outside of the tree.
func (mt *merkleTree) AuthPath(leaf uint32) ([]byte, Error) {
	if leaf >= 1<<(mt.height-1) {
		return nil, errorf(InvalidInput,
			"leaf %d is out of range for a tree with %d leafs",
			leaf, uint32(1)<<(mt.height-1))
	}
	ret := make([]byte, mt.n*(mt.height-1))
	node := leaf
	var i uint32
	for i = 0; i < mt.height-1; i++ {
		copy(ret[i*mt.n:(i+1)*mt.n], mt.Node(i, node^1))
		node >>= 1
	}
	return ret, nil
}

// Compute a subtree by expanding the secret seed into WOTS+ keypairs
// and then hashing up.
func (ctx *Context) genSubTree(pad scratchPad, skSeed, pubSeed []byte,
	sta SubTreeAddress) merkleTree {
	mt := newMerkleTree(ctx.treeHeight+1, ctx.p.N)
	ctx.genSubTreeInto(pad, ctx.precomputeHashes(pubSeed, skSeed), sta, mt)
	return mt
}

// Compute a subtree by expanding the secret seed into WOTS+ keypairs
// and then hashing up.
// mt should have height=ctx.treeHeight+1 and n=ctx.p.N.
func (ctx *Context) genSubTreeInto(pad scratchPad, ph precomputedHashes,
	sta SubTreeAddress, mt merkleTree) {

	// TODO we compute the leafs in parallel.  Is it worth computing
	// the internal nodes in parallel?

	var otsAddr, lTreeAddr, nodeAddr address
	addr := sta.address()
	otsAddr.setSubTreeFrom(addr)
	otsAddr.setType(ADDR_TYPE_OTS)
	lTreeAddr.setSubTreeFrom(addr)
	lTreeAddr.setType(ADDR_TYPE_LTREE)
	nodeAddr.setSubTreeFrom(addr)
	nodeAddr.setType(ADDR_TYPE_HASHTREE)

	// First, compute the leafs
	var idx uint32

	if ctx.Threads == 1 {
		for idx = 0; idx < (1 << ctx.treeHeight); idx++ {
			lTreeAddr.setLTree(idx)
			otsAddr.setOTS(idx)
			ctx.genLeafInto(pad, ph, lTreeAddr, otsAddr, mt.Node(0, idx))
		}
	} else {
		// The code in this branch does exactly the same as in
		// the branch above, but then in parallel.
		wg := &sync.WaitGroup{}
		mux := &sync.Mutex{}
		var perBatch uint32 = 32
		threads := ctx.Threads
		if threads == 0 {
			threads = runtime.NumCPU()
		}
		wg.Add(threads)
		for i := 0; i < threads; i++ {
			go func(lTreeAddr, otsAddr address) {
				pad := ctx.newScratchPad()
				var ourIdx uint32
				for {
					mux.Lock()
					ourIdx = idx
					idx += perBatch
					mux.Unlock()
					if ourIdx >= 1<<ctx.treeHeight {
						break
					}
					ourEnd := ourIdx + perBatch
					if ourEnd > 1<<ctx.treeHeight {
						ourEnd = 1 << ctx.treeHeight
					}
					for ; ourIdx < ourEnd; ourIdx++ {
						lTreeAddr.setLTree(ourIdx)
						otsAddr.setOTS(ourIdx)
						ctx.genLeafInto(pad, ph,
							lTreeAddr, otsAddr,
							mt.Node(0, ourIdx))
					}
				}
				wg.Done()
			}(lTreeAddr, otsAddr)
		}

		wg.Wait() // wait for all workers to finish
	}

	// Next, compute the internal nodes and root
	var height uint32
	for height = 1; height <= ctx.treeHeight; height++ {
		nodeAddr.setTreeHeight(height - 1)
		for idx = 0; idx < (1 << (ctx.treeHeight - height)); idx++ {
			nodeAddr.setTreeIndex(idx)
			ctx.hInto(pad, mt.Node(height-1, 2*idx),
				mt.Node(height-1, 2*idx+1),
				ph, nodeAddr, mt.Node(height, idx))
		}
	}
}

// Computes the root of a subtree from a leaf hash and its authentication
// path.  offset is the index of the leaf in the subtree.  This is the same
// computation for the verifier checking a signature and for the signer
// checking a freshly built signature against its own root before releasing
// it.  out may alias leafHash.
func (ctx *Context) rootFromAuthPathInto(pad scratchPad, leafHash []byte,
	offset uint32, authPath []byte, ph precomputedHashes,
	sta SubTreeAddress, out []byte) {
	var nodeAddr address
	addr := sta.address()
	nodeAddr.setSubTreeFrom(addr)
	nodeAddr.setType(ADDR_TYPE_HASHTREE)

	copy(out, leafHash)
	var height uint32
	for height = 1; height <= ctx.treeHeight; height++ {
		var left, right []byte
		nodeAddr.setTreeHeight(height - 1)
		nodeAddr.setTreeIndex(offset >> 1)
		sibling := authPath[(height-1)*ctx.p.N : height*ctx.p.N]

		if offset&1 == 0 {
			// we're on the left, so the sibling hash from the
			// auth path is on the right
			left = out
			right = sibling
		} else {
			left = sibling
			right = out
		}

		ctx.hInto(pad, left, right, ph, nodeAddr, out)
		offset >>= 1
	}
}

// Computes the leaf node associated to a WOTS+ public key into out.
// Note that the WOTS+ public key is destroyed.
func (ctx *Context) lTreeInto(pad scratchPad, wotsPk []byte,
	ph precomputedHashes, addr address, out []byte) {
	var height uint32 = 0
	var l uint32 = ctx.wotsLen
	for l > 1 {
		addr.setTreeHeight(height)
		parentNodes := l >> 1
		var i uint32
		for i = 0; i < parentNodes; i++ {
			addr.setTreeIndex(i)
			ctx.hInto(pad, wotsPk[2*i*ctx.p.N:(2*i+1)*ctx.p.N],
				wotsPk[(2*i+1)*ctx.p.N:(2*i+2)*ctx.p.N],
				ph, addr,
				wotsPk[i*ctx.p.N:(i+1)*ctx.p.N])
		}
		if l&1 == 1 {
			copy(wotsPk[(l>>1)*ctx.p.N:((l>>1)+1)*ctx.p.N],
				wotsPk[(l-1)*ctx.p.N:l*ctx.p.N])
			l = (l >> 1) + 1
		} else {
			l = l >> 1
		}
		height++
	}
	copy(out, wotsPk[:ctx.p.N])
}

// Computes the leaf node associated to a WOTS+ public key.
// Note that the WOTS+ public key is destroyed.
func (ctx *Context) lTree(pad scratchPad, wotsPk []byte,
	ph precomputedHashes, addr address) []byte {
	ret := make([]byte, ctx.p.N)
	ctx.lTreeInto(pad, wotsPk, ph, addr, ret)
	return ret
}

// Generate the leaf at the given address by computing the WOTS+ key pair
// for it and feeding it through lTree.
func (ctx *Context) genLeafInto(pad scratchPad, ph precomputedHashes,
	lTreeAddr, otsAddr address, out []byte) {
	pk := pad.wotsBuf()
	ctx.wotsPkGenInto(pad, ph, otsAddr, pk)
	ctx.lTreeInto(pad, pk, ph, lTreeAddr, out)
}

// Derive the seed for the WOTS+ key pair at the given address
// from the secret key seed
func (ctx *Context) getWotsSeedInto(pad scratchPad, ph precomputedHashes,
	addr address, out []byte) {
	addr.setChain(0)
	addr.setHash(0)
	addr.setKeyAndMask(0)
	ph.prfSkSeed.prfAddrInto(pad, addr, out)
}
