package xmss

import (
	"encoding/binary"
)

const (
	ADDR_TYPE_OTS      = 0
	ADDR_TYPE_LTREE    = 1
	ADDR_TYPE_HASHTREE = 2
)

// Address used in XMSS[MT] to diversify the hashes.  See eg prfAddrInto().
type address [8]uint32

// Represents the position of a subtree in the full XMSSMT hypertree.
type SubTreeAddress struct {
	// The layer of the subtree.  The leaf-subtrees have layer=0
	Layer uint32

	// The offset in the layer.  The leftmost subtrees have tree=0
	Tree uint64
}

// Converts to address
func (sta *SubTreeAddress) address() (addr address) {
	addr.setLayer(sta.Layer)
	addr.setTree(sta.Tree)
	return
}

// Serializes the subtree address.  Used as key in the subtree caches.
func (sta *SubTreeAddress) Bytes() []byte {
	ret := make([]byte, 12)
	binary.BigEndian.PutUint32(ret[:4], sta.Layer)
	binary.BigEndian.PutUint64(ret[4:], sta.Tree)
	return ret
}

func subTreeAddressFromBytes(buf []byte) (sta SubTreeAddress) {
	sta.Layer = binary.BigEndian.Uint32(buf[:4])
	sta.Tree = binary.BigEndian.Uint64(buf[4:12])
	return
}

// Returns the path of subtrees that contains the given sequence number:
// path[layer] is the subtree at that layer and leafs[layer] the index of
// the leaf in it on the way down to seqNo.
func (ctx *Context) subTreePathForSeqNo(seqNo SignatureSeqNo) (
	path []SubTreeAddress, leafs []uint32) {
	path = make([]SubTreeAddress, ctx.p.D)
	leafs = make([]uint32, ctx.p.D)
	for layer := uint32(0); layer < ctx.p.D; layer++ {
		path[layer] = SubTreeAddress{
			Layer: layer,
			Tree:  uint64(seqNo) >> ((layer + 1) * ctx.treeHeight),
		}
		leafs[layer] = uint32(uint64(seqNo)>>(layer*ctx.treeHeight)) &
			((1 << ctx.treeHeight) - 1)
	}
	return
}

// Position of a node in the bottom layer of the hypertree, with the index
// counted across all layer-0 subtrees.  Key of the co-path arenas handed
// to subkeys.
type nodeID struct {
	height uint32
	index  uint64
}

// The nodes a signature for the given absolute sequence number combines
// with on its way to the root of its layer-0 subtree.
func (ctx *Context) authNodeIDs(seqNo SignatureSeqNo) []nodeID {
	ids := make([]nodeID, ctx.treeHeight)
	idx := uint64(seqNo)
	for height := uint32(0); height < ctx.treeHeight; height++ {
		ids[height] = nodeID{height: height, index: idx ^ 1}
		idx >>= 1
	}
	return ids
}

func (addr *address) setLayer(layer uint32) {
	addr[0] = layer
}

func (addr *address) setTree(tree uint64) {
	addr[1] = uint32(tree >> 32)
	addr[2] = uint32(tree)
}

func (addr *address) setType(typ uint32) {
	addr[3] = typ
}

func (addr *address) setKeyAndMask(keyAndMask uint32) {
	addr[7] = keyAndMask
}

func (addr *address) setSubTreeFrom(other address) {
	addr[0] = other[0]
	addr[1] = other[1]
	addr[2] = other[2]
}

func (addr *address) setOTS(ots uint32) {
	addr[4] = ots
}

func (addr *address) setChain(chain uint32) {
	addr[5] = chain
}

func (addr *address) setHash(hash uint32) {
	addr[6] = hash
}

func (addr *address) setLTree(ltree uint32) {
	addr[4] = ltree
}

func (addr *address) setTreeHeight(treeHeight uint32) {
	addr[5] = treeHeight
}

func (addr *address) setTreeIndex(treeIndex uint32) {
	addr[6] = treeIndex
}

func (addr *address) writeInto(buf []byte) {
	for i := 0; i < 8; i++ {
		binary.BigEndian.PutUint32(buf[i*4:(i+1)*4], addr[i])
	}
}
