package xmss

import (
	"bytes"
	"io/ioutil"
	"os"
	"sync"
	"testing"
)

func TestMerkleTree(t *testing.T) {
	var th uint32 = 3
	var h, i uint32
	mt := newMerkleTree(th, 2)
	for h = 0; h < th; h++ {
		for i = 0; i < 1<<(th-h-1); i++ {
			mt.Node(h, i)[0] = byte(h)
			mt.Node(h, i)[1] = byte(i)
		}
	}
	for h = 0; h < th; h++ {
		for i = 0; i < 1<<(th-h-1); i++ {
			if mt.Node(h, i)[0] != byte(h) ||
				mt.Node(h, i)[1] != byte(i) {
				t.Errorf("Node (%d,%d) has wrong value", h, i)
			}
		}
	}
}

// The container hands out windows of its cache file as merkle trees, so
// the tree must alias the buffer it was created from.
func TestMerkleTreeFromBuf(t *testing.T) {
	buf := make([]byte, ((1<<3)-1)*2)
	mt := merkleTreeFromBuf(buf, 3, 2)
	mt.Node(0, 0)[0] = 42
	mt.Root()[1] = 43
	if buf[0] != 42 || buf[len(buf)-1] != 43 {
		t.Errorf("merkleTreeFromBuf does not alias its buffer")
	}
}

func TestAuthPathOutOfRange(t *testing.T) {
	mt := newMerkleTree(4, 32)
	if _, err := mt.AuthPath(7); err != nil {
		t.Errorf("AuthPath(7): %v", err)
	}
	_, err := mt.AuthPath(8)
	if err == nil {
		t.Fatalf("AuthPath should reject a leaf outside of the tree")
	}
	if err.Code() != InvalidInput {
		t.Errorf("wrong error code for out of range leaf: %v", err.Code())
	}
}

// The root computed from any leaf and its authentication path must match
// the root of the tree the path was taken from, and must not match it
// anymore after the path is damaged.
func TestRootFromAuthPath(t *testing.T) {
	ctx, err := NewContext(Params{Func: SHA2, N: 32, FullHeight: 6, D: 2, WotsW: 16})
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	skSeed := make([]byte, ctx.p.N)
	pubSeed := make([]byte, ctx.p.N)
	for i := 0; i < int(ctx.p.N); i++ {
		skSeed[i] = byte(i)
		pubSeed[i] = byte(2 * i)
	}
	pad := ctx.newScratchPad()
	sta := SubTreeAddress{Layer: 1, Tree: 3}
	mt := ctx.genSubTree(pad, skSeed, pubSeed, sta)
	ph := ctx.precomputeHashes(pubSeed, skSeed)
	addr := sta.address()
	var otsAddr, lTreeAddr address
	otsAddr.setSubTreeFrom(addr)
	otsAddr.setType(ADDR_TYPE_OTS)
	lTreeAddr.setSubTreeFrom(addr)
	lTreeAddr.setType(ADDR_TYPE_LTREE)

	leafHash := make([]byte, ctx.p.N)
	root := make([]byte, ctx.p.N)
	var leaf uint32
	for leaf = 0; leaf < 1<<ctx.treeHeight; leaf++ {
		authPath, err := mt.AuthPath(leaf)
		if err != nil {
			t.Fatalf("AuthPath(%d): %v", leaf, err)
		}
		otsAddr.setOTS(leaf)
		lTreeAddr.setLTree(leaf)
		ctx.genLeafInto(pad, ph, lTreeAddr, otsAddr, leafHash)
		ctx.rootFromAuthPathInto(pad, leafHash, leaf, authPath, ph, sta, root)
		if !bytes.Equal(root, mt.Root()) {
			t.Errorf("leaf %d: root from auth path does not match tree root", leaf)
		}

		authPath[0] ^= 1
		ctx.rootFromAuthPathInto(pad, leafHash, leaf, authPath, ph, sta, root)
		if bytes.Equal(root, mt.Root()) {
			t.Errorf("leaf %d: root survived a damaged auth path", leaf)
		}
	}
}

func BenchmarkGenSubTree5SHA2_256(b *testing.B) {
	benchmarkGenSubTree(NewContextFromOid(true, 0x8), b)
}
func BenchmarkGenSubTree5SHA2_512(b *testing.B) {
	benchmarkGenSubTree(NewContextFromOid(true, 0x10), b)
}
func BenchmarkGenSubTree5SHAKE_256(b *testing.B) {
	benchmarkGenSubTree(NewContextFromOid(true, 0x18), b)
}
func BenchmarkGenSubTree5SHAKE_512(b *testing.B) {
	benchmarkGenSubTree(NewContextFromOid(true, 0x20), b)
}
func BenchmarkGenSubTree10SHA2_256(b *testing.B) {
	if testing.Short() {
		b.Skip("Skipping genSubTree 2^10")
	}
	benchmarkGenSubTree(NewContextFromOid(false, 0x1), b)
}
func BenchmarkGenSubTree16SHA2_256(b *testing.B) {
	if testing.Short() {
		b.Skip("Skipping genSubTree 2^16")
	}
	benchmarkGenSubTree(NewContextFromOid(false, 0x2), b)
}

func benchmarkGenSubTree(ctx *Context, b *testing.B) {
	skSeed := make([]byte, ctx.p.N)
	pubSeed := make([]byte, ctx.p.N)
	pad := ctx.newScratchPad()
	var sta SubTreeAddress
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ctx.genSubTree(pad, skSeed, pubSeed, sta)
	}
}

func BenchmarkGenLeafSHA2_256(b *testing.B) {
	benchmarkGenLeaf(NewContextFromOid(false, 1), b)
}
func BenchmarkGenLeafSHA2_512(b *testing.B) {
	benchmarkGenLeaf(NewContextFromOid(false, 4), b)
}
func BenchmarkGenLeafSHAKE_256(b *testing.B) {
	benchmarkGenLeaf(NewContextFromOid(false, 7), b)
}
func BenchmarkGenLeafSHAKE_512(b *testing.B) {
	benchmarkGenLeaf(NewContextFromOid(false, 10), b)
}

func benchmarkGenLeaf(ctx *Context, b *testing.B) {
	skSeed := make([]byte, ctx.p.N)
	pubSeed := make([]byte, ctx.p.N)
	out := make([]byte, ctx.p.N)
	var lTreeAddr, otsAddr address
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ctx.genLeafInto(ctx.newScratchPad(),
			ctx.precomputeHashes(pubSeed, skSeed), lTreeAddr, otsAddr, out)
	}
}

func TestSeqNoRetirement(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping TestSeqNoRetirement")
	}
	SetLogger(t)
	defer SetLogger(nil)
	dir, err := ioutil.TempDir("", "go-xmss-tests")
	if err != nil {
		t.Fatalf("TempDir: %v", err)
	}
	defer os.RemoveAll(dir)

	ctx := NewContextFromName("XMSSMT-SHA2_20/4_256")
	sk, _, err := ctx.GenerateKeyPair(dir + "/key")
	if err != nil {
		t.Fatalf("GenerateKeyPair(): %v", err)
	}
	if err = sk.BorrowExactly(4000); err != nil {
		t.Fatalf("BorrowExactly(): %v", err)
	}
	var wg sync.WaitGroup
	wg.Add(4)
	for w := 0; w < 4; w++ {
		go func() {
			for i := 0; i < 1000; i++ {
				sk.Sign([]byte("some message"))
			}
			wg.Done()
		}()
	}
	wg.Wait()

	if sk.SeqNo() != 4000 {
		t.Errorf("4000 signatures should advance the seqno to 4000, not %d",
			sk.SeqNo())
	}
	if sk.Borrowed() != 0 {
		t.Errorf("all borrowed seqnos should have been used")
	}

	cached, err := sk.CachedSubTrees()
	if err != nil {
		t.Fatalf("CachedSubTrees(): %v", err)
	}
	t.Logf("unretired=%d cachedSubTrees=%d", sk.UnretiredSeqNos(), len(cached))

	if err = sk.Close(); err != nil {
		t.Fatalf("sk.Close(): %v", err)
	}
}
