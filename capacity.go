package xmss

// Returns the number of signatures this private key could make when it
// was fresh: 2^FullHeight for a master key and the size of the reserved
// window for a subkey.
func (sk *PrivateKey) SignaturesTotal() uint64 {
	sk.mux.RLock()
	defer sk.mux.RUnlock()
	return uint64(sk.upperBound - sk.lowerBound)
}

// Returns the number of signatures this private key can still make.
// Sequence numbers handed to subkeys are not included.
func (sk *PrivateKey) SignaturesRemaining() uint64 {
	sk.mux.RLock()
	defer sk.mux.RUnlock()
	return uint64(sk.upperBound - sk.seqNo)
}

// Returns the sequence number the next signature will use.
func (sk *PrivateKey) SeqNo() SignatureSeqNo {
	sk.mux.RLock()
	defer sk.mux.RUnlock()
	return sk.seqNo
}

// Returns the number of sequence numbers that are borrowed from the
// container, but have not been used yet.  See BorrowExactly.
func (sk *PrivateKey) Borrowed() uint32 {
	sk.mux.RLock()
	defer sk.mux.RUnlock()
	return sk.borrowed
}

// Borrows the given number of sequence numbers from the container: the
// container watermark is moved amount sequence numbers ahead, so that the
// next amount calls to Sign() do not have to touch the container.  Useful
// before signing a large batch.  Unused borrowed sequence numbers are
// returned by Close(); if the key is not closed properly they count as
// lost.
func (sk *PrivateKey) BorrowExactly(amount uint32) Error {
	sk.mux.Lock()
	defer sk.mux.Unlock()

	if sk.isSubKey() {
		return errorf(InvalidInput, "subkeys cannot borrow sequence numbers")
	}
	remaining := uint64(sk.upperBound - sk.seqNo)
	if uint64(sk.borrowed)+uint64(amount) > remaining {
		return errorf(InsufficientCapacity,
			"%d borrowed plus %d requested exceeds the %d signatures left",
			sk.borrowed, amount, remaining)
	}
	if _, err := sk.ctr.BorrowSeqNos(amount); err != nil {
		return err
	}
	sk.borrowed += amount
	return nil
}

// Returns the number of signatures that can still be made before the
// active bottom subtree is exhausted and retired from the cache.
func (sk *PrivateKey) UnretiredSeqNos() uint64 {
	sk.mux.RLock()
	defer sk.mux.RUnlock()

	if sk.seqNo >= sk.upperBound {
		return 0
	}
	subTreeSize := uint64(1) << sk.ctx.treeHeight
	used := uint64(sk.seqNo) & (subTreeSize - 1)
	return subTreeSize - used
}

// Lists the subtrees the container currently caches.
func (sk *PrivateKey) CachedSubTrees() ([]SubTreeAddress, Error) {
	sk.mux.Lock()
	defer sk.mux.Unlock()

	if sk.isSubKey() {
		return nil, errorf(InvalidInput, "subkeys have no subtree cache")
	}
	return sk.ctr.ListSubTrees()
}
